//go:build !windows

package server

import (
	"fmt"
	"net"
	"os"

	"github.com/warpdl/warplock/common"
)

// createListener creates a Unix socket listener with TCP fallback.
// Transport priority: Unix socket > TCP
func (s *Server) createListener() (net.Listener, error) {
	if common.ForceTCP() {
		s.log.Info("server: force TCP mode enabled")
		return s.listenTCP()
	}
	socketPath := common.SocketPath()
	_ = os.Remove(socketPath)
	l, err := net.ListenUnix("unix", &net.UnixAddr{
		Name: socketPath,
		Net:  "unix",
	})
	if err != nil {
		s.log.Warning("server: unix socket %s unavailable: %v; trying tcp", socketPath, err)
		return s.listenTCP()
	}
	// only the daemon's user may connect
	if err := os.Chmod(socketPath, 0o700); err != nil {
		s.log.Warning("server: restricting %s: %v", socketPath, err)
	}
	s.mu.Lock()
	s.unix = true
	s.mu.Unlock()
	return l, nil
}

func (s *Server) listenTCP() (net.Listener, error) {
	l, err := net.Listen("tcp", common.TCPAddress(s.port))
	if err != nil {
		return nil, fmt.Errorf("error listening: %w", err)
	}
	return l, nil
}

// cleanupSocket removes the socket file left by createListener.
func cleanupSocket() error {
	if err := os.Remove(common.SocketPath()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
