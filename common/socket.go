package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// DefaultDialTimeout bounds a single connection attempt to the daemon.
const DefaultDialTimeout = 2 * time.Second

// SocketName is the file name of the Unix socket in the temp directory.
const SocketName = "warplock.sock"

// SocketPath returns the Unix socket path of the daemon.
func SocketPath() string {
	if path := os.Getenv(SocketPathEnv); path != "" {
		return path
	}
	return filepath.Join(os.TempDir(), SocketName)
}

// TCPPort returns the TCP fallback port from the environment, or
// DefaultTCPPort when unset or out of range.
func TCPPort() int {
	if port := os.Getenv(TCPPortEnv); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p >= 1 && p <= 65535 {
			return p
		}
	}
	return DefaultTCPPort
}

// TCPAddress returns the loopback address of the TCP fallback transport.
func TCPAddress(port int) string {
	return fmt.Sprintf("%s:%d", TCPHost, port)
}

// ForceTCP reports whether WARPLOCK_FORCE_TCP=1.
func ForceTCP() bool {
	return os.Getenv(ForceTCPEnv) == "1"
}

// DebugMode reports whether WARPLOCK_DEBUG=1.
func DebugMode() bool {
	return os.Getenv(DebugEnv) == "1"
}
