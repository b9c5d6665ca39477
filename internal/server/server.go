// Package server implements the daemon side of the local socket protocol
// and the optional JSON-RPC web endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/warpdl/warplock/common"
	"github.com/warpdl/warplock/pkg/logger"
	"golang.org/x/net/netutil"
)

// Options configures a Server.
type Options struct {
	// Port is the TCP fallback port used when the platform socket cannot
	// be created.
	Port int
	// MaxConnections caps concurrent client connections; zero means no cap.
	MaxConnections int
	Observer       RequestObserver
}

// Server manages connections from CLI clients over a Unix socket or a
// Windows named pipe. It dispatches incoming requests to registered
// handlers.
type Server struct {
	log      logger.Logger
	pool     *Pool
	handler  map[common.UpdateType]HandlerFunc
	port     int
	maxConns int
	obs      RequestObserver

	mu       sync.Mutex
	listener net.Listener
	conns    map[*SyncConn]struct{}
	wg       sync.WaitGroup
	unix     bool
}

// NewServer creates a Server that registers connections in pool.
func NewServer(l logger.Logger, pool *Pool, opts Options) *Server {
	if l == nil {
		l = logger.NewNopLogger()
	}
	if opts.Port == 0 {
		opts.Port = common.TCPPort()
	}
	if opts.Observer == nil {
		opts.Observer = nopRequestObserver{}
	}
	return &Server{
		log:      l,
		pool:     pool,
		handler:  make(map[common.UpdateType]HandlerFunc),
		port:     opts.Port,
		maxConns: opts.MaxConnections,
		obs:      opts.Observer,
		conns:    make(map[*SyncConn]struct{}),
	}
}

// RegisterHandler associates a handler function with a request method.
func (s *Server) RegisterHandler(method common.UpdateType, handler HandlerFunc) {
	s.handler[method] = handler
}

// Pool returns the connection pool of the server.
func (s *Server) Pool() *Pool {
	return s.pool
}

// Start creates the platform listener and serves it until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	l, err := s.createListener()
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve accepts connections on l until ctx is done or Shutdown is called.
// Each connection is handled in its own goroutine.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	if s.maxConns > 0 {
		l = netutil.LimitListener(l, s.maxConns)
	}
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
	s.log.Info("server: listening on %s %s", l.Addr().Network(), l.Addr().String())

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Shutdown()
		case <-stop:
		}
	}()

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Error("server: accept: %v", err)
			continue
		}
		sconn := NewSyncConn(conn)
		s.mu.Lock()
		if s.listener == nil {
			s.mu.Unlock()
			_ = conn.Close()
			return nil
		}
		s.conns[sconn] = struct{}{}
		s.wg.Add(1)
		s.mu.Unlock()
		go s.handleConnection(sconn)
	}
}

// Addr returns the address the server listens on, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown closes the listener and every open connection and removes the
// socket file. It waits for connection handlers to return.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	if s.listener != nil {
		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.log.Warning("server: closing listener: %v", err)
		}
		s.listener = nil
	}
	for c := range s.conns {
		_ = c.Close()
	}
	unix := s.unix
	s.mu.Unlock()
	s.wg.Wait()

	if unix {
		if err := cleanupSocket(); err != nil {
			s.log.Warning("server: removing socket file: %v", err)
			return err
		}
	}
	return nil
}

func (s *Server) handleConnection(sconn *SyncConn) {
	defer s.wg.Done()
	defer func() {
		s.pool.Remove(sconn)
		s.mu.Lock()
		delete(s.conns, sconn)
		s.mu.Unlock()
		_ = sconn.Close()
	}()
	for {
		buf, err := sconn.Read()
		if err != nil {
			if err != io.EOF && !errors.Is(err, net.ErrClosed) {
				s.log.Warning("server: reading from %s: %v", sconn.ID, err)
			}
			return
		}
		if err := s.handlerWrapper(sconn, buf); err != nil {
			s.log.Warning("server: %v", err)
			return
		}
	}
}

func (s *Server) handlerWrapper(sconn *SyncConn, b []byte) error {
	req, err := ParseRequest(b)
	if err != nil {
		// a malformed request gets an error reply and the connection stays open
		if werr := sconn.Write(CreateError("invalid request: " + err.Error())); werr != nil {
			return fmt.Errorf("error writing response: %w", werr)
		}
		return nil
	}
	rHandler, ok := s.handler[req.Method]
	if !ok {
		if err := sconn.Write(CreateError("unknown method: " + string(req.Method))); err != nil {
			return fmt.Errorf("error writing response: %w", err)
		}
		return nil
	}
	s.obs.RequestHandled(string(req.Method), "socket")
	utype, msg, err := safeCall(rHandler, sconn, s.pool, req.Message)
	if err != nil {
		if common.DebugMode() {
			s.log.Info("server: %s failed: %v", req.Method, err)
		}
		if err := sconn.Write(InitError(err)); err != nil {
			return fmt.Errorf("error writing response: %w", err)
		}
		return nil
	}
	if err := sconn.Write(MakeResult(utype, msg)); err != nil {
		return fmt.Errorf("error writing response: %w", err)
	}
	return nil
}

// safeCall runs h and converts a panic into an error reply.
func safeCall(h HandlerFunc, conn *SyncConn, pool *Pool, body json.RawMessage) (utype common.UpdateType, msg any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()
	return h(conn, pool, body)
}
