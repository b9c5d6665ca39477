package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	cws "github.com/coder/websocket"
	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/warpdl/warplock/common"
	"github.com/warpdl/warplock/pkg/logger"
)

// WebConfig configures the HTTP endpoint of the daemon.
type WebConfig struct {
	// Listen is the host to bind; empty means 127.0.0.1.
	Listen string
	// Port is the TCP port; zero picks a free one.
	Port int
	// Secret is the bearer token of the JSON-RPC endpoints. An empty
	// secret rejects every JSON-RPC request.
	Secret   string
	Service  LockService
	Notifier *RPCNotifier
	// Metrics serves /metrics when set.
	Metrics  http.Handler
	Observer RequestObserver
}

// WebServer serves JSON-RPC 2.0 over HTTP and WebSocket plus the metrics
// endpoint.
type WebServer struct {
	log     logger.Logger
	cfg     WebConfig
	methods handler.Map
	bridge  jhttp.Bridge

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

func NewWebServer(l logger.Logger, cfg WebConfig) *WebServer {
	if l == nil {
		l = logger.NewNopLogger()
	}
	if cfg.Listen == "" {
		cfg.Listen = "127.0.0.1"
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NewRPCNotifier(l)
	}
	if cfg.Observer == nil {
		cfg.Observer = nopRequestObserver{}
	}
	methods := newRPCMethods(cfg.Service, cfg.Observer)
	return &WebServer{
		log:     l,
		cfg:     cfg,
		methods: methods,
		bridge:  jhttp.NewBridge(methods, nil),
	}
}

// Handler returns the HTTP routes of the server.
func (s *WebServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})
	if s.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.cfg.Metrics)
	}
	r.Group(func(r chi.Router) {
		r.Use(bearerAuth(s.cfg.Secret))
		r.Method(http.MethodPost, "/jsonrpc", s.bridge)
		r.Get("/jsonrpc/ws", s.handleWebSocket)
	})
	return r
}

// handleWebSocket runs a jrpc2 server over one WebSocket connection and
// registers it for pushed notifications until the peer goes away.
func (s *WebServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := cws.Accept(w, r, nil)
	if err != nil {
		s.log.Warning("web: websocket accept: %v", err)
		return
	}
	conn.SetReadLimit(common.MaxMessageSize)
	ch := &wsChannel{conn: conn, ctx: r.Context()}
	srv := jrpc2.NewServer(s.methods, &jrpc2.ServerOptions{AllowPush: true})
	s.cfg.Notifier.Register(srv)
	defer s.cfg.Notifier.Unregister(srv)
	srv.Start(ch)
	if err := srv.Wait(); err != nil && common.DebugMode() {
		s.log.Info("web: websocket session ended: %v", err)
	}
}

// Start binds the configured address and serves until Shutdown.
func (s *WebServer) Start() error {
	l, err := net.Listen("tcp", net.JoinHostPort(s.cfg.Listen, fmt.Sprint(s.cfg.Port)))
	if err != nil {
		return fmt.Errorf("web: listen: %w", err)
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logger.ToStdLogger(s.log, "web: "),
	}
	s.mu.Lock()
	s.server = srv
	s.listener = l
	s.mu.Unlock()
	s.log.Info("web: serving json-rpc on http://%s/jsonrpc", l.Addr())

	err = srv.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Addr returns the bound address, or nil before Start.
func (s *WebServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown gracefully stops the web server.
func (s *WebServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	err := srv.Shutdown(ctx)
	s.bridge.Close()
	return err
}
