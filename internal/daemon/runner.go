// Package daemon assembles the warplock daemon from its configuration and
// runs it until its context is cancelled.
package daemon

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/warpdl/warplock/internal/api"
	"github.com/warpdl/warplock/internal/config"
	"github.com/warpdl/warplock/internal/engine"
	"github.com/warpdl/warplock/internal/lockscreen"
	"github.com/warpdl/warplock/internal/metrics"
	"github.com/warpdl/warplock/internal/secret"
	"github.com/warpdl/warplock/internal/server"
	"github.com/warpdl/warplock/internal/store"
	"github.com/warpdl/warplock/pkg/logger"
)

var (
	// ErrAlreadyRunning is returned by Start on a running daemon.
	ErrAlreadyRunning = errors.New("daemon is already running")

	// ErrNotRunning is returned by Shutdown when Start has not been called.
	ErrNotRunning = errors.New("daemon is not running")

	// ErrShutdownTimeout is returned when components do not stop in time.
	ErrShutdownTimeout = errors.New("shutdown timed out")

	// ErrStopped is returned by Start on a runner that already ran. A
	// Runner cannot be restarted.
	ErrStopped = errors.New("daemon runner already stopped")
)

const defaultShutdownTimeout = 5 * time.Second

// BuildInfo identifies the daemon binary.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildType string
}

// Dependencies replaces platform facilities, mostly for tests. Every field
// is optional.
type Dependencies struct {
	// Listener serves the socket protocol instead of the platform socket.
	Listener net.Listener
	Invoker  lockscreen.Invoker
	Clock    clock.Clock
	// Secrets is consulted when the configuration carries no RPC secret.
	Secrets  secret.Store
	Registry *prometheus.Registry
}

// Runner owns the components of a running daemon.
type Runner struct {
	cfg   *config.Config
	build BuildInfo
	deps  Dependencies
	log   logger.Logger

	ShutdownTimeout time.Duration

	mu      sync.Mutex
	running bool
	started bool
	cancel  context.CancelFunc
	ready   chan struct{}
	done    chan struct{}
	serv    *server.Server
	web     *server.WebServer
	engine  *engine.Engine
}

// New creates a runner. deps may be nil.
func New(l logger.Logger, cfg *config.Config, build BuildInfo, deps *Dependencies) *Runner {
	if l == nil {
		l = logger.NewNopLogger()
	}
	r := &Runner{
		cfg:             cfg,
		build:           build,
		log:             l,
		ShutdownTimeout: defaultShutdownTimeout,
		ready:           make(chan struct{}),
		done:            make(chan struct{}),
	}
	if deps != nil {
		r.deps = *deps
	}
	if r.deps.Invoker == nil {
		r.deps.Invoker = lockscreen.New(cfg.Lock.Command)
	}
	if r.deps.Secrets == nil {
		r.deps.Secrets = secret.Default(cfg.Dir)
	}
	if r.deps.Registry == nil {
		r.deps.Registry = prometheus.NewRegistry()
	}
	return r
}

// Ready is closed once the socket server and the web endpoint are set up.
func (r *Runner) Ready() <-chan struct{} {
	return r.ready
}

// Start builds every component, restores persisted schedules and serves
// requests until ctx is cancelled or Shutdown is called.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	if r.started {
		r.mu.Unlock()
		return ErrStopped
	}
	r.running, r.started = true, true
	ctx, r.cancel = context.WithCancel(ctx)
	r.mu.Unlock()
	defer close(r.done)
	defer r.setStopped()

	st, durable := store.Open(store.Config{
		Backend: r.cfg.Store.Backend,
		Dir:     r.cfg.Dir,
		Path:    r.cfg.Store.Path,
	}, r.log)
	if !durable {
		r.log.Warning("daemon: schedules will not survive a restart (store %s)", st.Name())
	}

	mc := metrics.New()
	pool := server.NewPool(r.log)
	rpcNotifier := server.NewRPCNotifier(r.log)
	notifier := api.NewNotifier(pool, rpcNotifier, r.log)

	eng := engine.New(engine.Options{
		Clock:          r.deps.Clock,
		Store:          st,
		Invoker:        r.deps.Invoker,
		Notifier:       notifier,
		Observer:       mc,
		Log:            r.log,
		PollInterval:   r.cfg.Engine.PollInterval,
		LockTimeout:    r.cfg.Engine.LockTimeout,
		NotifyOnCancel: r.cfg.Engine.NotifyOnCancel,
		RearmDaily:     r.cfg.Engine.RearmDaily,
	})
	s := api.NewApi(api.Options{
		Log:       r.log,
		Engine:    eng,
		Store:     st,
		Durable:   durable,
		Version:   r.build.Version,
		Commit:    r.build.Commit,
		BuildType: r.build.BuildType,
	})
	defer func() {
		if err := s.Close(); err != nil {
			r.log.Warning("daemon: closing store: %v", err)
		}
	}()

	serv := server.NewServer(r.log, pool, server.Options{
		MaxConnections: r.cfg.Server.MaxConnections,
		Observer:       mc,
	})
	s.RegisterHandlers(serv)

	if err := mc.Register(r.deps.Registry,
		metrics.ActiveTimers(eng.Count),
		metrics.ConnectedClients(func() int { return pool.Count() + rpcNotifier.Count() }),
	); err != nil {
		r.log.Warning("daemon: registering metrics: %v", err)
	}

	r.mu.Lock()
	r.serv = serv
	r.engine = eng
	r.mu.Unlock()

	if r.cfg.Engine.RestoreOnStart {
		n, err := eng.Restore(r.cfg.Engine.RestoreRequester)
		if err != nil {
			r.log.Error("daemon: restoring schedules: %v", err)
		} else if n > 0 {
			r.log.Info("daemon: restored %d schedule(s) for %s", n, r.cfg.Engine.RestoreRequester)
		}
	}

	if web := r.newWeb(s, rpcNotifier, mc); web != nil {
		r.mu.Lock()
		r.web = web
		r.mu.Unlock()
		go func() {
			if err := web.Start(); err != nil {
				r.log.Error("daemon: json-rpc endpoint stopped: %v", err)
			}
		}()
	}
	errCh := make(chan error, 1)
	go func() {
		var err error
		if r.deps.Listener != nil {
			err = serv.Serve(ctx, r.deps.Listener)
		} else {
			err = serv.Start(ctx)
		}
		errCh <- err
	}()
	close(r.ready)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		if runErr != nil {
			r.log.Error("daemon: %v", runErr)
		}
	}
	r.cancel()
	if err := r.stopComponents(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func (r *Runner) newWeb(svc server.LockService, n *server.RPCNotifier, mc *metrics.Collectors) *server.WebServer {
	if r.cfg.RPC.Port == 0 {
		return nil
	}
	token := r.cfg.RPC.Secret
	if token == "" {
		var err error
		token, err = r.deps.Secrets.Get()
		if err != nil {
			r.log.Warning("daemon: json-rpc disabled, no secret available (run 'warplock rpc-secret'): %v", err)
			return nil
		}
	}
	return server.NewWebServer(r.log, server.WebConfig{
		Listen:   r.cfg.RPC.Listen,
		Port:     r.cfg.RPC.Port,
		Secret:   token,
		Service:  svc,
		Notifier: n,
		Metrics:  metrics.Handler(r.deps.Registry),
		Observer: mc,
	})
}

func (r *Runner) stopComponents() error {
	r.mu.Lock()
	serv, web := r.serv, r.web
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), r.ShutdownTimeout)
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		if web != nil {
			if err := web.Shutdown(ctx); err != nil {
				r.log.Warning("daemon: stopping web server: %v", err)
			}
		}
		if serv != nil {
			_ = serv.Shutdown()
		}
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ErrShutdownTimeout
	}
}

func (r *Runner) setStopped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
}

// Shutdown stops a running daemon and waits for Start to return.
func (r *Runner) Shutdown() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return ErrNotRunning
	}
	cancel := r.cancel
	r.mu.Unlock()
	cancel()
	select {
	case <-r.done:
		return nil
	case <-time.After(r.ShutdownTimeout + time.Second):
		return ErrShutdownTimeout
	}
}

// IsRunning reports whether Start is serving.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Addr returns the socket server address, or nil until it listens.
func (r *Runner) Addr() net.Addr {
	r.mu.Lock()
	serv := r.serv
	r.mu.Unlock()
	if serv == nil {
		return nil
	}
	return serv.Addr()
}

// WebAddr returns the JSON-RPC endpoint address, or nil when it is
// disabled or not yet bound.
func (r *Runner) WebAddr() net.Addr {
	r.mu.Lock()
	web := r.web
	r.mu.Unlock()
	if web == nil {
		return nil
	}
	return web.Addr()
}
