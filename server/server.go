package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-http/adapters"
	"github.com/momentics/hioload-http/api"
	"github.com/momentics/hioload-http/internal/concurrency"
	"github.com/momentics/hioload-http/internal/routing"
	"github.com/momentics/hioload-http/internal/static"
	"github.com/momentics/hioload-http/internal/transport"
	"github.com/momentics/hioload-http/pool"
)

var (
	ErrAlreadyRunning  = errors.New("server already running")
	ErrServerClosed    = errors.New("server closed")
	ErrShutdownTimeout = errors.New("shutdown grace period expired")
)

// New builds the Server. A nil cfg means DefaultConfig.
func New(cfg *Config, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Server{
		cfg:     cfg,
		log:     zerolog.Nop(),
		routes:  routing.NewTable(routing.DefaultShards),
		sched:   concurrency.NewScheduler(),
		readers: pool.NewReaderPool(pool.DefaultReaderSize),
		conns:   make(map[*conn]struct{}),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	if s.control == nil {
		s.control = adapters.NewControlAdapter()
	}
	if s.staticFS == nil {
		s.staticFS = os.DirFS(".")
	}
	s.static = static.NewResolver(s.staticFS, cfg.StaticRoot)

	workers, err := adapters.NewExecutorAdapter(cfg.PoolSize, cfg.MaxBacklog, func(v any) {
		s.log.Error().Interface("panic", v).Msg("worker recovered from panic")
	})
	if err != nil {
		return nil, fmt.Errorf("worker pool: %w", err)
	}
	s.pool = workers

	_ = s.control.SetConfig(cfg.Snapshot())
	s.control.RegisterDebugProbe("pool", func() any { return s.pool.Stats() })
	s.control.RegisterDebugProbe("routes", func() any { return s.routes.Len() })

	s.Register(s.pending...)
	s.pending = nil
	return s, nil
}

// Handle registers h for an exact (method, path) pair. Re-registering replaces.
func (s *Server) Handle(method, path string, h api.HandlerFunc) {
	wrapped := adapters.Chain(h,
		adapters.MetricsMiddleware(s.control, method, path),
		adapters.LoggingMiddleware(s.log, method, path),
	)
	if s.routes.RegisterFunc(method, path, wrapped) {
		s.log.Debug().Str("method", method).Str("path", path).Msg("route replaced")
		return
	}
	s.log.Debug().Str("method", method).Str("path", path).Msg("route registered")
}

// HandleGet registers a GET route.
func (s *Server) HandleGet(path string, h api.HandlerFunc) {
	s.Handle(api.MethodGet, path, h)
}

// HandlePost registers a POST route.
func (s *Server) HandlePost(path string, h api.HandlerFunc) {
	s.Handle(api.MethodPost, path, h)
}

// Register scans each provider once and registers its routes.
func (s *Server) Register(providers ...api.RouteProvider) {
	for _, p := range providers {
		for _, r := range p.Routes() {
			s.Handle(r.Method(), r.Path(), r.Serve)
		}
	}
}

// SetStaticRoot replaces the directory static assets are served from.
// It must be called before Serve.
func (s *Server) SetStaticRoot(dir string) error {
	if s.running.Load() {
		return ErrAlreadyRunning
	}
	s.mu.Lock()
	s.static = static.NewResolver(s.staticFS, dir)
	s.mu.Unlock()
	_ = s.control.SetConfig(map[string]any{"static_root": static.NormalizeRoot(dir)})
	return nil
}

func (s *Server) resolver() *static.Resolver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.static
}

// ListenAndServe binds cfg.ListenAddr and serves until ctx ends or Shutdown is called.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := transport.Listen(ctx, s.cfg.ListenAddr, s.cfg.AcceptPollInterval,
		transport.WithReusePort(s.cfg.ReusePort),
		transport.WithDeferAccept(s.cfg.DeferAccept),
	)
	if err != nil {
		return fmt.Errorf("bind: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Addr returns the bound address, nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Running reports whether the acceptor loop is active.
func (s *Server) Running() bool {
	return s.running.Load()
}

// Shutdown stops accepting, drains queued and in-flight connections, and
// force-closes whatever is left once cfg.ShutdownTimeout or ctx expires.
// Idempotent; later calls wait for the first and return its result.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		defer close(s.done)
		close(s.quit)
		s.running.Store(false)

		s.mu.RLock()
		ln := s.ln
		s.mu.RUnlock()
		if ln != nil {
			_ = ln.Close()
		}
		s.sched.Stop()

		waitCtx := ctx
		if s.cfg.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			waitCtx, cancel = context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
			defer cancel()
		}
		if err := s.pool.Shutdown(waitCtx); err != nil {
			n := s.closeConns()
			s.log.Warn().Int("connections", n).Msg("shutdown grace period expired, connections force closed")
			s.shutdownErr = fmt.Errorf("%w: %d connections force closed", ErrShutdownTimeout, n)
			return
		}
		s.log.Info().Msg("server stopped")
	})
	<-s.done
	return s.shutdownErr
}

// GetControl exposes runtime metrics and debug control.
func (s *Server) GetControl() api.Control {
	return s.control
}

// Stats returns worker pool occupancy.
func (s *Server) Stats() map[string]int64 {
	return s.pool.Stats()
}

func (s *Server) track(c *conn) {
	s.connMu.Lock()
	s.conns[c] = struct{}{}
	s.connMu.Unlock()
}

func (s *Server) untrack(c *conn) {
	s.connMu.Lock()
	delete(s.conns, c)
	s.connMu.Unlock()
}

// closeConns closes every tracked socket, unblocking workers stuck in I/O.
func (s *Server) closeConns() int {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	for c := range s.conns {
		_ = c.nc.Close()
	}
	return len(s.conns)
}
