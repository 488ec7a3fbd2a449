package server

import (
	"io/fs"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-http/adapters"
	"github.com/momentics/hioload-http/api"
	"github.com/momentics/hioload-http/internal/concurrency"
	"github.com/momentics/hioload-http/internal/routing"
	"github.com/momentics/hioload-http/internal/static"
	"github.com/momentics/hioload-http/internal/transport"
	"github.com/momentics/hioload-http/pool"
)

// Config holds all server-side configuration parameters.
type Config struct {
	ListenAddr         string        // TCP bind address, e.g. ":35000"
	PoolSize           int           // number of connection workers
	MaxBacklog         int           // accepted connections waiting for a worker (0 = unbounded)
	ReadTimeout        time.Duration // per-connection read deadline
	WriteTimeout       time.Duration // per-connection write deadline
	AcceptPollInterval time.Duration // upper bound of a single Accept call
	ShutdownTimeout    time.Duration // graceful shutdown timeout
	StatsInterval      time.Duration // occupancy report period (0 = off)
	MaxBodyBytes       int64         // largest accepted POST body
	StaticRoot         string        // directory inside the static FS served for GET misses
	HeaderIdleTimeout  time.Duration // wait for headers after a lone bodyless request line (0 = until ReadTimeout)
	ReusePort          bool          // SO_REUSEPORT on the listener
	DeferAccept        time.Duration // TCP_DEFER_ACCEPT window (0 = off)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:         ":35000",
		PoolSize:           50,
		MaxBacklog:         1024,
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       30 * time.Second,
		AcceptPollInterval: time.Second,
		ShutdownTimeout:    30 * time.Second,
		StatsInterval:      10 * time.Second,
		MaxBodyBytes:       10 << 20,
		StaticRoot:         "/",
		HeaderIdleTimeout:  500 * time.Millisecond,
	}
}

// Snapshot flattens the config for the control plane.
func (c *Config) Snapshot() map[string]any {
	return map[string]any{
		"listen_addr":          c.ListenAddr,
		"pool_size":            c.PoolSize,
		"max_backlog":          c.MaxBacklog,
		"read_timeout":         c.ReadTimeout.String(),
		"write_timeout":        c.WriteTimeout.String(),
		"accept_poll_interval": c.AcceptPollInterval.String(),
		"shutdown_timeout":     c.ShutdownTimeout.String(),
		"stats_interval":       c.StatsInterval.String(),
		"max_body_bytes":       c.MaxBodyBytes,
		"static_root":          c.StaticRoot,
		"header_idle_timeout":  c.HeaderIdleTimeout.String(),
		"reuse_port":           c.ReusePort,
		"defer_accept":         c.DeferAccept.String(),
	}
}

// Server is the context object owning the listener, route table, static
// resolver, worker pool and control plane. It holds no package-level state.
type Server struct {
	cfg     *Config
	log     zerolog.Logger
	control api.Control
	routes  *routing.Table
	pool    *adapters.ExecutorAdapter
	sched   *concurrency.Scheduler
	readers *pool.ReaderPool

	staticFS fs.FS
	pending  []api.RouteProvider
	mu       sync.RWMutex
	static   *static.Resolver
	ln       *transport.Listener

	running atomic.Bool
	nextID  atomic.Uint64

	connMu sync.Mutex
	conns  map[*conn]struct{}

	quit         chan struct{}
	done         chan struct{}
	shutdownOnce sync.Once
	shutdownErr  error
}
