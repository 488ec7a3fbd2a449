// File: internal/config/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Process configuration: defaults, optional YAML file, environment overrides,
// then struct-tag validation.

package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/momentics/hioload-http/server"
)

// Config holds the effective process configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Static  StaticConfig  `yaml:"static"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig is the listener and worker pool section.
type ServerConfig struct {
	Host               string        `yaml:"host" validate:"omitempty,hostname|ip"`
	Port               int           `yaml:"port" validate:"min=0,max=65535"`
	PoolSize           int           `yaml:"pool_size" validate:"min=1,max=10000"`
	MaxBacklog         int           `yaml:"max_backlog" validate:"min=0"`
	ReadTimeout        time.Duration `yaml:"read_timeout" validate:"min=0"`
	WriteTimeout       time.Duration `yaml:"write_timeout" validate:"min=0"`
	AcceptPollInterval time.Duration `yaml:"accept_poll_interval" validate:"gt=0"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout" validate:"min=0"`
	StatsInterval      time.Duration `yaml:"stats_interval" validate:"min=0"`
	MaxBodyBytes       int64         `yaml:"max_body_bytes" validate:"min=0"`
	HeaderIdleTimeout  time.Duration `yaml:"header_idle_timeout" validate:"min=0"`
	ReusePort          bool          `yaml:"reuse_port"`
	DeferAccept        time.Duration `yaml:"defer_accept" validate:"min=0"`
}

// StaticConfig selects where static assets come from. An empty Dir means the
// assets bundled into the binary.
type StaticConfig struct {
	Dir  string `yaml:"dir"`
	Root string `yaml:"root"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// Environment variables consulted by Load.
const (
	EnvHost       = "HIOLOAD_HOST"
	EnvPort       = "HIOLOAD_PORT"
	EnvPoolSize   = "HIOLOAD_POOL_SIZE"
	EnvStaticDir  = "HIOLOAD_STATIC_DIR"
	EnvStaticRoot = "HIOLOAD_STATIC_ROOT"
	EnvLogLevel   = "HIOLOAD_LOG_LEVEL"
)

// Default returns the built-in configuration.
func Default() *Config {
	d := server.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Host:               "",
			Port:               35000,
			PoolSize:           d.PoolSize,
			MaxBacklog:         d.MaxBacklog,
			ReadTimeout:        d.ReadTimeout,
			WriteTimeout:       d.WriteTimeout,
			AcceptPollInterval: d.AcceptPollInterval,
			ShutdownTimeout:    d.ShutdownTimeout,
			StatsInterval:      d.StatsInterval,
			MaxBodyBytes:       d.MaxBodyBytes,
			HeaderIdleTimeout:  d.HeaderIdleTimeout,
			ReusePort:          d.ReusePort,
			DeferAccept:        d.DeferAccept,
		},
		Static: StaticConfig{
			Root: d.StaticRoot,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (skipped
// when path is empty), then environment overrides, then validation.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvHost); ok {
		c.Server.Host = v
	}
	if v, ok := lookup(EnvPort); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Server.Port = n
	}
	if v, ok := lookup(EnvPoolSize); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPoolSize, err)
		}
		c.Server.PoolSize = n
	}
	if v, ok := lookup(EnvStaticDir); ok {
		c.Static.Dir = v
	}
	if v, ok := lookup(EnvStaticRoot); ok {
		c.Static.Root = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.Logging.Level = v
	}
	return nil
}

var validate = validator.New()

// Validate checks every field against its struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("invalid config: %s fails %q (value %v)", f.Namespace(), f.Tag(), f.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ServerAddress returns the listen address.
func (c *Config) ServerAddress() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// ServerConfig converts to the server package configuration.
func (c *Config) ServerConfig() *server.Config {
	return &server.Config{
		ListenAddr:         c.ServerAddress(),
		PoolSize:           c.Server.PoolSize,
		MaxBacklog:         c.Server.MaxBacklog,
		ReadTimeout:        c.Server.ReadTimeout,
		WriteTimeout:       c.Server.WriteTimeout,
		AcceptPollInterval: c.Server.AcceptPollInterval,
		ShutdownTimeout:    c.Server.ShutdownTimeout,
		StatsInterval:      c.Server.StatsInterval,
		MaxBodyBytes:       c.Server.MaxBodyBytes,
		StaticRoot:         c.Static.Root,
		HeaderIdleTimeout:  c.Server.HeaderIdleTimeout,
		ReusePort:          c.Server.ReusePort,
		DeferAccept:        c.Server.DeferAccept,
	}
}
