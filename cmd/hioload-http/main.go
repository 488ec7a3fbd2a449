// File: cmd/hioload-http/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// hioload-http server binary: loads configuration, wires the sample
// application and serves until SIGINT/SIGTERM.

package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/momentics/hioload-http/adapters"
	"github.com/momentics/hioload-http/internal/app"
	"github.com/momentics/hioload-http/internal/config"
	"github.com/momentics/hioload-http/internal/logging"
	"github.com/momentics/hioload-http/internal/users"
	"github.com/momentics/hioload-http/server"
)

func main() {
	var (
		cfgPath  = flag.String("config", "", "YAML configuration file")
		host     = flag.String("host", "", "listen host (default: all interfaces)")
		port     = flag.Int("port", -1, "listen port (default: 35000)")
		static   = flag.String("static", "", "directory with static assets (default: bundled assets)")
		root     = flag.String("root", "", "static root inside the asset directory (default: /)")
		logLevel = flag.String("log-level", "", "log level: debug, info, warn, error")
		help     = flag.Bool("help", false, "show help")
	)
	flag.Parse()

	if *help {
		fmt.Println("hioload-http")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  hioload-http [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port >= 0 {
		cfg.Server.Port = *port
	}
	if *static != "" {
		cfg.Static.Dir = *static
	}
	if *root != "" {
		cfg.Static.Root = *root
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	var assets fs.FS = app.Assets()
	if cfg.Static.Dir != "" {
		assets = os.DirFS(cfg.Static.Dir)
	}

	store := users.NewStore(0)
	store.Seed()
	log.Info().Int("users", store.Len()).Msg("initial data loaded")

	ctrl := adapters.NewControlAdapter()
	srv, err := server.New(cfg.ServerConfig(),
		server.WithLogger(log),
		server.WithControl(ctrl),
		server.WithStaticFS(assets),
		server.WithRoutes(app.Providers(store, ctrl)...),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("create server")
	}
	_ = ctrl.SetConfig(map[string]any{
		"static_dir":  cfg.Static.Dir,
		"log_level":   cfg.Logging.Level,
		"config_file": *cfgPath,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx); err != nil {
		log.Error().Err(err).Str("addr", cfg.ServerAddress()).Msg("server failed")
		_ = srv.Shutdown(context.Background())
		stop()
		os.Exit(1)
	}
	log.Info().Msg("bye")
}
