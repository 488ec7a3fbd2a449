// File: server/options.go
// Package server defines functional options for the Server facade.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"io/fs"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-http/api"
)

// ServerOption customizes server initialization.
type ServerOption func(*Server)

// WithLogger replaces the default no-op logger.
func WithLogger(log zerolog.Logger) ServerOption {
	return func(s *Server) {
		s.log = log
	}
}

// WithStaticFS sets the filesystem static assets are resolved against.
func WithStaticFS(fsys fs.FS) ServerOption {
	return func(s *Server) {
		s.staticFS = fsys
	}
}

// WithRoutes registers the routes of each provider once every option is applied.
func WithRoutes(providers ...api.RouteProvider) ServerOption {
	return func(s *Server) {
		s.pending = append(s.pending, providers...)
	}
}

// WithControl substitutes the control plane, e.g. to share it between servers.
func WithControl(ctrl api.Control) ServerOption {
	return func(s *Server) {
		s.control = ctrl
	}
}
