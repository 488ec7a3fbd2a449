// File: adapters/handler_adapter.go
// Package adapters
// Author: momentics <momentics@gmail.com>
//
// Route handler middleware chain.

package adapters

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-http/api"
)

// Middleware wraps a route handler.
type Middleware func(api.HandlerFunc) api.HandlerFunc

// Chain applies middleware so that the first one listed runs outermost.
func Chain(h api.HandlerFunc, mws ...Middleware) api.HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// LoggingMiddleware logs each handler invocation at debug level.
func LoggingMiddleware(log zerolog.Logger, method, path string) Middleware {
	return func(next api.HandlerFunc) api.HandlerFunc {
		return func(req *api.Request, tmpl *api.Response) *api.Response {
			start := time.Now()
			resp := next(req, tmpl)
			ev := log.Debug().Str("method", method).Str("path", path).Dur("elapsed", time.Since(start))
			if resp != nil {
				ev = ev.Int("status", resp.Status())
			}
			ev.Msg("handler done")
			return resp
		}
	}
}

// MetricsMiddleware counts invocations under "handler.<method> <path>".
func MetricsMiddleware(ctrl api.Control, method, path string) Middleware {
	key := "handler." + method + " " + path
	return func(next api.HandlerFunc) api.HandlerFunc {
		return func(req *api.Request, tmpl *api.Response) *api.Response {
			ctrl.AddMetric(key, 1)
			return next(req, tmpl)
		}
	}
}
