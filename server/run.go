// File: server/run.go
// Package server implements the acceptor loop, admission into the worker pool,
// and periodic occupancy reporting for the hioload-http `/server` facade.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/momentics/hioload-http/api"
	"github.com/momentics/hioload-http/internal/concurrency"
	"github.com/momentics/hioload-http/internal/transport"
)

// Serve runs the acceptor loop on ln until ctx ends or Shutdown is called, then
// waits for shutdown to finish. It returns nil after a clean drain.
func (s *Server) Serve(ctx context.Context, ln *transport.Listener) error {
	select {
	case <-s.quit:
		_ = ln.Close()
		return ErrServerClosed
	default:
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	select {
	case <-s.quit:
		// Shutdown raced with startup and saw no listener.
		_ = ln.Close()
	default:
	}

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Int("workers", s.pool.NumWorkers()).
		Int("routes", s.routes.Len()).
		Str("static_root", s.resolver().Root()).
		Msg("server listening")

	go func() {
		select {
		case <-ctx.Done():
			_ = s.Shutdown(context.Background())
		case <-s.quit:
		}
	}()
	s.sched.Every(s.cfg.StatsInterval, s.reportOccupancy)

	s.acceptLoop(ln)
	<-s.done
	return s.shutdownErr
}

func (s *Server) acceptLoop(ln *transport.Listener) {
	for s.running.Load() {
		nc, err := ln.Accept()
		switch {
		case err == nil:
			s.admit(nc)
		case errors.Is(err, transport.ErrAcceptTimeout):
		case errors.Is(err, transport.ErrListenerClosed):
			return
		default:
			if !s.running.Load() {
				return
			}
			s.log.Warn().Err(err).Msg("accept failed")
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// admit hands an accepted connection to the pool, answering 503 when the
// backlog is full.
func (s *Server) admit(nc net.Conn) {
	c := newConn(s, nc)
	s.track(c)
	c.log.Debug().Msg("connection accepted")
	s.control.AddMetric("connections.accepted", 1)

	err := s.pool.Submit(c.serve)
	if err == nil {
		return
	}
	s.untrack(c)
	if errors.Is(err, concurrency.ErrBacklogFull) {
		s.control.AddMetric("connections.rejected", 1)
		c.log.Warn().Msg("backlog full, rejecting connection")
		go c.reject(serviceUnavailable())
		return
	}
	c.log.Debug().Err(err).Msg("pool closed, dropping connection")
	_ = nc.Close()
}

func (s *Server) reportOccupancy() {
	st := s.pool.Stats()
	s.log.Info().
		Int64("active", st["active"]).
		Int64("queued", st["queued"]).
		Int64("completed", st["completed_tasks"]).
		Int64("rejected", st["rejected_tasks"]).
		Int64("workers", st["num_workers"]).
		Msg("pool occupancy")
	for _, k := range []string{"active", "queued", "completed_tasks", "rejected_tasks"} {
		s.control.SetMetric("pool."+k, st[k])
	}
}

func serviceUnavailable() *api.Response {
	return coreResponse(503, `{"error": "Service Unavailable"}`)
}
