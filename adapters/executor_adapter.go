// File: adapters/executor_adapter.go
// Package adapters provides glue between internal concurrency and api.Executor.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ExecutorAdapter implements the api.Executor interface by delegating to the internal
// concurrency.Executor, and adds the lifecycle calls the server needs.

package adapters

import (
	"context"

	"github.com/momentics/hioload-http/api"
	"github.com/momentics/hioload-http/internal/concurrency"
)

// ExecutorAdapter wraps an internal concurrency.Executor to satisfy the api.Executor contract.
type ExecutorAdapter struct {
	exec *concurrency.Executor
}

var _ api.Executor = (*ExecutorAdapter)(nil)

// NewExecutorAdapter constructs a pool of exactly workers goroutines with a
// backlog capped at maxBacklog (0 = unbounded).
func NewExecutorAdapter(workers, maxBacklog int, onPanic func(any)) (*ExecutorAdapter, error) {
	var opts []concurrency.Option
	if onPanic != nil {
		opts = append(opts, concurrency.WithPanicHandler(onPanic))
	}
	e, err := concurrency.NewExecutor(workers, maxBacklog, opts...)
	if err != nil {
		return nil, err
	}
	return &ExecutorAdapter{exec: e}, nil
}

// Submit dispatches a task function to be executed asynchronously.
// Returns concurrency.ErrBacklogFull or concurrency.ErrExecutorClosed on rejection.
func (ea *ExecutorAdapter) Submit(task func()) error {
	return ea.exec.Submit(task)
}

// NumWorkers returns the fixed number of worker goroutines.
func (ea *ExecutorAdapter) NumWorkers() int {
	return ea.exec.NumWorkers()
}

// Stats reports occupancy counters.
func (ea *ExecutorAdapter) Stats() map[string]int64 {
	return ea.exec.Stats()
}

// Shutdown stops intake and waits for the backlog to drain or ctx to end.
func (ea *ExecutorAdapter) Shutdown(ctx context.Context) error {
	return ea.exec.Shutdown(ctx)
}
