// File: internal/concurrency/executor.go
// Package concurrency implements the fixed-size worker pool that runs connections.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Executor runs tasks on exactly NumWorkers goroutines. Tasks submitted while
// every worker is busy wait in a FIFO backlog; a bounded backlog rejects the
// overflow with ErrBacklogFull instead of growing without limit.

package concurrency

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
)

// TaskFunc is a unit of work to execute.
type TaskFunc func()

// Executor manages a pool of worker goroutines.
type Executor struct {
	mu         sync.Mutex
	cond       *sync.Cond
	backlog    *queue.Queue // of TaskFunc
	maxBacklog int          // 0 = unbounded
	numWorkers int
	closed     bool
	wg         sync.WaitGroup
	onPanic    func(any)

	// statistics
	active         int64
	totalTasks     int64
	completedTasks int64
	rejectedTasks  int64
	panics         int64
}

// Option customizes an Executor.
type Option func(*Executor)

// WithPanicHandler is called with the recovered value of a panicking task.
func WithPanicHandler(fn func(any)) Option {
	return func(e *Executor) { e.onPanic = fn }
}

// NewExecutor starts numWorkers workers. maxBacklog <= 0 leaves the backlog unbounded.
func NewExecutor(numWorkers, maxBacklog int, opts ...Option) (*Executor, error) {
	if numWorkers <= 0 {
		return nil, ErrInvalidWorkerCount
	}
	if maxBacklog < 0 {
		maxBacklog = 0
	}
	e := &Executor{
		backlog:    queue.New(),
		maxBacklog: maxBacklog,
		numWorkers: numWorkers,
	}
	e.cond = sync.NewCond(&e.mu)
	for _, o := range opts {
		o(e)
	}
	e.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go e.run()
	}
	return e, nil
}

// Submit enqueues a task. It returns ErrExecutorClosed after Close and
// ErrBacklogFull when the bounded backlog is at capacity.
func (e *Executor) Submit(task func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrExecutorClosed
	}
	if e.maxBacklog > 0 && e.backlog.Length() >= e.maxBacklog {
		atomic.AddInt64(&e.rejectedTasks, 1)
		return ErrBacklogFull
	}
	e.backlog.Add(TaskFunc(task))
	atomic.AddInt64(&e.totalTasks, 1)
	e.cond.Signal()
	return nil
}

// NumWorkers returns the number of workers.
func (e *Executor) NumWorkers() int {
	return e.numWorkers
}

// Active returns the number of tasks currently running.
func (e *Executor) Active() int {
	return int(atomic.LoadInt64(&e.active))
}

// Queued returns the number of tasks waiting for a worker.
func (e *Executor) Queued() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.backlog.Length()
}

// Close stops accepting tasks. Workers finish the backlog, then exit.
func (e *Executor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.cond.Broadcast()
}

// Wait blocks until every worker exited or ctx is done.
func (e *Executor) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown is Close followed by Wait.
func (e *Executor) Shutdown(ctx context.Context) error {
	e.Close()
	return e.Wait(ctx)
}

// Stats returns basic executor metrics.
func (e *Executor) Stats() map[string]int64 {
	return map[string]int64{
		"active":          atomic.LoadInt64(&e.active),
		"queued":          int64(e.Queued()),
		"total_tasks":     atomic.LoadInt64(&e.totalTasks),
		"completed_tasks": atomic.LoadInt64(&e.completedTasks),
		"rejected_tasks":  atomic.LoadInt64(&e.rejectedTasks),
		"panics":          atomic.LoadInt64(&e.panics),
		"num_workers":     int64(e.numWorkers),
	}
}

// run is the main loop for a worker.
func (e *Executor) run() {
	defer e.wg.Done()
	for {
		task, ok := e.next()
		if !ok {
			return
		}
		e.executeTask(task)
	}
}

// next blocks for a task; ok is false once closed and drained.
func (e *Executor) next() (TaskFunc, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for e.backlog.Length() == 0 && !e.closed {
		e.cond.Wait()
	}
	if e.backlog.Length() == 0 {
		return nil, false
	}
	task := e.backlog.Remove().(TaskFunc)
	atomic.AddInt64(&e.active, 1)
	return task, true
}

// executeTask runs the task and updates statistics, recovering from panics.
func (e *Executor) executeTask(task TaskFunc) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&e.panics, 1)
			if e.onPanic != nil {
				e.onPanic(r)
			}
		}
		atomic.AddInt64(&e.active, -1)
		atomic.AddInt64(&e.completedTasks, 1)
	}()
	task()
}
