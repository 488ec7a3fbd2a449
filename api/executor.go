// Package api
// Author: momentics
//
// Executor contract for the connection worker pool.

package api

// Executor runs submitted tasks on a fixed set of workers.
type Executor interface {
	// Submit schedules task for execution. It fails fast when the backlog is full.
	Submit(task func()) error

	// NumWorkers returns the number of worker routines.
	NumWorkers() int

	// Stats reports occupancy counters (active, queued, completed, rejected).
	Stats() map[string]int64
}
