// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Periodic task scheduler used for occupancy reporting.

package concurrency

import (
	"sync"
	"time"
)

// Scheduler runs callbacks at fixed intervals until Stop.
type Scheduler struct {
	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewScheduler returns an idle scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{stop: make(chan struct{})}
}

// Every calls fn each interval on its own goroutine. A non-positive interval is a no-op.
func (s *Scheduler) Every(interval time.Duration, fn func()) {
	if interval <= 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-t.C:
				fn()
			}
		}
	}()
}

// Stop halts every periodic task and waits for running callbacks. Idempotent.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stop) })
	s.wg.Wait()
}
