// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Server metrics: gauges written by the occupancy reporter and request
// counters bumped from connection workers.

package control

import (
	"sync"
	"sync/atomic"
	"time"
)

// MetricsRegistry keeps gauges by value and counters as atomics, so workers
// only take the read lock once a counter exists.
type MetricsRegistry struct {
	mu       sync.RWMutex
	gauges   map[string]any
	counters map[string]*atomic.Int64
	updated  atomic.Int64 // unix nanoseconds of the last write
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		gauges:   make(map[string]any),
		counters: make(map[string]*atomic.Int64),
	}
}

// Set stores a gauge, replacing a counter of the same name.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	delete(mr.counters, key)
	mr.gauges[key] = value
	mr.mu.Unlock()
	mr.updated.Store(time.Now().UnixNano())
}

// Add advances counter key by delta and returns the new value. A gauge of the
// same name is replaced by a counter starting at zero.
func (mr *MetricsRegistry) Add(key string, delta int64) int64 {
	mr.mu.RLock()
	ctr, ok := mr.counters[key]
	mr.mu.RUnlock()
	if !ok {
		mr.mu.Lock()
		if ctr, ok = mr.counters[key]; !ok {
			ctr = new(atomic.Int64)
			mr.counters[key] = ctr
			delete(mr.gauges, key)
		}
		mr.mu.Unlock()
	}
	mr.updated.Store(time.Now().UnixNano())
	return ctr.Add(delta)
}

// Counter returns the current value of counter key, zero when unknown.
func (mr *MetricsRegistry) Counter(key string) int64 {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	if ctr, ok := mr.counters[key]; ok {
		return ctr.Load()
	}
	return 0
}

// Updated returns the time of the last write, zero before the first one.
func (mr *MetricsRegistry) Updated() time.Time {
	n := mr.updated.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// GetSnapshot flattens gauges and counters into one map; counters are int64.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.gauges)+len(mr.counters))
	for k, v := range mr.gauges {
		out[k] = v
	}
	for k, ctr := range mr.counters {
		out[k] = ctr.Load()
	}
	return out
}
