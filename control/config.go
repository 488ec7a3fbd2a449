// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Effective server configuration as published to the control plane.

package control

import (
	"maps"
	"sync"
)

// ConfigStore holds the merged configuration values and counts merges.
type ConfigStore struct {
	mu      sync.RWMutex
	values  map[string]any
	version uint64
}

func NewConfigStore() *ConfigStore {
	return &ConfigStore{values: make(map[string]any)}
}

// Get returns a single value.
func (cs *ConfigStore) Get(key string) (any, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	v, ok := cs.values[key]
	return v, ok
}

// Version is the number of SetConfig calls applied so far.
func (cs *ConfigStore) Version() uint64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.version
}

// GetSnapshot returns a copy of all values.
func (cs *ConfigStore) GetSnapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return maps.Clone(cs.values)
}

// SetConfig merges values over the current ones; absent keys are kept.
func (cs *ConfigStore) SetConfig(values map[string]any) {
	cs.mu.Lock()
	maps.Copy(cs.values, values)
	cs.version++
	cs.mu.Unlock()
}
