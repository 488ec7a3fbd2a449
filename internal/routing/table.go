// File: internal/routing/table.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Sharded, thread-safe route table for concurrent registration and lookup.

package routing

import (
	"hash/fnv"
	"sync"

	"github.com/momentics/hioload-http/api"
)

// DefaultShards is used when NewTable gets a non-positive shard count.
const DefaultShards = 16

// key identifies a route. Matching is exact and case-sensitive.
type key struct {
	method string
	path   string
}

// Table maps (method, path) to a Route.
type Table struct {
	shards []*tableShard
	mask   uint32
}

type tableShard struct {
	mu     sync.RWMutex
	routes map[key]api.Route
}

// NewTable constructs a table with shardCount shards rounded up to a power of two.
func NewTable(shardCount int) *Table {
	if shardCount <= 0 {
		shardCount = DefaultShards
	}
	m := nextPowerOfTwo(uint32(shardCount))
	shards := make([]*tableShard, m)
	for i := range shards {
		shards[i] = &tableShard{routes: make(map[key]api.Route)}
	}
	return &Table{shards: shards, mask: m - 1}
}

func (t *Table) shard(k key) *tableShard {
	h := fnv.New32a()
	h.Write([]byte(k.method))
	h.Write([]byte{' '})
	h.Write([]byte(k.path))
	return t.shards[h.Sum32()&t.mask]
}

// Register inserts r, replacing any route already bound to the same key.
// It reports whether a previous route was replaced.
func (t *Table) Register(r api.Route) bool {
	k := key{method: r.Method(), path: r.Path()}
	sh := t.shard(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	_, existed := sh.routes[k]
	sh.routes[k] = r
	return existed
}

// RegisterFunc is Register for a bare handler.
func (t *Table) RegisterFunc(method, path string, h api.HandlerFunc) bool {
	return t.Register(api.NewRoute(method, path, h))
}

// Lookup returns the route bound to exactly (method, path).
func (t *Table) Lookup(method, path string) (api.Route, bool) {
	k := key{method: method, path: path}
	sh := t.shard(k)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	r, ok := sh.routes[k]
	return r, ok
}

// Len counts routes across shards. Not a snapshot under concurrent registration.
func (t *Table) Len() int {
	n := 0
	for _, sh := range t.shards {
		sh.mu.RLock()
		n += len(sh.routes)
		sh.mu.RUnlock()
	}
	return n
}

// Range applies fn to every route, shard by shard. Routes registered while
// Range runs may or may not be visited.
func (t *Table) Range(fn func(api.Route)) {
	for _, sh := range t.shards {
		sh.mu.RLock()
		routes := make([]api.Route, 0, len(sh.routes))
		for _, r := range sh.routes {
			routes = append(routes, r)
		}
		sh.mu.RUnlock()
		for _, r := range routes {
			fn(r)
		}
	}
}

// nextPowerOfTwo returns the next power-of-two >= v.
func nextPowerOfTwo(v uint32) uint32 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v++
	return v
}
