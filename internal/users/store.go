// File: internal/users/store.go
// Package users
// Author: momentics <momentics@gmail.com>
//
// Sharded, thread-safe in-memory user registry keyed by generated UUIDs.

package users

import (
	"hash/fnv"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// SeedNames are registered by Seed.
var SeedNames = []string{"Andres", "Maria", "Carlos"}

// Store maps user ids to names. Operations are atomic per key only; Range and
// Names see no consistent snapshot across shards.
type Store struct {
	shards []*userShard
	mask   uint32
}

type userShard struct {
	mu    sync.RWMutex
	names map[string]string
}

// NewStore constructs a store with shardCount shards rounded up to a power of two.
func NewStore(shardCount int) *Store {
	if shardCount <= 0 {
		shardCount = 16
	}
	m := nextPowerOfTwo(uint32(shardCount))
	shards := make([]*userShard, m)
	for i := range shards {
		shards[i] = &userShard{names: make(map[string]string)}
	}
	return &Store{shards: shards, mask: m - 1}
}

func (s *Store) shard(id string) *userShard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return s.shards[h.Sum32()&s.mask]
}

// Add registers name under a fresh random id and returns the id.
func (s *Store) Add(name string) string {
	id := uuid.NewString()
	sh := s.shard(id)
	sh.mu.Lock()
	sh.names[id] = name
	sh.mu.Unlock()
	return id
}

// Get returns the name registered under id.
func (s *Store) Get(id string) (string, bool) {
	sh := s.shard(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	n, ok := sh.names[id]
	return n, ok
}

// ContainsName reports whether any user has exactly this name.
func (s *Store) ContainsName(name string) bool {
	found := false
	s.Range(func(_, n string) bool {
		found = n == name
		return !found
	})
	return found
}

// Names returns every registered name, sorted.
func (s *Store) Names() []string {
	var out []string
	s.Range(func(_, n string) bool {
		out = append(out, n)
		return true
	})
	sort.Strings(out)
	return out
}

// Len returns the number of users.
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.names)
		sh.mu.RUnlock()
	}
	return n
}

// Range calls fn for each user until fn returns false. Each shard is copied
// before iteration so fn may call back into the store.
func (s *Store) Range(fn func(id, name string) bool) {
	for _, sh := range s.shards {
		sh.mu.RLock()
		snap := make(map[string]string, len(sh.names))
		for k, v := range sh.names {
			snap[k] = v
		}
		sh.mu.RUnlock()
		for k, v := range snap {
			if !fn(k, v) {
				return
			}
		}
	}
}

// Seed registers SeedNames.
func (s *Store) Seed() {
	for _, n := range SeedNames {
		s.Add(n)
	}
}

func nextPowerOfTwo(v uint32) uint32 {
	if v == 0 {
		return 1
	}
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v++
	return v
}
