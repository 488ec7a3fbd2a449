package users_test

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-http/internal/users"
)

func TestSeedAndLookup(t *testing.T) {
	s := users.NewStore(0)
	s.Seed()
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"Andres", "Carlos", "Maria"}, s.Names())
	assert.True(t, s.ContainsName("Maria"))
	assert.False(t, s.ContainsName("maria"))

	id := s.Add("Lucia")
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	name, ok := s.Get(id)
	assert.True(t, ok)
	assert.Equal(t, "Lucia", name)

	_, ok = s.Get("nope")
	assert.False(t, ok)
}

func TestConcurrentAdd(t *testing.T) {
	s := users.NewStore(4)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.Add("u")
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, s.Len())

	seen := 0
	s.Range(func(id, name string) bool {
		seen++
		return seen < 10
	})
	assert.Equal(t, 10, seen)
}
