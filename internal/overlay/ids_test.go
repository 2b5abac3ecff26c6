package overlay

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerators_ExplicitIDPassesThrough(t *testing.T) {
	gens := map[string]IDGenerator{
		"uuid":    UUIDGenerator{},
		"counter": NewCounterGenerator("p"),
	}
	for name, gen := range gens {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, "fixed", gen.Generate("fixed"))
		})
	}
}

func TestCounterGenerator_Format(t *testing.T) {
	g := NewCounterGenerator("session")
	assert.Equal(t, "session-1", g.Generate(""))
	assert.Equal(t, "session-2", g.Generate(""))
}

func TestCounterGenerator_DefaultPrefix(t *testing.T) {
	g := NewCounterGenerator("")
	id := g.Generate("")
	assert.True(t, strings.HasPrefix(id, "overlay-"), "id %q", id)
	assert.True(t, strings.HasSuffix(id, "-1"), "id %q", id)
}

func TestGenerators_UniqueUnderConcurrency(t *testing.T) {
	gens := map[string]IDGenerator{
		"uuid":    UUIDGenerator{},
		"counter": NewCounterGenerator("c"),
	}
	for name, gen := range gens {
		t.Run(name, func(t *testing.T) {
			const goroutines, perGoroutine = 20, 200
			ids := make(chan string, goroutines*perGoroutine)
			var wg sync.WaitGroup
			for i := 0; i < goroutines; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < perGoroutine; j++ {
						ids <- gen.Generate("")
					}
				}()
			}
			wg.Wait()
			close(ids)

			seen := make(map[string]bool)
			for id := range ids {
				require.False(t, seen[id], "duplicate id %q", id)
				seen[id] = true
			}
			assert.Len(t, seen, goroutines*perGoroutine)
		})
	}
}

func TestStableID(t *testing.T) {
	s := NewStableID(NewCounterGenerator("r"))
	first := s.Get("")
	assert.Equal(t, first, s.Get(""), "repeated render passes reuse the id")
	assert.Equal(t, "explicit", s.Get("explicit"))
	assert.Equal(t, first, s.Get(""))

	other := NewStableID(nil)
	assert.NotEqual(t, first, other.Get(""))
}
