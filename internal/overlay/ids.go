package overlay

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// IDGenerator produces overlay identifiers.
// An explicit id is returned unchanged; the caller owns its uniqueness.
type IDGenerator interface {
	Generate(explicit string) string
}

// UUIDGenerator generates random "overlay-<uuid>" ids.
type UUIDGenerator struct{}

// Generate implements IDGenerator.
func (UUIDGenerator) Generate(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return "overlay-" + uuid.NewString()
}

// CounterGenerator generates "<prefix>-<n>" ids from a monotonic counter.
// Safe for concurrent use.
type CounterGenerator struct {
	prefix string
	n      atomic.Uint64
}

// NewCounterGenerator creates a counter generator. An empty prefix is
// replaced by one derived from the process start time, so ids from two
// sessions do not collide.
func NewCounterGenerator(prefix string) *CounterGenerator {
	if prefix == "" {
		prefix = fmt.Sprintf("overlay-%d", time.Now().UnixMilli())
	}
	return &CounterGenerator{prefix: prefix}
}

// Generate implements IDGenerator.
func (g *CounterGenerator) Generate(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return fmt.Sprintf("%s-%d", g.prefix, g.n.Add(1))
}

// StableID memoizes one generated id for a logical caller, so a render pass
// that runs repeatedly asks for an id without minting a new one each time.
type StableID struct {
	gen  IDGenerator
	once sync.Once
	id   string
}

// NewStableID creates a StableID backed by gen. A nil gen uses UUIDGenerator.
func NewStableID(gen IDGenerator) *StableID {
	if gen == nil {
		gen = UUIDGenerator{}
	}
	return &StableID{gen: gen}
}

// Get returns explicit when set, otherwise the memoized id.
func (s *StableID) Get(explicit string) string {
	if explicit != "" {
		return explicit
	}
	s.once.Do(func() {
		s.id = s.gen.Generate("")
	})
	return s.id
}
