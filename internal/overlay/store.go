package overlay

import (
	"sync"
	"sync/atomic"
)

// Snapshot is an immutable, ordered view of the store. Insertion order is
// render order. A nil *Snapshot behaves as empty.
type Snapshot struct {
	records []*Record
	version uint64
}

// Len returns the number of records.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// At returns the i-th record. Like indexing a slice, it panics when i is
// out of range, which is every i for a nil snapshot.
func (s *Snapshot) At(i int) *Record {
	var records []*Record
	if s != nil {
		records = s.records
	}
	return records[i]
}

// Version increases with every Set.
func (s *Snapshot) Version() uint64 {
	if s == nil {
		return 0
	}
	return s.version
}

// Find returns the record with the given id, or nil.
func (s *Snapshot) Find(id string) *Record {
	if i := s.index(id); i >= 0 {
		return s.records[i]
	}
	return nil
}

// Records returns a copy of the records in render order.
func (s *Snapshot) Records() []*Record {
	if s == nil {
		return nil
	}
	out := make([]*Record, len(s.records))
	copy(out, s.records)
	return out
}

// Open returns the records that are still open, in render order.
func (s *Snapshot) Open() []*Record {
	if s == nil {
		return nil
	}
	var out []*Record
	for _, r := range s.records {
		if r.open {
			out = append(out, r)
		}
	}
	return out
}

func (s *Snapshot) index(id string) int {
	if s == nil {
		return -1
	}
	return indexOf(s.records, id)
}

func indexOf(records []*Record, id string) int {
	for i, r := range records {
		if r.id == id {
			return i
		}
	}
	return -1
}

type listener struct {
	fn     func()
	active atomic.Bool
}

// Store holds the current snapshot and notifies listeners after each change.
// Safe for concurrent use. Listeners run synchronously, in registration
// order, in the goroutine that changed the store, after its lock is
// released, so a listener may read the store or change it again.
type Store struct {
	mu        sync.Mutex
	snap      *Snapshot
	listeners []*listener
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{snap: &Snapshot{}}
}

// Snapshot returns the current snapshot. Repeated calls without an
// intervening change return the same pointer.
func (s *Store) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// ServerSnapshot returns a fresh empty snapshot. Hosts with no live
// subscription (pre-rendering) use it as their initial state.
func (s *Store) ServerSnapshot() *Snapshot {
	return &Snapshot{}
}

// Set replaces every record and notifies listeners. The slice is copied.
func (s *Store) Set(records []*Record) {
	next := make([]*Record, len(records))
	copy(next, records)
	s.Update(func([]*Record) ([]*Record, bool) { return next, true })
}

// Update applies fn to the current records under the store lock. fn must
// not modify cur; it returns a new slice and whether anything changed.
// Listeners are notified only on change.
func (s *Store) Update(fn func(cur []*Record) (next []*Record, changed bool)) {
	s.mu.Lock()
	next, changed := fn(s.snap.records)
	if !changed {
		s.mu.Unlock()
		return
	}
	s.snap = &Snapshot{records: next, version: s.snap.version + 1}
	ls := s.listeners
	s.mu.Unlock()

	for _, l := range ls {
		if l.active.Load() {
			l.fn()
		}
	}
}

// Subscribe registers fn to run after every change. The returned function
// removes it and may be called more than once, including from inside fn.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	l := &listener{fn: fn}
	l.active.Store(true)

	s.mu.Lock()
	ls := make([]*listener, len(s.listeners), len(s.listeners)+1)
	copy(ls, s.listeners)
	s.listeners = append(ls, l)
	s.mu.Unlock()

	return func() {
		if !l.active.Swap(false) {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		kept := make([]*listener, 0, len(s.listeners))
		for _, other := range s.listeners {
			if other != l {
				kept = append(kept, other)
			}
		}
		s.listeners = kept
	}
}

// Len returns the number of records, open or closed.
func (s *Store) Len() int {
	return s.Snapshot().Len()
}
