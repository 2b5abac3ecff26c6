package overlay

import (
	"context"
	"sync"
)

// Self is what rendered content gets instead of threading ids around: the
// record's identity and data plus close/dismiss bound to that one instance.
// Calls on a Self whose overlay has been replaced under the same id do not
// touch the replacement.
type Self struct {
	m   *Manager
	rec *Record

	mu      sync.Mutex
	detachs []func()
}

// ID returns the overlay id.
func (s *Self) ID() string { return s.rec.id }

// Data returns the payload passed to Open.
func (s *Self) Data() any { return s.rec.data }

// Title returns the title hint.
func (s *Self) Title() string { return s.rec.title }

// IsOpen reports whether this instance is still open in the store.
func (s *Self) IsOpen() bool {
	cur := s.m.store.Snapshot().Find(s.rec.id)
	return s.rec.sameInstance(cur) && cur.open
}

// Close closes this instance. See Manager.Close.
func (s *Self) Close(ctx context.Context, result any) bool {
	return s.m.closeRecord(ctx, s.rec, result)
}

// Dismiss dismisses this instance. See Manager.Dismiss.
func (s *Self) Dismiss(reason any) {
	s.m.dismissRecord(s.rec, reason)
}

// BeforeClose installs g on this instance. The guard stays until the
// returned detach runs or the binding layer unmounts the overlay.
func (s *Self) BeforeClose(g Guard) (detach func()) {
	d := s.m.attachGuard(s.rec, g)
	s.mu.Lock()
	s.detachs = append(s.detachs, d)
	s.mu.Unlock()
	return d
}

// Release detaches every guard installed through BeforeClose.
func (s *Self) Release() {
	s.mu.Lock()
	ds := s.detachs
	s.detachs = nil
	s.mu.Unlock()
	for _, d := range ds {
		d()
	}
}
