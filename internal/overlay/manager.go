package overlay

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "overlaykit/overlay"

// Manager runs the overlay state machine on top of a Store.
// Safe for concurrent use. Guards and callbacks run without any lock held;
// every step after a guard re-reads the store instead of trusting what it
// saw before.
type Manager struct {
	store  *Store
	ids    IDGenerator
	clock  Clock
	logger Logger
	tracer trace.Tracer

	guardSeq atomic.Uint64
}

// NewManager creates a manager with its own store unless WithStore is given.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		store:  NewStore(),
		ids:    UUIDGenerator{},
		clock:  systemClock{},
		logger: defaultLogger,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

var (
	defaultOnce    sync.Once
	defaultManager *Manager
)

// Default returns the process-wide manager, created on first use.
func Default() *Manager {
	defaultOnce.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}

// Store returns the store the manager publishes into.
func (m *Manager) Store() *Store { return m.store }

// Open publishes a new overlay and returns its handle.
//
// When an overlay with the same id is open, its guard decides: if it
// refuses, the returned handle is already resolved with the zero Result and
// nothing else changes; otherwise the occupant is closed (its onClose sees
// nil) and published closed before the new record is appended.
// ctx bounds the occupant's guard only; the new overlay outlives it.
func (m *Manager) Open(ctx context.Context, content Content, opts ...OpenOption) *Handle {
	cfg := openConfig{kind: KindOverlay, position: PositionCenter}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	id := m.ids.Generate(cfg.id)

	ctx, span := m.tracer.Start(ctx, "overlay.open", trace.WithAttributes(attribute.String("overlay.id", id)))
	defer span.End()

	h := newHandle(id)
	rec := m.newRecord(id, content, cfg, h)
	h.m, h.rec = m, rec

	for {
		if prev := m.store.Snapshot().Find(id); prev != nil && prev.open {
			if err := ctx.Err(); err != nil {
				span.RecordError(err)
				h.resolve(Result{})
				return h
			}
			if !m.runGuard(ctx, prev.id, prev.guard) {
				span.AddEvent("overlay.abandoned")
				h.resolve(Result{})
				return h
			}
			if committed, _ := m.commitClose(prev, nil); committed {
				span.AddEvent("overlay.replaced")
			}
			// Whatever happened meanwhile, look at the occupant again.
			continue
		}

		inserted := false
		m.store.Update(func(cur []*Record) ([]*Record, bool) {
			i := indexOf(cur, id)
			if i >= 0 && cur[i].open {
				return nil, false
			}
			next := make([]*Record, 0, len(cur)+1)
			for j, r := range cur {
				if j != i {
					next = append(next, r)
				}
			}
			next = append(next, rec)
			inserted = true
			return next, true
		})
		if inserted {
			break
		}
	}

	if fn := rec.inst.onOpen; fn != nil {
		m.invoke("onOpen", id, func() error { return fn(id) })
	}
	return h
}

func (m *Manager) newRecord(id string, content Content, cfg openConfig, h *Handle) *Record {
	rec := &Record{
		id:       id,
		content:  content,
		data:     cfg.data,
		title:    cfg.title,
		kind:     cfg.kind,
		position: cfg.position,
		open:     true,
		inst: &instance{
			serial:      serials.Add(1),
			handle:      h,
			onOpen:      cfg.onOpen,
			onClose:     cfg.onClose,
			onMounted:   cfg.onMounted,
			onUnmounted: cfg.onUnmounted,
		},
	}
	if cfg.beforeClose != nil {
		rec.guard = cfg.beforeClose
		rec.guardTok = m.guardSeq.Add(1)
	}
	return rec
}

// Close closes the overlay with the given id, passing result to its handle
// and onClose. It reports whether this call committed the close. An
// unknown id, an overlay already closed, a refusing or failing guard, and a
// dismiss that lands while the guard is pending all yield false.
func (m *Manager) Close(ctx context.Context, id string, result any) bool {
	ctx, span := m.tracer.Start(ctx, "overlay.close", trace.WithAttributes(attribute.String("overlay.id", id)))
	defer span.End()

	rec := m.store.Snapshot().Find(id)
	if rec == nil {
		return false
	}
	ok := m.closeRecord(ctx, rec, result)
	span.SetAttributes(attribute.Bool("overlay.committed", ok))
	return ok
}

func (m *Manager) closeRecord(ctx context.Context, target *Record, result any) bool {
	for {
		cur := m.store.Snapshot().Find(target.id)
		if !target.sameInstance(cur) || !cur.open {
			return false
		}
		if !m.runGuard(ctx, cur.id, cur.guard) {
			return false
		}
		committed, stale := m.commitClose(cur, result)
		if !stale {
			return committed
		}
		// The guard changed while it ran; ask the new one.
	}
}

// commitClose flips rec's instance closed, then runs onClose and resolves
// the handle. It commits only while rec's guard is still the installed one;
// otherwise it reports stale and changes nothing.
func (m *Manager) commitClose(rec *Record, result any) (committed, stale bool) {
	committed, stale = m.finish(rec, true)
	if !committed {
		return false, stale
	}
	if fn := rec.inst.onClose; fn != nil {
		m.invoke("onClose", rec.id, func() error { return fn(result) })
	}
	rec.inst.handle.resolve(Result{Type: ResultClose, Data: result})
	return true, false
}

// finish publishes a closed copy of rec's instance. Only the first caller
// for an instance succeeds. With sameGuard, a guard attached or detached
// since rec was read makes it refuse with stale set.
func (m *Manager) finish(rec *Record, sameGuard bool) (done, stale bool) {
	now := m.clock.Now()
	m.store.Update(func(cur []*Record) ([]*Record, bool) {
		i := indexOf(cur, rec.id)
		if i < 0 || cur[i].inst != rec.inst || !cur[i].open {
			return nil, false
		}
		if sameGuard && cur[i].guardTok != rec.guardTok {
			stale = true
			return nil, false
		}
		done = true
		return replaceAt(cur, i, cur[i].closed(now)), true
	})
	return done, stale
}

// Dismiss closes the overlay without consulting its guard and rejects its
// handle with a *DismissError carrying reason. Unknown or closed ids are
// ignored.
func (m *Manager) Dismiss(id string, reason any) {
	_, span := m.tracer.Start(context.Background(), "overlay.dismiss", trace.WithAttributes(attribute.String("overlay.id", id)))
	defer span.End()

	rec := m.store.Snapshot().Find(id)
	if rec == nil {
		return
	}
	if m.dismissRecord(rec, reason) {
		span.SetStatus(codes.Ok, "dismissed")
	}
}

func (m *Manager) dismissRecord(rec *Record, reason any) bool {
	if done, _ := m.finish(rec, false); !done {
		return false
	}
	rec.inst.handle.reject(&DismissError{ID: rec.id, Reason: reason})
	return true
}

// CloseAll empties the store at once. It is a hard reset: no guard runs and
// no onClose fires. Handles still pending resolve with ResultClear so their
// waiters are released.
func (m *Manager) CloseAll() {
	_, span := m.tracer.Start(context.Background(), "overlay.close_all")
	defer span.End()

	var cleared []*Record
	m.store.Update(func(cur []*Record) ([]*Record, bool) {
		cleared = cur
		return []*Record{}, true
	})
	span.SetAttributes(attribute.Int("overlay.cleared", len(cleared)))
	for _, r := range cleared {
		r.inst.handle.resolve(Result{Type: ResultClear})
	}
}

// Has reports whether a record with id is in the store, open or closing.
func (m *Manager) Has(id string) bool {
	return m.store.Snapshot().Find(id) != nil
}

// Get returns the record with id.
func (m *Manager) Get(id string) (*Record, bool) {
	rec := m.store.Snapshot().Find(id)
	return rec, rec != nil
}

// All returns the current snapshot.
func (m *Manager) All() *Snapshot {
	return m.store.Snapshot()
}

// AttachGuard installs g as the guard of the overlay currently under id and
// returns a function that removes it again. The detach only takes effect
// while g is still the installed guard of that same overlay, so a stale
// detach never strips a guard attached later or a reopened overlay's guard.
func (m *Manager) AttachGuard(id string, g Guard) (detach func()) {
	rec := m.store.Snapshot().Find(id)
	if rec == nil {
		return func() {}
	}
	return m.attachGuard(rec, g)
}

func (m *Manager) attachGuard(target *Record, g Guard) func() {
	tok := m.guardSeq.Add(1)
	attached := false
	m.store.Update(func(cur []*Record) ([]*Record, bool) {
		i := indexOf(cur, target.id)
		if i < 0 || cur[i].inst != target.inst {
			return nil, false
		}
		attached = true
		return replaceAt(cur, i, cur[i].withGuard(g, tok)), true
	})
	if !attached {
		return func() {}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.store.Update(func(cur []*Record) ([]*Record, bool) {
				i := indexOf(cur, target.id)
				if i < 0 || cur[i].inst != target.inst || cur[i].guardTok != tok {
					return nil, false
				}
				return replaceAt(cur, i, cur[i].withGuard(nil, 0)), true
			})
		})
	}
}

// Self returns the capability object for the overlay currently under id.
// The same *Self is returned for every call on the same overlay instance.
func (m *Manager) Self(id string) (*Self, bool) {
	rec := m.store.Snapshot().Find(id)
	if rec == nil {
		return nil, false
	}
	return m.SelfFor(rec), true
}

// SelfFor returns the capability object for rec's instance.
func (m *Manager) SelfFor(rec *Record) *Self {
	inst := rec.inst
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.self == nil {
		inst.self = &Self{m: m, rec: rec}
	}
	return inst.self
}

const (
	mountNone = iota
	mountLive
	mountGone
)

// Mounted is called by the binding layer when it first renders rec.
// onMounted runs once per instance; an unmounted instance is never
// mounted again.
func (m *Manager) Mounted(rec *Record) {
	inst := rec.inst
	inst.mu.Lock()
	if inst.mount != mountNone {
		inst.mu.Unlock()
		return
	}
	inst.mount = mountLive
	inst.mu.Unlock()

	if fn := inst.onMounted; fn != nil {
		m.invoke("onMounted", rec.id, fn)
	}
}

// Unmounted is called by the binding layer when it stops rendering rec.
// Guards attached through the record's Self are detached, then onUnmounted
// runs. Calls without a prior Mounted are ignored.
func (m *Manager) Unmounted(rec *Record) {
	inst := rec.inst
	inst.mu.Lock()
	if inst.mount != mountLive {
		inst.mu.Unlock()
		return
	}
	inst.mount = mountGone
	self := inst.self
	inst.mu.Unlock()

	if self != nil {
		self.Release()
	}
	if fn := inst.onUnmounted; fn != nil {
		m.invoke("onUnmounted", rec.id, fn)
	}
}

// runGuard evaluates g. A nil guard allows. Errors and panics are logged
// and refuse the close.
func (m *Manager) runGuard(ctx context.Context, id string, g Guard) (allowed bool) {
	if g == nil {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			m.logger.Printf("overlay: beforeClose for %q panicked: %v", id, r)
			allowed = false
		}
	}()
	ok, err := g(ctx)
	if err != nil {
		m.logger.Printf("overlay: beforeClose for %q: %v", id, err)
		return false
	}
	return ok
}

// invoke runs a lifecycle callback, logging its error or panic.
func (m *Manager) invoke(hook, id string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Printf("overlay: %s for %q panicked: %v", hook, id, r)
		}
	}()
	if err := fn(); err != nil {
		m.logger.Printf("overlay: %s for %q: %v", hook, id, fmt.Errorf("callback failed: %w", err))
	}
}

func replaceAt(cur []*Record, i int, r *Record) []*Record {
	next := make([]*Record, len(cur))
	copy(next, cur)
	next[i] = r
	return next
}
