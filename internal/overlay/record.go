package overlay

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Content is an opaque reference to renderable content. The engine never
// inspects it; the binding layer decides what it means.
type Content any

// Guard is consulted before a close is committed. Returning false keeps the
// overlay open. An error is logged and also keeps it open.
type Guard func(ctx context.Context) (bool, error)

// Allow returns a Guard with a fixed answer.
func Allow(ok bool) Guard {
	return func(context.Context) (bool, error) { return ok, nil }
}

// Kind is a presentation hint for the binding layer.
type Kind string

const (
	KindOverlay Kind = "overlay"
	KindModal   Kind = "modal"
	KindDrawer  Kind = "drawer"
)

// Position is a placement hint for the binding layer.
type Position string

const (
	PositionCenter Position = "center"
	PositionTop    Position = "top"
	PositionBottom Position = "bottom"
	PositionLeft   Position = "left"
	PositionRight  Position = "right"
)

var serials atomic.Uint64

// instance holds what stays the same across every copy of one record:
// callbacks, the handle, and the Self handed to content.
type instance struct {
	serial uint64
	handle *Handle

	onOpen      func(id string) error
	onClose     func(result any) error
	onMounted   func() error
	onUnmounted func() error

	mu    sync.Mutex
	self  *Self
	mount int
}

// Record is a read-only view of one overlay. Records are never mutated in
// place: every transition publishes a fresh copy, so consumers can compare
// pointers to detect change.
type Record struct {
	id       string
	content  Content
	data     any
	title    string
	kind     Kind
	position Position

	open     bool
	closedAt time.Time

	guard    Guard
	guardTok uint64

	inst *instance
}

// ID returns the overlay id.
func (r *Record) ID() string { return r.id }

// Content returns the content reference passed to Open.
func (r *Record) Content() Content { return r.content }

// Data returns the payload passed to Open.
func (r *Record) Data() any { return r.data }

// Title returns the title hint.
func (r *Record) Title() string { return r.title }

// Kind returns the kind hint.
func (r *Record) Kind() Kind { return r.kind }

// Position returns the placement hint.
func (r *Record) Position() Position { return r.position }

// IsOpen reports whether the record has not yet been closed or dismissed.
func (r *Record) IsOpen() bool { return r.open }

// ClosedAt returns when the record closed. ok is false while it is open.
func (r *Record) ClosedAt() (t time.Time, ok bool) {
	if r.open {
		return time.Time{}, false
	}
	return r.closedAt, true
}

// HasGuard reports whether a beforeClose guard is installed.
func (r *Record) HasGuard() bool { return r.guard != nil }

// Serial identifies the record instance. Two records opened under the same
// id have different serials.
func (r *Record) Serial() uint64 { return r.inst.serial }

// sameInstance reports whether r and other are copies of one instance.
func (r *Record) sameInstance(other *Record) bool {
	return r != nil && other != nil && r.inst == other.inst
}

func (r *Record) closed(now time.Time) *Record {
	c := *r
	c.open = false
	c.closedAt = now
	return &c
}

func (r *Record) withGuard(g Guard, tok uint64) *Record {
	c := *r
	c.guard = g
	c.guardTok = tok
	return &c
}
