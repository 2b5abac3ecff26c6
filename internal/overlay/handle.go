package overlay

import (
	"context"
	"sync"
)

// Handle is the pending outcome of an Open. It settles exactly once, with a
// Result or with a *DismissError. Close and Dismiss act on the overlay this
// Open created and never on a later one reusing its id.
type Handle struct {
	id  string
	m   *Manager
	rec *Record

	once sync.Once
	done chan struct{}
	res  Result
	err  error
}

func newHandle(id string) *Handle {
	return &Handle{id: id, done: make(chan struct{})}
}

// ID returns the id of the overlay this handle belongs to.
func (h *Handle) ID() string { return h.id }

// Close closes the overlay this handle belongs to. See Manager.Close.
// It returns false if the Open was abandoned.
func (h *Handle) Close(ctx context.Context, result any) bool {
	if h.m == nil {
		return false
	}
	return h.m.closeRecord(ctx, h.rec, result)
}

// Dismiss dismisses the overlay this handle belongs to. See Manager.Dismiss.
func (h *Handle) Dismiss(reason any) {
	if h.m == nil {
		return
	}
	h.m.dismissRecord(h.rec, reason)
}

// Done returns a channel closed when the handle settles.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Settled reports whether the handle has settled.
func (h *Handle) Settled() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the handle settles or ctx is done. Giving up on ctx
// leaves the overlay untouched.
func (h *Handle) Wait(ctx context.Context) (Result, error) {
	select {
	case <-h.done:
		return h.res, h.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// settle reports whether this call was the one that settled h.
func (h *Handle) settle(res Result, err error) bool {
	settled := false
	h.once.Do(func() {
		h.res, h.err = res, err
		settled = true
		close(h.done)
	})
	return settled
}

func (h *Handle) resolve(res Result) bool { return h.settle(res, nil) }

func (h *Handle) reject(err error) bool { return h.settle(Result{}, err) }

// Await waits on h and returns the close data as T. It returns the zero T
// when the overlay ended without data of that type.
func Await[T any](ctx context.Context, h *Handle) (T, error) {
	var zero T
	res, err := h.Wait(ctx)
	if err != nil {
		return zero, err
	}
	v, ok := res.Data.(T)
	if !ok {
		return zero, nil
	}
	return v, nil
}
