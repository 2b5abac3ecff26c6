package overlay

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultReapInterval  = 5 * time.Second
	DefaultReapThreshold = time.Second
)

// Reaper purges closed records once their grace window has passed.
type Reaper struct {
	store     *Store
	interval  time.Duration
	threshold time.Duration
	clock     Clock
	tracer    trace.Tracer
}

// ReaperOption configures a Reaper.
type ReaperOption func(*Reaper)

// WithInterval sets how often Run sweeps.
func WithInterval(d time.Duration) ReaperOption {
	return func(r *Reaper) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithThreshold sets the grace window after close.
func WithThreshold(d time.Duration) ReaperOption {
	return func(r *Reaper) {
		if d >= 0 {
			r.threshold = d
		}
	}
}

// WithReaperClock sets the clock compared against close stamps.
func WithReaperClock(c Clock) ReaperOption {
	return func(r *Reaper) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithReaperTracer sets the tracer for sweep spans.
func WithReaperTracer(t trace.Tracer) ReaperOption {
	return func(r *Reaper) {
		if t != nil {
			r.tracer = t
		}
	}
}

// NewReaper creates a reaper over store.
func NewReaper(store *Store, opts ...ReaperOption) *Reaper {
	r := &Reaper{
		store:     store,
		interval:  DefaultReapInterval,
		threshold: DefaultReapThreshold,
		clock:     systemClock{},
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Interval returns the sweep interval.
func (r *Reaper) Interval() time.Duration { return r.interval }

// Threshold returns the grace window.
func (r *Reaper) Threshold() time.Duration { return r.threshold }

// Sweep removes every closed record whose close is at least the threshold
// old, in one update against the current records. Returns the number
// removed.
func (r *Reaper) Sweep() int {
	_, span := r.tracer.Start(context.Background(), "overlay.sweep")
	defer span.End()

	now := r.clock.Now()
	purged := 0
	r.store.Update(func(cur []*Record) ([]*Record, bool) {
		kept := make([]*Record, 0, len(cur))
		for _, rec := range cur {
			if !rec.open && now.Sub(rec.closedAt) >= r.threshold {
				purged++
				continue
			}
			kept = append(kept, rec)
		}
		return kept, purged > 0
	})
	span.SetAttributes(attribute.Int("overlay.purged", purged))
	return purged
}

// Run sweeps every interval until ctx is done, then returns ctx.Err().
func (r *Reaper) Run(ctx context.Context) error {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			r.Sweep()
		}
	}
}
