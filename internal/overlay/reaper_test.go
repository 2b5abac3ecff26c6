package overlay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaper_GraceWindow(t *testing.T) {
	m, clock, _ := newTestManager()
	ctx := context.Background()
	r := NewReaper(m.Store(), WithThreshold(time.Second), WithReaperClock(clock))

	h := m.Open(ctx, nil)
	require.True(t, m.Close(ctx, h.ID(), nil))

	clock.Advance(500 * time.Millisecond)
	assert.Zero(t, r.Sweep())
	rec, ok := m.Get(h.ID())
	require.True(t, ok, "still inside grace window")
	assert.False(t, rec.IsOpen())

	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, 1, r.Sweep())
	assert.False(t, m.Has(h.ID()))
}

func TestReaper_BoundsGrowth(t *testing.T) {
	m, clock, _ := newTestManager()
	ctx := context.Background()
	r := NewReaper(m.Store(), WithThreshold(time.Second), WithReaperClock(clock))

	const n = 25
	keep := m.Open(ctx, nil)
	for i := 0; i < n; i++ {
		h := m.Open(ctx, nil)
		if i%2 == 0 {
			m.Close(ctx, h.ID(), nil)
		} else {
			m.Dismiss(h.ID(), nil)
		}
	}
	assert.Equal(t, n+1, m.All().Len())
	assert.Zero(t, r.Sweep())

	clock.Advance(2 * time.Second)
	assert.Equal(t, n, r.Sweep())
	require.Equal(t, 1, m.All().Len())
	assert.Equal(t, keep.ID(), m.All().At(0).ID(), "open records survive")
}

func TestReaper_SparesReopenedID(t *testing.T) {
	m, clock, _ := newTestManager()
	ctx := context.Background()
	r := NewReaper(m.Store(), WithThreshold(time.Second), WithReaperClock(clock))

	h := m.Open(ctx, "a", WithID("X"))
	m.Close(ctx, h.ID(), nil)
	clock.Advance(5 * time.Second)
	m.Open(ctx, "b", WithID("X"))

	assert.Zero(t, r.Sweep())
	rec, ok := m.Get("X")
	require.True(t, ok)
	assert.True(t, rec.IsOpen())
}

func TestReaper_Defaults(t *testing.T) {
	r := NewReaper(NewStore())
	assert.Equal(t, DefaultReapInterval, r.Interval())
	assert.Equal(t, DefaultReapThreshold, r.Threshold())

	r = NewReaper(NewStore(), WithInterval(-1), WithThreshold(-1))
	assert.Equal(t, DefaultReapInterval, r.Interval())
	assert.Equal(t, DefaultReapThreshold, r.Threshold())
}

func TestReaper_RunSweepsUntilCanceled(t *testing.T) {
	m := NewManager(WithLogger(&recordLogger{}))
	ctx := context.Background()
	r := NewReaper(m.Store(), WithInterval(5*time.Millisecond), WithThreshold(0))

	h := m.Open(ctx, nil)
	m.Close(ctx, h.ID(), nil)

	runCtx, cancel := context.WithCancel(ctx)
	errc := make(chan error, 1)
	go func() { errc <- r.Run(runCtx) }()

	assert.Eventually(t, func() bool { return !m.Has(h.ID()) }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
}
