package ui

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overlaykit/internal/overlay"
)

func TestHost_StartsFromEmptySnapshot(t *testing.T) {
	mgr := newTestManager()
	mgr.Open(context.Background(), "already open")

	h := NewHost(mgr)
	assert.Equal(t, 0, h.Len())
	assert.Empty(t, h.View())

	h.Init()
	t.Cleanup(h.Close)
	assert.Equal(t, 1, h.Len(), "Init mounts what is already open")
	assert.Contains(t, h.View(), "already open")
}

func TestHost_StoreChangeIsForwarded(t *testing.T) {
	mgr := newTestManager()
	h := newTestHost(t, mgr)

	wait := h.waitForChange()
	mgr.Open(context.Background(), "x")
	assert.Equal(t, StoreChangedMsg{}, wait())
}

func TestHost_CloseReleasesWaiter(t *testing.T) {
	mgr := newTestManager()
	h := NewHost(mgr)
	h.Init()
	wait := h.waitForChange()
	h.Close()
	assert.Nil(t, wait())
	h.Close()
}

func TestHost_MountsAndUnmounts(t *testing.T) {
	mgr := newTestManager()
	h := newTestHost(t, mgr)

	var mountedCalls, unmountedCalls int
	spy := &spyComponent{name: "spy"}
	openSync(t, mgr, h, spy,
		overlay.WithOnMounted(func() error { mountedCalls++; return nil }),
		overlay.WithOnUnmounted(func() error { unmountedCalls++; return nil }),
	)
	assert.Equal(t, 1, spy.inits)
	assert.Equal(t, 1, mountedCalls)
	assert.True(t, h.HasOpen())

	// Repeated syncs do not remount.
	h.Update(StoreChangedMsg{})
	assert.Equal(t, 1, spy.inits)
	assert.Equal(t, 1, mountedCalls)

	mgr.CloseAll()
	h.Update(StoreChangedMsg{})
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, 1, unmountedCalls)
}

func TestHost_KeysGoToTopmostOpenOverlay(t *testing.T) {
	mgr := newTestManager()
	h := newTestHost(t, mgr)

	bottom := &spyComponent{name: "bottom"}
	top := &spyComponent{name: "top"}
	openSync(t, mgr, h, bottom)
	topHandle := openSync(t, mgr, h, top)

	h.Update(keyMsg("a"))
	assert.Empty(t, bottom.keys)
	assert.Equal(t, []string{"a"}, top.keys)

	msg := run(h.Update(keyMsg("enter")))
	require.IsType(t, CloseAttemptMsg{}, msg)
	assert.True(t, msg.(CloseAttemptMsg).Committed)
	res, err := waitResult(t, topHandle)
	require.NoError(t, err)
	assert.Equal(t, "top", res.Data)

	// The closed overlay is still rendered but no longer takes keys.
	h.Update(StoreChangedMsg{})
	h.Update(keyMsg("b"))
	assert.Equal(t, []string{"b"}, bottom.keys)
	assert.Equal(t, 2, h.Len())
}

func TestHost_OtherMessagesAreBroadcast(t *testing.T) {
	mgr := newTestManager()
	h := newTestHost(t, mgr)

	a := &spyComponent{name: "a"}
	b := &spyComponent{name: "b"}
	openSync(t, mgr, h, a)
	openSync(t, mgr, h, b)

	h.Update(CloseAttemptMsg{ID: "x"})
	assert.Len(t, a.other, 1)
	assert.Len(t, b.other, 1)
}

func TestHost_ClosingOverlayRendersUntilSwept(t *testing.T) {
	mgr := newTestManager()
	h := newTestHost(t, mgr)

	handle := openSync(t, mgr, h, "bye")
	require.True(t, mgr.Close(context.Background(), handle.ID(), nil))
	h.Update(StoreChangedMsg{})

	assert.False(t, h.HasOpen())
	assert.Contains(t, h.View(), "bye")

	reaper := overlay.NewReaper(mgr.Store(), overlay.WithThreshold(0))
	assert.Equal(t, 1, reaper.Sweep())
	h.Update(StoreChangedMsg{})
	assert.Empty(t, h.View())
}

func TestHost_ReplacementRemounts(t *testing.T) {
	mgr := newTestManager()
	h := newTestHost(t, mgr)

	first := &spyComponent{name: "first"}
	second := &spyComponent{name: "second"}
	openSync(t, mgr, h, first, overlay.WithID("dup"))
	openSync(t, mgr, h, second, overlay.WithID("dup"))

	assert.Equal(t, 1, second.inits)
	assert.Equal(t, 1, h.Len(), "one record per id")
	assert.Contains(t, h.View(), "[second dup]")
	assert.NotContains(t, h.View(), "first")
}

func TestHost_Positioning(t *testing.T) {
	mgr := newTestManager()
	h := newTestHost(t, mgr)
	h.SetSize(40)

	openSync(t, mgr, h, &spyComponent{name: "right"}, overlay.WithID("r"), overlay.WithPosition(overlay.PositionRight))
	line := h.View()
	assert.Len(t, []rune(line), 40)
	assert.Regexp(t, `^\s+\[right r\]$`, line)
}

func TestCloseCmd_ReportsGuardRefusal(t *testing.T) {
	mgr := newTestManager()
	handle := mgr.Open(context.Background(), "x", overlay.WithBeforeClose(overlay.Allow(false)))
	self, ok := mgr.Self(handle.ID())
	require.True(t, ok)

	msg := CloseCmd(self, nil)()
	assert.Equal(t, CloseAttemptMsg{ID: handle.ID(), Committed: false}, msg)
	assert.True(t, mgr.Has(handle.ID()))

	assert.Nil(t, DismissCmd(self, "gone")())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := handle.Wait(ctx)
	assert.ErrorIs(t, err, overlay.ErrDismissed)
}
