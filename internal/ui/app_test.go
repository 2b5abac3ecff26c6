package ui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overlaykit/internal/guard"
	"overlaykit/internal/overlay"
)

// startOpen runs an open command in the background, the way Bubble Tea
// would, and waits for the overlay to appear in the store.
func startOpen(t *testing.T, mgr *overlay.Manager, cmd tea.Cmd, before int) <-chan tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	out := make(chan tea.Msg, 1)
	go func() { out <- cmd() }()
	require.Eventually(t, func() bool { return len(mgr.All().Open()) > before },
		2*time.Second, 5*time.Millisecond)
	return out
}

func receive(t *testing.T, ch <-chan tea.Msg) tea.Msg {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("open command never returned")
		return nil
	}
}

func newTestApp(t *testing.T, guards *guard.Set) (*AppModel, tea.Model) {
	t.Helper()
	app := NewAppModel(newTestManager(), guards)
	model := app.AsTeaModel()
	model.Init()
	t.Cleanup(app.Host.Close)
	return app, model
}

func TestApp_ConfirmRoundTrip(t *testing.T) {
	app, model := newTestApp(t, nil)

	_, cmd := model.Update(OpenConfirmMsg{})
	done := startOpen(t, app.Manager, cmd, 0)
	model.Update(StoreChangedMsg{})
	assert.Equal(t, ModeOverlay, app.Mode)
	assert.Contains(t, model.View(), "Proceed with the demo action?")

	_, cmd = model.Update(keyMsg("y"))
	run(cmd)
	msg := receive(t, done)
	model.Update(msg)
	model.Update(StoreChangedMsg{})

	require.Len(t, app.Results, 1)
	assert.Contains(t, app.Results[0], "closed with true")
	assert.Equal(t, ModeIdle, app.Mode)
}

func TestApp_KeysGoToOverlayWhileOpen(t *testing.T) {
	app, model := newTestApp(t, nil)

	_, cmd := model.Update(OpenPromptMsg{})
	startOpen(t, app.Manager, cmd, 0)
	model.Update(StoreChangedMsg{})

	// q types into the prompt instead of quitting.
	model.Update(keyMsg("q"))
	prompt, ok := app.Manager.All().Open()[0].Content().(*PromptModal)
	require.True(t, ok)
	assert.Equal(t, "q", prompt.Value())
	assert.Contains(t, model.View(), "Close all", "overlay mode shows its keys")
}

func TestApp_CloseAllClearsWaiters(t *testing.T) {
	app, model := newTestApp(t, nil)

	_, cmd := model.Update(OpenPickerMsg{})
	done := startOpen(t, app.Manager, cmd, 0)
	model.Update(StoreChangedMsg{})

	_, cmd = model.Update(keyMsg("ctrl+x"))
	model.Update(run(cmd))
	model.Update(receive(t, done))

	require.Len(t, app.Results, 1)
	assert.Contains(t, app.Results[0], "cleared")
	assert.Equal(t, 0, app.Manager.All().Len())
}

func TestApp_FixedIDReplaces(t *testing.T) {
	app, model := newTestApp(t, nil)

	_, cmd := model.Update(OpenConfirmMsg{ID: "confirm"})
	first := startOpen(t, app.Manager, cmd, 0)

	_, cmd = model.Update(OpenConfirmMsg{ID: "confirm"})
	out := make(chan tea.Msg, 1)
	go func() { out <- cmd() }()

	msg := receive(t, first).(OverlayResultMsg)
	assert.Equal(t, "confirm", msg.ID)
	assert.Nil(t, msg.Result.Data, "replaced overlay closes with no data")

	require.Eventually(t, func() bool { return len(app.Manager.All().Open()) == 1 },
		2*time.Second, 5*time.Millisecond)
	app.Manager.Dismiss("confirm", "test")
	assert.Contains(t, describe(receive(t, out).(OverlayResultMsg)), "dismissed (test)")
}

func TestApp_EditorUsesConfiguredRule(t *testing.T) {
	guards, err := guard.CompileAll(map[string]string{"editor": "true"})
	require.NoError(t, err)
	app, model := newTestApp(t, guards)

	_, cmd := model.Update(OpenEditorMsg{})
	done := startOpen(t, app.Manager, cmd, 0)
	model.Update(StoreChangedMsg{})
	model.Update(keyMsg("z"))

	// The configured rule allows closing despite unsaved text.
	_, cmd = model.Update(keyMsg("esc"))
	assert.Equal(t, true, run(cmd).(CloseAttemptMsg).Committed)
	msg := receive(t, done).(OverlayResultMsg)
	assert.NoError(t, msg.Err)
}

func TestApp_LeaderOpensViaKeys(t *testing.T) {
	_, model := newTestApp(t, nil)

	model.Update(keyMsg(" "))
	assert.Contains(t, model.View(), "Open")
	model.Update(keyMsg("o"))
	_, cmd := model.Update(keyMsg("e"))
	require.NotNil(t, cmd)
	assert.Equal(t, OpenEditorMsg{}, cmd())
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		msg  OverlayResultMsg
		want string
	}{
		{"closed", OverlayResultMsg{ID: "a", Label: "prompt", Result: overlay.Result{Type: overlay.ResultClose, Data: "bob"}}, "prompt a: closed with bob"},
		{"cleared", OverlayResultMsg{ID: "a", Label: "picker", Result: overlay.Result{Type: overlay.ResultClear}}, "picker a: cleared"},
		{"abandoned", OverlayResultMsg{ID: "a", Label: "confirm"}, "confirm a: abandoned"},
		{"dismissed", OverlayResultMsg{ID: "a", Label: "editor", Err: &overlay.DismissError{ID: "a", Reason: "discard"}}, "editor a: dismissed (discard)"},
		{"error", OverlayResultMsg{ID: "a", Label: "editor", Err: context.Canceled}, "editor a: context canceled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describe(tt.msg))
		})
	}
}
