package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"overlaykit/internal/guard"
	"overlaykit/internal/overlay"
)

// maxResults is how many settled outcomes the app keeps on screen.
const maxResults = 6

// AppModel is the root model of the demo: a result log, the overlay host and
// the keybind help bar.
type AppModel struct {
	Mode    AppMode
	Manager *overlay.Manager
	Host    *Host
	Leader  *Leader
	Guards  *guard.Set
	Results []string
}

// Ensure AppModel can be used as tea.Model via adapter.
var _ tea.Model = (*appModelAdapter)(nil)

// appModelAdapter wraps AppModel to implement tea.Model.
type appModelAdapter struct {
	*AppModel
}

// NewAppModel creates the root model around mgr. guards may be nil.
func NewAppModel(mgr *overlay.Manager, guards *guard.Set) *AppModel {
	keys := NewKeymap()
	keys.Add("q", "Quit", tea.Quit, ModeIdle)
	keys.Add("ctrl+c", "Quit", tea.Quit, ModeIdle, ModeOverlay)
	keys.Add("ctrl+x", "Close all", msgCmd(CloseAllMsg{}), ModeOverlay)
	keys.Add("SPC q", "Quit", tea.Quit, ModeIdle)
	keys.Add("SPC x", "Close all", msgCmd(CloseAllMsg{}), ModeIdle)
	keys.Group("SPC o", "Open")
	keys.Add("SPC o c", "Confirm", msgCmd(OpenConfirmMsg{}), ModeIdle)
	keys.Add("SPC o r", "Confirm (fixed id)", msgCmd(OpenConfirmMsg{ID: "confirm"}), ModeIdle)
	keys.Add("SPC o p", "Prompt", msgCmd(OpenPromptMsg{}), ModeIdle)
	keys.Add("SPC o e", "Editor", msgCmd(OpenEditorMsg{}), ModeIdle)
	keys.Add("SPC o l", "List", msgCmd(OpenPickerMsg{}), ModeIdle)
	return &AppModel{
		Mode:    ModeIdle,
		Manager: mgr,
		Host:    NewHost(mgr),
		Leader:  NewLeader(keys),
		Guards:  guards,
	}
}

func msgCmd(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// AsTeaModel returns a tea.Model adapter for use with tea.NewProgram.
func (m *AppModel) AsTeaModel() tea.Model {
	return &appModelAdapter{AppModel: m}
}

// Init implements tea.Model.
func (a *appModelAdapter) Init() tea.Cmd {
	return a.Host.Init()
}

// Update implements tea.Model.
func (a *appModelAdapter) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := a.update(msg)
	a.Mode = ModeIdle
	if a.Host.HasOpen() {
		a.Mode = ModeOverlay
	}
	return a, cmd
}

func (a *appModelAdapter) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case OverlayResultMsg:
		a.record(describe(msg))
		return nil
	case OpenConfirmMsg:
		opts := []overlay.OpenOption{overlay.WithTitle("Confirm"), overlay.WithKind(overlay.KindModal)}
		modal := NewConfirmModal("Confirm", "Proceed with the demo action?")
		if msg.ID != "" {
			opts = append(opts, overlay.WithID(msg.ID))
			modal = NewDangerConfirmModal("Confirm", fmt.Sprintf("Opened under fixed id %q.", msg.ID)).
				WithDetails("Opening it again replaces this one.")
		}
		return a.openCmd("confirm", modal, opts...)
	case OpenPromptMsg:
		return a.openCmd("prompt", NewPromptModal("Your name", "name"),
			overlay.WithTitle("Prompt"), overlay.WithPosition(overlay.PositionTop))
	case OpenEditorMsg:
		var rule *guard.Program
		if a.Guards != nil {
			rule, _ = a.Guards.Lookup("editor")
		}
		return a.openCmd("editor", NewEditorModal("Notes", "", rule),
			overlay.WithTitle("Editor"), overlay.WithKind(overlay.KindModal))
	case OpenPickerMsg:
		choices := []string{"alpha", "bravo", "charlie", "delta", "echo"}
		return a.openCmd("picker", NewPickerModal("Pick one", choices),
			overlay.WithTitle("Picker"), overlay.WithKind(overlay.KindDrawer), overlay.WithPosition(overlay.PositionRight))
	case CloseAllMsg:
		a.Manager.CloseAll()
		return nil
	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a.Host.Update(msg)
}

func (a *appModelAdapter) handleKey(msg tea.KeyMsg) tea.Cmd {
	if a.Host.HasOpen() {
		if cmd := a.Leader.Keys().Lookup(msg.String(), ModeOverlay); cmd != nil {
			return cmd
		}
		return a.Host.Update(msg)
	}
	_, cmd := a.Leader.Handle(msg, ModeIdle)
	return cmd
}

// openCmd opens content and waits for it to settle, off the event loop.
func (a *AppModel) openCmd(label string, content overlay.Content, opts ...overlay.OpenOption) tea.Cmd {
	mgr := a.Manager
	return func() tea.Msg {
		ctx := context.Background()
		h := mgr.Open(ctx, content, opts...)
		res, err := h.Wait(ctx)
		return OverlayResultMsg{ID: h.ID(), Label: label, Result: res, Err: err}
	}
}

func (a *AppModel) record(line string) {
	a.Results = append(a.Results, line)
	if len(a.Results) > maxResults {
		a.Results = a.Results[len(a.Results)-maxResults:]
	}
}

// describe formats a settled outcome for the result log.
func describe(msg OverlayResultMsg) string {
	var dismissed *overlay.DismissError
	switch {
	case errors.As(msg.Err, &dismissed):
		return fmt.Sprintf("%s %s: dismissed (%v)", msg.Label, msg.ID, dismissed.Reason)
	case msg.Err != nil:
		return fmt.Sprintf("%s %s: %v", msg.Label, msg.ID, msg.Err)
	case msg.Result.Abandoned():
		return fmt.Sprintf("%s %s: abandoned", msg.Label, msg.ID)
	case msg.Result.Type == overlay.ResultClear:
		return fmt.Sprintf("%s %s: cleared", msg.Label, msg.ID)
	default:
		return fmt.Sprintf("%s %s: closed with %v", msg.Label, msg.ID, msg.Result.Data)
	}
}

// View implements tea.Model.
func (a *appModelAdapter) View() string {
	var b strings.Builder
	b.WriteString(Styles.Title.Render("overlaykit demo") + "\n")
	if len(a.Results) == 0 {
		b.WriteString(Styles.Empty.Render("Press SPC to open an overlay.") + "\n")
	}
	for _, r := range a.Results {
		b.WriteString(Styles.Status.Render(r) + "\n")
	}
	if v := a.Host.View(); v != "" {
		b.WriteString(v + "\n")
	}
	b.WriteString(RenderKeybindHelp(a.Leader, a.Mode))
	return b.String()
}
