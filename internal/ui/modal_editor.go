package ui

import (
	"context"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"overlaykit/internal/guard"
	"overlaykit/internal/overlay"
)

// EditorModal edits multi-line text and refuses to close while it holds
// unsaved changes. Ctrl+S saves and closes with the text, Esc tries to close,
// Ctrl+D discards by dismissing.
type EditorModal struct {
	title   string
	area    textarea.Model
	saved   string
	dirty   atomic.Bool
	blocked bool
	rule    *guard.Program
}

var _ Component = (*EditorModal)(nil)

// NewEditorModal creates an editor seeded with text. A nil rule blocks
// closing exactly while there are unsaved changes; otherwise rule is
// evaluated with the variables dirty and title.
func NewEditorModal(title, text string, rule *guard.Program) *EditorModal {
	ta := textarea.New()
	ta.SetWidth(50)
	ta.SetHeight(6)
	ta.SetValue(text)
	ta.Focus()
	return &EditorModal{title: title, area: ta, saved: text, rule: rule}
}

// Dirty reports whether the text differs from the last save.
func (m *EditorModal) Dirty() bool { return m.dirty.Load() }

// Value returns the current text.
func (m *EditorModal) Value() string { return m.area.Value() }

// beforeClose runs off the event loop, so it only reads the atomic flag.
func (m *EditorModal) beforeClose() overlay.Guard {
	if m.rule != nil {
		return m.rule.Guard(func() map[string]any {
			return map[string]any{"dirty": m.dirty.Load(), "title": m.title}
		})
	}
	return func(context.Context) (bool, error) {
		return !m.dirty.Load(), nil
	}
}

// Init implements Component.
func (m *EditorModal) Init(self *overlay.Self) tea.Cmd {
	self.BeforeClose(m.beforeClose())
	return textarea.Blink
}

// Update implements Component.
func (m *EditorModal) Update(msg tea.Msg, self *overlay.Self) (Component, tea.Cmd) {
	switch msg := msg.(type) {
	case CloseAttemptMsg:
		if msg.ID == self.ID() {
			m.blocked = !msg.Committed
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, CloseCmd(self, nil)
		case "ctrl+s":
			m.saved = m.area.Value()
			m.dirty.Store(false)
			m.blocked = false
			return m, CloseCmd(self, m.saved)
		case "ctrl+d":
			return m, DismissCmd(self, "discard")
		}
	}
	var cmd tea.Cmd
	m.area, cmd = m.area.Update(msg)
	m.dirty.Store(m.area.Value() != m.saved)
	if !m.dirty.Load() {
		m.blocked = false
	}
	return m, cmd
}

// View implements Component.
func (m *EditorModal) View(*overlay.Self) string {
	title := m.title
	if m.dirty.Load() {
		title += " *"
	}
	content := Styles.Title.Render(title) + "\n\n"
	content += m.area.View()
	if m.blocked {
		content += "\n" + Styles.Details.Render("Unsaved changes. Ctrl+S to save or Ctrl+D to discard.")
	}
	content += "\n\n" + Styles.Hint.Render("Ctrl+S: save  Esc: close  Ctrl+D: discard")
	return Styles.Box.Render(content)
}
