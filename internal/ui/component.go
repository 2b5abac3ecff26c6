package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"overlaykit/internal/overlay"
)

// Component is overlay content the Host knows how to render. It follows
// Bubble Tea's Init/Update/View, with the overlay's Self passed to every
// call so content can read its data and close itself.
type Component interface {
	Init(self *overlay.Self) tea.Cmd
	Update(msg tea.Msg, self *overlay.Self) (Component, tea.Cmd)
	View(self *overlay.Self) string
}

// CloseCmd closes the overlay off the event loop, since its guard may take
// a while, and reports the outcome as a CloseAttemptMsg.
func CloseCmd(self *overlay.Self, result any) tea.Cmd {
	return func() tea.Msg {
		return CloseAttemptMsg{ID: self.ID(), Committed: self.Close(context.Background(), result)}
	}
}

// DismissCmd dismisses the overlay with reason.
func DismissCmd(self *overlay.Self, reason any) tea.Cmd {
	return func() tea.Msg {
		self.Dismiss(reason)
		return nil
	}
}

// textComponent renders content that is not a Component.
type textComponent struct {
	text string
}

func (c textComponent) Init(*overlay.Self) tea.Cmd { return nil }

func (c textComponent) Update(msg tea.Msg, self *overlay.Self) (Component, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		return c, DismissCmd(self, "esc")
	}
	return c, nil
}

func (c textComponent) View(*overlay.Self) string {
	return Styles.Box.Render(c.text + "\n\n" + Styles.Hint.Render("Esc: dismiss"))
}
