package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"overlaykit/internal/overlay"
)

// PromptModal asks for a single line of text. Enter closes with the trimmed
// value; Esc dismisses.
type PromptModal struct {
	title string
	input textinput.Model
}

var _ Component = (*PromptModal)(nil)

// NewPromptModal creates a prompt with the given title and placeholder.
func NewPromptModal(title, placeholder string) *PromptModal {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Width = 40
	ti.Focus()
	return &PromptModal{title: title, input: ti}
}

// Value returns the current input.
func (m *PromptModal) Value() string { return m.input.Value() }

// Init implements Component.
func (m *PromptModal) Init(*overlay.Self) tea.Cmd {
	return textinput.Blink
}

// Update implements Component.
func (m *PromptModal) Update(msg tea.Msg, self *overlay.Self) (Component, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			return m, DismissCmd(self, "esc")
		case "enter":
			value := strings.TrimSpace(m.input.Value())
			if value != "" {
				return m, CloseCmd(self, value)
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements Component.
func (m *PromptModal) View(*overlay.Self) string {
	content := Styles.Title.Render(m.title) + "\n\n"
	content += m.input.View() + "\n\n"
	content += Styles.Hint.Render("Enter: submit  Esc: cancel")
	return Styles.Box.Render(content)
}
