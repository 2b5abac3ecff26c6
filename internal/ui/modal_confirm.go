package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"overlaykit/internal/overlay"
)

// ConfirmModal asks a yes/no question. y or Enter closes with true, n closes
// with false, Esc dismisses.
type ConfirmModal struct {
	Title       string
	Label       string
	Details     string // Optional warning details
	boxStyle    lipgloss.Style
	titleStyle  lipgloss.Style
	detailStyle lipgloss.Style
}

var _ Component = (*ConfirmModal)(nil)

// NewConfirmModal creates a confirmation modal.
func NewConfirmModal(title, label string) *ConfirmModal {
	return &ConfirmModal{
		Title:       title,
		Label:       label,
		boxStyle:    Styles.Box,
		titleStyle:  Styles.Title,
		detailStyle: Styles.Details,
	}
}

// NewDangerConfirmModal creates a confirmation modal styled for destructive actions.
func NewDangerConfirmModal(title, label string) *ConfirmModal {
	m := NewConfirmModal(title, label)
	m.boxStyle = Styles.BoxDanger
	m.titleStyle = Styles.TitleWarning
	return m
}

// WithDetails adds warning details to the modal.
func (m *ConfirmModal) WithDetails(details string) *ConfirmModal {
	m.Details = details
	return m
}

// Init implements Component.
func (m *ConfirmModal) Init(*overlay.Self) tea.Cmd {
	return nil
}

// Update implements Component.
func (m *ConfirmModal) Update(msg tea.Msg, self *overlay.Self) (Component, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			return m, DismissCmd(self, "esc")
		case "enter", "y":
			return m, CloseCmd(self, true)
		case "n":
			return m, CloseCmd(self, false)
		}
	}
	return m, nil
}

// View implements Component.
func (m *ConfirmModal) View(self *overlay.Self) string {
	title := m.Title
	if title == "" {
		title = self.Title()
	}
	content := m.titleStyle.Render(title) + "\n\n"
	content += Styles.Label.Render(m.Label)
	if m.Details != "" {
		content += "\n" + m.detailStyle.Render(m.Details)
	}
	content += "\n\n" + Styles.Hint.Render("y/Enter: confirm  n: decline  Esc: cancel")
	return m.boxStyle.Render(content)
}
