package ui

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"overlaykit/internal/overlay"
)

// PickerModal selects one entry from a list. Enter closes with the selected
// string; Esc dismisses unless a filter is being edited.
type PickerModal struct {
	list list.Model
}

type pickerItem string

func (p pickerItem) FilterValue() string { return string(p) }
func (p pickerItem) Title() string       { return string(p) }
func (p pickerItem) Description() string { return "" }

var _ Component = (*PickerModal)(nil)

// NewPickerModal creates a picker over choices.
func NewPickerModal(title string, choices []string) *PickerModal {
	items := make([]list.Item, len(choices))
	for i, c := range choices {
		items[i] = pickerItem(c)
	}
	l := list.New(items, NewCompactListDelegate(), 40, 12)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()
	l.Styles.Title = Styles.Title
	return &PickerModal{list: l}
}

// Selected returns the highlighted choice.
func (m *PickerModal) Selected() (string, bool) {
	sel := m.list.SelectedItem()
	if sel == nil {
		return "", false
	}
	return string(sel.(pickerItem)), true
}

// Init implements Component.
func (m *PickerModal) Init(*overlay.Self) tea.Cmd {
	return nil
}

// Update implements Component.
func (m *PickerModal) Update(msg tea.Msg, self *overlay.Self) (Component, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch msg.String() {
		case "esc":
			if m.list.FilterState() == list.FilterApplied {
				m.list.ResetFilter()
				return m, nil
			}
			return m, DismissCmd(self, "esc")
		case "enter":
			if name, ok := m.Selected(); ok {
				return m, CloseCmd(self, name)
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements Component.
func (m *PickerModal) View(*overlay.Self) string {
	help := "Enter: select  /: filter  Esc: cancel"
	return Styles.BoxCompact.Render(m.list.View() + "\n" + Styles.Hint.Render(help))
}
