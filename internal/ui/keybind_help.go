package ui

import (
	"sort"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// RenderKeybindHelp renders the help bar: the keys that may follow a pending
// leader sequence, or, while an overlay owns the keyboard, the keys still
// honored there. It is empty otherwise.
func RenderKeybindHelp(l *Leader, mode AppMode) string {
	if l == nil {
		return ""
	}
	var bindings []key.Binding
	prefix := mode.String()
	switch {
	case l.Active():
		prefix = l.Pending()
		bindings = hintBindings(l.Keys().Next(prefix, mode))
		bindings = append(bindings, key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")))
	case mode == ModeOverlay:
		bindings = hintBindings(l.Keys().Direct(mode))
	}
	if len(bindings) == 0 {
		return ""
	}

	helpModel := help.New()
	helpModel.Styles.ShortKey = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHighlight)).
		Bold(true)
	helpModel.Styles.ShortDesc = Styles.Muted
	helpModel.Styles.ShortSeparator = Styles.Muted

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccent)).
		Padding(0, 1).
		MarginTop(1)
	return box.Render(Styles.Muted.Render(prefix) + " " + helpModel.ShortHelpView(bindings))
}

// hintBindings converts key -> description hints into bindings sorted by key.
func hintBindings(hints map[string]string) []key.Binding {
	keys := make([]string, 0, len(hints))
	for k := range hints {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]key.Binding, 0, len(keys))
	for _, k := range keys {
		out = append(out, key.NewBinding(key.WithKeys(k), key.WithHelp(k, hints[k])))
	}
	return out
}
