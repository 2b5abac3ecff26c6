package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// leaderSeq is how the leader key (space) is written in sequences.
const leaderSeq = "SPC"

// Keymap holds the app's key bindings. Sequences are space-separated key
// strings in Bubble Tea notation with SPC for the leader: "ctrl+x", "SPC o e".
// Each binding is limited to the modes it was added for.
type Keymap struct {
	bindings map[string]binding
	groups   map[string]string // leader prefix -> submenu label
}

type binding struct {
	desc  string
	cmd   tea.Cmd
	modes []AppMode
}

func (b binding) in(mode AppMode) bool {
	for _, m := range b.modes {
		if m == mode {
			return true
		}
	}
	return false
}

// NewKeymap creates an empty keymap.
func NewKeymap() *Keymap {
	return &Keymap{
		bindings: make(map[string]binding),
		groups:   make(map[string]string),
	}
}

// Add binds seq to cmd in the given modes, replacing an earlier binding.
func (k *Keymap) Add(seq, desc string, cmd tea.Cmd, modes ...AppMode) {
	k.bindings[seq] = binding{desc: desc, cmd: cmd, modes: modes}
}

// Group labels a leader prefix such as "SPC o" in the help bar.
func (k *Keymap) Group(prefix, label string) {
	k.groups[prefix] = label
}

// Lookup returns the command bound to seq in mode, or nil.
func (k *Keymap) Lookup(seq string, mode AppMode) tea.Cmd {
	if b, ok := k.bindings[seq]; ok && b.in(mode) {
		return b.cmd
	}
	return nil
}

// continues reports whether a longer sequence starting with seq is bound in mode.
func (k *Keymap) continues(seq string, mode AppMode) bool {
	prefix := seq + " "
	for s, b := range k.bindings {
		if strings.HasPrefix(s, prefix) && b.in(mode) {
			return true
		}
	}
	return false
}

// Next returns the keys that may follow pending in mode, each with its
// binding's description or, for a key that opens a submenu, the group label.
func (k *Keymap) Next(pending string, mode AppMode) map[string]string {
	out := make(map[string]string)
	prefix := pending + " "
	for seq, b := range k.bindings {
		if !b.in(mode) || !strings.HasPrefix(seq, prefix) {
			continue
		}
		next, rest, _ := strings.Cut(strings.TrimPrefix(seq, prefix), " ")
		switch {
		case rest == "":
			out[next] = b.desc
		case k.groups[prefix+next] != "":
			out[next] = k.groups[prefix+next]
		default:
			out[next] = next + "…"
		}
	}
	return out
}

// Direct returns the single-key bindings of mode, those honored without
// the leader.
func (k *Keymap) Direct(mode AppMode) map[string]string {
	out := make(map[string]string)
	for seq, b := range k.bindings {
		if b.in(mode) && !strings.Contains(seq, " ") && seq != leaderSeq {
			out[seq] = b.desc
		}
	}
	return out
}

// Leader tracks a leader sequence being typed. Space starts one, Esc
// abandons it, and it ends at the first key that completes a binding or
// cannot lead to one.
type Leader struct {
	keys    *Keymap
	pending []string
}

// NewLeader creates a leader tracker over keys.
func NewLeader(keys *Keymap) *Leader {
	return &Leader{keys: keys}
}

// Active reports whether a sequence is being typed.
func (l *Leader) Active() bool { return len(l.pending) > 0 }

// Pending returns the sequence typed so far, e.g. "SPC o".
func (l *Leader) Pending() string { return strings.Join(l.pending, " ") }

// Keys returns the keymap the leader resolves against.
func (l *Leader) Keys() *Keymap { return l.keys }

// Handle feeds msg to the leader. consumed is false only for keys that are
// neither part of a sequence nor a direct binding of mode.
func (l *Leader) Handle(msg tea.KeyMsg, mode AppMode) (consumed bool, cmd tea.Cmd) {
	s := msg.String()
	if !l.Active() {
		if s == " " {
			l.pending = []string{leaderSeq}
			return true, nil
		}
		cmd := l.keys.Lookup(s, mode)
		return cmd != nil, cmd
	}

	if s == "esc" {
		l.pending = nil
		return true, nil
	}
	l.pending = append(l.pending, s)
	seq := l.Pending()
	if cmd := l.keys.Lookup(seq, mode); cmd != nil {
		l.pending = nil
		return true, cmd
	}
	if !l.keys.continues(seq, mode) {
		l.pending = nil
	}
	return true, nil
}
