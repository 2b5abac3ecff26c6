package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"overlaykit/internal/overlay"
)

// mounted is one record the host is currently rendering.
type mounted struct {
	rec  *overlay.Record
	self *overlay.Self
	comp Component
}

// Host renders the manager's store inside a Bubble Tea program.
// It is embedded by a parent model, which forwards messages to Update and
// appends View to its own output.
type Host struct {
	mgr *overlay.Manager

	changes chan struct{}
	done    chan struct{}
	unsub   func()

	snap    *overlay.Snapshot
	mounted map[uint64]*mounted
	width   int
}

// NewHost creates a host for mgr. Until Init runs it renders the empty
// server snapshot.
func NewHost(mgr *overlay.Manager) *Host {
	return &Host{
		mgr:     mgr,
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
		snap:    mgr.Store().ServerSnapshot(),
		mounted: make(map[uint64]*mounted),
	}
}

// Init subscribes to the store and mounts what is already open.
func (h *Host) Init() tea.Cmd {
	if h.unsub == nil {
		h.unsub = h.mgr.Store().Subscribe(h.notify)
	}
	return tea.Batch(h.sync(), h.waitForChange())
}

// notify runs on whichever goroutine changed the store; it only marks the
// host dirty so the program picks the change up on its own loop.
func (h *Host) notify() {
	select {
	case h.changes <- struct{}{}:
	default:
	}
}

func (h *Host) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-h.changes:
			return StoreChangedMsg{}
		case <-h.done:
			return nil
		}
	}
}

// Close unsubscribes from the store. The host must not be used afterwards.
func (h *Host) Close() {
	if h.unsub != nil {
		h.unsub()
		h.unsub = nil
	}
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

// Update handles store changes, routes keys to the topmost open overlay
// and passes every other message to all mounted components.
func (h *Host) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case StoreChangedMsg:
		return tea.Batch(h.sync(), h.waitForChange())
	case tea.WindowSizeMsg:
		h.width = msg.Width
	case tea.KeyMsg:
		top := h.top()
		if top == nil {
			return nil
		}
		return h.updateOne(top, msg)
	}
	var cmds []tea.Cmd
	for _, rec := range h.snap.Records() {
		if m := h.mounted[rec.Serial()]; m != nil {
			cmds = append(cmds, h.updateOne(m, msg))
		}
	}
	return tea.Batch(cmds...)
}

func (h *Host) updateOne(m *mounted, msg tea.Msg) tea.Cmd {
	next, cmd := m.comp.Update(msg, m.self)
	if next != nil {
		m.comp = next
	}
	return cmd
}

// sync reconciles mounted components with the current snapshot: new
// instances are mounted, vanished ones unmounted.
func (h *Host) sync() tea.Cmd {
	h.snap = h.mgr.All()
	seen := make(map[uint64]bool, h.snap.Len())
	var cmds []tea.Cmd
	for _, rec := range h.snap.Records() {
		serial := rec.Serial()
		seen[serial] = true
		if m, ok := h.mounted[serial]; ok {
			m.rec = rec
			continue
		}
		m := &mounted{rec: rec, self: h.mgr.SelfFor(rec), comp: componentFor(rec)}
		h.mounted[serial] = m
		cmds = append(cmds, m.comp.Init(m.self))
		h.mgr.Mounted(rec)
	}
	for serial, m := range h.mounted {
		if !seen[serial] {
			delete(h.mounted, serial)
			h.mgr.Unmounted(m.rec)
		}
	}
	return tea.Batch(cmds...)
}

func componentFor(rec *overlay.Record) Component {
	switch c := rec.Content().(type) {
	case Component:
		return c
	case fmt.Stringer:
		return textComponent{text: c.String()}
	case string:
		return textComponent{text: c}
	default:
		return textComponent{text: fmt.Sprintf("%v", c)}
	}
}

// top returns the topmost open overlay, the last one in insertion order.
func (h *Host) top() *mounted {
	open := h.snap.Open()
	for i := len(open) - 1; i >= 0; i-- {
		if m := h.mounted[open[i].Serial()]; m != nil {
			return m
		}
	}
	return nil
}

// HasOpen reports whether any overlay is open and takes key input.
func (h *Host) HasOpen() bool { return h.top() != nil }

// Len returns the number of rendered overlays, closing ones included.
func (h *Host) Len() int { return len(h.mounted) }

// SetSize sets the width overlays are positioned in.
func (h *Host) SetSize(width int) { h.width = width }

// View renders every overlay in insertion order. Overlays in their grace
// window render faint so an exit can be seen.
func (h *Host) View() string {
	var parts []string
	for _, rec := range h.snap.Records() {
		m := h.mounted[rec.Serial()]
		if m == nil {
			continue
		}
		v := m.comp.View(m.self)
		if !rec.IsOpen() {
			v = Styles.Closing.Render(v)
		}
		parts = append(parts, h.place(rec.Position(), v))
	}
	return strings.Join(parts, "\n")
}

func (h *Host) place(pos overlay.Position, v string) string {
	if h.width <= 0 {
		return v
	}
	switch pos {
	case overlay.PositionLeft:
		return lipgloss.PlaceHorizontal(h.width, lipgloss.Left, v)
	case overlay.PositionRight:
		return lipgloss.PlaceHorizontal(h.width, lipgloss.Right, v)
	default:
		return lipgloss.PlaceHorizontal(h.width, lipgloss.Center, v)
	}
}
