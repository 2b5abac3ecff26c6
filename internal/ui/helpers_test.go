package ui

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"overlaykit/internal/overlay"
)

func newTestManager() *overlay.Manager {
	return overlay.NewManager(
		overlay.WithIDGenerator(overlay.NewCounterGenerator("ui")),
		overlay.WithLogger(log.New(io.Discard, "", 0)),
	)
}

// newTestHost returns a host that has already subscribed. Commands returned
// by Init are not run: one of them blocks until the store changes.
func newTestHost(t *testing.T, mgr *overlay.Manager) *Host {
	t.Helper()
	h := NewHost(mgr)
	h.Init()
	t.Cleanup(h.Close)
	return h
}

// openSync opens content and lets the host pick it up.
func openSync(t *testing.T, mgr *overlay.Manager, h *Host, content overlay.Content, opts ...overlay.OpenOption) *overlay.Handle {
	t.Helper()
	handle := mgr.Open(context.Background(), content, opts...)
	h.Update(StoreChangedMsg{})
	return handle
}

// run executes cmd and returns its message, or nil for a nil cmd.
func run(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

func waitResult(t *testing.T, h *overlay.Handle) (overlay.Result, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := h.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "handle never settled")
	return res, err
}

// spyComponent records the calls the host makes.
type spyComponent struct {
	name  string
	inits int
	keys  []string
	other []tea.Msg
}

func (c *spyComponent) Init(*overlay.Self) tea.Cmd {
	c.inits++
	return nil
}

func (c *spyComponent) Update(msg tea.Msg, self *overlay.Self) (Component, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		c.keys = append(c.keys, msg.String())
		if msg.String() == "enter" {
			return c, CloseCmd(self, c.name)
		}
	default:
		c.other = append(c.other, msg)
	}
	return c, nil
}

func (c *spyComponent) View(self *overlay.Self) string {
	return "[" + c.name + " " + self.ID() + "]"
}
