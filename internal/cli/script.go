package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"overlaykit/internal/overlay"
)

// NewScriptCommand creates the script command.
func NewScriptCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "script",
		Short: "Walk through the lifecycle scenarios without a UI",
		Long: `Run the overlay lifecycle scenarios headlessly and print each step:

  1. open then close settles the handle with the close result
  2. a refusing guard keeps the occupant when the same id is reopened
  3. dismiss rejects the handle without consulting a guard
  4. close-all empties the store without onClose callbacks
  5. closed overlays stay for the reaper threshold, then are purged

The reaper threshold comes from the config; time is simulated.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			logger := log.Default()
			if !rootOpts.Verbose {
				logger = log.New(io.Discard, "", 0)
			}
			env, err := setup(ctx, rootOpts, logger)
			if err != nil {
				return err
			}
			defer env.close(context.Background())
			return RunScript(ctx, cmd.OutOrStdout(), env.cfg.Reaper.Threshold, env.managerOptions()...)
		},
	}
}

// scriptClock is advanced by hand so the grace window can be shown without
// sleeping.
type scriptClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *scriptClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *scriptClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// errScenario marks an outcome that differs from the documented behavior.
var errScenario = errors.New("scenario failed")

func expect(ok bool, format string, args ...any) error {
	if ok {
		return nil
	}
	return fmt.Errorf("%w: %s", errScenario, fmt.Sprintf(format, args...))
}

// RunScript runs the five lifecycle scenarios on fresh managers built with
// opts and writes a line per step to w. It stops at the first outcome that
// does not match.
func RunScript(ctx context.Context, w io.Writer, threshold time.Duration, opts ...overlay.ManagerOption) error {
	scenarios := []struct {
		name string
		run  func(ctx context.Context, w io.Writer, m *overlay.Manager, r *overlay.Reaper, clock *scriptClock) error
	}{
		{"open then close", scenarioOpenClose},
		{"guard refuses replacement", scenarioGuardRefuses},
		{"dismiss", scenarioDismiss},
		{"close all", scenarioCloseAll},
		{"grace window", scenarioGraceWindow},
	}
	for i, s := range scenarios {
		clock := &scriptClock{now: time.Unix(0, 0).UTC()}
		m := overlay.NewManager(append(opts[:len(opts):len(opts)], overlay.WithClock(clock))...)
		r := overlay.NewReaper(m.Store(), overlay.WithThreshold(threshold), overlay.WithReaperClock(clock))
		fmt.Fprintf(w, "scenario %d: %s\n", i+1, s.name)
		if err := s.run(ctx, w, m, r, clock); err != nil {
			return fmt.Errorf("scenario %d: %w", i+1, err)
		}
	}
	fmt.Fprintln(w, "all scenarios passed")
	return nil
}

func scenarioOpenClose(ctx context.Context, w io.Writer, m *overlay.Manager, _ *overlay.Reaper, _ *scriptClock) error {
	h := m.Open(ctx, "ContentA", overlay.WithData("hi"))
	rec, _ := m.Get(h.ID())
	fmt.Fprintf(w, "  open %s: records=%d open=%v data=%v settled=%v\n",
		h.ID(), m.All().Len(), rec.IsOpen(), rec.Data(), h.Settled())
	if err := expect(m.All().Len() == 1 && rec.IsOpen() && rec.Data() == "hi" && !h.Settled(),
		"unexpected state after open"); err != nil {
		return err
	}

	m.Close(ctx, h.ID(), "done")
	res, err := h.Wait(ctx)
	if err != nil {
		return err
	}
	rec, _ = m.Get(h.ID())
	fmt.Fprintf(w, "  close: result={%s %v} open=%v\n", res.Type, res.Data, rec.IsOpen())
	return expect(res.Type == overlay.ResultClose && res.Data == "done" && !rec.IsOpen(),
		"unexpected close result %+v", res)
}

func scenarioGuardRefuses(ctx context.Context, w io.Writer, m *overlay.Manager, _ *overlay.Reaper, _ *scriptClock) error {
	first := m.Open(ctx, "ContentA", overlay.WithID("fixed"), overlay.WithBeforeClose(overlay.Allow(false)))
	second := m.Open(ctx, "ContentB", overlay.WithID("fixed"))
	res, err := second.Wait(ctx)
	if err != nil {
		return err
	}
	rec, _ := m.Get("fixed")
	fmt.Fprintf(w, "  reopen fixed: abandoned=%v content=%v open=%v first-settled=%v\n",
		res.Abandoned(), rec.Content(), rec.IsOpen(), first.Settled())
	return expect(res.Abandoned() && rec.Content() == "ContentA" && rec.IsOpen() && !first.Settled(),
		"occupant was replaced")
}

func scenarioDismiss(ctx context.Context, w io.Writer, m *overlay.Manager, _ *overlay.Reaper, _ *scriptClock) error {
	guarded := false
	h := m.Open(ctx, "ContentA", overlay.WithBeforeClose(func(context.Context) (bool, error) {
		guarded = true
		return false, nil
	}))
	m.Dismiss(h.ID(), "esc")
	_, err := h.Wait(ctx)
	var de *overlay.DismissError
	if !errors.As(err, &de) {
		return expect(false, "want dismiss error, got %v", err)
	}
	rec, _ := m.Get(h.ID())
	fmt.Fprintf(w, "  dismiss: type=%s reason=%v open=%v guard-consulted=%v\n",
		de.Type(), de.Reason, rec.IsOpen(), guarded)
	return expect(de.Reason == "esc" && !rec.IsOpen() && !guarded, "unexpected dismiss outcome")
}

func scenarioCloseAll(ctx context.Context, w io.Writer, m *overlay.Manager, _ *overlay.Reaper, _ *scriptClock) error {
	onClose := 0
	var handles []*overlay.Handle
	for i := range 3 {
		handles = append(handles, m.Open(ctx, fmt.Sprintf("Content%d", i),
			overlay.WithOnClose(func(any) error { onClose++; return nil })))
	}
	fmt.Fprintf(w, "  opened %d\n", m.All().Len())
	m.CloseAll()
	cleared := 0
	for _, h := range handles {
		if res, err := h.Wait(ctx); err == nil && res.Type == overlay.ResultClear {
			cleared++
		}
	}
	fmt.Fprintf(w, "  close all: records=%d onClose-calls=%d cleared-handles=%d\n", m.All().Len(), onClose, cleared)
	return expect(m.All().Len() == 0 && onClose == 0 && cleared == 3, "close all was not a hard reset")
}

func scenarioGraceWindow(ctx context.Context, w io.Writer, m *overlay.Manager, r *overlay.Reaper, clock *scriptClock) error {
	h := m.Open(ctx, "ContentA")
	m.Close(ctx, h.ID(), nil)

	short := r.Threshold() / 2
	clock.Advance(short)
	purged := r.Sweep()
	present := m.Has(h.ID())
	fmt.Fprintf(w, "  after %s: purged=%d present=%v\n", short, purged, present)
	if r.Threshold() > 0 {
		if err := expect(present && purged == 0, "purged inside the grace window"); err != nil {
			return err
		}
	}

	clock.Advance(r.Threshold())
	purged = r.Sweep()
	present = m.Has(h.ID())
	fmt.Fprintf(w, "  after %s: purged=%d present=%v\n", short+r.Threshold(), purged, present)
	return expect(!present, "still present after the grace window")
}
