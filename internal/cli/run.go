package cli

import (
	"context"
	"errors"
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"overlaykit/internal/overlay"
	"overlaykit/internal/ui"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the terminal UI",
		Long: `Start the overlay demo in the terminal.

SPC opens the leader menu: SPC o c/r/p/e/l opens a confirm, a fixed-id
confirm, a prompt, the guarded editor or a list; SPC x closes everything.
Closed overlays stay visible for the reaper threshold before they are purged.

Logs go to --log-file; without it they are discarded while the UI runs.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd.Context(), rootOpts)
		},
	}
}

func runUI(ctx context.Context, opts *RootOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	// Log output would corrupt the alt screen.
	logger := log.New(io.Discard, "", log.LstdFlags)
	if opts.LogFile != "" {
		f, err := tea.LogToFile(opts.LogFile, "overlaydemo")
		if err != nil {
			return err
		}
		defer f.Close()
		logger = log.Default()
	}

	env, err := setup(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer env.close(context.Background())

	mgr := overlay.NewManager(env.managerOptions()...)
	reaper := overlay.NewReaper(mgr.Store(), env.cfg.ReaperOptions()...)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	reaped := make(chan error, 1)
	go func() { reaped <- reaper.Run(ctx) }()

	app := ui.NewAppModel(mgr, env.guards)
	defer app.Host.Close()
	p := tea.NewProgram(app.AsTeaModel(), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()

	cancel()
	if rerr := <-reaped; rerr != nil && !errors.Is(rerr, context.Canceled) {
		env.logger.Printf("overlaydemo: reaper: %v", rerr)
	}
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
