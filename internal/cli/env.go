package cli

import (
	"context"
	"fmt"
	"log"

	"overlaykit/internal/config"
	"overlaykit/internal/guard"
	"overlaykit/internal/overlay"
	"overlaykit/internal/telemetry"
)

// environment is what every command builds from the global flags.
type environment struct {
	cfg      *config.Config
	guards   *guard.Set
	provider *telemetry.Provider
	logger   *log.Logger
}

func setup(ctx context.Context, opts *RootOptions, logger *log.Logger) (*environment, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	guards, err := guard.CompileAll(cfg.Guards)
	if err != nil {
		return nil, fmt.Errorf("compile guards: %w", err)
	}
	provider, err := telemetry.NewProvider(ctx)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	provider.Install()
	if opts.Verbose {
		logger.Printf("overlaydemo: reaper interval=%s threshold=%s id-prefix=%q guards=%v tracing=%v",
			cfg.Reaper.Interval, cfg.Reaper.Threshold, cfg.IDPrefix, guards.Names(), provider.Enabled())
	}
	return &environment{cfg: cfg, guards: guards, provider: provider, logger: logger}, nil
}

// managerOptions configures a manager from the environment. extra options
// are applied last.
func (e *environment) managerOptions(extra ...overlay.ManagerOption) []overlay.ManagerOption {
	opts := []overlay.ManagerOption{
		overlay.WithIDGenerator(e.cfg.IDGenerator()),
		overlay.WithLogger(e.logger),
		overlay.WithTracer(e.provider.Tracer("overlaykit/overlay")),
	}
	return append(opts, extra...)
}

func (e *environment) close(ctx context.Context) {
	if err := e.provider.Shutdown(ctx); err != nil {
		e.logger.Printf("overlaydemo: telemetry shutdown: %v", err)
	}
}
