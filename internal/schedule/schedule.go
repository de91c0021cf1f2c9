package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"github.com/HumbledDS/job-market-pipeline/internal/pipeline"
)

// Runner runs one full pipeline pass. *pipeline.Runner satisfies it.
type Runner interface {
	Run(ctx context.Context) (pipeline.Result, error)
}

// Scheduler re-runs the pipeline on a cron spec so the dataset stays fresh
// without manual invocations.
type Scheduler struct {
	runner  Runner
	spec    string
	logger  *slog.Logger
	running atomic.Bool
}

// New creates a scheduler that fires on spec, e.g. "@every 6h" or "0 7 * * *".
func New(runner Runner, spec string, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner: runner,
		spec:   spec,
		logger: logger,
	}
}

// Run registers the cron entry, fires one immediate pass so the database is
// populated without waiting for the first tick, then blocks until ctx is
// cancelled. Returns nil on graceful shutdown.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(cron.WithLogger(cronLogger{logger: s.logger}))

	if _, err := c.AddFunc(s.spec, func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("registering cron entry %q: %w", s.spec, err)
	}

	s.logger.Info("starting scheduler", "spec", s.spec)
	c.Start()

	// First pass right away; later passes come from cron ticks.
	s.runOnce(ctx)

	<-ctx.Done()
	s.logger.Info("shutting down scheduler")

	// Stop returns a context that is done once in-flight jobs finish.
	<-c.Stop().Done()
	return nil
}

// runOnce executes a single pipeline pass, skipping the tick if the previous
// pass is still in flight (a slow pass can outlast the cron interval).
func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("previous pipeline run still in flight, skipping this tick")
		return
	}
	defer s.running.Store(false)

	res, err := s.runner.Run(ctx)
	if err != nil {
		s.logger.Error("scheduled pipeline run failed", "error", err)
		return
	}

	s.logger.Info("scheduled pipeline run complete",
		"run_id", res.RunID,
		"loaded", res.Loaded,
		"enriched", res.Enriched,
	)
}

var _ cron.Logger = cronLogger{}

// cronLogger adapts slog to cron's logger interface. Cron's routine chatter
// (wake and run events) goes to debug.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
