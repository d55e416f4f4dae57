package scheduler

import (
	"context"
	"log/slog"
	"time"

	"hnscrape/internal/pipeline"
)

// Scheduler re-runs the scrape pipeline at a fixed interval.
type Scheduler struct {
	runner   *pipeline.Runner
	interval time.Duration
	log      *slog.Logger
}

// New creates a scheduler.
func New(runner *pipeline.Runner, interval time.Duration, log *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{runner: runner, interval: interval, log: log}
}

// Run blocks until ctx is cancelled. A failed scrape is logged and the
// next tick still fires.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("scheduler: initial run")
	s.runOnce(ctx)
	s.log.Info("scheduler: running", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler: stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	sum, err := s.runner.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.Error("scheduler: run failed", "err", err)
		return
	}
	s.log.Info("scheduler: run complete",
		"pages_ok", sum.PagesOK, "pages_failed", sum.PagesFailed, "stories", sum.Stories)
}
