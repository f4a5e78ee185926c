// Package scheduler runs the periodic sweeps: closing expired rounds and
// force-finalizing stalled tiebreakers. Both sweeps are idempotent and safe
// to run on every instance concurrently, so no leader election is needed.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/leaguehq/auction-engine/internal/usecase"
)

type Config struct {
	CloseExpiredInterval time.Duration
	SweepStalledInterval time.Duration
}

type Scheduler struct {
	sched  gocron.Scheduler
	logger *slog.Logger
}

func New(
	cfg Config,
	roundService *usecase.RoundService,
	tiebreakerService *usecase.TiebreakerService,
	logger *slog.Logger,
) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CloseExpiredInterval <= 0 {
		cfg.CloseExpiredInterval = 30 * time.Second
	}
	if cfg.SweepStalledInterval <= 0 {
		cfg.SweepStalledInterval = time.Minute
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(cfg.CloseExpiredInterval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.CloseExpiredInterval)
			defer cancel()
			if err := roundService.CloseExpired(ctx); err != nil {
				logger.ErrorContext(ctx, "close expired sweep failed", "error", err)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("register close-expired job: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(cfg.SweepStalledInterval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.SweepStalledInterval)
			defer cancel()
			if err := tiebreakerService.SweepStalled(ctx); err != nil {
				logger.ErrorContext(ctx, "sweep stalled tiebreakers failed", "error", err)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("register sweep-stalled job: %w", err)
	}

	return &Scheduler{sched: sched, logger: logger}, nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
	s.logger.Info("sweep scheduler started")
}

func (s *Scheduler) Stop() error {
	return s.sched.Shutdown()
}
