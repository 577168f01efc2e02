package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs the sweep hourly.
const DefaultSchedule = "@every 1h"

// sweepTimeout bounds one sweep so a stuck store cannot pile up runs.
const sweepTimeout = 5 * time.Minute

// Sweeper periodically reconciles every owner's badges. It backs up the
// message path when activity messages are lost.
type Sweeper struct {
	badges BadgeReconciler
	cron   *cron.Cron
	logger *slog.Logger

	mu      sync.Mutex
	lastRun time.Time
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewSweeper(badges BadgeReconciler, schedule string, logger *slog.Logger) (*Sweeper, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if schedule == "" {
		schedule = DefaultSchedule
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Sweeper{
		badges: badges,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.RunOnce(s.ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("parse schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.logger.Info("Starting badge sweep", "entries", len(s.cron.Entries()))
	s.cron.Start()
}

// Stop cancels a running sweep and waits for it to return or ctx to end.
func (s *Sweeper) Stop(ctx context.Context) {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("Badge sweep did not stop in time")
	}
}

// RunOnce sweeps every owner now and returns the number of badges awarded.
func (s *Sweeper) RunOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	start := time.Now()
	n, err := s.badges.ReconcileAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Badge sweep finished with errors", "error", err, "awarded", n)
	} else {
		s.logger.InfoContext(ctx, "Badge sweep finished", "awarded", n, "duration", time.Since(start))
	}

	s.mu.Lock()
	s.lastRun = start
	s.mu.Unlock()
	return n
}

// LastRun reports when the last sweep started; zero if none has.
func (s *Sweeper) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}
