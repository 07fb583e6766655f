// Package jobs runs background maintenance for the server.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/lvgames/internal/repository"
)

// Retention periodically deletes session results older than a cutoff.
type Retention struct {
	repo      repository.ResultRepository
	keep      time.Duration
	interval  time.Duration
	logger    *logrus.Entry
	clock     func() time.Time
	scheduler *gocron.Scheduler
}

// NewRetention prunes results older than keep every interval. A zero keep
// disables pruning.
func NewRetention(repo repository.ResultRepository, keep, interval time.Duration, logger *logrus.Logger) *Retention {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Retention{
		repo:     repo,
		keep:     keep,
		interval: interval,
		logger:   logger.WithField("job", "retention"),
		clock:    time.Now,
	}
}

// Prune deletes the results older than the retention window once.
func (r *Retention) Prune(ctx context.Context) (int64, error) {
	if r.keep <= 0 {
		return 0, nil
	}
	cutoff := r.clock().Add(-r.keep)
	removed, err := r.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune results before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	if removed > 0 {
		r.logger.WithFields(logrus.Fields{"removed": removed, "cutoff": cutoff}).Info("pruned session results")
	}
	return removed, nil
}

// Start schedules Prune on the interval, running it once immediately.
func (r *Retention) Start(ctx context.Context) error {
	if r.keep <= 0 {
		r.logger.Info("result retention disabled")
		return nil
	}
	s := gocron.NewScheduler(time.UTC)
	_, err := s.Every(r.interval).Do(func() {
		if _, err := r.Prune(ctx); err != nil {
			r.logger.WithError(err).Warn("retention run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule retention: %w", err)
	}
	s.StartAsync()
	r.scheduler = s
	r.logger.WithFields(logrus.Fields{"keep": r.keep, "interval": r.interval}).Info("result retention scheduled")
	return nil
}

// Stop halts the scheduler.
func (r *Retention) Stop() {
	if r.scheduler != nil {
		r.scheduler.Stop()
		r.scheduler = nil
	}
}
