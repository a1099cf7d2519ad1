// Package worker runs the background deadline sweep.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scholarship-api/internal/config"
)

// Expirer is the part of the application service the sweep needs.
type Expirer interface {
	ExpireOverdue(ctx context.Context, now time.Time) ([]string, error)
}

// ExpiryScheduler expires overdue applications on a cron schedule. Sweeps
// never overlap; a tick that fires while a sweep is still running is skipped.
type ExpiryScheduler struct {
	cron    *cron.Cron
	expirer Expirer
	timeout time.Duration
	logger  zerolog.Logger
	now     func() time.Time
}

// NewExpiryScheduler validates the schedule and registers the sweep.
func NewExpiryScheduler(expirer Expirer, schedule string, logger zerolog.Logger) (*ExpiryScheduler, error) {
	s := &ExpiryScheduler{
		cron: cron.New(
			cron.WithParser(config.ScheduleParser),
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		expirer: expirer,
		timeout: 2 * time.Minute,
		logger:  logger.With().Str("component", "expiry_scheduler").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}

	if _, err := s.cron.AddFunc(schedule, func() {
		_, _ = s.RunOnce(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("register expiry sweep %q: %w", schedule, err)
	}

	return s, nil
}

// RunOnce performs a single sweep and returns the expired application IDs.
func (s *ExpiryScheduler) RunOnce(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := s.now()
	s.logger.Debug().Time("now", started).Msg("expiry sweep started")

	expired, err := s.expirer.ExpireOverdue(ctx, started)
	if err != nil {
		s.logger.Error().Err(err).Int("expired", len(expired)).Msg("expiry sweep failed")
		return expired, err
	}

	s.logger.Info().
		Int("expired", len(expired)).
		Dur("took", time.Since(started)).
		Msg("expiry sweep finished")
	return expired, nil
}

// Start begins running sweeps in the background.
func (s *ExpiryScheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *ExpiryScheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn().Msg("expiry sweep still running at shutdown")
	}
}
