package services

import (
	"context"
	"time"

	"gearguard/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// MaintenanceScheduler runs the periodic housekeeping jobs: the overdue
// sweep and expired refresh token cleanup
type MaintenanceScheduler struct {
	requests  repositories.RequestRepository
	tokens    repositories.RefreshTokenRepository
	sweepSpec string
	cron      *cron.Cron
	logger    *zap.Logger
	now       func() time.Time
}

// NewMaintenanceScheduler creates a scheduler; sweepSpec is a standard
// five-field cron expression
func NewMaintenanceScheduler(
	requests repositories.RequestRepository,
	tokens repositories.RefreshTokenRepository,
	sweepSpec string,
	logger *zap.Logger,
) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		requests:  requests,
		tokens:    tokens,
		sweepSpec: sweepSpec,
		cron:      cron.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// Start registers the jobs, runs one sweep immediately and starts the cron loop
func (s *MaintenanceScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.sweepSpec, func() { s.runSweep() }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@daily", func() { s.runTokenCleanup() }); err != nil {
		return err
	}

	s.runSweep()
	s.cron.Start()
	s.logger.Info("Maintenance scheduler started", zap.String("overdue_sweep", s.sweepSpec))
	return nil
}

// Stop waits for running jobs to finish
func (s *MaintenanceScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Maintenance scheduler stopped")
}

func (s *MaintenanceScheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, _, err := s.SweepOverdue(ctx); err != nil {
		s.logger.Error("Overdue sweep failed", zap.Error(err))
	}
}

func (s *MaintenanceScheduler) runTokenCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	n, err := s.tokens.DeleteExpired(ctx)
	if err != nil {
		s.logger.Error("Refresh token cleanup failed", zap.Error(err))
		return
	}
	s.logger.Info("Expired refresh tokens removed", zap.Int64("count", n))
}

// SweepOverdue refreshes the persisted overdue flag against the start of
// today and logs the resulting overdue count
func (s *MaintenanceScheduler) SweepOverdue(ctx context.Context) (marked, cleared int64, err error) {
	now := s.now()
	y, m, d := now.Date()
	cutoff := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	marked, cleared, err = s.requests.SweepOverdue(ctx, cutoff)
	if err != nil {
		return 0, 0, err
	}

	total, err := s.requests.CountOverdue(ctx)
	if err != nil {
		return marked, cleared, err
	}
	s.logger.Info("Overdue sweep finished",
		zap.Int64("marked", marked),
		zap.Int64("cleared", cleared),
		zap.Int64("overdue", total),
	)
	return marked, cleared, nil
}
