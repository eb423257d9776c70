package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"portfolio-analytics-api/internal/config"
	"portfolio-analytics-api/internal/services"
)

// Scheduler runs the nightly batch analysis and snapshot retention cleanup
type Scheduler struct {
	cron    *cron.Cron
	service *services.AnalysisService
	config  config.SchedulerConfig
	logger  *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(service *services.AnalysisService, cfg config.SchedulerConfig, logger *logrus.Logger) (*Scheduler, error) {
	location, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone %q: %w", cfg.TimeZone, err)
	}

	return &Scheduler{
		cron:    cron.New(cron.WithLocation(location)),
		service: service,
		config:  cfg,
		logger:  logger,
	}, nil
}

// Start registers the jobs and starts the cron loop
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		s.logger.Info("Scheduler disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.config.BatchSchedule, s.runBatch); err != nil {
		return fmt.Errorf("failed to schedule batch job: %w", err)
	}

	if _, err := s.cron.AddFunc(s.config.CleanupSchedule, s.runCleanup); err != nil {
		return fmt.Errorf("failed to schedule cleanup job: %w", err)
	}

	s.cron.Start()
	s.logger.WithFields(logrus.Fields{
		"batch_schedule":   s.config.BatchSchedule,
		"cleanup_schedule": s.config.CleanupSchedule,
		"timezone":         s.config.TimeZone,
	}).Info("Scheduler started")

	return nil
}

// Stop stops the cron loop and waits for running jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

// runBatch is the nightly job: refresh stored daily returns first so the
// analyses read fresh values, then analyze every active portfolio.
func (s *Scheduler) runBatch() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	updated, err := s.service.RefreshAllDailyReturns(ctx)
	if err != nil {
		s.logger.Errorf("Scheduled daily return refresh failed: %v", err)
	} else if updated > 0 {
		s.logger.Infof("Refreshed %d daily returns before batch analysis", updated)
	}

	result, err := s.service.RunBatch(ctx, nil)
	if err != nil {
		s.logger.Errorf("Scheduled batch run failed: %v", err)
		return
	}

	s.logger.Infof("Scheduled batch run finished: %d/%d portfolios analyzed, %d alerts published",
		result.Success, result.Total, result.Alerts)
}

func (s *Scheduler) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if _, err := s.service.CleanupSnapshots(ctx, s.config.RetentionDays); err != nil {
		s.logger.Errorf("Scheduled snapshot cleanup failed: %v", err)
	}
}
