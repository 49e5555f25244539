/**
 * @description
 * Cron scheduler setup for the reminder sweep and expiry scan jobs.
 */
package app

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/remindyoursubs/backend/internal/config"
)

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron   *cron.Cron
	jobs   *Jobs
	logger *slog.Logger
	config *config.Config
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(jobs *Jobs, logger *slog.Logger, cfg *config.Config) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:   c,
		jobs:   jobs,
		logger: logger,
		config: cfg,
	}
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.config.ReminderJobSchedule, s.jobs.ProcessDueReminders); err != nil {
		s.logger.Error("failed to schedule reminder sweep job", "error", err)
	} else {
		s.logger.Info("scheduled reminder sweep job", "schedule", s.config.ReminderJobSchedule)
	}

	if _, err := s.cron.AddFunc(s.config.ExpiryScanSchedule, s.jobs.ProcessExpiryAlerts); err != nil {
		s.logger.Error("failed to schedule expiry scan job", "error", err)
	} else {
		s.logger.Info("scheduled expiry scan job", "schedule", s.config.ExpiryScanSchedule)
	}

	s.cron.Start()
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
