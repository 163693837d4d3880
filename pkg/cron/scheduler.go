// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/FACorreiaa/receipt-pipeline/pkg/storage"
)

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron      *cron.Cron
	local     *storage.LocalStore
	retention time.Duration
	logger    *slog.Logger
}

// NewScheduler creates a new job scheduler. local may be nil when the S3
// backend is active; the janitor then has nothing to do.
func NewScheduler(local *storage.LocalStore, retention time.Duration, logger *slog.Logger) *Scheduler {
	// Create cron with seconds disabled (standard 5-field format)
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:      c,
		local:     local,
		retention: retention,
		logger:    logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	// Stale upload purge: runs daily at 3:00 AM
	_, err := s.cron.AddFunc("0 3 * * *", s.purgeStaleUploads)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers the purge (for testing/admin).
func (s *Scheduler) RunNow() {
	go s.purgeStaleUploads()
}

// purgeStaleUploads deletes local receipt artifacts past the retention window.
func (s *Scheduler) purgeStaleUploads() {
	if s.local == nil {
		return
	}

	s.logger.Info("starting stale upload purge",
		slog.Duration("retention", s.retention),
	)

	removed, err := s.local.Purge(s.retention)
	if err != nil {
		s.logger.Error("failed to purge stale uploads", slog.Any("error", err))
		return
	}

	s.logger.Info("stale upload purge completed",
		slog.Int("files_removed", removed),
	)
}
