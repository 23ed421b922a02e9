// Package scheduler runs the recurring background jobs: the bulk portfolio
// snapshot and the purge of expired price cache entries.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/portfolio-analytics/internal/config"
	"github.com/ndewijer/portfolio-analytics/internal/model"
)

// SnapshotRunner snapshots every portfolio.
type SnapshotRunner interface {
	SnapshotAll(ctx context.Context) (model.SnapshotRunResult, error)
}

// CachePurger removes expired cache entries.
type CachePurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Scheduler wraps a cron instance evaluated in UTC.
type Scheduler struct {
	cron    *cron.Cron
	logger  *logrus.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
}

// New registers the configured jobs. An empty schedule disables its job and a nil
// purger skips cache purging (e.g. when the cache lives in Redis).
func New(cfg config.SchedulerConfig, snapshots SnapshotRunner, purger CachePurger, logger *logrus.Logger) (*Scheduler, error) {
	cronLogger := cron.PrintfLogger(logger)
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		timeout: time.Hour,
	}

	if cfg.SnapshotSchedule != "" && snapshots != nil {
		if _, err := s.cron.AddFunc(cfg.SnapshotSchedule, func() { s.runSnapshots(snapshots) }); err != nil {
			cancel()
			return nil, fmt.Errorf("invalid snapshot schedule %q: %w", cfg.SnapshotSchedule, err)
		}
	}

	if cfg.CachePurgeSchedule != "" && purger != nil {
		if _, err := s.cron.AddFunc(cfg.CachePurgeSchedule, func() { s.runPurge(purger) }); err != nil {
			cancel()
			return nil, fmt.Errorf("invalid cache purge schedule %q: %w", cfg.CachePurgeSchedule, err)
		}
	}

	return s, nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.WithField("jobs", len(s.cron.Entries())).Info("scheduler started")
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runSnapshots(snapshots SnapshotRunner) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	result, err := snapshots.SnapshotAll(ctx)
	if err != nil {
		s.logger.WithError(err).Error("scheduled snapshot run failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"created": result.Created,
		"failed":  result.Failed,
	}).Info("scheduled snapshot run completed")
}

func (s *Scheduler) runPurge(purger CachePurger) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	removed, err := purger.PurgeExpired(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("cache purge failed")
		return
	}
	s.logger.WithField("removed", removed).Debug("expired cache entries purged")
}
