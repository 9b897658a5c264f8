package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/pettycash/internal/config"
	"github.com/mamadbah2/pettycash/internal/service/reporting"
)

// SummarySyncer pushes closed month summaries to the accounting sheet.
type SummarySyncer interface {
	SyncPreviousMonth(ctx context.Context, now time.Time) (reporting.SyncReport, error)
}

// SessionSweeper expires idle sessions.
type SessionSweeper interface {
	Sweep(now time.Time, tombstoneTTL time.Duration) []string
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	cfg      config.Config
	syncer   SummarySyncer
	sessions SessionSweeper
	now      func() time.Time
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance. syncer may be nil when the
// spreadsheet is not configured.
func NewScheduler(cfg config.Config, syncer SummarySyncer, sessions SessionSweeper, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", cfg.Scheduler.Timezone, err)
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		cfg:      cfg,
		syncer:   syncer,
		sessions: sessions,
		now:      func() time.Time { return time.Now().In(loc) },
		logger:   logger,
	}, nil
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler")

	if s.syncer != nil {
		if _, err := s.cron.AddFunc(s.cfg.Scheduler.SheetsSyncCron, s.syncSummaries); err != nil {
			return fmt.Errorf("failed to schedule sheets sync: %w", err)
		}
	}
	if s.sessions != nil {
		if _, err := s.cron.AddFunc(s.cfg.Scheduler.SessionSweepCron, s.sweepSessions); err != nil {
			return fmt.Errorf("failed to schedule session sweep: %w", err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) syncSummaries() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := s.syncer.SyncPreviousMonth(ctx, s.now())
	if err != nil {
		s.logger.Error("failed to sync month summaries", zap.String("month", report.Month), zap.Error(err))
		return
	}
	s.logger.Info("month summaries synced", zap.String("month", report.Month), zap.Int("appended", report.Appended))
}

// Tombstones live as long as a token can, so an expired token never revives.
func (s *Scheduler) sweepSessions() {
	ttl := s.cfg.Auth.TokenTTL
	if ttl <= 0 {
		ttl = 2 * s.cfg.Session.IdleTimeout
	}
	expired := s.sessions.Sweep(s.now(), ttl)
	if len(expired) > 0 {
		s.logger.Info("idle sessions expired", zap.Int("count", len(expired)))
	}
}
