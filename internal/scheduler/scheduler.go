package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"webinar_archive/internal/domain"
)

const defaultTimeout = 5 * time.Minute

// Syncer defines the interface for sync operations.
type Syncer interface {
	Sync(ctx context.Context) (*domain.SyncStats, error)
}

type Option func(*Scheduler)

// WithRunOnStart runs one sync as soon as Start is called.
func WithRunOnStart(run bool) Option {
	return func(s *Scheduler) { s.runOnStart = run }
}

// WithTimeout bounds every individual run.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.location = loc
		}
	}
}

// Scheduler triggers syncs either on a fixed interval or on a cron schedule.
// A trigger that fires while a run is still in progress is skipped.
type Scheduler struct {
	syncer     Syncer
	interval   time.Duration
	spec       string
	schedule   cron.Schedule
	location   *time.Location
	timeout    time.Duration
	runOnStart bool
	running    atomic.Bool
	logger     *slog.Logger
}

func NewScheduler(syncer Syncer, interval time.Duration, logger *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		syncer:   syncer,
		interval: interval,
		location: time.Local,
		timeout:  defaultTimeout,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewCronScheduler builds a scheduler driven by a standard five-field cron
// expression or a descriptor such as "@daily".
func NewCronScheduler(syncer Syncer, spec string, logger *slog.Logger, opts ...Option) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}

	s := NewScheduler(syncer, 0, logger, opts...)
	s.spec = spec
	s.schedule = schedule
	return s, nil
}

// Start blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.schedule == nil && s.interval <= 0 {
		return fmt.Errorf("scheduler needs a positive interval or a schedule")
	}

	if s.runOnStart {
		s.runSync(ctx)
	}

	if s.schedule != nil {
		return s.startCron(ctx)
	}

	s.logger.Info("scheduler started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runSync(ctx)
		}
	}
}

func (s *Scheduler) startCron(ctx context.Context) error {
	c := cron.New(cron.WithLocation(s.location))
	c.Schedule(s.schedule, cron.FuncJob(func() { s.runSync(ctx) }))
	c.Start()

	s.logger.Info("scheduler started",
		"schedule", s.spec,
		"next_run", s.schedule.Next(time.Now().In(s.location)),
	)

	<-ctx.Done()

	// Wait for a run that is already executing.
	<-c.Stop().Done()
	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

func (s *Scheduler) runSync(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("previous sync still running, skipping trigger")
		return
	}
	defer s.running.Store(false)

	syncCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.syncer.Sync(syncCtx); err != nil {
		s.logger.Error("sync failed", "error", err)
	}
}
