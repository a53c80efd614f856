// Package digest runs the scheduled daily advisory digest for every user.
package digest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"asesor/internal/core"
	applog "asesor/internal/log"
	"asesor/internal/services"
	"asesor/internal/store"
)

// DashboardProvider computes an owner's dashboard for a day.
type DashboardProvider interface {
	Dashboard(ctx context.Context, owner string, asOf core.Date) (services.Dashboard, error)
}

// Entry is the digest of one owner.
type Entry struct {
	Owner      string
	Signals    int
	Notices    int
	Disposable core.Money
}

// Report summarises one digest run.
type Report struct {
	AsOf    core.Date
	Entries []Entry
	Failed  int
}

// Scheduler manages the digest cron job.
type Scheduler struct {
	cron       *cron.Cron
	users      store.UserStore
	dashboards DashboardProvider
	now        func() time.Time
	logger     *applog.Logger
	sl         *applog.StructuredLogger
	ctx        context.Context
}

// NewScheduler creates a Scheduler whose jobs run with ctx.
func NewScheduler(ctx context.Context, users store.UserStore, dashboards DashboardProvider, logger *applog.Logger) *Scheduler {
	if logger == nil {
		logger = applog.Wrap(nil, applog.ComponentDigest)
	}
	logger = logger.WithComponent(applog.ComponentDigest)
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		users:      users,
		dashboards: dashboards,
		now:        time.Now,
		logger:     logger,
		sl:         applog.NewStructuredLogger(logger),
		ctx:        ctx,
	}
}

// Register schedules the digest with a six-field cron expression.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	s.logger.Info("Digest scheduled", "cron", spec)
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started")
}

// Stop stops the scheduler and waits for a running digest to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
	}
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) run() {
	if _, err := s.RunOnce(s.ctx); err != nil {
		s.sl.LogError(s.ctx, "Digest run failed", err, applog.ComponentDigest, applog.OpRecommend, nil)
	}
}

// RunOnce computes today's dashboard for every user and logs the signals.
// A failing user is logged and skipped; the error reports all of them.
func (s *Scheduler) RunOnce(ctx context.Context) (Report, error) {
	asOf := core.DateOf(s.now())
	report := Report{AsOf: asOf}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return report, fmt.Errorf("list users: %w", err)
	}

	var errs []error
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		d, err := s.dashboards.Dashboard(ctx, u.Username, asOf)
		if err != nil {
			report.Failed++
			errs = append(errs, fmt.Errorf("%s: %w", u.Username, err))
			s.sl.LogError(ctx, "Digest failed for user", err, applog.ComponentDigest, applog.OpRecommend,
				applog.NewFields().WithOwner(u.Username))
			continue
		}
		report.Entries = append(report.Entries, Entry{
			Owner:      u.Username,
			Signals:    len(d.Signals),
			Notices:    len(d.Notices),
			Disposable: d.Summary.DisposableIncome,
		})
	}

	s.logger.InfoContext(ctx, "Digest completed",
		applog.FieldAsOf, asOf.String(),
		"users", len(users),
		"failed", report.Failed)
	return report, errors.Join(errs...)
}
