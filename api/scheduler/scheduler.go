package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/linesmerrill/dose-reminder-api/clock"
	"github.com/linesmerrill/dose-reminder-api/config"
	"github.com/linesmerrill/dose-reminder-api/intake"
	"github.com/linesmerrill/dose-reminder-api/supply"
)

// Reporter delivers a supply report, e.g. by email.
type Reporter interface {
	SendReport(r *supply.Report) error
}

// Scheduler handles periodic background jobs
type Scheduler struct {
	cron     *cron.Cron
	spec     string
	entries  Entries
	settings *config.Settings
	clock    clock.Clock
	reporter Reporter
}

// NewScheduler creates a new scheduler instance running the supply digest on
// the given cron spec.
func NewScheduler(spec string, entries Entries, settings *config.Settings, c clock.Clock, reporter Reporter) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		spec:     spec,
		entries:  entries,
		settings: settings,
		clock:    c,
		reporter: reporter,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.sendDigest)
	if err != nil {
		return fmt.Errorf("while registering supply digest %q: %w", s.spec, err)
	}

	s.cron.Start()
	zap.S().Infow("supply digest scheduled", "spec", s.spec)
	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("scheduler stopped")
}

func (s *Scheduler) sendDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.RunDigest(ctx); err != nil {
		zap.S().Errorw("failed to send supply digest", "error", err)
	}
}

// RunDigest checks every drug and reports the ones needing a refill or
// replacement. Nothing is sent when all is well or the threshold is 0.
func (s *Scheduler) RunDigest(ctx context.Context) error {
	threshold := s.settings.Threshold()
	if threshold == 0 {
		return nil
	}

	today := clock.Today(s.clock)
	drugs, err := s.entries.Drugs(ctx)
	if err != nil {
		return fmt.Errorf("while listing drugs: %w", err)
	}
	events, err := s.entries.DoseEvents(ctx, today)
	if err != nil {
		return fmt.Errorf("while listing dose events: %w", err)
	}

	report := supply.New(intake.NewIndex(events), s.clock, threshold).Check(drugs, today)
	if report.Empty() {
		zap.S().Debugw("no medication needs attention", "date", clock.FormatDate(today))
		return nil
	}
	zap.S().Infow("sending supply digest", "lowSupply", len(report.LowSupply), "expiringSoon", len(report.ExpiringSoon))
	return s.reporter.SendReport(&report)
}
