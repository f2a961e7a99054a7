package cli

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/roach88/shelflife/internal/config"
	"github.com/roach88/shelflife/internal/expiry"
)

// newScheduler registers job on schedule. The scheduler is not started.
func newScheduler(schedule string, job func()) (*cron.Cron, error) {
	sched := cron.New(cron.WithParser(config.ScheduleParser))
	if _, err := sched.AddFunc(schedule, job); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return sched, nil
}

// runScheduler runs sched until ctx is done, then waits for running jobs.
func runScheduler(ctx context.Context, sched *cron.Cron) {
	sched.Start()
	<-ctx.Done()
	<-sched.Stop().Done()
}

// logSummary tallies the store and logs the counts.
func logSummary(e *env) (summaryReport, error) {
	s, ref, err := e.app.Summary()
	if err != nil {
		e.logger.Error("summary failed", "error", err)
		return summaryReport{}, err
	}
	report := newSummaryReport(s, expiry.DateOf(ref))
	attrs := []any{
		"reference", report.Reference,
		"urgent7", s.Urgent7,
		"expired", s.Expired,
		"warning30", s.Warning30,
		"preexpired90", s.PreExpired90,
		"ok", s.Ok,
	}
	if s.Urgent7 > 0 {
		e.logger.Warn("records expiring within 7 days", attrs...)
	} else {
		e.logger.Info("expiry summary", attrs...)
	}
	return report, nil
}
