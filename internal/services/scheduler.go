package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/partsdesk/partsdesk/internal/logger"
	"github.com/partsdesk/partsdesk/internal/metrics"
)

// JobWeekStatus is the name of the week status refresh job
const JobWeekStatus = "week_status_refresh"

// jobTimeout bounds a single run of a scheduled job
const jobTimeout = 5 * time.Minute

type cronPrinter struct{}

func (cronPrinter) Printf(format string, args ...interface{}) {
	logger.Debugf("cron: "+format, args...)
}

// Scheduler runs periodic maintenance jobs. A run that is still going when
// the next one is due makes the next one skip.
type Scheduler struct {
	cron      *cron.Cron
	timesheet *Timesheet
}

// NewScheduler registers the week status refresh on spec, a standard cron
// expression or a descriptor such as "@hourly"
func NewScheduler(spec string, timesheet *Timesheet) (*Scheduler, error) {
	cronLogger := cron.PrintfLogger(cronPrinter{})
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		timesheet: timesheet,
	}
	if _, err := s.cron.AddFunc(spec, func() { s.RunWeekStatusRefresh(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start starts running jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		logger.Info("Scheduler stopped")
	case <-ctx.Done():
		logger.Warn("Scheduler stop timed out with jobs still running")
	}
}

// RunWeekStatusRefresh runs the week status refresh once
func (s *Scheduler) RunWeekStatusRefresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	start := time.Now()
	changed, err := s.timesheet.RefreshWeekStatuses(ctx)
	metrics.ScheduledJobDuration.WithLabelValues(JobWeekStatus).Observe(time.Since(start).Seconds())
	if err != nil {
		logger.Errorf("Week status refresh failed: %v", err)
		return
	}
	logger.Infof("Week status refresh updated %d weeks", changed)
}
