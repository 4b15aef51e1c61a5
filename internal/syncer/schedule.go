// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/toeirei/garmin-health-data/internal/logging"
)

// Scheduler repeats a job on a standard five-field cron schedule. A run
// that is still busy when the next one is due causes that tick to be skipped.
type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	spec     string
	job      func(context.Context) error
}

// NewScheduler parses a standard five-field cron expression for job.
func NewScheduler(spec string, job func(context.Context) error) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		schedule: schedule,
		spec:     spec,
		job:      job,
	}, nil
}

// Next returns the first activation after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Run executes the job on schedule until ctx is done, then waits for a
// running job to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		if err := s.job(ctx); err != nil {
			logging.Warnf("scheduled sync failed: %v", err)
		}
		logging.Infof("next sync at %s", s.Next(time.Now()).Format(time.RFC3339))
	}))
	s.cron.Start()
	logging.Infof("sync scheduled (%s), next run at %s", s.spec, s.Next(time.Now()).Format(time.RFC3339))

	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}
