// Package scheduler runs backups on a cron schedule in daemon mode.
// Ticks go through a single-slot mailbox so a tick that fires while a
// run is still executing is coalesced instead of piling up.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/raoulx24/rsync-snapper/internal/logging"
	"github.com/raoulx24/rsync-snapper/internal/mailbox"
)

type Scheduler struct {
	cron *cron.Cron
	mb   *mailbox.Mailbox
	run  func(ctx context.Context)
	log  logging.Logger
}

// New parses spec as a standard cron expression and schedules run.
func New(spec string, run func(ctx context.Context), log logging.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(),
		mb:   mailbox.New(),
		run:  run,
		log:  log,
	}

	if _, err := s.cron.AddFunc(spec, func() {
		s.mb.Post(mailbox.RunRequest{At: time.Now()})
	}); err != nil {
		return nil, fmt.Errorf("parsing schedule %q: %w", spec, err)
	}

	return s, nil
}

// Trigger requests a run outside the schedule (startup, operator signal).
func (s *Scheduler) Trigger() {
	s.mb.Post(mailbox.RunRequest{At: time.Now()})
}

// Start blocks, executing one run at a time until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	defer s.cron.Stop()

	for {
		req, ok := s.mb.Next(ctx)
		if !ok {
			s.log.Info("scheduler stopped")
			return
		}
		s.log.Info("scheduled run starting", "requested", req.At.Format(time.RFC3339))
		s.run(ctx)
	}
}
