// Package retention decides which historical snapshot, if any, to delete
// after a successful backup run.
//
// The sweep removes at most one snapshot per run: the one dated exactly
// keepDays calendar days before today. This bounds cleanup cost per run
// and spreads deletion load across time, at the cost of requiring the job
// to run at least once per retention window: skipped runs leave their
// day's snapshot in place indefinitely. That accumulation is intentional
// and left to manual oversight.
package retention

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/raoulx24/rsync-snapper/internal/logging"
	"github.com/raoulx24/rsync-snapper/internal/snapshot"
)

// Policy holds the retention knobs for all sources.
type Policy struct {
	KeepDays         int
	KeepMonthlyFirst bool
}

// CandidateForDeletion computes today minus KeepDays in calendar days.
// AddDate does exact calendar arithmetic, so month/year boundaries, leap
// days and DST transitions behave like date subtraction, not 24h multiples.
func (p Policy) CandidateForDeletion(today time.Time) time.Time {
	return today.AddDate(0, 0, -p.KeepDays)
}

// ShouldDelete reports whether a snapshot dated date may be removed.
// Snapshots from the first day of a month are kept forever when
// KeepMonthlyFirst is set, regardless of age.
func (p Policy) ShouldDelete(date time.Time) bool {
	if p.KeepMonthlyFirst && date.Day() == 1 {
		return false
	}
	return true
}

// Engine applies the policy against a snapshot store.
type Engine struct {
	mu     sync.RWMutex
	policy Policy
	log    logging.Logger
}

func New(policy Policy, log logging.Logger) *Engine {
	return &Engine{policy: policy, log: log}
}

// UpdateConfig hot-reloads the policy.
func (e *Engine) UpdateConfig(policy Policy) {
	e.mu.Lock()
	e.policy = policy
	e.mu.Unlock()
}

// Apply runs one retention sweep. It returns the date of the removed
// snapshot, or "" when nothing was deleted. A missing candidate is a
// no-op, not an error: double sweeps for the same day are idempotent.
func (e *Engine) Apply(ctx context.Context, store snapshot.Store, today time.Time) (string, error) {
	e.mu.RLock()
	policy := e.policy
	e.mu.RUnlock()

	candidate := policy.CandidateForDeletion(today)
	date := candidate.Format(snapshot.DateLayout)

	if !policy.ShouldDelete(candidate) {
		e.log.Debug("retention: keeping first-of-month snapshot", "date", date)
		return "", nil
	}

	exists, err := store.Exists(ctx, date)
	if err != nil {
		return "", fmt.Errorf("checking snapshot %s: %w", date, err)
	}
	if !exists {
		e.log.Debug("retention: candidate absent, nothing to do", "date", date)
		return "", nil
	}

	if err := store.Remove(ctx, date); err != nil {
		return "", fmt.Errorf("removing snapshot %s: %w", date, err)
	}

	e.log.Info("retention: removed snapshot", "date", date)
	return date, nil
}
