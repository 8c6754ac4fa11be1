// Package mailbox coalesces run requests for the scheduler loop.
//
// It is a single-slot buffer, NOT a queue: when a scheduled tick fires
// while a run is still executing, at most one pending request is kept and
// a newer tick replaces it. Latest always wins.
package mailbox

import (
	"context"
	"sync"
	"time"
)

// RunRequest asks the consumer loop to execute one full backup run.
type RunRequest struct {
	At time.Time // when the request was raised
}

type Mailbox struct {
	mu sync.Mutex
	ch chan RunRequest
}

func New() *Mailbox {
	return &Mailbox{ch: make(chan RunRequest, 1)}
}

// Post stores a request, replacing any pending one. It never blocks.
func (m *Mailbox) Post(r RunRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// drop the stale pending request, if any
	select {
	case <-m.ch:
	default:
	}
	m.ch <- r
}

// Next blocks until a request is available or the context is cancelled.
func (m *Mailbox) Next(ctx context.Context) (RunRequest, bool) {
	select {
	case r := <-m.ch:
		return r, true
	case <-ctx.Done():
		return RunRequest{}, false
	}
}

// Pending reports whether a request is currently waiting.
func (m *Mailbox) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ch) > 0
}
