// Package orchestrator drives one backup run per source path:
// lock, transfer, promote the latest pointer, sweep retention.
package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/raoulx24/rsync-snapper/internal/config"
	"github.com/raoulx24/rsync-snapper/internal/lock"
	"github.com/raoulx24/rsync-snapper/internal/logging"
	"github.com/raoulx24/rsync-snapper/internal/retention"
	"github.com/raoulx24/rsync-snapper/internal/runlog"
	"github.com/raoulx24/rsync-snapper/internal/snapshot"
	"github.com/raoulx24/rsync-snapper/internal/transfer"
)

// StoreFactory yields the destination store for a source path.
type StoreFactory interface {
	For(sourcePath string) snapshot.Store
}

// Outcome is the terminal result of one source path's run.
type Outcome struct {
	Source   string
	Snapshot string // promoted snapshot date, "" on failure
	Bytes    int64
	Err      error
}

func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Failed reports whether any path in a run failed. The process exit
// status is the logical OR of per-path failures.
func Failed(outcomes []Outcome) bool {
	for _, o := range outcomes {
		if o.Failed() {
			return true
		}
	}
	return false
}

type Orchestrator struct {
	mu          sync.RWMutex
	locks       *lock.Manager
	xfer        transfer.Transfer
	ret         *retention.Engine
	stores      StoreFactory
	logDir      string
	concurrency int
	log         logging.Logger
	now         func() time.Time
}

func New(cfg *config.Config, xfer transfer.Transfer, ret *retention.Engine, stores StoreFactory, log logging.Logger) *Orchestrator {
	return &Orchestrator{
		locks:       lock.NewManager(cfg.LockDirectory),
		xfer:        xfer,
		ret:         ret,
		stores:      stores,
		logDir:      cfg.LogDirectory,
		concurrency: cfg.Concurrency,
		log:         log,
		now:         time.Now,
	}
}

// UpdateConfig hot-reloads the settings that may change between runs.
func (o *Orchestrator) UpdateConfig(cfg *config.Config) {
	o.mu.Lock()
	o.logDir = cfg.LogDirectory
	o.concurrency = cfg.Concurrency
	o.mu.Unlock()

	o.ret.UpdateConfig(retention.Policy{
		KeepDays:         cfg.Retention.KeepDays,
		KeepMonthlyFirst: cfg.Retention.KeepMonthlyFirst,
	})
}

// RunAll processes every source path independently: one path's failure
// never aborts the others. Paths run sequentially unless concurrency > 1.
func (o *Orchestrator) RunAll(ctx context.Context, sources []config.SourceConfig) []Outcome {
	o.mu.RLock()
	limit := o.concurrency
	o.mu.RUnlock()

	outcomes := make([]Outcome, len(sources))

	if limit <= 1 {
		for i, src := range sources {
			outcomes[i] = o.RunPath(ctx, src)
		}
		return outcomes
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src config.SourceConfig) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = o.RunPath(ctx, src)
		}(i, src)
	}
	wg.Wait()

	return outcomes
}

// RunPath executes the per-path state machine:
// Idle -> Locking -> Transferring -> {BookKeeping | Failed} -> Idle.
func (o *Orchestrator) RunPath(ctx context.Context, src config.SourceConfig) Outcome {
	out := Outcome{Source: src.Path}

	lk, err := o.locks.Acquire(src.Path)
	if err != nil {
		o.log.Error("run skipped", "source", src.Path, "error", err)
		out.Err = err
		return out
	}
	o.log.Debug("lock acquired", "source", src.Path, "lock", lk.Path())
	defer func() {
		if err := lk.Release(); err != nil {
			o.log.Warn("releasing lock", "source", src.Path, "error", err)
		}
	}()

	today := o.now()
	date := today.Format(snapshot.DateLayout)
	store := o.stores.For(src.Path)

	o.mu.RLock()
	logDir := o.logDir
	o.mu.RUnlock()

	rl, err := runlog.Open(logDir, src.Path, today)
	if err != nil {
		o.log.Error("opening run log", "source", src.Path, "error", err)
		out.Err = err
		return out
	}
	defer rl.Close()

	if err := store.EnsureRoot(ctx); err != nil {
		rl.Printf("preparing destination failed: %v", err)
		o.log.Error("preparing destination", "source", src.Path, "error", err)
		out.Err = err
		return out
	}

	// prior snapshot is the hard-link base; a stale or missing pointer
	// only costs transfer volume, never data
	base, err := store.Latest(ctx)
	if err != nil {
		o.log.Warn("reading latest pointer, running without base", "source", src.Path, "error", err)
		base = ""
	}

	req := transfer.Request{
		SourcePath:  src.Path,
		Destination: store.Dest(date),
		ExcludeFile: src.ExcludeFile,
	}
	if base != "" && base != date {
		req.BaseSnapshot = store.BasePath(base)
	}

	rl.Printf("transfer start: %s -> %s (base %q)", src.Path, req.Destination, base)
	o.log.Info("transfer start", "source", src.Path, "dest", req.Destination, "base", base)

	res, err := o.xfer.Run(ctx, req, rl)
	out.Bytes = res.BytesTransferred
	if err != nil {
		// pointer untouched, retention skipped: a partial transfer is
		// never promoted to latest
		rl.Printf("transfer failed: %v", err)
		if len(res.Output) > 0 {
			o.log.Error("transfer failed", "source", src.Path, "error", err,
				"output", strings.TrimSpace(string(res.Output)))
		} else {
			o.log.Error("transfer failed", "source", src.Path, "error", err)
		}
		out.Err = err
		return out
	}

	rl.Printf("transfer complete: %d bytes sent", res.BytesTransferred)
	out.Snapshot = date

	if err := store.SetLatest(ctx, date); err != nil {
		// data is safe; the next run just dedups against a stale base
		rl.Printf("warning: latest pointer not updated: %v", err)
		o.log.Warn("latest pointer update failed", "source", src.Path, "error", err)
	}

	removed, err := o.ret.Apply(ctx, store, today)
	if err != nil {
		rl.Printf("warning: retention sweep failed: %v", err)
		o.log.Warn("retention sweep failed", "source", src.Path, "error", err)
	} else if removed != "" {
		rl.Printf("retention: removed snapshot %s", removed)
	}

	o.log.Info("run complete", "source", src.Path, "snapshot", date, "bytes", res.BytesTransferred)
	return out
}
