package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/raoulx24/rsync-snapper/internal/config"
	"github.com/raoulx24/rsync-snapper/internal/fsprobe"
	"github.com/raoulx24/rsync-snapper/internal/logging"
	"github.com/raoulx24/rsync-snapper/internal/orchestrator"
	"github.com/raoulx24/rsync-snapper/internal/retention"
	"github.com/raoulx24/rsync-snapper/internal/scheduler"
	"github.com/raoulx24/rsync-snapper/internal/snapshot"
	"github.com/raoulx24/rsync-snapper/internal/transfer"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	once := flag.Bool("once", false, "run every source once and exit")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Logger
	logg := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	// Transfer tool (rsync)
	xfer, err := transfer.NewRsync(cfg.Transfer)
	if err != nil {
		log.Fatalf("failed to set up transfer tool: %v", err)
	}

	// Retention engine
	ret := retention.New(retention.Policy{
		KeepDays:         cfg.Retention.KeepDays,
		KeepMonthlyFirst: cfg.Retention.KeepMonthlyFirst,
	}, logg)

	// Destination stores (local dir or ssh, per config)
	stores := snapshot.NewStoreFactory(cfg.Remote, nil)

	// Orchestrator (lock + transfer + promotion + retention per source)
	orch := orchestrator.New(cfg, xfer, ret, stores, logg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown: partial transfers are never promoted
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logg.Info("shutting down...")
		cancel()
	}()

	var current atomic.Pointer[config.Config]
	current.Store(cfg)

	runAll := func(ctx context.Context) bool {
		outcomes := orch.RunAll(ctx, current.Load().Sources)
		for _, o := range outcomes {
			if o.Failed() {
				logg.Error("source failed", "source", o.Source, "error", o.Err)
			}
		}
		return orchestrator.Failed(outcomes)
	}

	// One-shot mode: exit 0 only if every source succeeded
	if *once || cfg.Schedule == "" {
		if runAll(ctx) {
			os.Exit(1)
		}
		return
	}

	// Daemon mode
	sched, err := scheduler.New(cfg.Schedule, func(ctx context.Context) { runAll(ctx) }, logg)
	if err != nil {
		log.Fatalf("failed to set up scheduler: %v", err)
	}

	applyConfig := func(newCfg *config.Config) {
		current.Store(newCfg)
		orch.UpdateConfig(newCfg)
	}

	// Hot reload on SIGHUP
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGHUP)

		for range sigCh {
			newCfg, err := config.Load(*configPath)
			if err != nil {
				logg.Error("config reload failed", "error", err)
				continue
			}
			applyConfig(newCfg)
			logg.Info("config reloaded")
		}
	}()

	// Hot reload on file change, when the config directory delivers events
	if res := fsprobe.Probe(filepath.Dir(*configPath)); res.Supported {
		go func() {
			if err := config.Watch(ctx, *configPath, logg, applyConfig); err != nil {
				logg.Warn("config watch stopped", "error", err)
			}
		}()
	} else {
		logg.Warn("config file watching disabled", "reason", res.Reason)
	}

	// run once at startup, then follow the schedule
	sched.Trigger()
	sched.Start(ctx)
	logg.Info("exit complete")
}
