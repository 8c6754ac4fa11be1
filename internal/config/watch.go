package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/raoulx24/rsync-snapper/internal/logging"
)

// Watch reloads the config file whenever it changes and hands the new
// config to onChange. The parent directory is watched, not the file, so
// editors that replace-by-rename keep working. Events are debounced.
func Watch(ctx context.Context, path string, log logging.Logger, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	base := filepath.Base(path)

	if err := watcher.Add(dir); err != nil {
		return err
	}

	const debounce = 500 * time.Millisecond

	// Channel to request debounce resets; closed on return so the
	// debounce goroutine does not outlive the watch
	resetCh := make(chan struct{}, 1)
	defer close(resetCh)

	go func() {
		var t *time.Timer
		for range resetCh {
			if t != nil {
				t.Stop()
			}
			t = time.AfterFunc(debounce, func() {
				cfg, err := Load(path)
				if err != nil {
					log.Error("config reload failed", "error", err)
					return
				}
				onChange(cfg)
				log.Info("config reloaded", "path", path)
			})
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			// Non-blocking send to reset debounce
			select {
			case resetCh <- struct{}{}:
			default:
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("config watch error", "error", err)
		}
	}
}
