package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tonuslab/tonus/pkg/logger"
)

// watchDebounce coalesces editor write bursts into a single reload.
const watchDebounce = 200 * time.Millisecond

// Watch re-runs Load whenever the file at path changes and hands each new
// Config to onChange. Reloads that fail validation are logged and skipped,
// so a half-edited file never reaches the caller. Watch blocks until ctx is
// canceled. The parent directory is watched rather than the file itself so
// editors that replace the file on save keep triggering reloads.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	if onChange == nil {
		panic("onChange is nil")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWatchConfig, err)
	}
	defer func() { _ = watcher.Close() }()

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("%w: %w", ErrWatchConfig, err)
	}

	log := logger.Get().Named("config")

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(watchDebounce)
			pending = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn(ctx, "config watch error", logger.Err(err))

		case <-pending:
			pending = nil
			cfg, err := Load(ctx)
			if err != nil {
				log.Warn(ctx, "config reload rejected", logger.Err(err))
				continue
			}
			log.Info(ctx, "config reloaded", logger.String("path", target))
			onChange(cfg)
		}
	}
}
