package config

// file: internal/config/watch.go

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
)

// WatchFile watches path for writes and invokes onChange with the
// freshly-reloaded Settings. It runs until ctx is cancelled or the
// watcher errors unrecoverably. Intended for an operator who wants to
// tweak logging level or limits without restarting the process; the core
// itself never calls this (config loading is a front-end concern, spec
// §1 Out of scope).
func WatchFile(ctx context.Context, path string, onChange func(*Settings)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating file watcher")
	}
	defer watcher.Close() //nolint:errcheck // best-effort cleanup.

	if err := watcher.Add(path); err != nil {
		return errors.Wrapf(err, "watching config file %q", path)
	}

	logger.Info("watching config file for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			settings, err := Load(path)
			if err != nil {
				logger.Warn("reloading config failed, keeping previous settings", "error", err)
				continue
			}
			logger.Info("reloaded configuration", "path", path)
			onChange(settings)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("config watcher error", "error", err)
		}
	}
}
