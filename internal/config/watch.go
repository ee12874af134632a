package config

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// WatchParams reloads the parameter file into the store whenever it
// changes on disk, until ctx is cancelled. Editors that replace the
// file (rename + create) are handled by re-adding the watch.
func WatchParams(ctx context.Context, path string, store *ParamStore) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if ev.Op&fsnotify.Rename != 0 {
					// The path may have been replaced; re-watch it.
					watcher.Add(path)
				}
				p, err := LoadParams(path)
				if err != nil {
					slog.Warn("params reload failed", "path", path, "err", err)
					continue
				}
				store.Set(p)
				slog.Info("scoring params reloaded", "path", path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("params watcher error", "err", err)
			}
		}
	}()
	return nil
}
