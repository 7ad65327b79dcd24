package template

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// PublishCallback is called after the watcher publishes a new version.
type PublishCallback func(version int)

// Watch monitors the template definition file and republishes it on
// change, until ctx is cancelled. It calls cb (if non-nil) after each
// successful publish.
//
// The parent directory is watched rather than the file itself: most
// editors save via rename, which would silently detach a file-level
// watch. Events are debounced so a save producing several writes
// triggers one sync.
func Watch(ctx context.Context, r *Registry, path string, logger *slog.Logger, cb PublishCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("template watcher: started", slog.String("file", abs))

	var syncTimer *time.Timer
	var syncCh <-chan time.Time

	scheduleSync := func() {
		if syncTimer == nil {
			syncTimer = time.NewTimer(200 * time.Millisecond)
			syncCh = syncTimer.C
		} else {
			syncTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if syncTimer != nil {
				syncTimer.Stop()
			}
			logger.Info("template watcher: stopped")
			return nil

		case <-syncCh:
			v, published, syncErr := SyncFromFile(ctx, r, abs, logger)
			if syncErr != nil {
				logger.Warn("template watcher: sync failed", slog.String("error", syncErr.Error()))
				continue
			}
			if published && cb != nil {
				cb(v.Version)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				scheduleSync()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("template watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
