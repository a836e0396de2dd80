package embedding

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the index whenever a snapshot CSV changes on disk, until
// ctx is cancelled. Bursts of writes are debounced.
func Watch(ctx context.Context, ix *Index, dir string, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Info("embedding watcher: started", slog.String("dir", dir))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(200 * time.Millisecond)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("embedding watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(filepath.Base(ev.Name), ".csv") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case <-reloadCh:
			if err := ix.Load(); err != nil {
				logger.Warn("embedding watcher: reload failed", slog.String("error", err.Error()))
				continue
			}
			titles, bodies := ix.Counts()
			logger.Info("embedding watcher: snapshots reloaded",
				slog.Int("titles", titles), slog.Int("bodies", bodies))

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("embedding watcher: error", slog.String("error", err.Error()))
		}
	}
}
