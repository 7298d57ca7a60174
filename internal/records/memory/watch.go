package memory

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces the burst of events editors emit for a single save.
const reloadDelay = 200 * time.Millisecond

// Watch reloads the store whenever the seed file at path changes, until ctx
// is cancelled. The parent directory is watched so that editors replacing
// the file by rename are picked up. onReload, when set, runs after each
// successful reload.
func (s *Store) Watch(ctx context.Context, path string, logger *slog.Logger, onReload func()) error {
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
	logger.Info("seed watcher: started", slog.String("path", abs))

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(reloadDelay)
			fire = timer.C
		} else {
			timer.Reset(reloadDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("seed watcher: stopped")
			return nil

		case <-fire:
			if err := s.Load(abs); err != nil {
				logger.Warn("seed watcher: reload failed", slog.String("path", abs), slog.String("error", err.Error()))
				continue
			}
			logger.Info("seed watcher: reloaded", slog.String("path", abs))
			if onReload != nil {
				onReload()
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("seed watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
