// Package watch schedules debounced index rebuilds in response to file-system
// change notifications under the configured transcript roots.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher coalesces bursts of change events into single rebuilds: a fixed
// quiescence window follows the last notification, and only its expiry fires
// the rebuild. Notifications arriving while a window is pending reset it.
type Watcher struct {
	roots    []string
	debounce time.Duration
	rebuild  func()
	logger   *slog.Logger
}

// New creates a watcher over the given roots. rebuild runs on the watcher's
// goroutine after each quiescence window.
func New(roots []string, debounce time.Duration, rebuild func(), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{roots: roots, debounce: debounce, rebuild: rebuild, logger: logger}
}

// Run watches until the context is canceled. Exactly-once delivery is not
// guaranteed by the notifier and not required here: a missed event is caught
// by the next one, a duplicate collapses into the same window.
func (w *Watcher) Run(ctx context.Context) error {
	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer notifier.Close()

	for _, root := range w.roots {
		if err := addRecursive(notifier, root); err != nil {
			w.logger.Warn("cannot watch root", "root", root, "error", err)
		}
	}

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-notifier.Events:
			if !ok {
				return nil
			}
			// New session directories appear as projects are first used.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addRecursive(notifier, event.Name)
				}
			}
			timer.Reset(w.debounce)
			pending = true
		case err, ok := <-notifier.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			w.logger.Debug("change quiescence reached, rebuilding")
			w.rebuild()
		}
	}
}

// addRecursive watches dir and every directory beneath it. Non-directories
// are ignored; fsnotify watches are per-directory.
func addRecursive(notifier *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := notifier.Add(path); err != nil {
			return nil
		}
		return nil
	})
}
