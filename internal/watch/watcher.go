// Package watch invalidates the resource caches when graph files change
// outside the bridge (edits in the Logseq UI, git pulls, sync clients).
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce batches bursts of file events into one invalidation.
const debounce = 500 * time.Millisecond

// InvalidateFunc is called after a debounced batch of graph file changes.
type InvalidateFunc func()

// Watch starts an fsnotify watcher over the graph's pages/ and journals/
// directories and calls invalidate (debounced) whenever a Markdown file
// changes, until ctx is cancelled. Directories that do not exist yet are
// skipped; the graph may predate its first journal.
func Watch(ctx context.Context, graphRoot string, logger *slog.Logger, invalidate InvalidateFunc) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watched := 0
	for _, dir := range []string{"pages", "journals"} {
		path := filepath.Join(graphRoot, dir)
		if info, statErr := os.Stat(path); statErr != nil || !info.IsDir() {
			continue
		}
		if addErr := w.Add(path); addErr != nil {
			logger.Warn("watcher: add dir failed",
				slog.String("path", path),
				slog.String("error", addErr.Error()))
			continue
		}
		watched++
	}
	if watched == 0 {
		logger.Info("watcher: no graph directories to watch", slog.String("root", graphRoot))
		<-ctx.Done()
		return nil
	}

	logger.Info("watcher: started", slog.String("root", graphRoot))

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			logger.Debug("watcher: invalidating caches")
			invalidate()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, ".md") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
