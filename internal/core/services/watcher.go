package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/regready/internal/core/domain"
	"github.com/custodia-labs/regready/internal/logger"
)

// rebuildDebounce collapses bursts of file events into one rebuild.
const rebuildDebounce = 500 * time.Millisecond

// CorpusWatcher watches the corpus directory and triggers a reindex
// when regulatory source files change.
type CorpusWatcher struct {
	dir     string
	manager *CorpusManager
}

// NewCorpusWatcher creates a watcher over dir feeding manager.
func NewCorpusWatcher(dir string, manager *CorpusManager) *CorpusWatcher {
	return &CorpusWatcher{dir: dir, manager: manager}
}

// Watch blocks until ctx is cancelled, rebuilding the corpus after each
// settled burst of changes. A rebuild already in flight is skipped and
// retried on the next change.
func (w *CorpusWatcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.Info("Watching corpus directory %s", w.dir)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			logger.Debug("Corpus change: %s %s", event.Op, event.Name)
			if timer == nil {
				timer = time.NewTimer(rebuildDebounce)
				timerC = timer.C
			} else {
				timer.Reset(rebuildDebounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-timerC:
			timer = nil
			timerC = nil
			if err := w.rebuild(ctx); err != nil {
				logger.Warn("Corpus rebuild failed: %v", err)
			}
		}
	}
}

// relevant filters events down to visible markdown writes.
func (w *CorpusWatcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	return strings.HasSuffix(name, ".md") || strings.HasSuffix(name, ".markdown")
}

// rebuild reloads the directory and reindexes.
func (w *CorpusWatcher) rebuild(ctx context.Context) error {
	articles, err := LoadCorpusDir(w.dir)
	if err != nil {
		return err
	}

	revision, err := w.manager.Rebuild(ctx, articles)
	if errors.Is(err, domain.ErrReindexInProgress) {
		logger.Debug("Reindex already running, skipping")
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("Corpus reindexed at revision %s", revision)
	return nil
}
