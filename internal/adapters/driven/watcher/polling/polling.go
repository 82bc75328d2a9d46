// Package polling implements a Watcher by periodically snapshotting
// the configured roots and diffing mtimes, a direct port of
// original_source/watcher/service.py's _snapshot/watch_loop: no
// external dependency, used when fsnotify isn't available or
// desired (e.g. network filesystems where inotify doesn't fire).
package polling

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
	"github.com/markdownkeeper/markdownkeeper/internal/core/ports/driven"
	"github.com/markdownkeeper/markdownkeeper/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.Watcher = (*Watcher)(nil)

// DefaultInterval is how often Watch re-snapshots the roots.
const DefaultInterval = 1 * time.Second

// Watcher is the snapshot-diff Watcher implementation.
type Watcher struct {
	Interval   time.Duration
	Iterations int // 0 means unbounded (run until ctx canceled)

	// Store, if set, persists the path→mtime snapshot across process
	// restarts: Watch seeds its in-memory previous snapshot from it on
	// the first pass and saves back to it after every pass, so a
	// restarted process diffs against what it last saw on disk rather
	// than against nothing. Nil means in-memory only for that process's
	// lifetime (every path looks newly created on first pass).
	Store driven.WatchStateStore
}

// New constructs a polling Watcher with the given interval (0 means
// DefaultInterval) and iteration cap (0 means unbounded). Set the
// returned Watcher's Store field to persist the snapshot in the Store.
func New(interval time.Duration, iterations int) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{Interval: interval, Iterations: iterations}
}

// Watch snapshots roots every Interval, diffs against the previous
// snapshot (seeded from Store if set), and feeds create/modify/delete
// events into sink, stopping after Iterations passes (if positive) or
// when ctx is canceled.
func (w *Watcher) Watch(ctx context.Context, roots []string, extensions []string, sink driven.EventSink) error {
	extSet := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		extSet[strings.ToLower(ext)] = struct{}{}
	}

	previous := w.loadPrevious(ctx)
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	runs := 0
	for {
		current, err := snapshot(roots, extSet)
		if err != nil {
			logger.Warn("watcher: snapshot failed: %v", err)
		} else {
			w.diffAndEnqueue(ctx, previous, current, sink)
			previous = current
			w.savePrevious(ctx, current)
		}

		runs++
		if w.Iterations > 0 && runs >= w.Iterations {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// loadPrevious seeds the in-memory snapshot from Store, if configured.
// A load failure is logged and treated as an empty snapshot rather
// than aborting the watch: the Store-backed map is an optimization
// against spurious create events, not a correctness requirement.
func (w *Watcher) loadPrevious(ctx context.Context) map[string]time.Time {
	if w.Store == nil {
		return nil
	}
	previous, err := w.Store.LoadWatchState(ctx)
	if err != nil {
		logger.Warn("watcher: loading watch state: %v", err)
		return nil
	}
	return previous
}

// savePrevious persists current to Store, if configured, so the next
// process start resumes from it. A save failure is logged, not fatal.
func (w *Watcher) savePrevious(ctx context.Context, current map[string]time.Time) {
	if w.Store == nil {
		return
	}
	if err := w.Store.SaveWatchState(ctx, current); err != nil {
		logger.Warn("watcher: saving watch state: %v", err)
	}
}

func (w *Watcher) diffAndEnqueue(ctx context.Context, previous, current map[string]time.Time, sink driven.EventSink) {
	for path, mtime := range current {
		prevMtime, existed := previous[path]
		switch {
		case !existed:
			enqueue(ctx, sink, domain.EventCreate, path)
		case !mtime.Equal(prevMtime):
			enqueue(ctx, sink, domain.EventModify, path)
		}
	}
	for path := range previous {
		if _, stillPresent := current[path]; !stillPresent {
			enqueue(ctx, sink, domain.EventDelete, path)
		}
	}
}

func enqueue(ctx context.Context, sink driven.EventSink, kind domain.EventKind, path string) {
	if err := sink.Enqueue(ctx, kind, path, ""); err != nil {
		logger.Warn("watcher: enqueue failed for %s: %v", path, err)
	}
}

func snapshot(roots []string, extSet map[string]struct{}) (map[string]time.Time, error) {
	snap := make(map[string]time.Time)
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if len(extSet) > 0 {
				if _, ok := extSet[strings.ToLower(filepath.Ext(path))]; !ok {
					return nil
				}
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			snap[path] = info.ModTime()
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return snap, nil
}
