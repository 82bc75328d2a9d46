// Package notify implements a Watcher backed by fsnotify: a recursive
// watch over the configured roots, translating fsnotify.Op into
// EventKind the same way the teacher's filesystem connector's
// handleFsEvent switches on Create/Write/Remove/Rename, with Chmod
// ignored.
package notify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
	"github.com/markdownkeeper/markdownkeeper/internal/core/ports/driven"
	"github.com/markdownkeeper/markdownkeeper/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.Watcher = (*Watcher)(nil)

// Watcher is the fsnotify-backed Watcher implementation.
type Watcher struct{}

// New constructs an fsnotify Watcher.
func New() *Watcher {
	return &Watcher{}
}

// Watch recursively watches roots, filtering by extensions (case-
// insensitive) and skipping hidden files/directories, and feeds
// observed changes into sink until ctx is canceled.
func (w *Watcher) Watch(ctx context.Context, roots []string, extensions []string, sink driven.EventSink) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	extSet := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		extSet[strings.ToLower(ext)] = struct{}{}
	}

	for _, root := range roots {
		if err := addRecursive(fsw, root); err != nil {
			return fmt.Errorf("watching root %s: %w", root, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event, extSet, sink, fsw)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: fsnotify error: %v", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event, extSet map[string]struct{}, sink driven.EventSink, fsw *fsnotify.Watcher) {
	if isHidden(event.Name) || !matchesExtension(event.Name, extSet) {
		return
	}

	var kind domain.EventKind
	switch {
	case event.Op&fsnotify.Create != 0:
		kind = domain.EventCreate
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = addRecursive(fsw, event.Name)
			return
		}
	case event.Op&fsnotify.Write != 0:
		kind = domain.EventModify
	case event.Op&fsnotify.Remove != 0, event.Op&fsnotify.Rename != 0:
		kind = domain.EventDelete
	default:
		return
	}

	if err := sink.Enqueue(ctx, kind, event.Name, ""); err != nil {
		logger.Warn("watcher: enqueue failed for %s: %v", event.Name, err)
	}
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if isHidden(path) && path != root {
				return filepath.SkipDir
			}
			return fsw.Add(path)
		}
		return nil
	})
}

func matchesExtension(path string, extSet map[string]struct{}) bool {
	if len(extSet) == 0 {
		return true
	}
	_, ok := extSet[strings.ToLower(filepath.Ext(path))]
	return ok
}

func isHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}
