package driven

import (
	"context"
	"time"

	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
)

// EventSink is the narrow slice of driving.EventQueue a Watcher needs:
// just enough to enqueue an observed change, without the watcher
// package importing the driving port package in the other direction.
type EventSink interface {
	Enqueue(ctx context.Context, kind domain.EventKind, path, newPath string) error
}

// Watcher produces filesystem change events into an EventSink until
// ctx is canceled or iterations/duration (backend-specific) elapse.
type Watcher interface {
	// Watch blocks, feeding every observed create/modify/delete into
	// sink, until ctx is canceled. No backend emits move events.
	Watch(ctx context.Context, roots []string, extensions []string, sink EventSink) error
}

// WatchStateStore persists the polling backend's path→mtime snapshot
// across process restarts, so a freshly started process diffs against
// what it last saw rather than against nothing, which would otherwise
// synthesize a create event for every file already known to the Store.
type WatchStateStore interface {
	// LoadWatchState returns the most recently saved snapshot, or an
	// empty map if none has been saved yet.
	LoadWatchState(ctx context.Context) (map[string]time.Time, error)

	// SaveWatchState replaces the saved snapshot with snapshot.
	SaveWatchState(ctx context.Context, snapshot map[string]time.Time) error
}
