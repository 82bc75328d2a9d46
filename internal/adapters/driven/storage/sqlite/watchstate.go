package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/markdownkeeper/markdownkeeper/internal/core/ports/driven"
)

// watchStateStore implements driven.WatchStateStore: the polling
// watcher's path→mtime snapshot, persisted so a process restart diffs
// against the Store's last-known state instead of nil.
type watchStateStore struct {
	store *Store
}

var _ driven.WatchStateStore = (*watchStateStore)(nil)

// WatchStateStore returns a driven.WatchStateStore backed by this store.
func (s *Store) WatchStateStore() driven.WatchStateStore {
	return &watchStateStore{store: s}
}

func (w *watchStateStore) LoadWatchState(ctx context.Context) (map[string]time.Time, error) {
	rows, err := w.store.db.QueryContext(ctx, `SELECT path, mtime FROM watch_state`)
	if err != nil {
		return nil, fmt.Errorf("querying watch state: %w", err)
	}
	defer rows.Close()

	snapshot := make(map[string]time.Time)
	for rows.Next() {
		var path string
		var mtime time.Time
		if err := rows.Scan(&path, &mtime); err != nil {
			return nil, fmt.Errorf("scanning watch state row: %w", err)
		}
		snapshot[path] = mtime
	}
	return snapshot, rows.Err()
}

// SaveWatchState replaces the saved snapshot wholesale in one
// transaction: the polling backend calls this once per pass with its
// full current snapshot, so there's no per-path diffing to do here.
func (w *watchStateStore) SaveWatchState(ctx context.Context, snapshot map[string]time.Time) error {
	tx, err := w.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM watch_state`); err != nil {
		return fmt.Errorf("clearing watch state: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO watch_state (path, mtime) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing watch state insert: %w", err)
	}
	defer stmt.Close()

	for path, mtime := range snapshot {
		if _, err := stmt.ExecContext(ctx, path, mtime); err != nil {
			return fmt.Errorf("saving watch state for %s: %w", path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing watch state: %w", err)
	}
	return nil
}
