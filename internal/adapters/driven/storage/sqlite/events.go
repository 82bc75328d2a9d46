package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
	"github.com/markdownkeeper/markdownkeeper/internal/core/ports/driven"
)

// eventStore implements driven.EventStore: the durable log backing the
// Event Queue, persisted in the same database as documents so a crash
// mid-ingest replays cleanly.
type eventStore struct {
	store *Store
}

var _ driven.EventStore = (*eventStore)(nil)

// Enqueue appends a new queued record and returns its id.
func (e *eventStore) Enqueue(ctx context.Context, rec domain.EventRecord) (int64, error) {
	if rec.EnqueuedAt.IsZero() {
		rec.EnqueuedAt = time.Now().UTC()
	}
	if rec.Status == "" {
		rec.Status = domain.EventQueued
	}

	res, err := e.store.db.ExecContext(ctx, `
		INSERT INTO events (path, kind, new_path, enqueued_at, attempt_count, status, last_error, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, NULL, NULL)
	`, rec.Path, string(rec.Kind), nullableString(rec.NewPath), rec.EnqueuedAt, rec.AttemptCount, string(rec.Status))
	if err != nil {
		return 0, fmt.Errorf("enqueuing event: %w", err)
	}
	return res.LastInsertId()
}

// ListQueued returns every queued record ordered by path then
// enqueued_at, for the consumer's coalesce-then-lease pass.
func (e *eventStore) ListQueued(ctx context.Context) ([]domain.EventRecord, error) {
	rows, err := e.store.db.QueryContext(ctx, `
		SELECT id, path, kind, new_path, enqueued_at, attempt_count, status, last_error, processed_at
		FROM events WHERE status = 'queued' ORDER BY path, enqueued_at
	`)
	if err != nil {
		return nil, fmt.Errorf("querying queued events: %w", err)
	}
	defer rows.Close()
	return scanEventRows(rows)
}

// Lease atomically transitions the oldest queued record of a path
// whose most recent enqueue is at least debounce old, and which has no
// in_flight record of its own, to in_flight. Returns nil, nil if
// nothing is eligible yet.
func (e *eventStore) Lease(ctx context.Context, debounce time.Duration) (*domain.EventRecord, error) {
	tx, err := e.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	cutoff := time.Now().UTC().Add(-debounce)

	var id int64
	err = tx.QueryRowContext(ctx, `
		SELECT e.id FROM events e
		WHERE e.status = 'queued'
		AND e.enqueued_at = (SELECT MIN(enqueued_at) FROM events WHERE path = e.path AND status = 'queued')
		AND (SELECT MAX(enqueued_at) FROM events WHERE path = e.path AND status = 'queued') <= ?
		AND NOT EXISTS (SELECT 1 FROM events WHERE path = e.path AND status = 'in_flight')
		ORDER BY e.enqueued_at ASC
		LIMIT 1
	`, cutoff).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selecting lease candidate: %w", err)
	}

	res, err := tx.ExecContext(ctx, `UPDATE events SET status = 'in_flight' WHERE id = ? AND status = 'queued'`, id)
	if err != nil {
		return nil, fmt.Errorf("leasing event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, tx.Commit()
	}

	row := tx.QueryRowContext(ctx, `
		SELECT id, path, kind, new_path, enqueued_at, attempt_count, status, last_error, processed_at
		FROM events WHERE id = ?
	`, id)
	rec, err := scanEventRow(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return rec, nil
}

// MarkDone transitions a record to done.
func (e *eventStore) MarkDone(ctx context.Context, id int64) error {
	_, err := e.store.db.ExecContext(ctx, `
		UPDATE events SET status = 'done', processed_at = ? WHERE id = ?
	`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("marking event done: %w", err)
	}
	return nil
}

// Requeue bumps attempt_count, records lastErr, and schedules the next
// eligible enqueued_at using the spec's exponential backoff so Lease
// won't pick the record back up before the delay elapses.
func (e *eventStore) Requeue(ctx context.Context, id int64, lastErr string) error {
	var attemptCount int
	if err := e.store.db.QueryRowContext(ctx, `SELECT attempt_count FROM events WHERE id = ?`, id).Scan(&attemptCount); err != nil {
		return fmt.Errorf("reading attempt count: %w", err)
	}
	attemptCount++
	nextEnqueue := time.Now().UTC().Add(domain.NextBackoff(attemptCount))

	_, err := e.store.db.ExecContext(ctx, `
		UPDATE events SET status = 'queued', attempt_count = ?, last_error = ?, enqueued_at = ? WHERE id = ?
	`, attemptCount, lastErr, nextEnqueue, id)
	if err != nil {
		return fmt.Errorf("requeuing event: %w", err)
	}
	return nil
}

// MarkFailed transitions a record to failed once attempt_count reaches
// domain.MaxAttempts.
func (e *eventStore) MarkFailed(ctx context.Context, id int64, lastErr string) error {
	_, err := e.store.db.ExecContext(ctx, `
		UPDATE events SET status = 'failed', last_error = ?, processed_at = ? WHERE id = ?
	`, lastErr, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("marking event failed: %w", err)
	}
	return nil
}

// ResetOrphanedInFlight resets every in_flight record to queued at
// startup, preserving attempt_count, and returns how many it reset.
func (e *eventStore) ResetOrphanedInFlight(ctx context.Context) (int, error) {
	res, err := e.store.db.ExecContext(ctx, `UPDATE events SET status = 'queued' WHERE status = 'in_flight'`)
	if err != nil {
		return 0, fmt.Errorf("resetting orphaned events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting reset events: %w", err)
	}
	return int(n), nil
}

// PruneDone deletes done records older than retention.
func (e *eventStore) PruneDone(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-retention)
	res, err := e.store.db.ExecContext(ctx, `
		DELETE FROM events WHERE status = 'done' AND processed_at <= ?
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning done events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned events: %w", err)
	}
	return int(n), nil
}

// Status reports queue depth and lag for stats()/health_report().
func (e *eventStore) Status(ctx context.Context) (domain.EventQueueStatus, error) {
	var status domain.EventQueueStatus

	counts := []struct {
		state string
		dst   *int
	}{
		{"queued", &status.Queued},
		{"in_flight", &status.InFlight},
		{"failed", &status.Failed},
	}
	for _, c := range counts {
		if err := e.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE status = ?`, c.state).Scan(c.dst); err != nil {
			return domain.EventQueueStatus{}, fmt.Errorf("counting %s events: %w", c.state, err)
		}
	}

	var oldest sql.NullTime
	if err := e.store.db.QueryRowContext(ctx, `
		SELECT MIN(enqueued_at) FROM events WHERE status IN ('queued', 'in_flight')
	`).Scan(&oldest); err != nil {
		return domain.EventQueueStatus{}, fmt.Errorf("finding oldest pending event: %w", err)
	}
	if oldest.Valid {
		status.LagSeconds = time.Since(oldest.Time).Seconds()
	}

	return status, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func scanEventRow(row *sql.Row) (*domain.EventRecord, error) {
	var rec domain.EventRecord
	var kind, status string
	var newPath, lastError sql.NullString
	var processedAt sql.NullTime

	if err := row.Scan(&rec.ID, &rec.Path, &kind, &newPath, &rec.EnqueuedAt, &rec.AttemptCount,
		&status, &lastError, &processedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning event: %w", err)
	}
	rec.Kind = domain.EventKind(kind)
	rec.Status = domain.EventStatus(status)
	rec.NewPath = newPath.String
	rec.LastError = lastError.String
	if processedAt.Valid {
		rec.ProcessedAt = processedAt.Time
	}
	return &rec, nil
}

func scanEventRows(rows *sql.Rows) ([]domain.EventRecord, error) {
	var out []domain.EventRecord
	for rows.Next() {
		var rec domain.EventRecord
		var kind, status string
		var newPath, lastError sql.NullString
		var processedAt sql.NullTime

		if err := rows.Scan(&rec.ID, &rec.Path, &kind, &newPath, &rec.EnqueuedAt, &rec.AttemptCount,
			&status, &lastError, &processedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		rec.Kind = domain.EventKind(kind)
		rec.Status = domain.EventStatus(status)
		rec.NewPath = newPath.String
		rec.LastError = lastError.String
		if processedAt.Valid {
			rec.ProcessedAt = processedAt.Time
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
