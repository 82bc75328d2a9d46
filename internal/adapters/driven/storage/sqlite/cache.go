package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
	"github.com/markdownkeeper/markdownkeeper/internal/core/ports/driven"
)

// cacheStore implements driven.CacheStore.
type cacheStore struct {
	store *Store
}

var _ driven.CacheStore = (*cacheStore)(nil)

// Get returns the cached entry for queryHash, evicting and returning
// nil, nil if its created_at is older than ttl. A missing entry is
// also nil, nil: the cache is an optimization, not a source of truth.
func (c *cacheStore) Get(ctx context.Context, queryHash string, ttl time.Duration) (*domain.QueryCacheEntry, error) {
	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var entry domain.QueryCacheEntry
	var idsJSON string
	err = tx.QueryRowContext(ctx, `
		SELECT query_hash, result_document_ids, created_at, last_accessed, hit_count
		FROM query_cache WHERE query_hash = ?
	`, queryHash).Scan(&entry.QueryHash, &idsJSON, &entry.CreatedAt, &entry.LastAccessed, &entry.HitCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying cache: %w", err)
	}

	if ttl > 0 && time.Since(entry.CreatedAt) > ttl {
		if _, err := tx.ExecContext(ctx, `DELETE FROM query_cache WHERE query_hash = ?`, queryHash); err != nil {
			return nil, fmt.Errorf("evicting stale cache entry: %w", err)
		}
		return nil, tx.Commit()
	}

	if err := json.Unmarshal([]byte(idsJSON), &entry.ResultDocumentIDs); err != nil {
		return nil, fmt.Errorf("decoding cached result ids: %w", err)
	}

	entry.HitCount++
	entry.LastAccessed = time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
		UPDATE query_cache SET hit_count = ?, last_accessed = ? WHERE query_hash = ?
	`, entry.HitCount, entry.LastAccessed, queryHash); err != nil {
		return nil, fmt.Errorf("bumping cache hit count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return &entry, nil
}

// Put stores or replaces the entry for entry.QueryHash.
func (c *cacheStore) Put(ctx context.Context, entry domain.QueryCacheEntry) error {
	idsJSON, err := json.Marshal(entry.ResultDocumentIDs)
	if err != nil {
		return fmt.Errorf("encoding result ids: %w", err)
	}

	_, err = c.store.db.ExecContext(ctx, `
		INSERT INTO query_cache (query_hash, result_document_ids, created_at, last_accessed, hit_count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(query_hash) DO UPDATE SET
			result_document_ids = excluded.result_document_ids,
			created_at = excluded.created_at,
			last_accessed = excluded.last_accessed,
			hit_count = excluded.hit_count
	`, entry.QueryHash, string(idsJSON), entry.CreatedAt, entry.LastAccessed, entry.HitCount)
	if err != nil {
		return fmt.Errorf("storing cache entry: %w", err)
	}
	return nil
}

// FlushAll empties the cache.
func (c *cacheStore) FlushAll(ctx context.Context) error {
	if _, err := c.store.db.ExecContext(ctx, `DELETE FROM query_cache`); err != nil {
		return fmt.Errorf("flushing query cache: %w", err)
	}
	return nil
}

// Size returns the current row count.
func (c *cacheStore) Size(ctx context.Context) (int, error) {
	var n int
	if err := c.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM query_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}
