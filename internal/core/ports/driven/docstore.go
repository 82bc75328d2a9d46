package driven

import (
	"context"
	"time"

	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
)

// EmbedFunc embeds a piece of text during an upsert or a regeneration
// pass. UpsertDocument calls it once for the full document body and
// once per chunk; Backend must be recorded alongside the vector so
// staleness can be detected later.
type EmbedFunc func(ctx context.Context, text string) (vector []float32, backend string, err error)

// GetDocumentOptions narrows what GetDocument returns.
type GetDocumentOptions struct {
	IncludeContent bool
	MaxTokens      int // 0 means unbounded
	Section        string
}

// DocumentStore is the Store's transactional mutator/reader surface
// over documents, headings, links, tags, concepts, and chunks.
// UpsertDocument and DeleteByPath flush the query cache as part of
// their own transaction; RegenerateEmbeddings and UpdateLinkStatus do
// not touch the cache.
type DocumentStore interface {
	// UpsertDocument computes the content hash; if unchanged it only
	// touches updated_at, otherwise it replaces headings/links/tags/
	// concepts/chunks and recomputes embeddings via embed. Returns the
	// document id.
	UpsertDocument(ctx context.Context, path string, parsed domain.ParsedDocument, embed EmbedFunc) (int64, error)

	// DeleteByPath deletes the document at path and cascades to its
	// headings/links/tags/concepts/chunks/embeddings. Returns whether a
	// row existed.
	DeleteByPath(ctx context.Context, path string) (bool, error)

	// GetDocument returns metadata and, per opts, a body built from
	// section-filtered, token-budgeted chunks.
	GetDocument(ctx context.Context, id int64, opts GetDocumentOptions) (*domain.Document, error)

	// GetDocumentByPath is GetDocument keyed by path instead of id.
	GetDocumentByPath(ctx context.Context, path string, opts GetDocumentOptions) (*domain.Document, error)

	// ListByConcept returns up to limit documents tagged or inferred
	// with concept (case-insensitive).
	ListByConcept(ctx context.Context, concept string, limit int) ([]domain.Document, error)

	// ListDocuments returns up to limit documents ordered by id, for
	// build-index and the candidate scan when no vector index is built.
	ListDocuments(ctx context.Context, limit int) ([]domain.Document, error)

	// AllEmbeddings returns every current document- and chunk-level
	// embedding, for building the optional vector index.
	AllEmbeddings(ctx context.Context) ([]domain.Embedding, error)

	// RegenerateEmbeddings recomputes every stored embedding with embed,
	// used when the active backend changes.
	RegenerateEmbeddings(ctx context.Context, embed EmbedFunc) error

	// Stats reports corpus-wide counters.
	Stats(ctx context.Context) (domain.Stats, error)

	// HealthReport wraps Stats with a pass/fail verdict and warnings.
	HealthReport(ctx context.Context) (domain.HealthReport, error)

	// EmbeddingCoverage reports how much of the corpus has embeddings
	// under the currently active backend.
	EmbeddingCoverage(ctx context.Context, activeBackend string, modelAvailable bool) (domain.EmbeddingCoverage, error)

	// Links returns every link row, joined with its owning document's
	// path, for check-links.
	Links(ctx context.Context) ([]LinkWithDocumentPath, error)

	// UpdateLinkStatus records the outcome of a check-links pass.
	UpdateLinkStatus(ctx context.Context, linkID int64, status domain.LinkStatus, checkedAt time.Time) error
}

// LinkWithDocumentPath pairs a Link with the filesystem path of its
// owning document, needed by the internal-link existence check.
type LinkWithDocumentPath struct {
	Link         domain.Link
	DocumentPath string
}

// CacheStore is the query cache. The Retriever is its sole writer
// except that DocumentStore.UpsertDocument and DeleteByPath flush it
// as part of their own transaction.
type CacheStore interface {
	// Get returns the cached entry for queryHash if present and not
	// older than ttl, atomically bumping hit_count and last_accessed.
	Get(ctx context.Context, queryHash string, ttl time.Duration) (*domain.QueryCacheEntry, error)

	// Put stores or replaces the entry for entry.QueryHash.
	Put(ctx context.Context, entry domain.QueryCacheEntry) error

	// FlushAll empties the cache. DocumentStore mutations do not call
	// it; they clear the cache table with their own statement inside
	// their transaction.
	FlushAll(ctx context.Context) error

	// Size returns the current row count.
	Size(ctx context.Context) (int, error)
}

// EventStore is the Event Queue's durable log, persisted in the same
// database as documents. The queue consumer is its sole writer of
// status transitions; Watchers are its only source of new rows.
type EventStore interface {
	// Enqueue appends a new record and returns its id.
	Enqueue(ctx context.Context, rec domain.EventRecord) (int64, error)

	// ListQueued returns every queued record ordered by path then
	// enqueued_at, for the consumer's coalesce-then-lease pass.
	ListQueued(ctx context.Context) ([]domain.EventRecord, error)

	// Lease atomically transitions one queued record, eligible per
	// debounce, to in_flight and returns it. Returns nil, nil if none
	// are eligible.
	Lease(ctx context.Context, debounce time.Duration) (*domain.EventRecord, error)

	// MarkDone transitions a record (in_flight or queued, for coalesced
	// no-ops) to done.
	MarkDone(ctx context.Context, id int64) error

	// Requeue transitions a record back to queued after a Retry error,
	// bumping attempt_count and recording last_error.
	Requeue(ctx context.Context, id int64, lastErr string) error

	// MarkFailed transitions a record to failed once attempt_count
	// reaches domain.MaxAttempts.
	MarkFailed(ctx context.Context, id int64, lastErr string) error

	// ResetOrphanedInFlight resets every in_flight record to queued at
	// startup, preserving attempt_count, and returns how many it reset.
	ResetOrphanedInFlight(ctx context.Context) (int, error)

	// PruneDone deletes done records older than retention.
	PruneDone(ctx context.Context, retention time.Duration) (int, error)

	// Status reports queue depth and lag for stats()/health_report().
	Status(ctx context.Context) (domain.EventQueueStatus, error)
}
