package driving

import (
	"context"

	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
)

// Ingestor is the single entry point the Event Queue consumer drives
// for each leased EventRecord.
type Ingestor interface {
	// IngestEvent applies one EventRecord to the Store: read+parse+
	// upsert for create/modify, delete for delete, delete-then-ingest
	// for move. The returned error is classified by domain.KindOf; the
	// consumer uses the kind to decide whether to requeue.
	IngestEvent(ctx context.Context, event domain.EventRecord) error

	// ScanFile ingests a single path outside the event queue, for the
	// scan-file CLI command. Equivalent to IngestEvent with an
	// EventModify record, minus queue bookkeeping.
	ScanFile(ctx context.Context, path string) (*domain.Document, error)
}

// EventQueue is the durable, coalescing, retrying producer/consumer
// port: Watchers drive Enqueue, the ingest worker drives Run.
type EventQueue interface {
	// Enqueue records one filesystem change observed by a Watcher.
	Enqueue(ctx context.Context, kind domain.EventKind, path, newPath string) error

	// Run drains the queue until ctx is canceled: coalesce, debounce,
	// lease, ingest, retry-or-fail. Blocks until ctx.Done(); on return,
	// any in_flight record has been left in a state the next Run call's
	// Replay will recover.
	Run(ctx context.Context) error

	// Replay resets orphaned in_flight records to queued and prunes
	// stale done records. Called once at startup before Run.
	Replay(ctx context.Context) error
}
