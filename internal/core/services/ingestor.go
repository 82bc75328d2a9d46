package services

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
	"github.com/markdownkeeper/markdownkeeper/internal/core/ports/driven"
	"github.com/markdownkeeper/markdownkeeper/internal/core/ports/driving"
	"github.com/markdownkeeper/markdownkeeper/internal/logger"
	"github.com/markdownkeeper/markdownkeeper/internal/markdown"
)

// Ensure Ingestor implements the interface.
var _ driving.Ingestor = (*Ingestor)(nil)

// Ingestor is the sole writer of Document/Heading/Link/Tag/Concept/
// Chunk/Embedding rows. It is driven by the Event Queue consumer, one
// event at a time; the spec's single-writer contract lives here, not
// in the Store.
type Ingestor struct {
	docs     driven.DocumentStore
	embedder driven.Embedder
	schema   markdown.SchemaPolicy
}

// NewIngestor wires the Store and the active Embedder.
func NewIngestor(docs driven.DocumentStore, embedder driven.Embedder) *Ingestor {
	return &Ingestor{docs: docs, embedder: embedder}
}

// WithSchemaPolicy sets the [metadata] enforcement policy applied to
// every document this Ingestor scans. Returns ig for chaining at
// construction time.
func (ig *Ingestor) WithSchemaPolicy(policy markdown.SchemaPolicy) *Ingestor {
	ig.schema = policy
	return ig
}

// IngestEvent applies one EventRecord to the Store.
func (ig *Ingestor) IngestEvent(ctx context.Context, event domain.EventRecord) error {
	switch event.Kind {
	case domain.EventCreate, domain.EventModify:
		_, err := ig.ScanFile(ctx, event.Path)
		return err

	case domain.EventDelete:
		if _, err := ig.docs.DeleteByPath(ctx, event.Path); err != nil {
			return ig.classify(err)
		}
		return nil

	case domain.EventMove:
		if _, err := ig.docs.DeleteByPath(ctx, event.Path); err != nil {
			return ig.classify(err)
		}
		_, err := ig.ScanFile(ctx, event.NewPath)
		return err

	default:
		return fmt.Errorf("%w: unknown event kind %q", domain.ErrInvalid, event.Kind)
	}
}

// ScanFile reads, parses, and upserts a single path outside the event
// queue. A file that has vanished between observation and scan is
// treated as a delete rather than a retryable failure: there is
// nothing left to read.
func (ig *Ingestor) ScanFile(ctx context.Context, path string) (*domain.Document, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("scan-file: %s vanished before read, treating as delete", path)
		_, delErr := ig.docs.DeleteByPath(ctx, path)
		return nil, ig.classify(delErr)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrRetry, path, err)
	}

	parsed := markdown.Parse(string(raw))
	markdown.EnforceSchema(ig.schema, path, &parsed)

	id, err := ig.docs.UpsertDocument(ctx, path, parsed, ig.embed)
	if err != nil {
		return nil, ig.classify(err)
	}

	doc, err := ig.docs.GetDocument(ctx, id, driven.GetDocumentOptions{})
	if err != nil {
		return nil, ig.classify(err)
	}
	return doc, nil
}

// embed adapts the active Embedder to the Store's EmbedFunc shape. A
// backend outage is reported as Backend; the Store's upsert then fails
// and rolls back, and classify turns the error into a Retry so the
// queue tries the event again.
func (ig *Ingestor) embed(ctx context.Context, text string) ([]float32, string, error) {
	if ig.embedder == nil {
		return nil, "", fmt.Errorf("%w: no embedding backend configured", domain.ErrBackend)
	}
	vec, err := ig.embedder.Embed(ctx, text)
	if err != nil {
		logger.Error("embedding backend %s failed: %v", ig.embedder.BackendID(), err)
		return nil, "", fmt.Errorf("%w: %v", domain.ErrBackend, err)
	}
	return vec, ig.embedder.BackendID(), nil
}

// classify maps a Store error onto the spec's retry/fatal distinction:
// only a sentinel the Store already tagged Fatal halts the worker,
// everything else not already classified is treated as transient.
func (ig *Ingestor) classify(err error) error {
	if err == nil {
		return nil
	}
	switch domain.KindOf(err) {
	case domain.KindFatal, domain.KindNotFound, domain.KindInvalid, domain.KindRetry:
		return err
	default:
		return fmt.Errorf("%w: %v", domain.ErrRetry, err)
	}
}
