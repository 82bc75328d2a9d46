package driving

import (
	"context"

	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
)

// Retriever is the single-operation search port the CLI and HTTP API
// drive.
type Retriever interface {
	// Search normalizes the query, checks the cache, computes the
	// hybrid score, applies progressive delivery, and records a cache
	// entry on a miss.
	Search(ctx context.Context, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// GetDocument reads one document by id with the same section/
	// max-tokens progressive delivery as Search results.
	GetDocument(ctx context.Context, id int64, includeContent bool, maxTokens int, section string) (*domain.Document, error)

	// FindByConcept returns up to limit documents tagged or inferred
	// with concept.
	FindByConcept(ctx context.Context, concept string, limit int) ([]domain.Document, error)
}
