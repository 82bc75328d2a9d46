package driven

import "context"

// Embedder converts text into a fixed-dimension unit-norm vector. The
// model backend and the hash-v1 fallback both implement this; the
// Retriever must embed queries with whichever one is currently active.
type Embedder interface {
	// Embed returns a unit-L2-norm vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds multiple texts; implementations may batch the
	// underlying request.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension is the fixed vector length this backend produces.
	Dimension() int

	// BackendID is a stable string identifying this backend's algorithm
	// and, for the model backend, its model (e.g.
	// "model:all-MiniLM-L6-v2" or "hash-v1"), used to detect staleness
	// in stored embeddings. It does not encode the dimension.
	BackendID() string

	// Ping verifies the backend is reachable, used at startup before
	// committing to semantic mode.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
