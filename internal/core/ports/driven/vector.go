package driven

import "context"

// VectorIndex is the optional ANN abstraction over document-level
// embeddings: {build, add, search, save, load}. A brute-force
// implementation and a native-ANN implementation must be
// interchangeable modulo the candidate-set cutoff.
type VectorIndex interface {
	// Build replaces the index contents with embeddings, keyed by
	// document id.
	Build(ctx context.Context, embeddings map[int64][]float32) error

	// Add inserts or replaces one document's vector.
	Add(ctx context.Context, documentID int64, vector []float32) error

	// Remove deletes a document's vector, if present.
	Remove(ctx context.Context, documentID int64) error

	// Search returns up to k candidates ordered by cosine similarity
	// descending.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Save persists the index to path.
	Save(ctx context.Context, path string) error

	// Load restores the index from path, replacing current contents.
	Load(ctx context.Context, path string) error

	// Len returns how many vectors are currently indexed.
	Len() int
}

// VectorHit is one candidate returned by VectorIndex.Search.
type VectorHit struct {
	DocumentID int64
	Similarity float64
}
