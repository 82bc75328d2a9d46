// Package vectorindex provides a brute-force cosine-similarity
// VectorIndex with JSON-file persistence. It is deliberately the same
// shape the spec allows a native ANN library to replace: {build, add,
// remove, search, save, load, len}, so an hnsw- or faiss-backed index
// could be dropped in without changing the Retriever.
package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/markdownkeeper/markdownkeeper/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a brute-force cosine-similarity index over document-level
// embeddings, safe for concurrent Search calls against a stable Build.
type Index struct {
	mu        sync.RWMutex
	vectors   map[int64][]float32
	dimension int
}

// New constructs an empty index.
func New() *Index {
	return &Index{vectors: make(map[int64][]float32)}
}

// persistedIndex is the on-disk JSON shape, named after the original
// FAISS fallback's id_map/dimensions/embeddings triple.
type persistedIndex struct {
	Dimensions int              `json:"dimensions"`
	IDMap      []int64          `json:"id_map"`
	Embeddings [][]float32      `json:"embeddings"`
}

// Build replaces the index contents with embeddings, keyed by document id.
func (idx *Index) Build(_ context.Context, embeddings map[int64][]float32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.vectors = make(map[int64][]float32, len(embeddings))
	idx.dimension = 0
	for id, vec := range embeddings {
		idx.vectors[id] = vec
		if idx.dimension == 0 {
			idx.dimension = len(vec)
		}
	}
	return nil
}

// Add inserts or replaces one document's vector.
func (idx *Index) Add(_ context.Context, documentID int64, vector []float32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.vectors[documentID] = vector
	if idx.dimension == 0 {
		idx.dimension = len(vector)
	}
	return nil
}

// Remove deletes a document's vector, if present.
func (idx *Index) Remove(_ context.Context, documentID int64) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	delete(idx.vectors, documentID)
	return nil
}

// Search returns up to k candidates ordered by cosine similarity
// descending. Unit-norm vectors make cosine similarity equal to the
// inner product, so this matches what a native ANN's IndexFlatIP
// would return.
func (idx *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.vectors) == 0 {
		return nil, nil
	}
	if k <= 0 || k > len(idx.vectors) {
		k = len(idx.vectors)
	}

	hits := make([]driven.VectorHit, 0, len(idx.vectors))
	for id, vec := range idx.vectors {
		hits = append(hits, driven.VectorHit{DocumentID: id, Similarity: cosine(query, vec)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].DocumentID < hits[j].DocumentID
	})
	return hits[:k], nil
}

// Save persists the index as JSON at path.
func (idx *Index) Save(_ context.Context, path string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	data := persistedIndex{Dimensions: idx.dimension}
	for id, vec := range idx.vectors {
		data.IDMap = append(data.IDMap, id)
		data.Embeddings = append(data.Embeddings, vec)
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding vector index: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("writing vector index to %s: %w", path, err)
	}
	return nil
}

// Load restores the index from path, replacing current contents.
func (idx *Index) Load(_ context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading vector index from %s: %w", path, err)
	}

	var data persistedIndex
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("decoding vector index: %w", err)
	}
	if len(data.IDMap) != len(data.Embeddings) {
		return fmt.Errorf("corrupt vector index: %d ids but %d embeddings", len(data.IDMap), len(data.Embeddings))
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.vectors = make(map[int64][]float32, len(data.IDMap))
	for i, id := range data.IDMap {
		idx.vectors[id] = data.Embeddings[i]
	}
	idx.dimension = data.Dimensions
	return nil
}

// Len returns how many vectors are currently indexed.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
