package domain

import "time"

// OwnerKind distinguishes whether an Embedding belongs to a Document or
// a Chunk; both are stored in the same table keyed by (owner_kind,
// owner_id).
type OwnerKind string

const (
	OwnerKindDocument OwnerKind = "document"
	OwnerKindChunk    OwnerKind = "chunk"
)

// Embedding is a unit-L2-norm vector attached to a Document or a Chunk.
// An embedding exists iff its owner exists: deleting the owner cascades.
// If Backend no longer matches the active Embedder's backend id, the
// vector is stale and must be regenerated before it can be trusted by
// the Retriever.
type Embedding struct {
	OwnerKind   OwnerKind
	OwnerID     int64
	Vector      []float32
	Dimension   int
	Backend     string
	GeneratedAt time.Time
}
