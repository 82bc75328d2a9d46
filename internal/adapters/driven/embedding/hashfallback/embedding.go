// Package hashfallback provides the deterministic hash-v1 Embedder:
// no model, no network, used when no model backend is configured or
// reachable. Query-side search must use the same backend as whatever
// produced the stored vectors, so this exists as a first-class
// Embedder rather than a degraded mode bolted onto the model backend.
package hashfallback

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"regexp"
	"strings"

	"github.com/markdownkeeper/markdownkeeper/internal/core/ports/driven"
)

// Ensure Embedder implements the interface.
var _ driven.Embedder = (*Embedder)(nil)

// DefaultDimension is the hash-v1 vector length.
const DefaultDimension = 64

// BackendID is the stable identifier for this algorithm; it never
// changes with configuration, since hash-v1 is not model-versioned.
const BackendID = "hash-v1"

var tokenRe = regexp.MustCompile(`\S+`)

// Embedder is the hash-v1 fallback: deterministic, dependency-free,
// always available.
type Embedder struct {
	dimension int
}

// New constructs the fallback with dimension (default 64 if 0).
func New(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Embedder{dimension: dimension}
}

// Embed tokenizes text the same way the parser does, hashes each token
// to an index in [0, dimension), accumulates a +1.0 vote per
// occurrence, and L2-normalizes the result.
func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimension)
	for _, tok := range tokenRe.FindAllString(text, -1) {
		sum := sha256.Sum256([]byte(strings.ToLower(tok)))
		index := binary.BigEndian.Uint64(sum[:8]) % uint64(e.dimension)
		vec[index] += 1.0
	}
	return l2Normalize(vec), nil
}

// EmbedBatch embeds each text independently; hash-v1 has no state to
// amortize across a batch.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimension returns the configured vector length.
func (e *Embedder) Dimension() int { return e.dimension }

// BackendID returns the fixed "hash-v1" identifier.
func (e *Embedder) BackendID() string { return BackendID }

// Ping always succeeds: there is no external dependency to check.
func (e *Embedder) Ping(context.Context) error { return nil }

// Close is a no-op: there are no resources to release.
func (e *Embedder) Close() error { return nil }

func l2Normalize(v []float32) []float32 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares == 0 {
		return v
	}
	norm := float32(1.0 / math.Sqrt(sumSquares))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x * norm
	}
	return out
}
