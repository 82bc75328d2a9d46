package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
	"github.com/markdownkeeper/markdownkeeper/internal/core/ports/driven"
	"github.com/markdownkeeper/markdownkeeper/internal/core/ports/driving"
	"github.com/markdownkeeper/markdownkeeper/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.Retriever = (*Retriever)(nil)

// DefaultCacheTTL is the query cache's default entry lifetime.
const DefaultCacheTTL = time.Hour

// DefaultSearchLimit applies when SearchOptions.Limit is unset.
const DefaultSearchLimit = 20

// bruteForceScanLimit bounds the brute-force candidate scan when no
// VectorIndex is configured; large enough to cover any corpus this
// service is sized for without special-casing "unbounded" (SQLite's
// LIMIT 0 means zero rows, not unlimited).
const bruteForceScanLimit = 1_000_000

var lexTokenRe = regexp.MustCompile(`[a-z0-9]+`)

// Retriever is the Store's read-only search surface: cache, hybrid
// scoring, progressive delivery. It is the query cache's sole writer
// except that DocumentStore.UpsertDocument and DeleteByPath flush it.
type Retriever struct {
	docs        driven.DocumentStore
	cache       driven.CacheStore
	embedder    driven.Embedder
	vectorIndex driven.VectorIndex
	ttl         time.Duration
}

// NewRetriever wires the Store, the query cache, the active Embedder
// (optional: nil disables semantic mode), and an optional VectorIndex.
func NewRetriever(docs driven.DocumentStore, cache driven.CacheStore, embedder driven.Embedder, vectorIndex driven.VectorIndex, ttl time.Duration) *Retriever {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Retriever{docs: docs, cache: cache, embedder: embedder, vectorIndex: vectorIndex, ttl: ttl}
}

// scoredDocument pairs a fully-loaded Document with its score
// breakdown before ranking and progressive-delivery reshaping.
type scoredDocument struct {
	doc   domain.Document
	score float64
}

// Search normalizes the query, checks the cache, computes the hybrid
// score over a candidate set, applies progressive delivery, and writes
// a cache entry on a miss.
func (r *Retriever) Search(ctx context.Context, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	query := normalizeQuery(opts.Query)
	if query == "" {
		return []domain.SearchResult{}, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	mode := opts.Mode
	if mode == "" {
		mode = domain.SearchModeSemantic
	}

	queryHash := hashQuery(query, limit)

	if entry, err := r.cache.Get(ctx, queryHash, r.ttl); err != nil {
		logger.Warn("query cache read failed, continuing uncached: %v", err)
	} else if entry != nil {
		logger.Debug("cache hit for %q (hit_count=%d)", query, entry.HitCount)
		return r.hydrate(ctx, entry.ResultDocumentIDs, opts)
	}

	scored, err := r.score(ctx, query, mode, limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	if len(scored) > limit {
		scored = scored[:limit]
	}

	ids := make([]int64, len(scored))
	results := make([]domain.SearchResult, len(scored))
	for i, sd := range scored {
		ids[i] = sd.doc.ID
		body, doc, err := r.shape(ctx, sd.doc.ID, opts)
		if err != nil {
			return nil, err
		}
		results[i] = domain.SearchResult{Document: *doc, Score: sd.score, Body: body}
	}

	now := time.Now().UTC()
	if err := r.cache.Put(ctx, domain.QueryCacheEntry{
		QueryHash:         queryHash,
		ResultDocumentIDs: ids,
		CreatedAt:         now,
		LastAccessed:      now,
	}); err != nil {
		logger.Warn("query cache write failed: %v", err)
	}

	return results, nil
}

// hydrate reloads cached document ids under the caller's progressive
// delivery options. A cache hit does not recompute score; there is
// nothing stored to rehydrate it from, so Score is left at zero.
func (r *Retriever) hydrate(ctx context.Context, ids []int64, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	results := make([]domain.SearchResult, 0, len(ids))
	for _, id := range ids {
		body, doc, err := r.shape(ctx, id, opts)
		if errors.Is(err, domain.ErrNotFound) {
			continue // document was deleted since this entry was cached
		}
		if err != nil {
			return nil, err
		}
		results = append(results, domain.SearchResult{Document: *doc, Body: body})
	}
	return results, nil
}

// shape fetches one document under the requested progressive delivery
// options and folds its chunk contents into a single Body string.
func (r *Retriever) shape(ctx context.Context, id int64, opts domain.SearchOptions) (string, *domain.Document, error) {
	doc, err := r.docs.GetDocument(ctx, id, driven.GetDocumentOptions{
		IncludeContent: opts.IncludeContent,
		MaxTokens:      opts.MaxTokens,
		Section:        opts.Section,
	})
	if err != nil {
		return "", nil, err
	}
	if !opts.IncludeContent {
		return "", doc, nil
	}
	parts := make([]string, len(doc.Chunks))
	for i, c := range doc.Chunks {
		parts[i] = c.Content
	}
	return strings.Join(parts, "\n\n"), doc, nil
}

// score computes the hybrid score over a candidate set and returns it
// ranked descending, tie-broken by updated_at descending then id
// ascending. On a semantic pass that yields no positive score, it
// falls back to a lexical-only pass over the same query.
func (r *Retriever) score(ctx context.Context, query string, mode domain.SearchMode, limit int) ([]scoredDocument, error) {
	qTokens := tokenSet(query)

	var queryVector []float32
	if mode == domain.SearchModeSemantic {
		if r.embedder == nil {
			mode = domain.SearchModeLexical
		} else {
			v, err := r.embedder.Embed(ctx, query)
			if err != nil {
				logger.Warn("embedding backend unavailable, falling back to lexical search: %v", err)
				mode = domain.SearchModeLexical
			} else {
				queryVector = v
			}
		}
	}

	candidateIDs, err := r.candidates(ctx, queryVector, mode, limit)
	if err != nil {
		return nil, err
	}
	if len(candidateIDs) == 0 {
		return nil, nil
	}

	var vectorsByDoc, vectorsByChunk map[int64][]float32
	if mode == domain.SearchModeSemantic {
		vectorsByDoc, vectorsByChunk, err = r.loadVectors(ctx)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	scored := make([]scoredDocument, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		doc, err := r.docs.GetDocument(ctx, id, driven.GetDocumentOptions{IncludeContent: true})
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		breakdown := domain.ScoreBreakdown{
			Lexical: lexicalScore(qTokens, tokenSet(documentBodyText(*doc))),
			Concept: conceptScore(qTokens, doc.Concepts),
		}
		if doc.UpdatedAt.Year() == now.Year() {
			breakdown.Freshness = 0.05
		}
		if mode == domain.SearchModeSemantic {
			if dv, ok := vectorsByDoc[id]; ok {
				breakdown.Vector = clamp01(cosine(queryVector, dv))
			}
			best := 0.0
			for _, c := range doc.Chunks {
				if cv, ok := vectorsByChunk[c.ID]; ok {
					if s := clamp01(cosine(queryVector, cv)); s > best {
						best = s
					}
				}
			}
			breakdown.Chunk = best
		}

		scored = append(scored, scoredDocument{doc: *doc, score: breakdown.Total()})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		if !scored[i].doc.UpdatedAt.Equal(scored[j].doc.UpdatedAt) {
			return scored[i].doc.UpdatedAt.After(scored[j].doc.UpdatedAt)
		}
		return scored[i].doc.ID < scored[j].doc.ID
	})

	if mode == domain.SearchModeSemantic && (len(scored) == 0 || scored[0].score <= 0) {
		logger.Debug("semantic search for %q yielded no positive score, falling back to lexical", query)
		return r.score(ctx, query, domain.SearchModeLexical, limit)
	}

	return scored, nil
}

// candidates returns the document ids to score: the VectorIndex's
// candidate set when one is built and non-empty, otherwise every
// document in a brute-force scan. Per the spec, results must be
// identical modulo the candidate cutoff.
func (r *Retriever) candidates(ctx context.Context, queryVector []float32, mode domain.SearchMode, limit int) ([]int64, error) {
	if mode == domain.SearchModeSemantic && r.vectorIndex != nil && r.vectorIndex.Len() > 0 {
		k := limit * 4
		if k < 50 {
			k = 50
		}
		hits, err := r.vectorIndex.Search(ctx, queryVector, k)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrBackend, err)
		}
		ids := make([]int64, len(hits))
		for i, h := range hits {
			ids[i] = h.DocumentID
		}
		return ids, nil
	}

	docs, err := r.docs.ListDocuments(ctx, bruteForceScanLimit)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

// loadVectors splits AllEmbeddings into per-owner-kind lookup maps.
func (r *Retriever) loadVectors(ctx context.Context) (byDoc, byChunk map[int64][]float32, err error) {
	embeddings, err := r.docs.AllEmbeddings(ctx)
	if err != nil {
		return nil, nil, err
	}
	byDoc = make(map[int64][]float32)
	byChunk = make(map[int64][]float32)
	for _, e := range embeddings {
		switch e.OwnerKind {
		case domain.OwnerKindDocument:
			byDoc[e.OwnerID] = e.Vector
		case domain.OwnerKindChunk:
			byChunk[e.OwnerID] = e.Vector
		}
	}
	return byDoc, byChunk, nil
}

// GetDocument reads one document with the same progressive delivery
// rules as Search results.
func (r *Retriever) GetDocument(ctx context.Context, id int64, includeContent bool, maxTokens int, section string) (*domain.Document, error) {
	return r.docs.GetDocument(ctx, id, driven.GetDocumentOptions{
		IncludeContent: includeContent,
		MaxTokens:      maxTokens,
		Section:        section,
	})
}

// FindByConcept returns up to limit documents tagged or inferred with
// concept.
func (r *Retriever) FindByConcept(ctx context.Context, concept string, limit int) ([]domain.Document, error) {
	return r.docs.ListByConcept(ctx, concept, limit)
}

// normalizeQuery trims, collapses internal whitespace, and lowercases.
func normalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}

// hashQuery computes the spec's cache key: SHA-256 over the normalized
// query, a NUL separator, and the limit.
func hashQuery(normalized string, limit int) string {
	h := sha256.New()
	h.Write([]byte(normalized))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(limit)))
	return hex.EncodeToString(h.Sum(nil))
}

// tokenSet lowercases and tokenizes text into a deduplicated set, the
// shape s_lex and s_concept both compare over.
func tokenSet(text string) map[string]struct{} {
	tokens := lexTokenRe.FindAllString(strings.ToLower(text), -1)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// documentBodyText reconstructs the text s_lex scores against: title,
// summary, and every chunk's content.
func documentBodyText(doc domain.Document) string {
	var b strings.Builder
	b.WriteString(doc.Title)
	b.WriteByte('\n')
	b.WriteString(doc.Summary)
	for _, c := range doc.Chunks {
		b.WriteByte('\n')
		b.WriteString(c.Content)
	}
	return b.String()
}

// lexicalScore computes |Q ∩ T_D| / max(|Q|, 1).
func lexicalScore(q, t map[string]struct{}) float64 {
	if len(q) == 0 {
		return 0
	}
	matches := 0
	for tok := range q {
		if _, ok := t[tok]; ok {
			matches++
		}
	}
	return float64(matches) / float64(len(q))
}

// conceptScore is 1.0 if any query token matches a document concept.
func conceptScore(q map[string]struct{}, concepts []string) float64 {
	for _, c := range concepts {
		if _, ok := q[strings.ToLower(c)]; ok {
			return 1.0
		}
	}
	return 0.0
}

// cosine computes cosine similarity between two vectors of equal
// length; mismatched or empty vectors score zero rather than panic, so
// a stale-dimension embedding degrades gracefully instead of crashing
// a search.
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

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
