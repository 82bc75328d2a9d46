package sqlite

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
	"github.com/markdownkeeper/markdownkeeper/internal/core/ports/driven"
	"github.com/markdownkeeper/markdownkeeper/internal/markdown"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "markdownkeeper-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}
	return store, cleanup
}

// hashEmbed is a deterministic stub EmbedFunc for tests; it doesn't
// need to be a real embedder, only to return a stable-length vector.
func hashEmbed(_ context.Context, text string) ([]float32, string, error) {
	v := make([]float32, 4)
	for i, r := range text {
		v[i%4] += float32(r % 7)
	}
	return v, "test-embed", nil
}

func mustParse(t *testing.T, text string) domain.ParsedDocument {
	t.Helper()
	return markdown.Parse(text)
}

func TestDocumentStore_UpsertAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	docs := store.DocumentStore()

	parsed := mustParse(t, "---\ntitle: Alpha\ntags: ops\n---\n\n# Alpha\n\nkubernetes deployment guide\n")
	id, err := docs.UpsertDocument(ctx, "/docs/a.md", parsed, hashEmbed)
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := docs.GetDocument(ctx, id, driven.GetDocumentOptions{IncludeContent: true})
	require.NoError(t, err)
	assert.Equal(t, "Alpha", got.Title)
	assert.Contains(t, got.Tags, "ops")
	require.NotEmpty(t, got.Chunks)
	assert.Contains(t, got.Chunks[0].Content, "kubernetes")
}

func TestDocumentStore_UpsertUnchangedOnlyTouchesUpdatedAt(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	docs := store.DocumentStore()

	parsed := mustParse(t, "# Stable\n\nsame content every time\n")
	id1, err := docs.UpsertDocument(ctx, "/docs/stable.md", parsed, hashEmbed)
	require.NoError(t, err)

	statsBefore, err := docs.Stats(ctx)
	require.NoError(t, err)

	id2, err := docs.UpsertDocument(ctx, "/docs/stable.md", parsed, hashEmbed)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	statsAfter, err := docs.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, statsBefore.DocumentCount, statsAfter.DocumentCount)
	assert.Equal(t, statsBefore.ChunkCount, statsAfter.ChunkCount)
}

func TestDocumentStore_DeleteCascades(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	docs := store.DocumentStore()

	parsed := mustParse(t, "# Doc\n\n## Section\n\nbody with a [link](https://example.com)\n")
	id, err := docs.UpsertDocument(ctx, "/docs/d.md", parsed, hashEmbed)
	require.NoError(t, err)

	existed, err := docs.DeleteByPath(ctx, "/docs/d.md")
	require.NoError(t, err)
	assert.True(t, existed)

	_, err = docs.GetDocument(ctx, id, driven.GetDocumentOptions{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	embeddings, err := docs.AllEmbeddings(ctx)
	require.NoError(t, err)
	for _, e := range embeddings {
		assert.NotEqual(t, id, e.OwnerID, "no embedding should reference a deleted document's graph")
	}
}

func TestDocumentStore_DeleteMissingPathReturnsFalse(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	existed, err := store.DocumentStore().DeleteByPath(context.Background(), "/docs/missing.md")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestDocumentStore_SectionFilterAndTokenBudget(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	docs := store.DocumentStore()

	parsed := mustParse(t, "# Guide\n\n## Prerequisites\n\nneed docker installed\n\n## Steps\n\nrun the deploy script now\n")
	id, err := docs.UpsertDocument(ctx, "/docs/guide.md", parsed, hashEmbed)
	require.NoError(t, err)

	got, err := docs.GetDocument(ctx, id, driven.GetDocumentOptions{IncludeContent: true, Section: "steps"})
	require.NoError(t, err)
	for _, c := range got.Chunks {
		assert.Contains(t, c.HeadingPath, "Steps")
	}
}

func TestDocumentStore_UpsertFlushesQueryCache(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	cache := store.CacheStore()
	require.NoError(t, cache.Put(ctx, domain.QueryCacheEntry{
		QueryHash: "abc", ResultDocumentIDs: []int64{1}, CreatedAt: time.Now().UTC(), LastAccessed: time.Now().UTC(),
	}))

	size, err := cache.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, size)

	_, err = store.DocumentStore().UpsertDocument(ctx, "/docs/x.md", mustParse(t, "# X\n\nbody\n"), hashEmbed)
	require.NoError(t, err)

	size, err = cache.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, size)
}

func TestCacheStore_TTLEviction(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	cache := store.CacheStore()

	entry := domain.QueryCacheEntry{
		QueryHash:         "stale",
		ResultDocumentIDs: []int64{1, 2},
		CreatedAt:         time.Now().UTC().Add(-time.Hour),
		LastAccessed:      time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, cache.Put(ctx, entry))

	got, err := cache.Get(ctx, "stale", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, got)

	size, err := cache.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, size)
}

func TestCacheStore_HitCountIncrements(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	cache := store.CacheStore()

	require.NoError(t, cache.Put(ctx, domain.QueryCacheEntry{
		QueryHash: "fresh", ResultDocumentIDs: []int64{7}, CreatedAt: time.Now().UTC(), LastAccessed: time.Now().UTC(),
	}))

	first, err := cache.Get(ctx, "fresh", time.Hour)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 1, first.HitCount)

	second, err := cache.Get(ctx, "fresh", time.Hour)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, 2, second.HitCount)
}

func TestEventStore_EnqueueListLease(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	events := store.EventStore()

	id, err := events.Enqueue(ctx, domain.EventRecord{Path: "/docs/a.md", Kind: domain.EventCreate})
	require.NoError(t, err)
	require.NotZero(t, id)

	queued, err := events.ListQueued(ctx)
	require.NoError(t, err)
	require.Len(t, queued, 1)

	rec, err := events.Lease(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, domain.EventInFlight, rec.Status)

	none, err := events.Lease(ctx, 0)
	require.NoError(t, err)
	assert.Nil(t, none, "at most one in_flight record per path")
}

func TestEventStore_RequeueAppliesBackoffAndEventuallyFails(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	events := store.EventStore()

	id, err := events.Enqueue(ctx, domain.EventRecord{Path: "/docs/flaky.md", Kind: domain.EventModify})
	require.NoError(t, err)

	for i := 0; i < domain.MaxAttempts; i++ {
		require.NoError(t, events.Requeue(ctx, id, "boom"))
	}
	require.NoError(t, events.MarkFailed(ctx, id, "boom"))

	status, err := events.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Failed)
	assert.Equal(t, 0, status.Queued)
}

func TestEventStore_ResetOrphanedInFlight(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	events := store.EventStore()

	id, err := events.Enqueue(ctx, domain.EventRecord{Path: "/docs/b.md", Kind: domain.EventCreate})
	require.NoError(t, err)
	_, err = events.Lease(ctx, 0)
	require.NoError(t, err)

	reset, err := events.ResetOrphanedInFlight(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, reset)

	queued, err := events.ListQueued(ctx)
	require.NoError(t, err)
	require.Len(t, queued, 1)
	assert.Equal(t, id, queued[0].ID)
}

func TestEventStore_PruneDone(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	events := store.EventStore()

	id, err := events.Enqueue(ctx, domain.EventRecord{Path: "/docs/c.md", Kind: domain.EventCreate})
	require.NoError(t, err)
	require.NoError(t, events.MarkDone(ctx, id))

	pruned, err := events.PruneDone(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)
}

func TestDocumentStore_ListByConceptCaseInsensitive(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	docs := store.DocumentStore()

	parsed := mustParse(t, "---\nconcepts: Caching\n---\n\n# Doc\n\nbody\n")
	_, err := docs.UpsertDocument(ctx, "/docs/cache.md", parsed, hashEmbed)
	require.NoError(t, err)

	found, err := docs.ListByConcept(ctx, "CACHING", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "/docs/cache.md", found[0].Path)
}
