package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdownkeeper/markdownkeeper/internal/adapters/driven/storage/sqlite"
	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
	"github.com/markdownkeeper/markdownkeeper/internal/core/ports/driven"
)

// stubEmbedder is a deterministic fixed-dimension Embedder for tests
// that don't exercise real embedding semantics.
type stubEmbedder struct {
	dim int
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, s.dim)
	for i, r := range text {
		v[i%s.dim] += float32(r % 7)
	}
	return v, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *stubEmbedder) Dimension() int       { return s.dim }
func (s *stubEmbedder) BackendID() string    { return "stub-test" }
func (s *stubEmbedder) Ping(context.Context) error { return nil }
func (s *stubEmbedder) Close() error         { return nil }

func setupTestStoreForServices(t *testing.T) (*sqlite.Store, func()) {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "markdownkeeper-services-test-*")
	require.NoError(t, err)
	store, err := sqlite.NewStore(tempDir)
	require.NoError(t, err)
	return store, func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}
}

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngestor_ScanFileCreatesDocument(t *testing.T) {
	store, cleanup := setupTestStoreForServices(t)
	defer cleanup()

	dir := t.TempDir()
	path := writeTempFile(t, dir, "a.md", "# Alpha\n\nkubernetes deployment guide\n")

	ig := NewIngestor(store.DocumentStore(), &stubEmbedder{dim: 8})
	doc, err := ig.ScanFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", doc.Title)
}

func TestIngestor_ScanFileVanishedTreatedAsDelete(t *testing.T) {
	store, cleanup := setupTestStoreForServices(t)
	defer cleanup()

	ctx := context.Background()
	dir := t.TempDir()
	path := writeTempFile(t, dir, "b.md", "# Beta\n\nbody\n")

	ig := NewIngestor(store.DocumentStore(), &stubEmbedder{dim: 8})
	_, err := ig.ScanFile(ctx, path)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	doc, err := ig.ScanFile(ctx, path)
	require.NoError(t, err)
	assert.Nil(t, doc)

	_, err = store.DocumentStore().GetDocumentByPath(ctx, path, driven.GetDocumentOptions{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngestor_IngestEventMoveDeletesSourceAndIngestsDestination(t *testing.T) {
	store, cleanup := setupTestStoreForServices(t)
	defer cleanup()

	ctx := context.Background()
	dir := t.TempDir()
	src := writeTempFile(t, dir, "src.md", "# Source\n\nbody\n")

	ig := NewIngestor(store.DocumentStore(), &stubEmbedder{dim: 8})
	_, err := ig.ScanFile(ctx, src)
	require.NoError(t, err)

	dst := filepath.Join(dir, "dst.md")
	require.NoError(t, os.Rename(src, dst))

	err = ig.IngestEvent(ctx, domain.EventRecord{Kind: domain.EventMove, Path: src, NewPath: dst})
	require.NoError(t, err)

	_, err = store.DocumentStore().GetDocumentByPath(ctx, src, driven.GetDocumentOptions{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := store.DocumentStore().GetDocumentByPath(ctx, dst, driven.GetDocumentOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Source", got.Title)
}

func TestIngestor_IngestEventDeleteOfUnknownPathIsNotAnError(t *testing.T) {
	store, cleanup := setupTestStoreForServices(t)
	defer cleanup()

	ig := NewIngestor(store.DocumentStore(), &stubEmbedder{dim: 8})
	err := ig.IngestEvent(context.Background(), domain.EventRecord{Kind: domain.EventDelete, Path: "/does/not/exist.md"})
	assert.NoError(t, err)
}

func TestIngestor_EmbedderUnavailableSurfacesAsRetryError(t *testing.T) {
	store, cleanup := setupTestStoreForServices(t)
	defer cleanup()

	dir := t.TempDir()
	path := writeTempFile(t, dir, "c.md", "# Gamma\n\nbody\n")

	ig := NewIngestor(store.DocumentStore(), nil)
	_, err := ig.ScanFile(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrRetry)
}
