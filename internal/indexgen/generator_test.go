package indexgen

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
	"github.com/markdownkeeper/markdownkeeper/internal/core/ports/driven"
)

type stubDocs struct {
	driven.DocumentStore
	docs []domain.Document
}

func (s *stubDocs) ListDocuments(_ context.Context, _ int) ([]domain.Document, error) {
	return s.docs, nil
}

func TestGenerateAll_WritesMasterAndCategoryIndexes(t *testing.T) {
	dir := t.TempDir()
	docs := &stubDocs{docs: []domain.Document{
		{ID: 1, Path: "a.md", Title: "Alpha", Summary: "about alpha", Category: "guides"},
		{ID: 2, Path: "b.md", Title: "Beta", Summary: "about beta", Category: "guides"},
		{ID: 3, Path: "c.md", Title: "Gamma", Category: ""},
	}}

	result, err := GenerateAll(context.Background(), docs, dir, 0)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "master.md"), result.MasterIndex)
	assert.Len(t, result.CategoryFiles, 2)

	master, err := os.ReadFile(result.MasterIndex)
	require.NoError(t, err)
	assert.Contains(t, string(master), "Table of Contents")
	assert.Contains(t, string(master), "Alpha")
	assert.Contains(t, string(master), "Gamma")

	guides, err := os.ReadFile(filepath.Join(dir, "category-guides.md"))
	require.NoError(t, err)
	assert.Contains(t, string(guides), "Alpha")
	assert.Contains(t, string(guides), "Beta")
	assert.NotContains(t, string(guides), "Gamma")

	uncategorized, err := os.ReadFile(filepath.Join(dir, "category-uncategorized.md"))
	require.NoError(t, err)
	assert.Contains(t, string(uncategorized), "Gamma")
}

func TestGenerateAll_EmptyCorpusStillWritesMaster(t *testing.T) {
	dir := t.TempDir()
	docs := &stubDocs{}

	result, err := GenerateAll(context.Background(), docs, dir, 0)
	require.NoError(t, err)

	master, err := os.ReadFile(result.MasterIndex)
	require.NoError(t, err)
	assert.Contains(t, string(master), "No indexed documents found")
}

func TestSlugifyCategory_ReplacesSpacesAndSlashes(t *testing.T) {
	assert.Equal(t, "api-design", slugifyCategory("API Design"))
	assert.Equal(t, "ops-runbooks", slugifyCategory("ops/runbooks"))
}
