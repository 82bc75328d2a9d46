package vectorindex

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_SearchOrdersBySimilarityDescending(t *testing.T) {
	ctx := context.Background()
	idx := New()

	require.NoError(t, idx.Build(ctx, map[int64][]float32{
		1: {1, 0, 0},
		2: {0, 1, 0},
		3: {0.9, 0.1, 0},
	}))

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, int64(1), hits[0].DocumentID)
	assert.Equal(t, int64(3), hits[1].DocumentID)
}

func TestIndex_AddThenRemove(t *testing.T) {
	ctx := context.Background()
	idx := New()

	require.NoError(t, idx.Add(ctx, 1, []float32{1, 0}))
	assert.Equal(t, 1, idx.Len())

	require.NoError(t, idx.Remove(ctx, 1))
	assert.Equal(t, 0, idx.Len())
}

func TestIndex_SearchOnEmptyIndexReturnsNil(t *testing.T) {
	ctx := context.Background()
	idx := New()

	hits, err := idx.Search(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Nil(t, hits)
}

func TestIndex_SaveLoadRoundTrips(t *testing.T) {
	ctx := context.Background()
	idx := New()
	require.NoError(t, idx.Build(ctx, map[int64][]float32{
		10: {0.6, 0.8},
		20: {1, 0},
	}))

	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, idx.Save(ctx, path))

	loaded := New()
	require.NoError(t, loaded.Load(ctx, path))
	assert.Equal(t, idx.Len(), loaded.Len())

	hits, err := loaded.Search(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(20), hits[0].DocumentID)
}

func TestIndex_LoadRejectsMismatchedLengths(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "corrupt.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"dimensions":2,"id_map":[1,2],"embeddings":[[1,0]]}`), 0o644))

	idx := New()
	err := idx.Load(ctx, path)
	assert.Error(t, err)
}
