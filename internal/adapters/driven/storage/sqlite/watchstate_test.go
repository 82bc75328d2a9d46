package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchStateStore_SaveThenLoadRoundTrips(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	wss := store.WatchStateStore()

	snapshot, err := wss.LoadWatchState(ctx)
	require.NoError(t, err)
	assert.Empty(t, snapshot)

	now := time.Now().UTC().Truncate(time.Second)
	want := map[string]time.Time{
		"/docs/a.md": now,
		"/docs/b.md": now.Add(time.Minute),
	}
	require.NoError(t, wss.SaveWatchState(ctx, want))

	got, err := wss.LoadWatchState(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got["/docs/a.md"].Equal(want["/docs/a.md"]))
	assert.True(t, got["/docs/b.md"].Equal(want["/docs/b.md"]))
}

func TestWatchStateStore_SaveReplacesPreviousSnapshot(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	wss := store.WatchStateStore()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, wss.SaveWatchState(ctx, map[string]time.Time{"/docs/a.md": now}))
	require.NoError(t, wss.SaveWatchState(ctx, map[string]time.Time{"/docs/b.md": now}))

	got, err := wss.LoadWatchState(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	_, stillHasA := got["/docs/a.md"]
	assert.False(t, stillHasA)
	_, hasB := got["/docs/b.md"]
	assert.True(t, hasB)
}
