package notify

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
)

type recordingSink struct {
	mu     sync.Mutex
	events []domain.EventKind
	paths  []string
}

func (r *recordingSink) Enqueue(_ context.Context, kind domain.EventKind, path, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind)
	r.paths = append(r.paths, path)
	return nil
}

func (r *recordingSink) snapshot() ([]domain.EventKind, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.EventKind(nil), r.events...), append([]string(nil), r.paths...)
}

func TestWatcher_ObservesFileCreate(t *testing.T) {
	dir := t.TempDir()
	sink := &recordingSink{}
	w := New()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx, []string{dir}, []string{".md"}, sink) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.md"), []byte("# Hi"), 0o644))

	require.Eventually(t, func() bool {
		kinds, _ := sink.snapshot()
		return len(kinds) > 0
	}, time.Second, 20*time.Millisecond)

	cancel()
	<-done

	kinds, paths := sink.snapshot()
	assert.Contains(t, kinds, domain.EventCreate)
	assert.Contains(t, paths[0], "new.md")
}

func TestWatcher_IgnoresNonMatchingExtensionAndHiddenFiles(t *testing.T) {
	dir := t.TempDir()
	sink := &recordingSink{}
	w := New()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx, []string{dir}, []string{".md"}, sink) }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.md"), []byte("x"), 0o644))

	<-done
	kinds, _ := sink.snapshot()
	assert.Empty(t, kinds)
}
