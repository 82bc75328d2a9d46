package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
)

type recordingSink struct {
	events []domain.EventKind
}

func (r *recordingSink) Enqueue(_ context.Context, kind domain.EventKind, _, _ string) error {
	r.events = append(r.events, kind)
	return nil
}

func TestWatch_AutoModeUsesNotifyBackend(t *testing.T) {
	dir := t.TempDir()
	sink := &recordingSink{}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, Options{Mode: ModeAuto}, []string{dir}, []string{".md"}, sink)
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.md"), []byte("# X"), 0o644))

	require.NoError(t, <-done)
	assert.Contains(t, sink.events, domain.EventCreate)
}

func TestWatch_PollingModeStopsAfterIterations(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("# A"), 0o644))
	sink := &recordingSink{}

	err := Watch(context.Background(), Options{Mode: ModePolling, Interval: 5 * time.Millisecond, Iterations: 2}, []string{dir}, []string{".md"}, sink)
	require.NoError(t, err)
	assert.Contains(t, sink.events, domain.EventCreate)
}

func TestWatch_NotifyModeDerivesDurationFromIterations(t *testing.T) {
	dir := t.TempDir()
	sink := &recordingSink{}

	start := time.Now()
	err := Watch(context.Background(), Options{Mode: ModeNotify, Interval: 30 * time.Millisecond, Iterations: 3}, []string{dir}, []string{".md"}, sink)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}
