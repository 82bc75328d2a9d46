// Package watcher selects between the notify and polling Watcher
// backends.
package watcher

import (
	"context"
	"time"

	"github.com/markdownkeeper/markdownkeeper/internal/adapters/driven/watcher/notify"
	"github.com/markdownkeeper/markdownkeeper/internal/adapters/driven/watcher/polling"
	"github.com/markdownkeeper/markdownkeeper/internal/core/ports/driven"
	"github.com/markdownkeeper/markdownkeeper/internal/logger"
)

// Mode selects which Watcher backend to construct.
type Mode string

const (
	ModeAuto    Mode = "auto"
	ModeNotify  Mode = "notify"
	ModePolling Mode = "polling"
)

// Options configures Watch regardless of which backend ends up running.
type Options struct {
	Mode       Mode
	Interval   time.Duration
	Iterations int           // polling: stop after this many snapshot passes; notify without Duration: run for Iterations*Interval
	Duration   time.Duration // notify-only: stop after this long

	// WatchState, if set, is consulted and updated by the polling
	// backend so a restart diffs against its last-known snapshot
	// instead of nil. Ignored by the notify backend, which relies on
	// OS-delivered events rather than snapshot diffing.
	WatchState driven.WatchStateStore
}

// Watch picks a backend per Mode and runs it until its stop condition
// or ctx is canceled. ModeAuto tries Notify first; if constructing the
// OS subscription fails, it falls back to Polling, per spec.
func Watch(ctx context.Context, opts Options, roots []string, extensions []string, sink driven.EventSink) error {
	switch opts.Mode {
	case ModePolling:
		return runPolling(ctx, opts, roots, extensions, sink)
	case ModeNotify:
		return runNotify(ctx, opts, roots, extensions, sink)
	default:
		return runAuto(ctx, opts, roots, extensions, sink)
	}
}

func runAuto(ctx context.Context, opts Options, roots []string, extensions []string, sink driven.EventSink) error {
	err := runNotify(ctx, opts, roots, extensions, sink)
	if err == nil {
		return nil
	}
	logger.Warn("watcher: notify backend unavailable (%v), falling back to polling", err)
	return runPolling(ctx, opts, roots, extensions, sink)
}

func runNotify(ctx context.Context, opts Options, roots []string, extensions []string, sink driven.EventSink) error {
	w := notify.New()

	// If only an iteration count was given, derive the duration bound
	// the way spec.md requires: iterations * interval.
	duration := opts.Duration
	if duration == 0 && opts.Iterations > 0 {
		interval := opts.Interval
		if interval <= 0 {
			interval = polling.DefaultInterval
		}
		duration = time.Duration(opts.Iterations) * interval
	}

	runCtx := ctx
	if duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	// Watch returns nil whenever runCtx ends, whether by cancellation or
	// by the derived timeout elapsing; it only returns a non-nil error
	// when the OS subscription itself could not be established, which
	// is exactly the signal runAuto needs to decide on a fallback.
	return w.Watch(runCtx, roots, extensions, sink)
}

func runPolling(ctx context.Context, opts Options, roots []string, extensions []string, sink driven.EventSink) error {
	w := polling.New(opts.Interval, opts.Iterations)
	w.Store = opts.WatchState
	return w.Watch(ctx, roots, extensions, sink)
}
