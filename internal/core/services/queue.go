package services

import (
	"context"
	"time"

	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
	"github.com/markdownkeeper/markdownkeeper/internal/core/ports/driven"
	"github.com/markdownkeeper/markdownkeeper/internal/core/ports/driving"
	"github.com/markdownkeeper/markdownkeeper/internal/logger"
)

// Default scheduling parameters; overridable via Config.
const (
	DefaultDebounce    = 500 * time.Millisecond
	DefaultRetention   = 24 * time.Hour
	defaultPollInterval = 50 * time.Millisecond
)

// Ensure EventQueue implements the interface.
var _ driving.EventQueue = (*EventQueue)(nil)

// EventQueue is the single-threaded consumer side of the durable event
// log: coalesce, debounce, lease, ingest, retry-or-fail. Producers
// (Watchers) only ever call Enqueue.
type EventQueue struct {
	events   driven.EventStore
	ingestor driving.Ingestor

	debounce     time.Duration
	retention    time.Duration
	pollInterval time.Duration
}

// NewEventQueue wires the durable EventStore and the Ingestor it drives.
func NewEventQueue(events driven.EventStore, ingestor driving.Ingestor, debounce, retention time.Duration) *EventQueue {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &EventQueue{
		events:       events,
		ingestor:     ingestor,
		debounce:     debounce,
		retention:    retention,
		pollInterval: defaultPollInterval,
	}
}

// Enqueue records one filesystem change observed by a Watcher.
func (q *EventQueue) Enqueue(ctx context.Context, kind domain.EventKind, path, newPath string) error {
	_, err := q.events.Enqueue(ctx, domain.EventRecord{Path: path, Kind: kind, NewPath: newPath})
	return err
}

// Replay resets orphaned in_flight records to queued and prunes stale
// done records. Called once at startup before Run.
func (q *EventQueue) Replay(ctx context.Context) error {
	reset, err := q.events.ResetOrphanedInFlight(ctx)
	if err != nil {
		return err
	}
	if reset > 0 {
		logger.Info("replay: reset %d orphaned in_flight record(s) to queued", reset)
	}

	pruned, err := q.events.PruneDone(ctx, q.retention)
	if err != nil {
		return err
	}
	if pruned > 0 {
		logger.Info("replay: pruned %d done record(s) older than %s", pruned, q.retention)
	}
	return nil
}

// Run drains the queue until ctx is canceled. Each tick: coalesce
// per-path bursts into their minimal equivalent, then lease and ingest
// every record that has become eligible.
func (q *EventQueue) Run(ctx context.Context) error {
	ticker := time.NewTicker(q.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if err := q.coalesce(ctx); err != nil {
			logger.Error("coalesce pass failed: %v", err)
			continue
		}

		for {
			rec, err := q.events.Lease(ctx, q.debounce)
			if err != nil {
				logger.Error("lease failed: %v", err)
				break
			}
			if rec == nil {
				break
			}
			if err := q.process(ctx, rec); err != nil {
				return err
			}
		}
	}
}

// coalesce applies the spec's per-path folding rules to every queued
// record, ahead of leasing: create+modify -> modify, create+delete ->
// no-op, delete+create -> create (the path exists again), modify+modify
// -> modify, and any record older than the most recent delete for its
// path is dropped. Implemented by retiring every
// record in a path's group to done and, unless the net effect is a
// no-op, enqueueing one fresh record carrying the merged kind. The
// merged record's enqueued_at is the group's latest timestamp so the
// debounce window restarts from the last observed change, not the
// first.
func (q *EventQueue) coalesce(ctx context.Context) error {
	queued, err := q.events.ListQueued(ctx)
	if err != nil {
		return err
	}

	var order []string
	groups := make(map[string][]domain.EventRecord)
	for _, ev := range queued {
		if _, ok := groups[ev.Path]; !ok {
			order = append(order, ev.Path)
		}
		groups[ev.Path] = append(groups[ev.Path], ev)
	}

	for _, path := range order {
		group := groups[path]
		if len(group) < 2 {
			continue
		}

		var net *domain.EventRecord
		maxAttempt := 0
		latest := group[0].EnqueuedAt

		for _, ev := range group {
			if ev.AttemptCount > maxAttempt {
				maxAttempt = ev.AttemptCount
			}
			if ev.EnqueuedAt.After(latest) {
				latest = ev.EnqueuedAt
			}

			switch ev.Kind {
			case domain.EventDelete:
				if net != nil && net.Kind == domain.EventCreate {
					net = nil // create + later delete -> no-op
				} else {
					merged := ev
					net = &merged
				}
			case domain.EventCreate:
				switch {
				case net == nil:
					merged := ev
					net = &merged
				case net.Kind == domain.EventDelete:
					// delete + later create -> the path exists again;
					// net effect is a fresh create, not the stale delete.
					merged := ev
					net = &merged
				}
			case domain.EventModify:
				switch {
				case net == nil:
					merged := ev
					net = &merged
				case net.Kind == domain.EventCreate, net.Kind == domain.EventModify:
					net.Kind = domain.EventModify
				default:
					merged := ev
					net = &merged
				}
			case domain.EventMove:
				merged := ev
				net = &merged
			}
		}

		for _, ev := range group {
			if err := q.events.MarkDone(ctx, ev.ID); err != nil {
				return err
			}
		}
		if net == nil {
			logger.Debug("coalesced %s to no-op (create+delete)", path)
			continue
		}

		if _, err := q.events.Enqueue(ctx, domain.EventRecord{
			Path:         path,
			Kind:         net.Kind,
			NewPath:      net.NewPath,
			EnqueuedAt:   latest,
			AttemptCount: maxAttempt,
		}); err != nil {
			return err
		}
		logger.Debug("coalesced %d event(s) for %s into one %s", len(group), path, net.Kind)
	}
	return nil
}

// process ingests one leased record and resolves its terminal status.
// A Fatal error halts the worker entirely, per the spec's taxonomy;
// anything else is requeued with backoff until attempt_count exhausts.
func (q *EventQueue) process(ctx context.Context, rec *domain.EventRecord) error {
	err := q.ingestor.IngestEvent(ctx, *rec)
	if err == nil {
		return q.events.MarkDone(ctx, rec.ID)
	}

	if domain.KindOf(err) == domain.KindFatal {
		logger.Error("fatal error ingesting %s, halting worker: %v", rec.Path, err)
		return err
	}

	logger.Warn("ingest failed for %s (attempt %d): %v", rec.Path, rec.AttemptCount+1, err)
	if rec.AttemptCount+1 >= domain.MaxAttempts {
		return q.events.MarkFailed(ctx, rec.ID, err.Error())
	}
	return q.events.Requeue(ctx, rec.ID, err.Error())
}
