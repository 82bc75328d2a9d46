package domain

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// EventKind is the kind of filesystem change a Watcher observed.
type EventKind string

const (
	EventCreate EventKind = "create"
	EventModify EventKind = "modify"
	EventMove   EventKind = "move"
	EventDelete EventKind = "delete"
)

// EventStatus is the lifecycle state of an EventRecord in the durable
// queue. At most one in_flight record may exist per path at a time.
type EventStatus string

const (
	EventQueued   EventStatus = "queued"
	EventInFlight EventStatus = "in_flight"
	EventDone     EventStatus = "done"
	EventFailed   EventStatus = "failed"
)

// MaxAttempts is the attempt_count at which an EventRecord is marked
// failed instead of requeued.
const MaxAttempts = 5

// EventRecord is one durable, persisted entry in the Event Queue.
// NewPath is only set for EventMove. Done records older than the
// retention window are pruned; failed records are kept.
type EventRecord struct {
	ID          int64
	Path        string
	Kind        EventKind
	NewPath     string
	EnqueuedAt  time.Time
	AttemptCount int
	Status      EventStatus
	LastError   string
	ProcessedAt time.Time
}

// NextBackoff implements the spec's retry schedule, min(30s, 0.5s*2^attempt),
// on top of backoff.ExponentialBackOff rather than a hand-rolled doubling
// loop: RandomizationFactor is zeroed so the sequence is exact, not jittered.
func NextBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.Multiplier = 2
	b.MaxInterval = 30 * time.Second
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0

	var d time.Duration
	for i := 0; i <= attempt; i++ {
		d = b.NextBackOff()
	}
	return d
}
