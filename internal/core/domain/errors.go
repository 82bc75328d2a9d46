package domain

import "errors"

// Sentinel errors carry the stable kind tags used by the Event Queue,
// the HTTP API, and stats() to classify failures without inspecting
// message text. Wrap with fmt.Errorf("%w: ...") and compare with
// errors.Is.
var (
	// ErrNotFound indicates a document id, path, or concept is not indexed.
	ErrNotFound = errors.New("not found")

	// ErrInvalid indicates a malformed query, bad parameters, or an
	// oversized request body.
	ErrInvalid = errors.New("invalid input")

	// ErrRetry indicates a transient failure: I/O, a locked database, a
	// network timeout. The Event Queue retries up to 5 attempts.
	ErrRetry = errors.New("transient failure, retry")

	// ErrBackend indicates the embedding backend is unavailable or its
	// dimension no longer matches stored vectors.
	ErrBackend = errors.New("embedding backend unavailable")

	// ErrCorrupt indicates a checksum mismatch on replay, or a dimension
	// change affecting stored vectors. Forces regeneration.
	ErrCorrupt = errors.New("corrupt state, regeneration required")

	// ErrFatal indicates disk full or a schema migration failure. Halts
	// the worker.
	ErrFatal = errors.New("fatal error")

	// ErrConflict indicates a concurrent writer violated the
	// single-writer contract on the Store.
	ErrConflict = errors.New("conflicting write")
)

// Kind is a stable classification tag for an error, independent of its
// message text.
type Kind string

const (
	KindNotFound Kind = "not_found"
	KindInvalid  Kind = "invalid"
	KindRetry    Kind = "retry"
	KindBackend  Kind = "backend"
	KindCorrupt  Kind = "corrupt"
	KindFatal    Kind = "fatal"
	KindConflict Kind = "conflict"
	KindInternal Kind = "internal"
)

// KindOf classifies err by the sentinel it wraps, falling back to
// KindInternal for anything unrecognized.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalid):
		return KindInvalid
	case errors.Is(err, ErrRetry):
		return KindRetry
	case errors.Is(err, ErrBackend):
		return KindBackend
	case errors.Is(err, ErrCorrupt):
		return KindCorrupt
	case errors.Is(err, ErrFatal):
		return KindFatal
	case errors.Is(err, ErrConflict):
		return KindConflict
	default:
		return KindInternal
	}
}
