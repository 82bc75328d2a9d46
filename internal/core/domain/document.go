package domain

import "time"

// Document is one indexed Markdown file. IDs are assigned by the Store
// on first successful ingest and never reused; path is unique and
// content_hash identifies the exact revision.
type Document struct {
	ID           int64
	Path         string
	Title        string
	Summary      string
	Category     string
	TokenEstimate int
	ContentHash  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ProcessedAt  time.Time

	// GetDocument and GetDocumentByPath populate Tags and Concepts, and
	// Chunks when content is requested; no Store reader populates
	// Headings or Links. Store.UpsertDocument ignores all five and
	// derives rows from the ParsedDocument instead.
	Headings []Heading
	Links    []Link
	Tags     []string
	Concepts []string
	Chunks   []Chunk
}

// Heading is one ATX heading within a document, in document order.
// Ordinals form a dense 0-based prefix per document and the whole list
// is destroyed and recreated on every upsert.
type Heading struct {
	DocumentID int64
	Ordinal    int
	Level      int
	Text       string
	Anchor     string
}

// Link is one link occurrence within a document body. Recreated on each
// upsert; status resets to "unknown" until check-links runs.
type Link struct {
	ID         int64
	DocumentID int64
	Target     string
	IsExternal bool
	Status     LinkStatus
	CheckedAt  time.Time
}

// LinkStatus is the outcome of the last check-links run for a Link.
type LinkStatus string

const (
	LinkStatusUnknown LinkStatus = "unknown"
	LinkStatusOK      LinkStatus = "ok"
	LinkStatusBroken  LinkStatus = "broken"
)

// Chunk is a paragraph-bounded unit of at most 120 words, carrying the
// slash-joined path of its enclosing headings. Recreated on each
// upsert; ordinal is dense per document.
type Chunk struct {
	ID           int64
	DocumentID   int64
	Ordinal      int
	HeadingPath  string
	Content      string
	TokenEstimate int
}
