// Package sqlite provides the Store: a single embedded SQLite database
// holding documents, headings, links, tags, concepts, chunks,
// embeddings, the query cache, and the event log.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation
// that requires no CGO, enabling easy cross-compilation. It implements
// the driven.DocumentStore, driven.CacheStore, and driven.EventStore
// interfaces over one database/sql connection pool:
//
//   - DocumentStore: documents, headings, links, tags, concepts, chunks, embeddings
//   - CacheStore: the query result cache
//   - EventStore: the durable file-event queue
//
// # Schema
//
// The schema is managed through versioned, additive-only migrations
// embedded from the migrations/ directory (NNN_name.up.sql).
//
// # Data Location
//
// By default, the database is stored at ~/.markdownkeeper/data/metadata.db.
//
// # Thread Safety
//
// All operations are thread-safe. Transactions start with BEGIN
// IMMEDIATE under write-ahead logging, on the same connection pool
// that serves reads; the single-writer contract (§5) is enforced by
// the Ingestor, not by this package.
package sqlite
