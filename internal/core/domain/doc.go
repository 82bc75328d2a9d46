// Package domain defines the core entities for MarkdownKeeper: Document,
// Heading, Link, Tag, Concept, Chunk, Embedding, QueryCacheEntry, and
// EventRecord.
//
// This package is the innermost layer of the hexagon: all other packages
// depend on domain, never the reverse. It otherwise imports only the
// standard library, with one exception — NextBackoff builds on
// cenkalti/backoff/v4 rather than hand-rolling exponential doubling.
package domain
