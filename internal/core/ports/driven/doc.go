// Package driven defines the interfaces core calls out to infrastructure:
// DocumentStore, CacheStore, and EventStore (all backed by the Store),
// Embedder, and the optional VectorIndex. Core services depend on these
// interfaces; adapters under internal/adapters/driven implement them.
//
// Import rules: may import the domain package only, never an adapter
// package.
package driven
