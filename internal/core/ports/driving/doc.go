// Package driving defines interfaces that external actors (CLI, HTTP
// API) use to drive core services: Retriever, Ingestor, EventQueue.
// Implementations live in internal/core/services.
package driving
