// Package services implements the driving port interfaces: Ingestor,
// EventQueue, and Retriever. Services contain the core business logic
// and orchestrate calls to driven ports (adapters).
//
// Services are pure Go with no CGO dependencies of their own.
package services
