package domain

// Stats is the result of Store.Stats(): top-level counters surfaced by
// the `stats` CLI command and the health report.
type Stats struct {
	DocumentCount int
	HeadingCount  int
	LinkCount     int
	ChunkCount    int
	ConceptCount  int
	TagCount      int
	Queue         EventQueueStatus
	Embeddings    EmbeddingCoverage
}

// EventQueueStatus summarizes the Event Queue for stats()/health_report().
type EventQueueStatus struct {
	Queued    int
	InFlight  int
	Failed    int
	LagSeconds float64
}

// EmbeddingCoverage reports how much of the corpus has up-to-date
// embeddings under the active backend.
type EmbeddingCoverage struct {
	Documents        int
	DocumentsEmbedded int
	DocumentsMissing  int
	Chunks            int
	ChunksEmbedded    int
	ChunksMissing     int
	ModelAvailable    bool
	ActiveBackend     string
}

// HealthReport is the `report` CLI command's payload: Stats plus a
// coarse-grained verdict and the warnings derived from those Stats
// when the report is built.
type HealthReport struct {
	Stats    Stats
	Healthy  bool
	Warnings []string
}
