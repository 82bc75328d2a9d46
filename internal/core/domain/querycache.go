package domain

import "time"

// QueryCacheEntry memoizes the ranked document id list for one
// normalized-query+limit pair. The Retriever is its sole writer, except
// that the Ingestor flushes the whole table on every mutating Store
// operation.
type QueryCacheEntry struct {
	QueryHash         string
	ResultDocumentIDs []int64
	CreatedAt         time.Time
	LastAccessed      time.Time
	HitCount          int
}
