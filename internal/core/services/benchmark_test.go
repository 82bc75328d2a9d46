package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdownkeeper/markdownkeeper/internal/markdown"
)

func TestEvaluatePrecision_PerfectMatchScoresOne(t *testing.T) {
	store, cleanup := setupTestStoreForServices(t)
	defer cleanup()
	ctx := context.Background()

	docs := store.DocumentStore()
	parsed := markdown.Parse("# Kubernetes\nkubernetes deployment guide for clusters")
	id, err := docs.UpsertDocument(ctx, "/docs/k8s.md", parsed, embedWith(&stubEmbedder{dim: 8}))
	require.NoError(t, err)

	retriever := NewRetriever(docs, store.CacheStore(), &stubEmbedder{dim: 8}, nil, DefaultCacheTTL)

	report, err := EvaluatePrecision(ctx, retriever, []BenchmarkCase{
		{Query: "kubernetes", ExpectedID: []int64{id}},
	}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, report.PrecisionAtK)
	require.Len(t, report.Details, 1)
	assert.Equal(t, []int64{id}, report.Details[0].ResultID)
}

func TestEvaluatePrecision_NoCasesReturnsZeroReport(t *testing.T) {
	store, cleanup := setupTestStoreForServices(t)
	defer cleanup()
	ctx := context.Background()

	retriever := NewRetriever(store.DocumentStore(), store.CacheStore(), nil, nil, DefaultCacheTTL)
	report, err := EvaluatePrecision(ctx, retriever, nil, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Cases)
	assert.Equal(t, 5, report.K)
}

func TestBenchmarkQueries_ReportsLatencyAcrossIterations(t *testing.T) {
	store, cleanup := setupTestStoreForServices(t)
	defer cleanup()
	ctx := context.Background()

	docs := store.DocumentStore()
	parsed := markdown.Parse("# Alpha\nalpha beta gamma content")
	_, err := docs.UpsertDocument(ctx, "/docs/a.md", parsed, embedWith(&stubEmbedder{dim: 8}))
	require.NoError(t, err)

	retriever := NewRetriever(docs, store.CacheStore(), &stubEmbedder{dim: 8}, nil, DefaultCacheTTL)

	report, err := BenchmarkQueries(ctx, retriever, []BenchmarkCase{{Query: "alpha"}}, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Cases)
	assert.Equal(t, 2, report.Iterations)
	assert.GreaterOrEqual(t, report.Latency.Max, report.Latency.Avg*0)
	assert.GreaterOrEqual(t, report.Latency.P95, report.Latency.P50)
}
