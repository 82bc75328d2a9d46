package services

import (
	"context"
	"sort"
	"time"

	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
	"github.com/markdownkeeper/markdownkeeper/internal/core/ports/driving"
)

// BenchmarkCase is one labeled query with its expected top-k document ids,
// the unit a semantic-benchmark/embeddings-eval run is scored against.
type BenchmarkCase struct {
	Query      string
	ExpectedID []int64
}

// CaseDetail reports one case's outcome within a PrecisionReport.
type CaseDetail struct {
	Query        string
	ExpectedID   []int64
	ResultID     []int64
	PrecisionAtK float64
}

// PrecisionReport is the result of EvaluatePrecision: precision@k
// averaged across cases, plus a per-case breakdown.
type PrecisionReport struct {
	Cases        int
	K            int
	PrecisionAtK float64
	Details      []CaseDetail
}

// LatencyStats summarizes a sample of Search call durations in
// milliseconds.
type LatencyStats struct {
	Avg float64
	P50 float64
	P95 float64
	Max float64
}

// BenchmarkReport is the result of BenchmarkQueries: a PrecisionReport
// plus latency percentiles over iterations * len(cases) Search calls.
type BenchmarkReport struct {
	Cases      int
	Iterations int
	K          int
	Precision  PrecisionReport
	Latency    LatencyStats
}

// EvaluatePrecision runs each case's query through retriever in semantic
// mode and measures precision@k: the fraction of the top-k results whose
// document id appears in the case's expected set.
func EvaluatePrecision(ctx context.Context, retriever driving.Retriever, cases []BenchmarkCase, k int) (PrecisionReport, error) {
	if k <= 0 {
		k = 5
	}
	if len(cases) == 0 {
		return PrecisionReport{K: k}, nil
	}

	details := make([]CaseDetail, 0, len(cases))
	var totalPrecision float64

	for _, c := range cases {
		results, err := retriever.Search(ctx, domain.SearchOptions{
			Query: c.Query,
			Limit: k,
			Mode:  domain.SearchModeSemantic,
		})
		if err != nil {
			return PrecisionReport{}, err
		}

		expected := toSet(c.ExpectedID)
		gotIDs := make([]int64, 0, len(results))
		hits := 0
		for _, r := range results {
			if len(gotIDs) >= k {
				break
			}
			gotIDs = append(gotIDs, r.Document.ID)
			if _, ok := expected[r.Document.ID]; ok {
				hits++
			}
		}
		precision := float64(hits) / float64(k)
		totalPrecision += precision

		details = append(details, CaseDetail{
			Query:        c.Query,
			ExpectedID:   c.ExpectedID,
			ResultID:     gotIDs,
			PrecisionAtK: precision,
		})
	}

	return PrecisionReport{
		Cases:        len(cases),
		K:            k,
		PrecisionAtK: totalPrecision / float64(len(cases)),
		Details:      details,
	}, nil
}

// BenchmarkQueries repeats every case's query iterations times,
// recording Search latency, then reports precision@k alongside
// avg/p50/p95/max latency in milliseconds.
func BenchmarkQueries(ctx context.Context, retriever driving.Retriever, cases []BenchmarkCase, k, iterations int) (BenchmarkReport, error) {
	if k <= 0 {
		k = 5
	}
	if iterations <= 0 {
		iterations = 1
	}
	if len(cases) == 0 {
		return BenchmarkReport{Iterations: iterations, K: k}, nil
	}

	var latenciesMs []float64
	for i := 0; i < iterations; i++ {
		for _, c := range cases {
			start := time.Now()
			if _, err := retriever.Search(ctx, domain.SearchOptions{
				Query: c.Query,
				Limit: k,
				Mode:  domain.SearchModeSemantic,
			}); err != nil {
				return BenchmarkReport{}, err
			}
			latenciesMs = append(latenciesMs, float64(time.Since(start).Microseconds())/1000.0)
		}
	}

	precision, err := EvaluatePrecision(ctx, retriever, cases, k)
	if err != nil {
		return BenchmarkReport{}, err
	}

	return BenchmarkReport{
		Cases:      len(cases),
		Iterations: iterations,
		K:          k,
		Precision:  precision,
		Latency:    computeLatencyStats(latenciesMs),
	}, nil
}

func computeLatencyStats(samples []float64) LatencyStats {
	if len(samples) == 0 {
		return LatencyStats{}
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	p50Index := (len(sorted) - 1) / 2
	p95Index := int(0.95 * float64(len(sorted)-1))
	if p95Index < 0 {
		p95Index = 0
	}

	return LatencyStats{
		Avg: sum / float64(len(sorted)),
		P50: sorted[p50Index],
		P95: sorted[p95Index],
		Max: sorted[len(sorted)-1],
	}
}

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
