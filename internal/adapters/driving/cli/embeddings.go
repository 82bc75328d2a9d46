package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/markdownkeeper/markdownkeeper/internal/core/services"
)

var embeddingsGenerateCmd = &cobra.Command{
	Use:   "embeddings-generate",
	Short: "Regenerate every stored embedding with the active backend",
	RunE:  runEmbeddingsGenerate,
}

var embeddingsStatusCmd = &cobra.Command{
	Use:   "embeddings-status",
	Short: "Report embedding coverage under the active backend",
	RunE:  runEmbeddingsStatus,
}

var embeddingsEvalK int

var embeddingsEvalCmd = &cobra.Command{
	Use:   "embeddings-eval <cases.json>",
	Short: "Evaluate precision@k of the active embeddings against labeled cases",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmbeddingsEval,
}

var (
	benchmarkK          int
	benchmarkIterations int
)

var semanticBenchmarkCmd = &cobra.Command{
	Use:   "semantic-benchmark <cases.json>",
	Short: "Measure precision@k and query latency over labeled cases",
	Args:  cobra.ExactArgs(1),
	RunE:  runSemanticBenchmark,
}

func init() {
	embeddingsEvalCmd.Flags().IntVar(&embeddingsEvalK, "k", 5, "cutoff for precision@k")
	semanticBenchmarkCmd.Flags().IntVar(&benchmarkK, "k", 5, "cutoff for precision@k")
	semanticBenchmarkCmd.Flags().IntVar(&benchmarkIterations, "iterations", 1, "repetitions per case, for latency sampling")

	rootCmd.AddCommand(embeddingsGenerateCmd)
	rootCmd.AddCommand(embeddingsStatusCmd)
	rootCmd.AddCommand(embeddingsEvalCmd)
	rootCmd.AddCommand(semanticBenchmarkCmd)
}

func runEmbeddingsGenerate(cmd *cobra.Command, _ []string) error {
	if app == nil || app.Docs == nil || app.Embedder == nil {
		return errors.New("document store or embedding backend not configured")
	}

	embed := func(ctx context.Context, text string) ([]float32, string, error) {
		vec, err := app.Embedder.Embed(ctx, text)
		if err != nil {
			return nil, "", err
		}
		return vec, app.Embedder.BackendID(), nil
	}

	if err := app.Docs.RegenerateEmbeddings(context.Background(), embed); err != nil {
		return fmt.Errorf("embeddings-generate: %w", err)
	}

	cmd.Printf("embeddings regenerated with backend %s\n", app.Embedder.BackendID())
	return nil
}

func runEmbeddingsStatus(cmd *cobra.Command, _ []string) error {
	if app == nil || app.Docs == nil {
		return errors.New("document store not configured")
	}

	backend := "none"
	available := false
	if app.Embedder != nil {
		backend = app.Embedder.BackendID()
		available = app.Embedder.Ping(context.Background()) == nil
	}

	coverage, err := app.Docs.EmbeddingCoverage(context.Background(), backend, available)
	if err != nil {
		return fmt.Errorf("embeddings-status: %w", err)
	}

	if format == "json" {
		return printJSON(cmd, coverage)
	}

	cmd.Printf("backend:         %s (available=%v)\n", coverage.ActiveBackend, coverage.ModelAvailable)
	cmd.Printf("documents:       %d/%d embedded\n", coverage.DocumentsEmbedded, coverage.Documents)
	cmd.Printf("chunks:          %d/%d embedded\n", coverage.ChunksEmbedded, coverage.Chunks)
	return nil
}

func loadBenchmarkCases(path string) ([]services.BenchmarkCase, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cases []struct {
		Query      string  `json:"query"`
		ExpectedID []int64 `json:"expected_id"`
	}
	if err := json.Unmarshal(raw, &cases); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	out := make([]services.BenchmarkCase, len(cases))
	for i, c := range cases {
		out[i] = services.BenchmarkCase{Query: c.Query, ExpectedID: c.ExpectedID}
	}
	return out, nil
}

func runEmbeddingsEval(cmd *cobra.Command, args []string) error {
	if app == nil || app.Retriever == nil {
		return errors.New("retriever not configured")
	}

	cases, err := loadBenchmarkCases(args[0])
	if err != nil {
		return err
	}

	report, err := services.EvaluatePrecision(context.Background(), app.Retriever, cases, embeddingsEvalK)
	if err != nil {
		return fmt.Errorf("embeddings-eval: %w", err)
	}

	if format == "json" {
		return printJSON(cmd, report)
	}

	cmd.Printf("precision@%d: %.3f over %d case(s)\n", report.K, report.PrecisionAtK, report.Cases)
	return nil
}

func runSemanticBenchmark(cmd *cobra.Command, args []string) error {
	if app == nil || app.Retriever == nil {
		return errors.New("retriever not configured")
	}

	cases, err := loadBenchmarkCases(args[0])
	if err != nil {
		return err
	}

	report, err := services.BenchmarkQueries(context.Background(), app.Retriever, cases, benchmarkK, benchmarkIterations)
	if err != nil {
		return fmt.Errorf("semantic-benchmark: %w", err)
	}

	if format == "json" {
		return printJSON(cmd, report)
	}

	cmd.Printf("precision@%d: %.3f over %d case(s), %d iteration(s)\n", report.K, report.Precision.PrecisionAtK, report.Cases, report.Iterations)
	cmd.Printf("latency (ms): avg=%.2f p50=%.2f p95=%.2f max=%.2f\n", report.Latency.Avg, report.Latency.P50, report.Latency.P95, report.Latency.Max)
	return nil
}
