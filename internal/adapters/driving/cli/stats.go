package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print corpus-wide counters",
	RunE:  runStats,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a health report: stats plus pass/fail verdict and warnings",
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(reportCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if app == nil || app.Docs == nil {
		return errors.New("document store not configured")
	}

	s, err := app.Docs.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	if format == "json" {
		return printJSON(cmd, s)
	}
	printStats(cmd, s)
	return nil
}

func runReport(cmd *cobra.Command, _ []string) error {
	if app == nil || app.Docs == nil {
		return errors.New("document store not configured")
	}

	r, err := app.Docs.HealthReport(context.Background())
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}

	if format == "json" {
		return printJSON(cmd, r)
	}

	printStats(cmd, r.Stats)
	cmd.Println()
	if r.Healthy {
		cmd.Println("status: healthy")
	} else {
		cmd.Println("status: unhealthy")
	}
	for _, w := range r.Warnings {
		cmd.Printf("  warning: %s\n", w)
	}
	return nil
}

func printStats(cmd *cobra.Command, s domain.Stats) {
	cmd.Printf("documents: %d\n", s.DocumentCount)
	cmd.Printf("headings:  %d\n", s.HeadingCount)
	cmd.Printf("links:     %d\n", s.LinkCount)
	cmd.Printf("chunks:    %d\n", s.ChunkCount)
	cmd.Printf("concepts:  %d\n", s.ConceptCount)
	cmd.Printf("tags:      %d\n", s.TagCount)
	cmd.Printf("queue:     queued=%d in_flight=%d failed=%d lag=%.1fs\n", s.Queue.Queued, s.Queue.InFlight, s.Queue.Failed, s.Queue.LagSeconds)
	cmd.Printf("embeddings: %d/%d documents, %d/%d chunks (backend=%s, model_available=%v)\n",
		s.Embeddings.DocumentsEmbedded, s.Embeddings.Documents,
		s.Embeddings.ChunksEmbedded, s.Embeddings.Chunks,
		s.Embeddings.ActiveBackend, s.Embeddings.ModelAvailable)
}
