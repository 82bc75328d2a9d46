package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var scanFileCmd = &cobra.Command{
	Use:   "scan-file <path>",
	Short: "Ingest a single Markdown file outside the event queue",
	Args:  cobra.ExactArgs(1),
	RunE:  runScanFile,
}

func init() {
	rootCmd.AddCommand(scanFileCmd)
}

func runScanFile(cmd *cobra.Command, args []string) error {
	if app == nil || app.Ingestor == nil {
		return errors.New("ingestor not configured")
	}

	path := args[0]
	doc, err := app.Ingestor.ScanFile(context.Background(), path)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", path, err)
	}

	if format == "json" {
		return printJSON(cmd, documentJSON{
			ID: doc.ID, Path: doc.Path, Title: doc.Title, Summary: doc.Summary,
			Category: doc.Category, Tags: doc.Tags, Concepts: doc.Concepts,
		})
	}

	cmd.Printf("scanned %s -> document #%d (%q)\n", path, doc.ID, doc.Title)
	return nil
}
