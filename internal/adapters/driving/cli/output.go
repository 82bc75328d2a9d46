package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
)

// documentJSON is the --format json shape for a single document,
// shared across scan-file, get-doc, and find-concept.
type documentJSON struct {
	ID       int64    `json:"id"`
	Path     string   `json:"path"`
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Concepts []string `json:"concepts"`
	Score    float64  `json:"score,omitempty"`
	Body     string   `json:"body,omitempty"`
}

func documentToJSON(d domain.Document) documentJSON {
	return documentJSON{ID: d.ID, Path: d.Path, Title: d.Title, Summary: d.Summary, Category: d.Category, Tags: d.Tags, Concepts: d.Concepts}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
