package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/markdownkeeper/markdownkeeper/internal/indexgen"
)

var buildIndexOutputDir string

var buildIndexCmd = &cobra.Command{
	Use:   "build-index",
	Short: "Generate a static master index plus per-category index files",
	RunE:  runBuildIndex,
}

func init() {
	buildIndexCmd.Flags().StringVar(&buildIndexOutputDir, "output-dir", "", "directory to write master.md and category-*.md into")
	rootCmd.AddCommand(buildIndexCmd)
}

func runBuildIndex(cmd *cobra.Command, _ []string) error {
	if app == nil || app.Docs == nil {
		return errors.New("document store not configured")
	}
	if buildIndexOutputDir == "" {
		return errors.New("--output-dir is required")
	}

	result, err := indexgen.GenerateAll(context.Background(), app.Docs, buildIndexOutputDir, 0)
	if err != nil {
		return fmt.Errorf("build-index: %w", err)
	}

	if format == "json" {
		return printJSON(cmd, result)
	}

	cmd.Printf("wrote %s\n", result.MasterIndex)
	for _, p := range result.CategoryFiles {
		cmd.Printf("wrote %s\n", p)
	}
	return nil
}
