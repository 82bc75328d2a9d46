package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var findConceptLimit int

var findConceptCmd = &cobra.Command{
	Use:   "find-concept <concept>",
	Short: "Find documents tagged or inferred with a concept",
	Args:  cobra.ExactArgs(1),
	RunE:  runFindConcept,
}

func init() {
	findConceptCmd.Flags().IntVar(&findConceptLimit, "limit", 10, "maximum results")
	rootCmd.AddCommand(findConceptCmd)
}

func runFindConcept(cmd *cobra.Command, args []string) error {
	if app == nil || app.Retriever == nil {
		return errors.New("retriever not configured")
	}

	docs, err := app.Retriever.FindByConcept(context.Background(), args[0], findConceptLimit)
	if err != nil {
		return fmt.Errorf("find-concept %q: %w", args[0], err)
	}

	if format == "json" {
		views := make([]documentJSON, len(docs))
		for i, d := range docs {
			views[i] = documentToJSON(d)
		}
		return printJSON(cmd, views)
	}

	if len(docs) == 0 {
		cmd.Println("no results")
		return nil
	}
	for _, d := range docs {
		cmd.Printf("#%d %s (%s)\n", d.ID, d.Title, d.Path)
	}
	return nil
}
