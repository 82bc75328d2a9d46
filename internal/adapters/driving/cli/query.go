package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
)

var (
	queryMode           string
	queryLimit          int
	queryIncludeContent bool
	queryMaxTokens      int
	querySection        string
)

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Run a hybrid semantic/lexical search",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryMode, "mode", "semantic", "search mode: semantic|lexical")
	queryCmd.Flags().IntVar(&queryLimit, "limit", 10, "maximum results")
	queryCmd.Flags().BoolVar(&queryIncludeContent, "include-content", false, "include chunk bodies in results")
	queryCmd.Flags().IntVar(&queryMaxTokens, "max-tokens", 0, "truncate included content to this many tokens (0 = unbounded)")
	queryCmd.Flags().StringVar(&querySection, "section", "", "only include chunks under this heading")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if app == nil || app.Retriever == nil {
		return errors.New("retriever not configured")
	}

	mode := domain.SearchModeSemantic
	if queryMode == "lexical" {
		mode = domain.SearchModeLexical
	}

	results, err := app.Retriever.Search(context.Background(), domain.SearchOptions{
		Query:          args[0],
		Limit:          queryLimit,
		Mode:           mode,
		IncludeContent: queryIncludeContent,
		MaxTokens:      queryMaxTokens,
		Section:        querySection,
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if format == "json" {
		views := make([]documentJSON, len(results))
		for i, r := range results {
			v := documentToJSON(r.Document)
			v.Score = r.Score
			v.Body = r.Body
			views[i] = v
		}
		return printJSON(cmd, views)
	}

	if len(results) == 0 {
		cmd.Println("no results")
		return nil
	}
	for i, r := range results {
		cmd.Printf("%d. [#%d] %s (score %.3f)\n", i+1, r.Document.ID, r.Document.Title, r.Score)
		if r.Body != "" {
			cmd.Printf("    %s\n", r.Body)
		}
	}
	return nil
}
