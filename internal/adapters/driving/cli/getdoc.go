package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	getDocIncludeContent bool
	getDocMaxTokens      int
	getDocSection        string
)

var getDocCmd = &cobra.Command{
	Use:   "get-doc <id>",
	Short: "Fetch one document by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runGetDoc,
}

func init() {
	getDocCmd.Flags().BoolVar(&getDocIncludeContent, "include-content", false, "include the document body")
	getDocCmd.Flags().IntVar(&getDocMaxTokens, "max-tokens", 0, "truncate included content to this many tokens (0 = unbounded)")
	getDocCmd.Flags().StringVar(&getDocSection, "section", "", "only include chunks under this heading")
	rootCmd.AddCommand(getDocCmd)
}

func runGetDoc(cmd *cobra.Command, args []string) error {
	if app == nil || app.Retriever == nil {
		return errors.New("retriever not configured")
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid document id %q: %w", args[0], err)
	}

	doc, err := app.Retriever.GetDocument(context.Background(), id, getDocIncludeContent, getDocMaxTokens, getDocSection)
	if err != nil {
		return fmt.Errorf("get-doc %d: %w", id, err)
	}

	body := ""
	if getDocIncludeContent {
		for _, c := range doc.Chunks {
			body += c.Content + "\n"
		}
	}

	if format == "json" {
		v := documentToJSON(*doc)
		v.Body = body
		return printJSON(cmd, v)
	}

	cmd.Printf("#%d %s\n", doc.ID, doc.Title)
	cmd.Printf("  path:     %s\n", doc.Path)
	cmd.Printf("  category: %s\n", doc.Category)
	cmd.Printf("  tags:     %v\n", doc.Tags)
	cmd.Printf("  concepts: %v\n", doc.Concepts)
	if body != "" {
		cmd.Printf("\n%s\n", body)
	}
	return nil
}
