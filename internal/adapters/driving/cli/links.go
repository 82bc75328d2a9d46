package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
	"github.com/markdownkeeper/markdownkeeper/internal/linkcheck"
)

var checkLinksExternal bool

var checkLinksCmd = &cobra.Command{
	Use:   "check-links",
	Short: "Validate internal and (optionally) external links",
	Long:  `Resolves internal links against the filesystem and, with --check-external, probes external links over HTTP. Exits 1 if any link is broken.`,
	RunE:  runCheckLinks,
}

func init() {
	checkLinksCmd.Flags().BoolVar(&checkLinksExternal, "check-external", false, "also probe external links over HTTP")
	rootCmd.AddCommand(checkLinksCmd)
}

func runCheckLinks(cmd *cobra.Command, _ []string) error {
	if app == nil || app.Docs == nil {
		return errors.New("document store not configured")
	}

	checker := linkcheck.New(linkcheck.DefaultTimeout, linkcheck.DefaultMinInterval)
	report, err := checker.CheckAll(context.Background(), app.Docs, checkLinksExternal)
	if err != nil {
		return fmt.Errorf("check-links: %w", err)
	}

	broken := 0
	for _, r := range report.Results {
		if r.Status == domain.LinkStatusBroken {
			broken++
		}
	}

	if format == "json" {
		if err := printJSON(cmd, report); err != nil {
			return err
		}
	} else {
		cmd.Printf("run: %s\n", report.RunID)
		for _, r := range report.Results {
			cmd.Printf("%-8s %s\n", r.Status, r.Target)
		}
		cmd.Printf("\n%d link(s) checked, %d broken\n", len(report.Results), broken)
	}

	if broken > 0 {
		return &PolicyViolationError{Err: fmt.Errorf("%d broken link(s) found", broken)}
	}
	return nil
}
