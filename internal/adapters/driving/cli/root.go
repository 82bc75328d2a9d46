// Package cli implements the mdkeeper command surface with
// spf13/cobra. Commands reach the core through the ports wired into
// app by main.go (Ingestor, Retriever, EventQueue, and the Store's
// driven ports); some also call an adapter or helper package directly:
// watcher, httpapi, linkcheck, indexgen, daemon, and unitwriter.
package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/markdownkeeper/markdownkeeper/internal/core/ports/driven"
	"github.com/markdownkeeper/markdownkeeper/internal/core/ports/driving"
)

var (
	dbPath     string
	format     string
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "mdkeeper",
	Short: "Background indexing and retrieval for a Markdown corpus",
	Long: `mdkeeper watches a tree of Markdown files, maintains a SQLite-backed
index of headings, links, chunks, tags, and concepts, and answers hybrid
semantic/lexical queries over it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db-path", "", "path to the SQLite database file")
	rootCmd.PersistentFlags().StringVar(&format, "format", "text", "output format: text|json")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to markdownkeeper.toml (read by main before wiring, not by this flag)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
}

// App bundles the driving ports and the few driven ports (document
// read access, embeddings, the vector index) the CLI needs directly
// rather than through Retriever/Ingestor. main.go constructs one App
// with concrete adapters and hands it to Execute.
type App struct {
	Docs        driven.DocumentStore
	Ingestor    driving.Ingestor
	Retriever   driving.Retriever
	Queue       driving.EventQueue
	Embedder    driven.Embedder
	VectorIndex driven.VectorIndex
	IndexPath   string
	WatchState  driven.WatchStateStore

	// ExecPath, ConfigPath, and PIDFile feed daemon-start/stop/status
	// and service-install; they describe this binary's own invocation
	// rather than anything stored in the database.
	ExecPath   string
	ConfigPath string
	PIDFile    string
}

// app is the package-level handle every command's RunE reads,
// following the teacher's one-global-per-service convention but
// bundled into a single struct since mdkeeper's commands share most
// of their dependencies.
var app *App

// PolicyViolationError marks an error that should exit 1 rather than
// 2: the operation completed but found a condition the caller should
// treat as a failing check (e.g. check-links finding a broken link).
type PolicyViolationError struct {
	Err error
}

func (e *PolicyViolationError) Error() string { return e.Err.Error() }
func (e *PolicyViolationError) Unwrap() error { return e.Err }

// Execute runs the CLI against a wired App and returns a process exit
// code: 0 success, 1 policy violation, 2 usage/runtime error.
func Execute(a *App, args []string) int {
	app = a
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	var policyErr *PolicyViolationError
	if errors.As(err, &policyErr) {
		rootCmd.PrintErrln(policyErr.Error())
		return 1
	}

	rootCmd.PrintErrln("Error:", err)
	return 2
}
