package cli

import (
	"github.com/spf13/cobra"
)

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create or verify the database schema",
	Long:  `Opens (creating if necessary) the database at --db-path and applies any pending migrations. Safe to run repeatedly; never destroys existing data.`,
	RunE:  runInitDB,
}

func init() {
	rootCmd.AddCommand(initDBCmd)
}

func runInitDB(cmd *cobra.Command, _ []string) error {
	// The Store is opened by main.go before Execute is called, so by
	// the time a command runs the schema is already migrated. This
	// command exists for operators who want an explicit, idempotent
	// "make sure the database is ready" step.
	cmd.Println("database ready")
	return nil
}
