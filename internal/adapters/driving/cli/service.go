package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/markdownkeeper/markdownkeeper/internal/unitwriter"
)

var (
	serviceInstallOutputDir string
	serviceInstallExecPath  string
	serviceInstallConfig    string
)

var serviceInstallCmd = &cobra.Command{
	Use:   "service-install",
	Short: "Write markdownkeeper.service and markdownkeeper-api.service systemd units",
	RunE:  runServiceInstall,
}

func init() {
	serviceInstallCmd.Flags().StringVar(&serviceInstallOutputDir, "output-dir", "/etc/systemd/system", "directory to write the unit files into")
	serviceInstallCmd.Flags().StringVar(&serviceInstallExecPath, "exec-path", unitwriter.DefaultExecPath, "path to the mdkeeper binary the units invoke")
	serviceInstallCmd.Flags().StringVar(&serviceInstallConfig, "config-path", unitwriter.DefaultConfigPath, "config file path the units pass via --config")
	rootCmd.AddCommand(serviceInstallCmd)
}

func runServiceInstall(cmd *cobra.Command, _ []string) error {
	paths, err := unitwriter.Write(serviceInstallOutputDir, serviceInstallExecPath, serviceInstallConfig)
	if err != nil {
		return fmt.Errorf("service-install: %w", err)
	}
	cmd.Printf("wrote %s\n", paths.WatcherUnit)
	cmd.Printf("wrote %s\n", paths.APIUnit)
	return nil
}
