package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/markdownkeeper/markdownkeeper/internal/daemon"
)

var daemonStopTimeout time.Duration

var daemonStartCmd = &cobra.Command{
	Use:   "daemon-start <subcommand> [args...]",
	Short: "Start a subcommand detached in the background, tracked by a pid file",
	Long: `Launches this same binary again with the given subcommand and args,
detached from the calling terminal, and records its pid so a later
daemon-stop/daemon-status/daemon-restart/daemon-reload can find it.

Example: mdkeeper daemon-start watch --mode auto`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDaemonStart,
}

var daemonStopCmd = &cobra.Command{
	Use:   "daemon-stop",
	Short: "Stop the process tracked by the pid file",
	RunE:  runDaemonStop,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "daemon-status",
	Short: "Report whether the pid file names a running process",
	RunE:  runDaemonStatus,
}

var daemonRestartCmd = &cobra.Command{
	Use:   "daemon-restart <subcommand> [args...]",
	Short: "Stop the tracked process, then start subcommand fresh",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDaemonRestart,
}

var daemonReloadCmd = &cobra.Command{
	Use:   "daemon-reload",
	Short: "Send SIGHUP to the tracked process, asking it to reload config in place",
	RunE:  runDaemonReload,
}

func init() {
	for _, c := range []*cobra.Command{daemonStopCmd, daemonRestartCmd} {
		c.Flags().DurationVar(&daemonStopTimeout, "timeout", daemon.DefaultStopTimeout, "how long to wait for graceful shutdown before SIGKILL")
	}

	rootCmd.AddCommand(daemonStartCmd)
	rootCmd.AddCommand(daemonStopCmd)
	rootCmd.AddCommand(daemonStatusCmd)
	rootCmd.AddCommand(daemonRestartCmd)
	rootCmd.AddCommand(daemonReloadCmd)
}

func pidFileOrDefault() string {
	if app != nil && app.PIDFile != "" {
		return app.PIDFile
	}
	return "mdkeeper.pid"
}

func execPathOrDefault() string {
	if app != nil && app.ExecPath != "" {
		return app.ExecPath
	}
	return "mdkeeper"
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	command := append([]string{execPathOrDefault()}, args...)
	pid, err := daemon.Start(command, pidFileOrDefault())
	if err != nil {
		return fmt.Errorf("daemon-start: %w", err)
	}
	cmd.Printf("started pid %d\n", pid)
	return nil
}

func runDaemonStop(cmd *cobra.Command, _ []string) error {
	stopped, err := daemon.Stop(pidFileOrDefault(), daemonStopTimeout)
	if err != nil {
		return fmt.Errorf("daemon-stop: %w", err)
	}
	if !stopped {
		cmd.Println("not running")
		return nil
	}
	cmd.Println("stopped")
	return nil
}

func runDaemonStatus(cmd *cobra.Command, _ []string) error {
	status, err := daemon.StatusOf(pidFileOrDefault())
	if err != nil {
		return fmt.Errorf("daemon-status: %w", err)
	}
	if format == "json" {
		return printJSON(cmd, status)
	}
	if status.Running {
		cmd.Printf("running, pid %d\n", status.PID)
	} else {
		cmd.Println("not running")
	}
	return nil
}

func runDaemonRestart(cmd *cobra.Command, args []string) error {
	command := append([]string{execPathOrDefault()}, args...)
	pid, err := daemon.Restart(command, pidFileOrDefault(), daemonStopTimeout)
	if err != nil {
		return fmt.Errorf("daemon-restart: %w", err)
	}
	cmd.Printf("restarted, pid %d\n", pid)
	return nil
}

func runDaemonReload(cmd *cobra.Command, _ []string) error {
	reloaded, err := daemon.Reload(pidFileOrDefault())
	if err != nil {
		return fmt.Errorf("daemon-reload: %w", err)
	}
	if !reloaded {
		return errors.New("daemon-reload: no running process to signal")
	}
	cmd.Println("reload signal sent")
	return nil
}
