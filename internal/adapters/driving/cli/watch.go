package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/markdownkeeper/markdownkeeper/internal/adapters/driven/watcher"
	"github.com/markdownkeeper/markdownkeeper/internal/logger"
)

var (
	watchMode       string
	watchInterval   time.Duration
	watchIterations int
	watchDuration   time.Duration
	watchRoots      []string
	watchExtensions []string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the configured roots and drive the event queue",
	Long: `Runs the Watcher and the Event Queue consumer together until
interrupted (SIGINT/SIGTERM) or, with --iterations/--duration, for a
bounded run.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchMode, "mode", "auto", "watcher backend: auto|notify|polling")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "polling interval; in notify mode with --iterations and no --duration, the run lasts iterations times this")
	watchCmd.Flags().IntVar(&watchIterations, "iterations", 0, "stop after this many passes (0 = unbounded)")
	watchCmd.Flags().DurationVar(&watchDuration, "duration", 0, "stop after this long (0 = unbounded)")
	watchCmd.Flags().StringSliceVar(&watchRoots, "roots", []string{"."}, "directories to watch")
	watchCmd.Flags().StringSliceVar(&watchExtensions, "extensions", []string{".md", ".markdown"}, "file extensions to watch")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if app == nil || app.Queue == nil {
		return errors.New("event queue not configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if watchDuration > 0 {
		var durationCancel context.CancelFunc
		ctx, durationCancel = context.WithTimeout(ctx, watchDuration)
		defer durationCancel()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("watch: received shutdown signal")
		cancel()
	}()

	if err := app.Queue.Replay(ctx); err != nil {
		return fmt.Errorf("replay: %w", err)
	}

	errCh := make(chan error, 2)
	go func() { errCh <- app.Queue.Run(ctx) }()
	go func() {
		opts := watcher.Options{Mode: watcher.Mode(watchMode), Interval: watchInterval, Iterations: watchIterations, Duration: watchDuration, WatchState: app.WatchState}
		errCh <- watcher.Watch(ctx, opts, watchRoots, watchExtensions, app.Queue)
	}()

	var firstErr error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
