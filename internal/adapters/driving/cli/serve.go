package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/markdownkeeper/markdownkeeper/internal/adapters/driving/httpapi"
)

var (
	serveHost string
	servePort int
)

var serveAPICmd = &cobra.Command{
	Use:   "serve-api",
	Short: "Serve the JSON-RPC HTTP API",
	RunE:  runServeAPI,
}

func init() {
	serveAPICmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "address to bind")
	serveAPICmd.Flags().IntVar(&servePort, "port", 8420, "port to bind")
	rootCmd.AddCommand(serveAPICmd)
}

func runServeAPI(cmd *cobra.Command, _ []string) error {
	if app == nil || app.Retriever == nil {
		return errors.New("retriever not configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	addr := net.JoinHostPort(serveHost, fmt.Sprintf("%d", servePort))
	cmd.Printf("serving JSON-RPC API on %s\n", addr)

	server := httpapi.New(app.Retriever)
	return server.Run(ctx, addr)
}
