package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/hexkit/hexview/source"
	"github.com/joshuapare/hexkit/internal/logger"
	"github.com/joshuapare/hexkit/internal/rangeserver"
)

var (
	serveAddr      string
	serveMaxLength int64
)

func init() {
	cmd := newServeCmd()
	cmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
	cmd.Flags().Int64Var(&serveMaxLength, "max-length", -1, "Largest range served per request, 0 = unlimited (default from config)")
	rootCmd.AddCommand(cmd)
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [storage-dir]",
		Short: "Serve files over the range API",
		Long: `The serve command answers POST /api/forensic/hex range requests for
files under a storage directory so viewers can page through them remotely.
Paths may carry a /storage/ prefix.

Example:
  hexctl serve /srv/evidence
  hexctl serve --addr :8765 --max-length 1048576`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, args, nil)
		},
	}
	return cmd
}

// runServe blocks until ctx is done. If ready is non-nil it receives the
// bound address once the listener is up.
func runServe(ctx context.Context, args []string, ready chan<- string) error {
	cfg := currentSettings()
	root := cfg.Storage.Root
	if len(args) == 1 {
		root = args[0]
	}
	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	maxLength := serveMaxLength
	if maxLength < 0 {
		maxLength = cfg.Server.MaxLength
	}

	files := source.NewFile(root)
	defer files.Close()

	handler := rangeserver.New(files, rangeserver.Options{
		MaxLength: maxLength,
		Logger:    logger.L,
	})
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	printInfo("Serving %s on http://%s\n", root, ln.Addr())
	if ready != nil {
		ready <- ln.Addr().String()
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	printVerbose("Shutting down\n")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
