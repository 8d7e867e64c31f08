package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/greenlens-app/greenlens/internal/capture"
	"github.com/greenlens-app/greenlens/internal/handlers"
)

func newServeCmd() *cobra.Command {
	var (
		port  string
		flags pipelineFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start web server for the classification interface",
		Long: `Starts the GreenLens web interface on the specified port.

The web interface lets you capture a photo from a camera or upload one,
shows the classification result and offers report downloads.`,
		Example: `  # Start server on default port 8888
  greenlens serve

  # Start server on custom port against a remote prediction service
  greenlens serve --port 3000 --api-url https://predict.example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline(cmd.Context(), &flags)
			if err != nil {
				return err
			}
			if port == "" {
				port = p.cfg.Port
			}

			camera := capture.NewController(capture.NewDefaultBackend())
			defer func() {
				if err := camera.Stop(); err != nil {
					slog.Warn("Failed to release camera", "err", err)
				}
			}()

			mux := http.NewServeMux()
			handlers.New(p.service, p.exporter, camera).Routes(mux)

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			serverErr := make(chan error, 1)
			go func() {
				slog.Info("GreenLens interface available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (default $GREENLENS_PORT or 8888)")
	flags.register(cmd)

	return cmd
}
