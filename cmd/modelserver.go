package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/greenlens-app/greenlens/internal/config"
	"github.com/greenlens-app/greenlens/internal/modelserver"
)

func newModelServerCmd() *cobra.Command {
	var (
		port      string
		modelPath string
	)

	cmd := &cobra.Command{
		Use:   "model-server",
		Short: "Run the demo prediction service",
		Long: `Runs a prediction service exposing GET /health and POST /predict.

Scores are generated, not inferred: organic is drawn uniformly from 50 to 95.
/health reports model_loaded=true when the model file exists, which makes
clients use the service instead of their own demo mode.`,
		Example: `  greenlens model-server
  greenlens model-server --port 10000 --model ./model.h5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if port == "" {
				port = cfg.ModelPort
			}
			if modelPath == "" {
				modelPath = cfg.ModelPath
			}

			gin.SetMode(gin.ReleaseMode)
			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: modelserver.New(modelPath).Router(),
			}

			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Prediction service available", "addr", addr, "model", modelPath)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			select {
			case <-cmd.Context().Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Prediction service stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (default $PORT or 10000)")
	cmd.Flags().StringVar(&modelPath, "model", "", "Model file whose presence marks the model as loaded (default $GREENLENS_MODEL_PATH or model.h5)")

	return cmd
}
