package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/greenlens-app/greenlens/internal/capture"
)

func newCaptureCmd() *cobra.Command {
	var (
		flags     pipelineFlags
		device    string
		warmup    time.Duration
		formats   []string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture a frame from a camera and classify it",
		Example: `  # Capture from the first camera
  greenlens capture

  # Capture from camera 1 and save a PDF report
  greenlens capture --device 1 --export pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			camera := capture.NewController(capture.NewDefaultBackend())
			if _, err := camera.Enumerate(ctx); err != nil {
				return err
			}
			if device != "" {
				if err := camera.Select(ctx, device); err != nil {
					return err
				}
			}

			if err := camera.Start(ctx); err != nil {
				return err
			}
			defer func() {
				if err := camera.Stop(); err != nil {
					slog.Warn("Failed to release camera", "err", err)
				}
			}()

			// Let auto exposure settle before grabbing
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(warmup):
			}

			payload, err := camera.CaptureFrame()
			if err != nil {
				return fmt.Errorf("failed to capture frame: %w", err)
			}

			p, err := newPipeline(ctx, &flags)
			if err != nil {
				return err
			}
			result, err := p.service.Analyze(ctx, payload)
			if err != nil {
				return err
			}

			printResult(cmd.OutOrStdout(), result.Model, result.Notice)
			return writeExports(cmd.OutOrStdout(), p.exporter, formats, outputDir)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&device, "device", "d", "", "Camera device id (default first device)")
	cmd.Flags().DurationVar(&warmup, "warmup", 500*time.Millisecond, "Delay between opening the camera and capturing")
	cmd.Flags().StringSliceVarP(&formats, "export", "e", nil, "Export formats: png, jpeg, pdf, doc, yaml")
	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory for exported reports")

	return cmd
}
