package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/greenlens-app/greenlens/internal/capture"
)

func newCamerasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cameras",
		Short: "List camera devices available for capture",
		Long: `Lists the video input devices the capture backend can open.

Camera support requires building with the gocv tag (go build -tags gocv)
and OpenCV installed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			camera := capture.NewController(capture.NewDefaultBackend())
			devices, err := camera.Enumerate(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(devices) == 0 {
				fmt.Fprintln(out, "No camera devices found")
				return nil
			}
			selected := camera.Snapshot().Selected
			for _, d := range devices {
				marker := " "
				if d.ID == selected {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s\t%s\n", marker, d.ID, d.Label)
			}
			return nil
		},
	}
}
