package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "greenlens",
		Short: "Organic vs. conventional vegetable classifier",
		Long: `GreenLens classifies photos of cabbage and lettuce as organic or
conventional (inorganic).

Scores come from a prediction service when one is reachable and from a local
demo generator otherwise. Results can be viewed in the browser, on the
command line or through a Telegram bot, and exported as PNG, JPEG, PDF,
Word or YAML reports.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newClassifyCmd())
	cmd.AddCommand(newCaptureCmd())
	cmd.AddCommand(newCamerasCmd())
	cmd.AddCommand(newBatchCmd())
	cmd.AddCommand(newModelServerCmd())
	cmd.AddCommand(newBotCmd())

	return cmd
}
