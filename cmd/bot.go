package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/greenlens-app/greenlens/internal/telegram"
)

func newBotCmd() *cobra.Command {
	var flags pipelineFlags

	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot",
		Long: `Runs a Telegram bot that classifies photos sent to it and replies with
the result card.

Requires TELEGRAM_TOKEN to be set (environment or .env file).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline(cmd.Context(), &flags)
			if err != nil {
				return err
			}
			if p.cfg.TelegramToken == "" {
				return errors.New("TELEGRAM_TOKEN is required")
			}

			bot, err := telegram.NewBot(p.cfg.TelegramToken, p.service, p.exporter)
			if err != nil {
				return err
			}
			return bot.Run(cmd.Context())
		},
	}

	flags.register(cmd)

	return cmd
}
