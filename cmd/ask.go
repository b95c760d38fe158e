package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/dealbot/internal/orchestrator"
)

var askChannel string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a deal question for a channel from the command line",
	Long:  "Runs the full pipeline for the given channel as if the bot had been mentioned there. The answer is posted to the channel.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		env.orch.Handle(cmd.Context(), orchestrator.Request{
			ChannelID: askChannel,
			Question:  strings.Join(args, " "),
		})
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askChannel, "channel", "", "Slack channel ID (required)")
	askCmd.MarkFlagRequired("channel")
	rootCmd.AddCommand(askCmd)
}
