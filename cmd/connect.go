package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dealbot/internal/auth"
)

var connectRefreshToken string

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Store the HubSpot refresh credential",
	Long:  "Stores the refresh token obtained from the HubSpot OAuth authorization flow, then performs one refresh to verify it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.auth.Connect(cmd.Context(), &auth.Credential{
			RefreshToken: connectRefreshToken,
		}); err != nil {
			return err
		}

		// Exercise the credential once so a bad token fails here, not on the
		// first question.
		if _, err := env.auth.Token(cmd.Context()); err != nil {
			return err
		}

		zap.L().Info("connect: credential stored and verified")
		return nil
	},
}

func init() {
	connectCmd.Flags().StringVar(&connectRefreshToken, "refresh-token", "", "HubSpot OAuth refresh token (required)")
	connectCmd.MarkFlagRequired("refresh-token")
	rootCmd.AddCommand(connectCmd)
}
