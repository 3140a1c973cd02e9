package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/verify-feedback/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "verify-feedback",
	Short: "Okta MFA to Twilio Verify feedback reconciler",
	Long:  "Receives Okta event hook deliveries, resolves SMS/voice OTP MFA completions to enrolled phone numbers, and marks the matching pending Twilio Verify verifications approved.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
