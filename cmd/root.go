package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neon-guide/guide-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "guide-cli",
	Short: "Seoul restaurant guide pipeline",
	Long:  "Scrapes the Michelin Guide and Blue Ribbon Survey, merges and geocodes the results via Kakao, emits map files, and discovers new candidates through Naver blog reviews scored by Claude.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Local .env is optional.
		_ = godotenv.Load()

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
