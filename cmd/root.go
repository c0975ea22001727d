package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wanderplan/trip-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "trip-cli",
	Short: "Conversational multi-day trip planner",
	Long:  "Builds a complete trip plan through a short conversation: bases, hotels, dining, and a day-by-day itinerary, every recommendation backed by verifiable evidence.",
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
