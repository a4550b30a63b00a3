package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "suitpredict",
	Short: "Adaptive suit prediction bot",
	Long: `suitpredict watches a Telegram results channel, learns which trigger
card tends to precede which suit, and posts predictions to a second
channel, verifying each one against the next results.

Core capabilities:
- Learns trigger/outcome rules over a sliding window of recent games
- Falls back to a static table when learned mode is off
- Rotates and quarantines rules that are overused or fail
- Reports each session's tally on schedule`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.config/suitpredict/config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(dashCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}
