package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/suitpredict/internal/tui"
)

var dashURL string

var dashCmd = &cobra.Command{
	Use:   "dash",
	Short: "Open the live dashboard",
	Long: `Open a terminal dashboard over a running server.

Views: learned and static rules, the usage ledger and quarantine, the
prediction history and the session report. Press / to filter by trigger
card, 1-4 or Tab to switch views, r to refresh and q to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		url := dashURL
		if url == "" {
			url = cfg.TUI.StatusURL
		}
		return tui.Run(tui.NewHTTPFetcher(url), cfg.TUI.RefreshRate)
	},
}

func init() {
	dashCmd.Flags().StringVar(&dashURL, "url", "", "Status endpoint (default: tui.status_url)")
}
