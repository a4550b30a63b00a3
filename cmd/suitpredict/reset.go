package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/suitpredict/internal/state"
)

var (
	resetYes     bool
	resetLearned bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the persisted engine state",
	Long: `Clear observations, pairs, rules, usage counters, quarantine and
prediction history from the configured store, as the /reset command does.

Stop the server first: a running server keeps its state in memory and
would write it back on the next message.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetYes {
			return fmt.Errorf("reset clears all learned state; pass --yes to confirm")
		}
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		store, err := state.Open(storeOptions(cfg))
		if err != nil {
			return fmt.Errorf("open state: %w", err)
		}
		defer store.Close()

		eng, _, err := newEngine(cfg, store, nil, nil)
		if err != nil {
			return err
		}
		before := eng.Status()
		eng.Reset(context.Background(), resetLearned)

		printStatus("✓", fmt.Sprintf("Cleared %d observations, %d rules and %d predictions",
			len(before.Observations), before.Rules.Len(), len(before.Predictions.History)), color.FgGreen)
		mode := "static"
		if resetLearned {
			mode = "learned"
		}
		printStatus("✓", "Mode set to "+mode, color.FgGreen)
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "Confirm the reset")
	resetCmd.Flags().BoolVar(&resetLearned, "learned", false, "Leave learned mode on after the reset")
}
