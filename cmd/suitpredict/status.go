package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/suitpredict/internal/engine"
	"github.com/ShayCichocki/suitpredict/internal/state"
	"github.com/ShayCichocki/suitpredict/internal/tui"
	"github.com/ShayCichocki/suitpredict/pkg/models"
)

var (
	statusURL   string
	statusLocal bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the engine state",
	Long: `Display the current state of the prediction engine.

Shows:
  - Session window and learned mode
  - Learned rules per outcome suit
  - Quarantined rules and their expiry
  - Pending prediction and the session tally

By default the status is read from a running server. With --local the
persisted state is read directly (stop the server first when using the
badger backend).`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusURL, "url", "", "Status endpoint (default: tui.status_url)")
	statusCmd.Flags().BoolVar(&statusLocal, "local", false, "Read the persisted state instead of a running server")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var st engine.Status
	var savedAt time.Time
	if statusLocal {
		store, err := state.Open(storeOptions(cfg))
		if err != nil {
			return fmt.Errorf("open state: %w", err)
		}
		defer store.Close()

		eng, _, err := newEngine(cfg, store, nil, nil)
		if err != nil {
			return err
		}
		st = eng.Status()
		if savedAt, err = state.LastSaved(store, engine.BlobName); err != nil && !errors.Is(err, state.ErrNotFound) {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		}
	} else {
		url := statusURL
		if url == "" {
			url = cfg.TUI.StatusURL
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		st, err = tui.NewHTTPFetcher(url).Fetch(ctx)
		if err != nil {
			return fmt.Errorf("%w (is the server running? try --local)", err)
		}
	}

	displayStatus(st, savedAt)
	return nil
}

// displayStatus prints st. savedAt is shown when known.
func displayStatus(st engine.Status, savedAt time.Time) {
	bold := color.New(color.Bold)

	session := color.RedString("closed")
	if st.SessionActive {
		session = color.GreenString("open")
	}
	mode := "static"
	if st.LearnedActive {
		mode = color.CyanString("learned")
	}
	bold.Printf("Session %s: %s\n", st.Session, session)
	fmt.Printf("  Mode: %s\n", mode)
	fmt.Printf("  Observations: %d  Pairs: %d\n", len(st.Observations), len(st.Pairs))
	if !st.LastRelearn.IsZero() {
		fmt.Printf("  Last relearn: %s ago\n", formatDuration(st.Now.Sub(st.LastRelearn)))
	}
	if !savedAt.IsZero() {
		fmt.Printf("  Last saved: %s ago\n", formatDuration(st.Now.Sub(savedAt)))
	}

	fmt.Println()
	bold.Println("Learned rules:")
	if st.Rules.Empty() {
		fmt.Println("  none")
	}
	for _, class := range st.Rules.Classes() {
		var parts []string
		for _, r := range st.Rules.Rules(class) {
			parts = append(parts, fmt.Sprintf("%s(%d)", r.TriggerKey, r.SupportCount))
		}
		fmt.Printf("  %s %s\n", class, strings.Join(parts, " "))
	}

	if len(st.Quarantine) > 0 {
		fmt.Println()
		bold.Println("Quarantine:")
		q := append([]models.QuarantineEntry(nil), st.Quarantine...)
		sort.Slice(q, func(i, j int) bool { return q[i].ExpiresAt.Before(q[j].ExpiresAt) })
		for _, e := range q {
			fmt.Printf("  %s → %s %s\n", e.TriggerKey, e.OutcomeClass,
				color.YellowString("(%s left)", formatDuration(e.ExpiresAt.Sub(st.Now))))
		}
	}

	fmt.Println()
	bold.Println("Predictions:")
	if p := st.Pending; p != nil {
		fmt.Printf("  Pending: game %d %s → %s\n", p.TargetIndex, p.TriggerKey, p.OutcomeClass)
	}
	r := st.Report
	fmt.Printf("  Session: %s %s  %.0f%% over %d\n",
		color.GreenString("✓%d", r.Won), color.RedString("✗%d", r.Lost), r.Rate(), r.Total)
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		if m > 0 {
			return fmt.Sprintf("%dh%dm", h, m)
		}
		return fmt.Sprintf("%dh", h)
	}
	days := int(d.Hours()) / 24
	return fmt.Sprintf("%dd", days)
}
