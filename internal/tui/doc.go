// Package tui provides the terminal dashboard for suitpredict.
//
// The dashboard polls the /status endpoint of a running server and shows
// four read-only views:
//   - Rules: the learned rule table, or the static table when learned mode is off
//   - Ledger: per-rule usage counters and the quarantine
//   - Predictions: the prediction history with outcomes
//   - Report: the running session tally
//
// Usage:
//
//	fetcher := tui.NewHTTPFetcher("http://localhost:10000/status")
//	if err := tui.Run(fetcher, 2*time.Second); err != nil {
//	    log.Fatal(err)
//	}
//
// Press / to filter every view by trigger card (K♦ or Kd), esc to clear
// the filter, r to refresh now and q or Ctrl+C to quit.
package tui
