package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/suitpredict/internal/engine"
	"github.com/ShayCichocki/suitpredict/pkg/models"
)

var (
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)
	wonStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	lostStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

func newPredictionTable() table.Model {
	columns := []table.Column{
		{Title: "Game", Width: 6},
		{Title: "Trigger", Width: 8},
		{Title: "Suit", Width: 5},
		{Title: "Source", Width: 8},
		{Title: "Status", Width: 9},
		{Title: "Offset", Width: 7},
		{Title: "Created", Width: 9},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))
	t.SetStyles(s)
	return t
}

// predictionRows lists the history newest first, restricted to query
// when it is set.
func predictionRows(st engine.Status, query string) []table.Row {
	hist := st.Predictions.History
	rows := make([]table.Row, 0, len(hist))
	for i := len(hist) - 1; i >= 0; i-- {
		p := hist[i]
		if query != "" && p.TriggerKey != query {
			continue
		}
		source := "static"
		if p.Learned {
			source = "learned"
		}
		offset := "-"
		if p.ResolvedOffset != nil {
			offset = "+" + strconv.Itoa(*p.ResolvedOffset)
		}
		rows = append(rows, table.Row{
			strconv.Itoa(p.TargetIndex),
			p.TriggerKey,
			p.OutcomeClass,
			source,
			string(p.Status),
			offset,
			p.CreatedAt.In(locationOf(st)).Format("15:04:05"),
		})
	}
	return rows
}

func countPredictions(st engine.Status) PredictionCounts {
	var c PredictionCounts
	for _, p := range st.Predictions.History {
		switch p.Status {
		case models.PredictionWon:
			c.Won++
		case models.PredictionLost:
			c.Lost++
		case models.PredictionPending:
			c.Pending++
		}
	}
	return c
}

// rulesView shows the learned rules by outcome class, then the static table.
func rulesView(st engine.Status, query string) string {
	var b strings.Builder

	title := "Learned rules"
	if !st.LearnedActive {
		title += " (inactive)"
	}
	b.WriteString(sectionStyle.Render(title) + "\n")
	if st.Rules.Empty() {
		b.WriteString("  none yet\n")
	}
	for _, class := range st.Rules.Classes() {
		var parts []string
		for _, r := range st.Rules.Rules(class) {
			if query != "" && r.TriggerKey != query {
				continue
			}
			parts = append(parts, fmt.Sprintf("%s (%d)", r.TriggerKey, r.SupportCount))
		}
		if len(parts) > 0 {
			fmt.Fprintf(&b, "  %s  %s\n", class, strings.Join(parts, ", "))
		}
	}
	if !st.Rules.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "  %s\n", subtleStyle.Render("generated "+st.Rules.GeneratedAt.In(locationOf(st)).Format("15:04:05")))
	}

	b.WriteString("\n" + sectionStyle.Render(fmt.Sprintf("Static table (%d consecutive failures)", st.StaticFailures)) + "\n")
	triggers := make([]string, 0, len(st.StaticTable))
	for trigger := range st.StaticTable {
		if query == "" || trigger == query {
			triggers = append(triggers, trigger)
		}
	}
	sort.Strings(triggers)
	for _, trigger := range triggers {
		fmt.Fprintf(&b, "  %-4s → %s\n", trigger, st.StaticTable[trigger])
	}
	return b.String()
}

// ledgerView shows usage counters and the quarantine.
func ledgerView(st engine.Status, query string) string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Usage") + "\n")
	usage := make([]models.UsageRecord, 0, len(st.Usage))
	for _, u := range st.Usage {
		if query == "" || u.TriggerKey == query {
			usage = append(usage, u)
		}
	}
	sort.Slice(usage, func(i, j int) bool {
		if usage[i].TotalUseCount != usage[j].TotalUseCount {
			return usage[i].TotalUseCount > usage[j].TotalUseCount
		}
		return usage[i].TriggerKey < usage[j].TriggerKey
	})
	if len(usage) == 0 {
		b.WriteString("  no rule used yet\n")
	}
	for _, u := range usage {
		fmt.Fprintf(&b, "  %-4s  cycle %d  total %d\n", u.TriggerKey, u.UseCount, u.TotalUseCount)
	}

	b.WriteString("\n" + sectionStyle.Render("Quarantine") + "\n")
	n := 0
	for _, q := range st.Quarantine {
		if query != "" && q.TriggerKey != query {
			continue
		}
		n++
		left := q.ExpiresAt.Sub(st.Now).Round(time.Minute)
		fmt.Fprintf(&b, "  %-4s → %s  support %d  %s\n", q.TriggerKey, q.OutcomeClass, q.SupportCount,
			lostStyle.Render("expires in "+left.String()))
	}
	if n == 0 {
		b.WriteString("  empty\n")
	}
	return b.String()
}

// reportView shows the running tally and the pending prediction.
func reportView(st engine.Status) string {
	var b strings.Builder
	r := st.Report

	b.WriteString(sectionStyle.Render("Session report") + "\n")
	fmt.Fprintf(&b, "  resolved %d  %s  %s  pending %d\n", r.Total,
		wonStyle.Render(fmt.Sprintf("won %d", r.Won)),
		lostStyle.Render(fmt.Sprintf("lost %d", r.Lost)),
		r.Pending)
	fmt.Fprintf(&b, "  win rate %.1f%%\n", r.Rate())
	for i, n := range r.ByOffset {
		fmt.Fprintf(&b, "  won at +%d: %d\n", i, n)
	}

	b.WriteString("\n" + sectionStyle.Render("Pending") + "\n")
	if st.Pending == nil {
		b.WriteString("  none\n")
	} else {
		p := st.Pending
		fmt.Fprintf(&b, "  game %d  %s → %s\n", p.TargetIndex, p.TriggerKey, p.OutcomeClass)
	}
	return b.String()
}

func locationOf(st engine.Status) *time.Location {
	if st.Now.IsZero() {
		return time.Local
	}
	return st.Now.Location()
}
