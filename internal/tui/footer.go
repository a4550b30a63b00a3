package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// PredictionCounts holds the count of predictions in each status.
type PredictionCounts struct {
	Won     int
	Lost    int
	Pending int
}

// Footer renders the status bar and keyboard hints.
type Footer struct {
	message   string
	failed    bool
	loading   string
	filter    string
	activeTab int
	width     int
	counts    PredictionCounts

	// Styles
	errorStyle     lipgloss.Style
	wonStyle       lipgloss.Style
	hintStyle      lipgloss.Style
	separatorStyle lipgloss.Style
}

// NewFooter creates a new Footer instance.
func NewFooter() *Footer {
	return &Footer{
		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),

		wonStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("28")).
			Bold(true),

		hintStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		separatorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("236")),
	}
}

// SetError shows a fetch error, or clears it when err is nil.
func (f *Footer) SetError(err error) {
	if err == nil {
		f.message, f.failed = "", false
		return
	}
	f.message, f.failed = err.Error(), true
}

// SetLoading shows spinner while a fetch is in flight. Empty hides it.
func (f *Footer) SetLoading(spinner string) {
	f.loading = spinner
}

// SetFilter shows the active trigger filter.
func (f *Footer) SetFilter(query string) {
	f.filter = query
}

// SetActiveTab selects the tab-specific hints.
func (f *Footer) SetActiveTab(tab int) {
	f.activeTab = tab
}

// SetWidth sets the footer width.
func (f *Footer) SetWidth(width int) {
	f.width = width
}

// SetCounts updates the prediction counts for display.
func (f *Footer) SetCounts(counts PredictionCounts) {
	f.counts = counts
}

// View renders the footer.
func (f *Footer) View() string {
	var parts []string

	if f.loading != "" {
		parts = append(parts, f.loading)
	}
	if total := f.counts.Won + f.counts.Lost + f.counts.Pending; total > 0 {
		counts := f.wonStyle.Render(fmt.Sprintf("✅%d", f.counts.Won))
		if f.counts.Lost > 0 {
			counts += f.errorStyle.Render(fmt.Sprintf(" ❌%d", f.counts.Lost))
		}
		if f.counts.Pending > 0 {
			counts += fmt.Sprintf(" ⏳%d", f.counts.Pending)
		}
		parts = append(parts, counts)
	}
	if f.failed {
		parts = append(parts, f.errorStyle.Render("✗ "+f.message))
	}
	if f.filter != "" {
		parts = append(parts, f.hintStyle.Render("filter: "+f.filter+" (esc clears)"))
	}
	parts = append(parts, f.keyboardHints())

	sep := f.separatorStyle.Render(" │ ")
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return lipgloss.NewStyle().MaxWidth(max(f.width, 1)).Render(out)
}

// keyboardHints returns context-sensitive keyboard hints.
func (f *Footer) keyboardHints() string {
	hints := "1-4/tab views"
	if h := tabHint(f.activeTab); h != "" {
		hints += " │ " + h
	}
	hints += " │ / filter │ r refresh │ q quit"
	return f.hintStyle.Render(hints)
}
