package tui

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/suitpredict/internal/engine"
)

// Tab index constants.
const (
	TabIndexRules = iota
	TabIndexLedger
	TabIndexPredictions
	TabIndexReport
)

// tabView describes one dashboard tab: its label, the counter shown next to
// it and the extra keys it handles.
type tabView struct {
	name  string
	badge func(engine.Status) string
	hint  string
}

var tabViews = []tabView{
	TabIndexRules: {
		name: "Rules",
		badge: func(st engine.Status) string {
			if !st.LearnedActive {
				return "static"
			}
			return strconv.Itoa(st.Rules.Len())
		},
	},
	TabIndexLedger: {
		name: "Ledger",
		badge: func(st engine.Status) string {
			if n := len(st.Quarantine); n > 0 {
				return fmt.Sprintf("%d held", n)
			}
			return ""
		},
	},
	TabIndexPredictions: {
		name: "Predictions",
		badge: func(st engine.Status) string {
			if st.Pending != nil {
				return "#" + strconv.Itoa(st.Pending.TargetIndex)
			}
			return ""
		},
		hint: "↑/↓ scroll",
	},
	TabIndexReport: {
		name: "Report",
		badge: func(st engine.Status) string {
			if st.Report.Total == 0 {
				return ""
			}
			return fmt.Sprintf("%.0f%%", st.Report.Rate())
		},
	},
}

var (
	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Background(lipgloss.Color("236")).
			Padding(0, 2)
	tabStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 2)
	badgeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	tabBar     = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("238"))
)

// TabBar switches between the dashboard views. Views are selected by
// number or cycled with tab and shift+tab.
type TabBar struct {
	active int
}

// NewTabBar creates a tab bar on the rules view.
func NewTabBar() TabBar {
	return TabBar{active: TabIndexRules}
}

// Update handles tab navigation keys.
func (t TabBar) Update(msg tea.Msg) (TabBar, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return t, nil
	}
	switch s := key.String(); s {
	case "tab":
		t.active = (t.active + 1) % len(tabViews)
	case "shift+tab":
		t.active = (t.active + len(tabViews) - 1) % len(tabViews)
	default:
		if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= len(tabViews) {
			t.active = n - 1
		}
	}
	return t, nil
}

// View renders the bar. Badges are omitted until a status has been fetched.
func (t TabBar) View(st *engine.Status) string {
	rendered := make([]string, len(tabViews))
	for i, v := range tabViews {
		label := fmt.Sprintf("%d %s", i+1, v.name)
		if st != nil {
			if b := v.badge(*st); b != "" {
				label += " " + badgeStyle.Render(b)
			}
		}
		if i == t.active {
			rendered[i] = tabActiveStyle.Render(label)
		} else {
			rendered[i] = tabStyle.Render(label)
		}
	}
	return tabBar.Render(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
}

// SetActive selects a view, clamping out of range indexes.
func (t *TabBar) SetActive(index int) {
	t.active = max(0, min(index, len(tabViews)-1))
}

// Active returns the selected view index.
func (t TabBar) Active() int {
	return t.active
}

// TabName returns the label of a view.
func TabName(tab int) string {
	if tab >= 0 && tab < len(tabViews) {
		return tabViews[tab].name
	}
	return fmt.Sprintf("Tab %d", tab)
}

// tabHint returns the extra key hint of a view, if any.
func tabHint(tab int) string {
	if tab >= 0 && tab < len(tabViews) {
		return tabViews[tab].hint
	}
	return ""
}
