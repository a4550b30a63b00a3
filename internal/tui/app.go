package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/suitpredict/internal/engine"
)

// DefaultRefreshRate is the status polling interval.
const DefaultRefreshRate = 2 * time.Second

// StatusMsg carries the result of a status fetch.
type StatusMsg struct {
	Status engine.Status
	Err    error
}

type refreshMsg time.Time

// App is the bubbletea model of the dashboard.
type App struct {
	fetcher Fetcher
	refresh time.Duration

	header  *Header
	footer  *Footer
	tabs    TabBar
	filter  *InputField
	spinner spinner.Model
	table   table.Model

	// status is the last successful fetch, nil until the first one.
	status *engine.Status
	// err is the error of the last fetch, if it failed.
	err error
	// query restricts views to one trigger.
	query     string
	filtering bool
	loading   bool
	width     int
	height    int
	quitting  bool
}

// New creates the dashboard. refresh <= 0 uses DefaultRefreshRate.
func New(fetcher Fetcher, refresh time.Duration) *App {
	if refresh <= 0 {
		refresh = DefaultRefreshRate
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &App{
		fetcher: fetcher,
		refresh: refresh,
		header:  NewHeader(),
		footer:  NewFooter(),
		tabs:    NewTabBar(),
		filter:  NewInputField(),
		spinner: sp,
		table:   newPredictionTable(),
		loading: true,
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.fetch())
}

func (a *App) fetch() tea.Cmd {
	fetcher := a.fetcher
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		st, err := fetcher.Fetch(ctx)
		return StatusMsg{Status: st, Err: err}
	}
}

func (a *App) scheduleRefresh() tea.Cmd {
	return tea.Tick(a.refresh, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.header.SetWidth(msg.Width)
		a.footer.SetWidth(msg.Width)
		a.filter.SetWidth(msg.Width)
		a.table.SetHeight(max(5, msg.Height-a.header.Height()-8))

	case StatusMsg:
		a.loading = false
		a.err = msg.Err
		a.footer.SetError(msg.Err)
		if msg.Err == nil {
			st := msg.Status
			a.status = &st
			a.table.SetRows(predictionRows(st, a.query))
			a.footer.SetCounts(countPredictions(st))
		}
		return a, a.scheduleRefresh()

	case refreshMsg:
		a.loading = true
		return a, a.fetch()

	case FilterSubmittedMsg:
		a.filtering = false
		a.filter.Blur()
		a.setQuery(msg.Query)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.filtering {
		if msg.String() == "esc" {
			a.filtering = false
			a.filter.Blur()
			return a, nil
		}
		var cmd tea.Cmd
		a.filter, cmd = a.filter.Update(msg)
		return a, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		a.quitting = true
		return a, tea.Quit
	case "/":
		a.filtering = true
		a.filter.Reset()
		return a, a.filter.Focus()
	case "esc":
		a.setQuery("")
		return a, nil
	case "r":
		a.loading = true
		return a, a.fetch()
	}

	if a.tabs.Active() == TabIndexPredictions {
		switch msg.String() {
		case "up", "down", "k", "j", "pgup", "pgdown", "home", "end":
			var cmd tea.Cmd
			a.table, cmd = a.table.Update(msg)
			return a, cmd
		}
	}

	a.tabs, _ = a.tabs.Update(msg)
	a.footer.SetActiveTab(a.tabs.Active())
	return a, nil
}

func (a *App) setQuery(query string) {
	a.query = query
	a.footer.SetFilter(query)
	if a.status != nil {
		a.table.SetRows(predictionRows(*a.status, query))
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if a.quitting {
		return "Goodbye!\n"
	}

	var content string
	switch {
	case a.status == nil && a.err != nil:
		content = errorStyle.Render("status unavailable: " + a.err.Error())
	case a.status == nil:
		content = a.spinner.View() + " fetching status..."
	default:
		switch a.tabs.Active() {
		case TabIndexRules:
			content = rulesView(*a.status, a.query)
		case TabIndexLedger:
			content = ledgerView(*a.status, a.query)
		case TabIndexPredictions:
			content = a.table.View()
		case TabIndexReport:
			content = reportView(*a.status)
		}
	}

	parts := []string{a.header.View(a.status), a.tabs.View(a.status), content}
	if a.filtering {
		parts = append(parts, a.filter.View())
	}
	if a.loading {
		a.footer.SetLoading(a.spinner.View())
	} else {
		a.footer.SetLoading("")
	}
	parts = append(parts, a.footer.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Run starts the dashboard and blocks until it exits.
func Run(fetcher Fetcher, refresh time.Duration) error {
	p := tea.NewProgram(New(fetcher, refresh), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
