package tui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShayCichocki/suitpredict/internal/engine"
	"github.com/ShayCichocki/suitpredict/internal/predict"
	"github.com/ShayCichocki/suitpredict/pkg/models"
)

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func testStatus() engine.Status {
	now := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	won := 1
	st := engine.Status{
		Now:           now,
		Session:       "09h-12h",
		SessionActive: true,
		StaticTable:   map[string]string{"A♠": "♥", "K♦": "♣"},
		Report:        models.SessionReport{Total: 1, Won: 1, Pending: 1, ByOffset: [3]int{0, 1, 0}},
	}
	st.LearnedActive = true
	st.Rules = models.RuleSet{
		ByOutcome: map[string][]models.Rule{
			"♠": {{TriggerKey: "A♠", OutcomeClass: "♠", SupportCount: 4}},
			"♥": {{TriggerKey: "K♦", OutcomeClass: "♥", SupportCount: 2}},
		},
		GeneratedAt: now,
	}
	st.Usage = []models.UsageRecord{{TriggerKey: "A♠", UseCount: 1, TotalUseCount: 3}}
	st.Quarantine = []models.QuarantineEntry{{TriggerKey: "K♦", OutcomeClass: "♥", SupportCount: 2, ExpiresAt: now.Add(40 * time.Minute)}}
	st.Predictions = predict.State{History: []models.Prediction{
		{TargetIndex: 12, TriggerKey: "A♠", OutcomeClass: "♠", Status: models.PredictionWon, ResolvedOffset: &won, Learned: true, CreatedAt: now},
		{TargetIndex: 20, TriggerKey: "K♦", OutcomeClass: "♣", Status: models.PredictionPending, CreatedAt: now},
	}}
	return st
}

func staticFetcher(st engine.Status, err error) Fetcher {
	return FetcherFunc(func(context.Context) (engine.Status, error) { return st, err })
}

func TestApp_FetchPopulatesViews(t *testing.T) {
	app := New(staticFetcher(testStatus(), nil), time.Second)
	if app.Init() == nil {
		t.Fatal("Init returned nil command")
	}

	msg := app.fetch()()
	model, cmd := app.Update(msg)
	app = model.(*App)

	if cmd == nil {
		t.Error("status update should schedule a refresh")
	}
	if app.status == nil || app.loading {
		t.Fatalf("status not applied: loading=%v", app.loading)
	}
	if rows := app.table.Rows(); len(rows) != 2 || rows[0][0] != "20" {
		t.Errorf("rows = %v, want newest first", rows)
	}
	if !strings.Contains(app.View(), "09h-12h") {
		t.Error("header missing session label")
	}
}

func TestApp_FetchError(t *testing.T) {
	app := New(staticFetcher(engine.Status{}, errors.New("connection refused")), 0)
	if app.refresh != DefaultRefreshRate {
		t.Errorf("refresh = %v, want default", app.refresh)
	}

	model, _ := app.Update(app.fetch()())
	view := model.View()
	if !strings.Contains(view, "status unavailable") || !strings.Contains(view, "connection refused") {
		t.Errorf("error not rendered:\n%s", view)
	}
}

func TestApp_TabsAndQuit(t *testing.T) {
	app := New(staticFetcher(testStatus(), nil), time.Second)
	app.Update(app.fetch()())

	tests := []struct {
		key  rune
		tab  int
		want string
	}{
		{'2', TabIndexLedger, "Quarantine"},
		{'4', TabIndexReport, "win rate 100.0%"},
		{'1', TabIndexRules, "Static table"},
	}
	for _, tt := range tests {
		app.Update(keyRune(tt.key))
		if app.tabs.Active() != tt.tab {
			t.Errorf("key %q: tab = %d, want %d", tt.key, app.tabs.Active(), tt.tab)
		}
		if !strings.Contains(app.View(), tt.want) {
			t.Errorf("key %q: view missing %q", tt.key, tt.want)
		}
	}

	_, cmd := app.Update(keyRune('q'))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not return tea.Quit")
	}
	if app.View() != "Goodbye!\n" {
		t.Error("quitting view not rendered")
	}
}

func TestApp_Filter(t *testing.T) {
	app := New(staticFetcher(testStatus(), nil), time.Second)
	app.Update(app.fetch()())

	app.Update(keyRune('/'))
	if !app.filtering {
		t.Fatal("/ should open the filter")
	}
	// Keys go to the input while filtering.
	app.Update(keyRune('2'))
	if app.tabs.Active() != TabIndexRules {
		t.Error("tab switched while filtering")
	}

	app.Update(FilterSubmittedMsg{Query: "A♠"})
	if app.filtering || app.query != "A♠" {
		t.Fatalf("filtering=%v query=%q", app.filtering, app.query)
	}
	if rows := app.table.Rows(); len(rows) != 1 || rows[0][1] != "A♠" {
		t.Errorf("filtered rows = %v", rows)
	}

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if app.query != "" || len(app.table.Rows()) != 2 {
		t.Errorf("esc did not clear the filter: %q", app.query)
	}
}

func TestRulesView(t *testing.T) {
	view := rulesView(testStatus(), "")
	for _, want := range []string{"Learned rules", "A♠ (4)", "K♦ (2)", "A♠   → ♥"} {
		if !strings.Contains(view, want) {
			t.Errorf("rules view missing %q:\n%s", want, view)
		}
	}

	filtered := rulesView(testStatus(), "K♦")
	if strings.Contains(filtered, "A♠") {
		t.Errorf("filter leaked other triggers:\n%s", filtered)
	}

	st := testStatus()
	st.LearnedActive = false
	st.Rules = models.NewRuleSet()
	if view := rulesView(st, ""); !strings.Contains(view, "(inactive)") || !strings.Contains(view, "none yet") {
		t.Errorf("inactive view:\n%s", view)
	}
}

func TestLedgerView(t *testing.T) {
	view := ledgerView(testStatus(), "")
	for _, want := range []string{"cycle 1  total 3", "support 2", "expires in 40m0s"} {
		if !strings.Contains(view, want) {
			t.Errorf("ledger view missing %q:\n%s", want, view)
		}
	}
	if view := ledgerView(engine.Status{}, ""); !strings.Contains(view, "empty") {
		t.Errorf("empty ledger:\n%s", view)
	}
}

func TestCountPredictions(t *testing.T) {
	got := countPredictions(testStatus())
	if got != (PredictionCounts{Won: 1, Pending: 1}) {
		t.Errorf("counts = %+v", got)
	}
}

func TestFooter(t *testing.T) {
	f := NewFooter()
	f.SetWidth(200)
	f.SetCounts(PredictionCounts{Won: 3, Lost: 1})
	f.SetFilter("K♦")
	f.SetActiveTab(TabIndexPredictions)

	view := f.View()
	for _, want := range []string{"✅3", "❌1", "filter: K♦", "↑/↓ scroll", "q quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("footer missing %q: %s", want, view)
		}
	}

	f.SetError(errors.New("boom"))
	if !strings.Contains(f.View(), "boom") {
		t.Error("footer missing error")
	}
	f.SetError(nil)
	if strings.Contains(f.View(), "boom") {
		t.Error("error not cleared")
	}
}

func TestHTTPFetcher(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(testStatus())
	}))
	defer ts.Close()

	st, err := NewHTTPFetcher(ts.URL + "/status").Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if st.Session != "09h-12h" || len(st.Predictions.History) != 2 {
		t.Errorf("decoded status = %+v", st)
	}

	if _, err := NewHTTPFetcher(ts.URL + "/missing").Fetch(context.Background()); err == nil {
		t.Error("expected error on 404")
	}
}
