package selector

import (
	"testing"

	"github.com/ShayCichocki/suitpredict/pkg/models"
)

type usableSet map[string]bool

func (u usableSet) IsUsable(trigger, outcome string) bool {
	v, ok := u[models.QuarantineKey(trigger, outcome)]
	return !ok || v
}

func rules(class string, triggers ...string) []models.Rule {
	out := make([]models.Rule, len(triggers))
	for i, t := range triggers {
		out[i] = models.Rule{TriggerKey: t, OutcomeClass: class, SupportCount: len(triggers) - i}
	}
	return out
}

func TestSelect_Static(t *testing.T) {
	s := New(nil, map[string]string{"A♠": "♥", "2♠": "♣"})

	tests := []struct {
		name       string
		candidates []string
		want       string
		wantOK     bool
	}{
		{"first in table wins", []string{"K♦", "2♠", "A♠"}, "2♠", true},
		{"none in table", []string{"K♦", "Q♣"}, "", false},
		{"empty candidates", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.Select(tt.candidates, models.NewRuleSet(), false, nil)
			if ok != tt.wantOK {
				t.Fatalf("Select() ok = %v, want %v", ok, tt.wantOK)
			}
			if got.TriggerKey != tt.want {
				t.Errorf("Select() trigger = %q, want %q", got.TriggerKey, tt.want)
			}
			if ok && got.Learned {
				t.Error("static choice must not be marked learned")
			}
		})
	}
}

func TestSelect_LearnedIgnoresStatic(t *testing.T) {
	s := New(nil, map[string]string{"X": "♥"})
	rs := models.NewRuleSet()

	if _, ok := s.Select([]string{"X"}, rs, true, nil); ok {
		t.Error("learned mode with no usable rule must not fall back to static")
	}
}

func TestSelect_RoundRobin(t *testing.T) {
	s := New(nil, nil)
	rs := models.NewRuleSet()
	rs.ByOutcome["♠"] = rules("♠", "A", "B", "C")
	candidates := []string{"A", "B", "C"}

	var got []string
	for i := 0; i < 4; i++ {
		c, ok := s.Select(candidates, rs, true, nil)
		if !ok {
			t.Fatalf("round %d: no selection", i)
		}
		got = append(got, c.TriggerKey)
	}
	want := []string{"A", "B", "C", "A"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rotation = %v, want %v", got, want)
		}
	}
}

func TestSelect_SkipsUnusable(t *testing.T) {
	s := New(nil, nil)
	rs := models.NewRuleSet()
	rs.ByOutcome["♠"] = rules("♠", "A", "B")

	c, ok := s.Select([]string{"A", "B"}, rs, true, usableSet{"A_♠": false})
	if !ok || c.TriggerKey != "B" {
		t.Errorf("Select() = %+v, %v, want B", c, ok)
	}
	if s.Cursor("♠") != 1 {
		t.Errorf("Cursor(♠) = %d, want 1", s.Cursor("♠"))
	}
}

func TestSelect_ClassOrderFirstWins(t *testing.T) {
	s := New([]string{"♥", "♠"}, nil)
	rs := models.NewRuleSet()
	rs.ByOutcome["♠"] = rules("♠", "A")
	rs.ByOutcome["♥"] = rules("♥", "B")

	c, ok := s.Select([]string{"A", "B"}, rs, true, nil)
	if !ok || c.OutcomeClass != "♥" || c.TriggerKey != "B" {
		t.Errorf("Select() = %+v, want B→♥", c)
	}
	if s.Cursor("♠") != -1 {
		t.Error("losing class cursor must not move")
	}
}

func TestSelect_UnknownClassAppended(t *testing.T) {
	s := New([]string{"♠"}, nil)
	rs := models.NewRuleSet()
	rs.ByOutcome["joker"] = rules("joker", "Z")

	c, ok := s.Select([]string{"Z"}, rs, true, nil)
	if !ok || c.OutcomeClass != "joker" {
		t.Errorf("Select() = %+v, %v", c, ok)
	}
}

func TestSelect_CursorSurvivesShrink(t *testing.T) {
	s := New(nil, nil)
	s.RestoreCursors(map[string]int{"♠": 5})
	rs := models.NewRuleSet()
	rs.ByOutcome["♠"] = rules("♠", "A", "B")

	c, ok := s.Select([]string{"A", "B"}, rs, true, nil)
	if !ok {
		t.Fatal("expected a selection")
	}
	if c.TriggerKey != "A" {
		t.Errorf("Select() = %s, want A (6 mod 2 = 0)", c.TriggerKey)
	}
}
