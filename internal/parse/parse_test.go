package parse

import (
	"reflect"
	"testing"
)

func TestSequenceIndex(t *testing.T) {
	p := New()
	tests := []struct {
		text   string
		want   int
		wantOK bool
	}{
		{"#N123. 5(A♠️K♥️) - 7(3♦️)", 123, true},
		{"n45 ✅", 45, true},
		{"#77 result", 77, true},
		{"🔵210🔵:♠️statut :⏳", 210, true},
		{"no number here", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := p.SequenceIndex(tt.text)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("SequenceIndex() = %d, %v, want %d, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCards_Normalizes(t *testing.T) {
	got := Cards("a♠️ 10❤️ K♦ 2♣️")
	want := []Card{{"A", Spade}, {"10", Heart}, {"K", Diamond}, {"2", Club}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Cards() = %+v, want %+v", got, want)
	}
}

func TestTriggerCandidates(t *testing.T) {
	p := New()
	text := "#N50. ✅5(A♠️K♥️A♠️) - 7(3♦️4♣️)"

	got := p.TriggerCandidates(text)
	want := []string{"A♠", "K♥"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TriggerCandidates() = %v, want %v", got, want)
	}
	if c := p.TriggerCandidates("#N50 no group"); len(c) != 0 {
		t.Errorf("TriggerCandidates() without group = %v, want empty", c)
	}
}

func TestOutcomeSet(t *testing.T) {
	p := New()
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"first group only", "#N50. 5(A♠️K♥️2♠️) - 7(3♦️)", []string{Spade, Heart}},
		{"fallback to first three cards", "#N50 A♣ 2♦ 3♦ 4♠", []string{Club, Diamond}},
		{"no cards", "#N50", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.OutcomeSet(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("OutcomeSet() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestObservation(t *testing.T) {
	p := New()
	trigger, outcome, ok := p.Observation("#N12. 3(Q♦️8♠️) - 6(K♣️)")
	if !ok || trigger != "Q♦" || outcome != Diamond {
		t.Errorf("Observation() = %q, %q, %v", trigger, outcome, ok)
	}
	if _, _, ok := p.Observation("#N12 nothing"); ok {
		t.Error("Observation() without cards should fail")
	}
}

func TestIsFinal(t *testing.T) {
	p := New()
	tests := []struct {
		text string
		want bool
	}{
		{"#N1 ✅ 5(A♠)", true},
		{"#N1 ❌", true},
		{"#N1 🔰", true},
		{"#N1 ⏳ 5(A♠)", false},
	}
	for _, tt := range tests {
		if got := p.IsFinal(tt.text); got != tt.want {
			t.Errorf("IsFinal(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
