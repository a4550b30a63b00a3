package models

import (
	"testing"
	"time"
)

func sampleRuleSet() RuleSet {
	rs := NewRuleSet()
	rs.ByOutcome["♠"] = []Rule{
		{TriggerKey: "A♥", OutcomeClass: "♠", SupportCount: 3},
		{TriggerKey: "2♦", OutcomeClass: "♠", SupportCount: 1},
	}
	rs.ByOutcome["♥"] = []Rule{
		{TriggerKey: "K♣", OutcomeClass: "♥", SupportCount: 2},
	}
	return rs
}

func TestRuleSet_Len(t *testing.T) {
	if got := NewRuleSet().Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
	if !NewRuleSet().Empty() {
		t.Error("new rule set should be empty")
	}
	if got := sampleRuleSet().Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
}

func TestRuleSet_Lookup(t *testing.T) {
	rs := sampleRuleSet()

	r, ok := rs.Lookup("K♣")
	if !ok {
		t.Fatal("Lookup(K♣) not found")
	}
	if r.OutcomeClass != "♥" || r.SupportCount != 2 {
		t.Errorf("Lookup(K♣) = %+v", r)
	}

	if _, ok := rs.Lookup("Q♠"); ok {
		t.Error("Lookup(Q♠) should not be found")
	}
}

func TestRuleSet_TriggersAndClasses(t *testing.T) {
	rs := sampleRuleSet()
	triggers := rs.Triggers()
	for _, k := range []string{"A♥", "2♦", "K♣"} {
		if _, ok := triggers[k]; !ok {
			t.Errorf("Triggers() missing %s", k)
		}
	}
	classes := rs.Classes()
	if len(classes) != 2 {
		t.Fatalf("Classes() = %v, want 2 entries", classes)
	}
}

func TestQuarantineEntry_Expired(t *testing.T) {
	at := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	q := QuarantineEntry{TriggerKey: "A♥", OutcomeClass: "♠", QuarantinedAt: at, ExpiresAt: at.Add(time.Hour)}

	if q.Expired(at) {
		t.Error("entry should be active at quarantine time")
	}
	if q.Expired(at.Add(time.Hour - time.Nanosecond)) {
		t.Error("entry should be active just before expiry")
	}
	if !q.Expired(at.Add(time.Hour)) {
		t.Error("entry should be expired at expiry time")
	}
	if q.Key() != "A♥_♠" {
		t.Errorf("Key() = %q, want %q", q.Key(), "A♥_♠")
	}
}
