// Package models defines the shared data types of the prediction engine.
package models

import (
	"sort"
	"time"
)

// Observation is a trigger seen at a given sequence index. Immutable once recorded.
type Observation struct {
	SequenceIndex int       `json:"sequence_index"`
	TriggerKey    string    `json:"trigger_key"`
	OutcomeClass  string    `json:"outcome_class"`
	ObservedAt    time.Time `json:"observed_at"`
}

// DerivedPair links the trigger observed lag steps earlier to the outcome
// observed at ResultIndex.
type DerivedPair struct {
	TriggerKey   string    `json:"trigger_key"`
	OutcomeClass string    `json:"outcome_class"`
	SourceIndex  int       `json:"source_index"`
	ResultIndex  int       `json:"result_index"`
	DerivedAt    time.Time `json:"derived_at"`
}

// Rule associates a trigger with the outcome class it most often preceded.
type Rule struct {
	TriggerKey   string `json:"trigger_key"`
	OutcomeClass string `json:"outcome_class"`
	SupportCount int    `json:"support_count"`
}

// RuleSet is the ranked rule table produced by a relearn cycle.
// Rules within a class are ordered by SupportCount descending.
type RuleSet struct {
	ByOutcome   map[string][]Rule `json:"by_outcome"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// NewRuleSet returns an empty rule set.
func NewRuleSet() RuleSet {
	return RuleSet{ByOutcome: make(map[string][]Rule)}
}

// Empty reports whether the set holds no rules.
func (rs RuleSet) Empty() bool {
	return rs.Len() == 0
}

// Len returns the total number of rules across all classes.
func (rs RuleSet) Len() int {
	n := 0
	for _, rules := range rs.ByOutcome {
		n += len(rules)
	}
	return n
}

// Rules returns the ranked rules for an outcome class.
func (rs RuleSet) Rules(outcome string) []Rule {
	return rs.ByOutcome[outcome]
}

// Lookup finds the rule for a trigger key. A trigger appears under at most one class.
func (rs RuleSet) Lookup(trigger string) (Rule, bool) {
	for _, rules := range rs.ByOutcome {
		for _, r := range rules {
			if r.TriggerKey == trigger {
				return r, true
			}
		}
	}
	return Rule{}, false
}

// Triggers returns the set of trigger keys present in the rule set.
func (rs RuleSet) Triggers() map[string]struct{} {
	out := make(map[string]struct{}, rs.Len())
	for _, rules := range rs.ByOutcome {
		for _, r := range rules {
			out[r.TriggerKey] = struct{}{}
		}
	}
	return out
}

// Classes returns the outcome classes present, sorted for stable output.
func (rs RuleSet) Classes() []string {
	classes := make([]string, 0, len(rs.ByOutcome))
	for c := range rs.ByOutcome {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	return classes
}

// UsageRecord tracks how often a trigger has been used to predict.
type UsageRecord struct {
	TriggerKey    string `json:"trigger_key"`
	UseCount      int    `json:"use_count"`
	TotalUseCount int    `json:"total_use_count"`
}

// QuarantineEntry suspends a (trigger, outcome) pair after a failed prediction.
type QuarantineEntry struct {
	TriggerKey    string    `json:"trigger_key"`
	OutcomeClass  string    `json:"outcome_class"`
	SupportCount  int       `json:"support_count"`
	QuarantinedAt time.Time `json:"quarantined_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// QuarantineKey builds the ledger key for a (trigger, outcome) pair.
func QuarantineKey(trigger, outcome string) string {
	return trigger + "_" + outcome
}

// Key returns the ledger key of the entry.
func (q QuarantineEntry) Key() string {
	return QuarantineKey(q.TriggerKey, q.OutcomeClass)
}

// Expired reports whether the entry no longer applies at now.
func (q QuarantineEntry) Expired(now time.Time) bool {
	return !now.Before(q.ExpiresAt)
}
