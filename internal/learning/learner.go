// Package learning turns the derived pair log into ranked trigger rules
// and owns the learned-mode activation flag.
package learning

import (
	"sort"
	"time"

	"github.com/ShayCichocki/suitpredict/pkg/models"
)

const (
	// DefaultTopK is the number of rules kept per outcome class.
	DefaultTopK = 2
	// DefaultMaxPairs bounds the pair log; the oldest pairs are dropped first.
	DefaultMaxPairs = 1000
)

// Relearn builds a rule set from derived pairs. Each trigger is assigned to
// the outcome it preceded most often (ties go to the outcome seen first),
// then each outcome keeps its topK triggers by support, ties broken by the
// order in which the trigger was first seen.
func Relearn(pairs []models.DerivedPair, topK int) models.RuleSet {
	if topK <= 0 {
		topK = DefaultTopK
	}

	type tally struct {
		firstSeen    int
		counts       map[string]int
		outcomeOrder []string
	}
	byTrigger := make(map[string]*tally)
	var triggerOrder []string

	for i, p := range pairs {
		t, ok := byTrigger[p.TriggerKey]
		if !ok {
			t = &tally{firstSeen: i, counts: make(map[string]int)}
			byTrigger[p.TriggerKey] = t
			triggerOrder = append(triggerOrder, p.TriggerKey)
		}
		if _, seen := t.counts[p.OutcomeClass]; !seen {
			t.outcomeOrder = append(t.outcomeOrder, p.OutcomeClass)
		}
		t.counts[p.OutcomeClass]++
	}

	type candidate struct {
		rule      models.Rule
		firstSeen int
	}
	grouped := make(map[string][]candidate)
	for _, trigger := range triggerOrder {
		t := byTrigger[trigger]
		best, bestCount := "", 0
		for _, outcome := range t.outcomeOrder {
			if c := t.counts[outcome]; c > bestCount {
				best, bestCount = outcome, c
			}
		}
		grouped[best] = append(grouped[best], candidate{
			rule:      models.Rule{TriggerKey: trigger, OutcomeClass: best, SupportCount: bestCount},
			firstSeen: t.firstSeen,
		})
	}

	rs := models.NewRuleSet()
	for outcome, cands := range grouped {
		sort.SliceStable(cands, func(i, j int) bool {
			if cands[i].rule.SupportCount != cands[j].rule.SupportCount {
				return cands[i].rule.SupportCount > cands[j].rule.SupportCount
			}
			return cands[i].firstSeen < cands[j].firstSeen
		})
		if len(cands) > topK {
			cands = cands[:topK]
		}
		rules := make([]models.Rule, len(cands))
		for i, c := range cands {
			rules[i] = c.rule
		}
		rs.ByOutcome[outcome] = rules
	}
	return rs
}

// Learner keeps the pair log, the current rule set and the learned-mode flag.
// It is not safe for concurrent use; the engine serializes access.
type Learner struct {
	topK      int
	maxPairs  int
	pairs     []models.DerivedPair
	rules     models.RuleSet
	active    bool
	relearned bool
	now       func() time.Time
}

// NewLearner creates a learner. active is the learned-mode flag restored at startup.
func NewLearner(topK, maxPairs int, active bool) *Learner {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if maxPairs <= 0 {
		maxPairs = DefaultMaxPairs
	}
	return &Learner{
		topK:     topK,
		maxPairs: maxPairs,
		rules:    models.NewRuleSet(),
		active:   active,
		now:      time.Now,
	}
}

// SetClock replaces the time source.
func (l *Learner) SetClock(now func() time.Time) {
	l.now = now
}

// AppendPair adds a derived pair to the log.
func (l *Learner) AppendPair(p models.DerivedPair) {
	l.pairs = append(l.pairs, p)
	if over := len(l.pairs) - l.maxPairs; over > 0 {
		l.pairs = append([]models.DerivedPair(nil), l.pairs[over:]...)
	}
}

// InvalidateResult drops every pair whose result index is resultIndex.
func (l *Learner) InvalidateResult(resultIndex int) {
	kept := l.pairs[:0]
	for _, p := range l.pairs {
		if p.ResultIndex != resultIndex {
			kept = append(kept, p)
		}
	}
	l.pairs = kept
}

// Pairs returns a copy of the pair log.
func (l *Learner) Pairs() []models.DerivedPair {
	return append([]models.DerivedPair(nil), l.pairs...)
}

// Rules returns the current rule set.
func (l *Learner) Rules() models.RuleSet {
	return l.rules
}

// Support returns the support of the trigger/outcome rule in the current
// rule set.
func (l *Learner) Support(trigger, outcome string) (int, bool) {
	r, ok := l.rules.Lookup(trigger)
	if !ok || r.OutcomeClass != outcome {
		return 0, false
	}
	return r.SupportCount, true
}

// Active reports whether learned mode is on.
func (l *Learner) Active() bool {
	return l.active
}

// SetActive overrides learned mode (operator command, bulk reset).
func (l *Learner) SetActive(active bool) {
	l.active = active
}

// ForceActivate switches learned mode on.
func (l *Learner) ForceActivate() {
	l.active = true
}

// TopK returns the per-class rule cap.
func (l *Learner) TopK() int {
	return l.topK
}

// Relearn replaces the rule set from the current pair log and applies the
// activation policy: a non-empty set activates learned mode, an empty set
// deactivates it unless this is the first relearn since load, and force
// always activates.
func (l *Learner) Relearn(force bool) models.RuleSet {
	rs := Relearn(l.pairs, l.topK)
	rs.GeneratedAt = l.now()
	l.rules = rs

	switch {
	case force:
		l.active = true
	case !rs.Empty():
		l.active = true
	case l.relearned:
		l.active = false
	}
	l.relearned = true
	return rs
}

// Restore reloads persisted state without running the activation policy.
func (l *Learner) Restore(pairs []models.DerivedPair, rules models.RuleSet) {
	l.pairs = append([]models.DerivedPair(nil), pairs...)
	if over := len(l.pairs) - l.maxPairs; over > 0 {
		l.pairs = l.pairs[over:]
	}
	if rules.ByOutcome == nil {
		rules = models.NewRuleSet()
	}
	l.rules = rules
}

// Reset clears pairs and rules. The activation flag is left to the caller.
func (l *Learner) Reset() {
	l.pairs = nil
	l.rules = models.NewRuleSet()
	l.relearned = false
}
