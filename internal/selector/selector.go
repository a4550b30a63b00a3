// Package selector picks the (trigger, outcome) pair that backs the next
// prediction, either from the static table or from the learned rule set.
package selector

import (
	"sort"

	"github.com/ShayCichocki/suitpredict/pkg/models"
)

// DefaultClassOrder is the fixed iteration order over outcome classes.
var DefaultClassOrder = []string{"♠", "♥", "♦", "♣"}

// UsabilityChecker reports whether a learned pair may be used right now.
type UsabilityChecker interface {
	IsUsable(trigger, outcome string) bool
}

// Choice is a selected rule.
type Choice struct {
	TriggerKey   string
	OutcomeClass string
	SupportCount int
	// Learned is false when the choice came from the static table.
	Learned bool
}

// Selector holds the static table and the per-class round-robin cursors.
// It is not safe for concurrent use; the engine serializes access.
type Selector struct {
	classOrder []string
	cursors    map[string]int
	static     map[string]string
}

// New creates a selector. A nil classOrder uses DefaultClassOrder.
func New(classOrder []string, static map[string]string) *Selector {
	if len(classOrder) == 0 {
		classOrder = DefaultClassOrder
	}
	s := &Selector{
		classOrder: append([]string(nil), classOrder...),
		cursors:    make(map[string]int),
	}
	s.SetStatic(static)
	return s
}

// SetStatic replaces the static trigger → outcome table.
func (s *Selector) SetStatic(table map[string]string) {
	s.static = make(map[string]string, len(table))
	for k, v := range table {
		s.static[k] = v
	}
}

// Static returns a copy of the static table.
func (s *Selector) Static() map[string]string {
	out := make(map[string]string, len(s.static))
	for k, v := range s.static {
		out[k] = v
	}
	return out
}

// Select returns the pair to predict with. candidates are the trigger keys
// found in the current message, in message order. When learned is false the
// first candidate present in the static table wins. When learned is true the
// classes are scanned in fixed order and the first usable candidate rule wins;
// there is no fallback to the static table.
func (s *Selector) Select(candidates []string, rs models.RuleSet, learned bool, usable UsabilityChecker) (Choice, bool) {
	if !learned {
		for _, c := range candidates {
			if outcome, ok := s.static[c]; ok {
				return Choice{TriggerKey: c, OutcomeClass: outcome}, true
			}
		}
		return Choice{}, false
	}

	present := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		present[c] = struct{}{}
	}

	for _, class := range s.orderFor(rs) {
		rules := rs.Rules(class)
		n := len(rules)
		if n == 0 {
			continue
		}
		start := s.Cursor(class) + 1
		for i := 0; i < n; i++ {
			idx := (start + i) % n
			r := rules[idx]
			if _, ok := present[r.TriggerKey]; !ok {
				continue
			}
			if usable != nil && !usable.IsUsable(r.TriggerKey, class) {
				continue
			}
			s.cursors[class] = idx
			return Choice{
				TriggerKey:   r.TriggerKey,
				OutcomeClass: class,
				SupportCount: r.SupportCount,
				Learned:      true,
			}, true
		}
	}
	return Choice{}, false
}

// Cursor returns the last winning index for class, or -1.
func (s *Selector) Cursor(class string) int {
	if c, ok := s.cursors[class]; ok {
		return c
	}
	return -1
}

// Cursors returns a copy of the cursor map.
func (s *Selector) Cursors() map[string]int {
	out := make(map[string]int, len(s.cursors))
	for k, v := range s.cursors {
		out[k] = v
	}
	return out
}

// RestoreCursors reloads persisted cursors.
func (s *Selector) RestoreCursors(cursors map[string]int) {
	s.cursors = make(map[string]int, len(cursors))
	for k, v := range cursors {
		s.cursors[k] = v
	}
}

// ResetCursors rewinds every class to the start.
func (s *Selector) ResetCursors() {
	s.cursors = make(map[string]int)
}

// orderFor returns the configured class order followed by any unknown
// classes in the rule set, sorted.
func (s *Selector) orderFor(rs models.RuleSet) []string {
	known := make(map[string]struct{}, len(s.classOrder))
	for _, c := range s.classOrder {
		known[c] = struct{}{}
	}
	var extra []string
	for class := range rs.ByOutcome {
		if _, ok := known[class]; !ok {
			extra = append(extra, class)
		}
	}
	if len(extra) == 0 {
		return s.classOrder
	}
	sort.Strings(extra)
	return append(append([]string(nil), s.classOrder...), extra...)
}
