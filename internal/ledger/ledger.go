// Package ledger tracks per-trigger usage and temporary quarantine of
// (trigger, outcome) pairs after failed predictions.
package ledger

import (
	"sort"
	"time"

	"github.com/ShayCichocki/suitpredict/pkg/models"
)

const (
	// DefaultMaxUses is the number of predictions a trigger may back before
	// it becomes unusable until it leaves and re-enters the top set.
	DefaultMaxUses = 2
	// DefaultQuarantineTTL is how long a failed pair stays suspended.
	DefaultQuarantineTTL = time.Hour
)

// Ledger holds usage counters and quarantine entries.
// It is not safe for concurrent use; the engine serializes access.
type Ledger struct {
	usage      map[string]*models.UsageRecord
	quarantine map[string]models.QuarantineEntry
	maxUses    int
	ttl        time.Duration
	now        func() time.Time // For testing
}

// New creates a ledger. Zero values fall back to the defaults.
func New(maxUses int, ttl time.Duration) *Ledger {
	if maxUses <= 0 {
		maxUses = DefaultMaxUses
	}
	if ttl <= 0 {
		ttl = DefaultQuarantineTTL
	}
	return &Ledger{
		usage:      make(map[string]*models.UsageRecord),
		quarantine: make(map[string]models.QuarantineEntry),
		maxUses:    maxUses,
		ttl:        ttl,
		now:        time.Now,
	}
}

// SetClock replaces the time source.
func (l *Ledger) SetClock(now func() time.Time) {
	l.now = now
}

// TTL returns the quarantine duration.
func (l *Ledger) TTL() time.Duration {
	return l.ttl
}

// OnRuleSetReplaced keeps usage records for triggers still in the top set,
// starts new entrants at zero and drops triggers that left.
func (l *Ledger) OnRuleSetReplaced(rs models.RuleSet) {
	current := rs.Triggers()
	for key := range current {
		if _, ok := l.usage[key]; !ok {
			l.usage[key] = &models.UsageRecord{TriggerKey: key}
		}
	}
	for key := range l.usage {
		if _, ok := current[key]; !ok {
			delete(l.usage, key)
		}
	}
}

// IsUsable reports whether the pair may back a new prediction now.
func (l *Ledger) IsUsable(trigger, outcome string) bool {
	if rec, ok := l.usage[trigger]; ok && rec.UseCount >= l.maxUses {
		return false
	}
	key := models.QuarantineKey(trigger, outcome)
	q, ok := l.quarantine[key]
	if !ok {
		return true
	}
	if q.Expired(l.now()) {
		delete(l.quarantine, key)
		return true
	}
	return false
}

// RecordUse counts one prediction made with trigger.
func (l *Ledger) RecordUse(trigger string) {
	rec, ok := l.usage[trigger]
	if !ok {
		rec = &models.UsageRecord{TriggerKey: trigger}
		l.usage[trigger] = rec
	}
	rec.UseCount++
	rec.TotalUseCount++
}

// Quarantine suspends the pair for the ledger TTL, overwriting any prior entry.
func (l *Ledger) Quarantine(trigger, outcome string, supportAtFailure int) models.QuarantineEntry {
	now := l.now()
	q := models.QuarantineEntry{
		TriggerKey:    trigger,
		OutcomeClass:  outcome,
		SupportCount:  supportAtFailure,
		QuarantinedAt: now,
		ExpiresAt:     now.Add(l.ttl),
	}
	l.quarantine[q.Key()] = q
	return q
}

// ReleaseImproved removes quarantine entries whose rule support rose above
// the support recorded at failure time, and sweeps expired entries.
// It returns the keys released because of improved support.
func (l *Ledger) ReleaseImproved(rs models.RuleSet) []string {
	var released []string
	now := l.now()
	for key, q := range l.quarantine {
		if q.Expired(now) {
			delete(l.quarantine, key)
			continue
		}
		for _, r := range rs.Rules(q.OutcomeClass) {
			if r.TriggerKey == q.TriggerKey && r.SupportCount > q.SupportCount {
				delete(l.quarantine, key)
				released = append(released, key)
				break
			}
		}
	}
	sort.Strings(released)
	return released
}

// Usage returns the usage record for trigger.
func (l *Ledger) Usage(trigger string) (models.UsageRecord, bool) {
	rec, ok := l.usage[trigger]
	if !ok {
		return models.UsageRecord{}, false
	}
	return *rec, true
}

// UsageRecords returns all usage records sorted by trigger.
func (l *Ledger) UsageRecords() []models.UsageRecord {
	out := make([]models.UsageRecord, 0, len(l.usage))
	for _, rec := range l.usage {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TriggerKey < out[j].TriggerKey })
	return out
}

// Quarantined returns unexpired entries ordered by expiry.
func (l *Ledger) Quarantined() []models.QuarantineEntry {
	now := l.now()
	out := make([]models.QuarantineEntry, 0, len(l.quarantine))
	for _, q := range l.quarantine {
		if !q.Expired(now) {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out
}

// Restore reloads persisted records.
func (l *Ledger) Restore(usage []models.UsageRecord, quarantine []models.QuarantineEntry) {
	l.usage = make(map[string]*models.UsageRecord, len(usage))
	for _, rec := range usage {
		r := rec
		l.usage[r.TriggerKey] = &r
	}
	l.quarantine = make(map[string]models.QuarantineEntry, len(quarantine))
	for _, q := range quarantine {
		l.quarantine[q.Key()] = q
	}
}

// Reset drops all usage and quarantine state.
func (l *Ledger) Reset() {
	l.usage = make(map[string]*models.UsageRecord)
	l.quarantine = make(map[string]models.QuarantineEntry)
}
