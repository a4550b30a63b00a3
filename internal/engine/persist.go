package engine

import (
	"errors"
	"log"
	"time"

	"github.com/ShayCichocki/suitpredict/internal/predict"
	"github.com/ShayCichocki/suitpredict/internal/state"
	"github.com/ShayCichocki/suitpredict/pkg/models"
)

// Persistence identifiers.
const (
	BlobName        = "engine"
	BlobKind        = "engine"
	SnapshotVersion = 1
)

// Snapshot is the persisted state of the engine.
type Snapshot struct {
	Observations  []models.Observation     `json:"observations"`
	Pairs         []models.DerivedPair     `json:"pairs"`
	Rules         models.RuleSet           `json:"rules"`
	LearnedActive bool                     `json:"learned_active"`
	Usage         []models.UsageRecord     `json:"usage"`
	Quarantine    []models.QuarantineEntry `json:"quarantine"`
	Cursors       map[string]int           `json:"cursors"`
	Predictions   predict.State            `json:"predictions"`
	Sent          map[string]time.Time     `json:"sent"`
	LastRelearn   time.Time                `json:"last_relearn"`
}

// Status is a read-only view for operators and the dashboard.
type Status struct {
	Snapshot
	Now            time.Time            `json:"now"`
	Session        string               `json:"session"`
	SessionActive  bool                 `json:"session_active"`
	Pending        *models.Prediction   `json:"pending,omitempty"`
	Report         models.SessionReport `json:"report"`
	StaticFailures int                  `json:"static_failures"`
	StaticTable    map[string]string    `json:"static_table"`
	QuarantineTTL  time.Duration        `json:"quarantine_ttl"`
}

// snapshotLocked captures the persisted state. Caller holds e.mu.
func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		Observations:  e.store.Observations(),
		Pairs:         e.learner.Pairs(),
		Rules:         e.learner.Rules(),
		LearnedActive: e.learner.Active(),
		Usage:         e.ledger.UsageRecords(),
		Quarantine:    e.ledger.Quarantined(),
		Cursors:       e.selector.Cursors(),
		Predictions:   e.manager.State(),
		Sent:          copySent(e.sent),
		LastRelearn:   e.clock.LastRelearn(),
	}
}

// Snapshot returns a consistent copy of the engine state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Status returns the snapshot plus derived operator fields.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	st := Status{
		Snapshot:       e.snapshotLocked(),
		Now:            now,
		Session:        e.clock.Label(now),
		SessionActive:  e.clock.IsActiveWindow(now),
		Report:         models.BuildReport(e.manager.History(), now),
		StaticFailures: e.manager.StaticFailures(),
		StaticTable:    e.selector.Static(),
		QuarantineTTL:  e.ledger.TTL(),
	}
	if p, ok := e.manager.Pending(); ok {
		st.Pending = &p
	}
	return st
}

// Restore replaces the engine state with snap.
func (e *Engine) Restore(snap Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.restoreLocked(snap)
}

func (e *Engine) restoreLocked(snap Snapshot) {
	e.store.Restore(snap.Observations)
	rules := snap.Rules
	if rules.ByOutcome == nil {
		rules = models.NewRuleSet()
	}
	e.learner.Restore(snap.Pairs, rules)
	e.learner.SetActive(snap.LearnedActive)
	e.ledger.Restore(snap.Usage, snap.Quarantine)
	e.selector.RestoreCursors(snap.Cursors)
	e.manager.Restore(snap.Predictions)
	e.sent = copySent(snap.Sent)
	if !snap.LastRelearn.IsZero() {
		e.clock.MarkRelearned(snap.LastRelearn)
	}
}

// Load restores the persisted snapshot. Missing or incompatible state
// leaves the engine empty; only storage I/O errors are returned.
func (e *Engine) Load() error {
	if e.persist == nil {
		return nil
	}
	var snap Snapshot
	err := state.LoadInto(e.persist, BlobName, BlobKind, SnapshotVersion, &snap)
	switch {
	case err == nil:
		e.Restore(snap)
		log.Printf("[engine] restored %d observations, %d pairs, %d rules", len(snap.Observations), len(snap.Pairs), snap.Rules.Len())
		return nil
	case errors.Is(err, state.ErrNotFound):
		return nil
	case errors.Is(err, state.ErrSchemaMismatch):
		log.Printf("[engine] warning: discarding persisted state: %v", err)
		return nil
	default:
		return err
	}
}

// encodeLocked bumps the state version and encodes the snapshot.
// Caller holds e.mu.
func (e *Engine) encodeLocked() ([]byte, uint64) {
	if e.persist == nil {
		return nil, 0
	}
	e.version++
	data, err := state.Encode(BlobKind, SnapshotVersion, e.snapshotLocked(), e.clock.Now())
	if err != nil {
		log.Printf("[engine] warning: failed to encode state: %v", err)
		return nil, 0
	}
	return data, e.version
}

// write saves an encoded snapshot unless a newer one is already stored.
// Failures are logged; in-memory state stays authoritative.
func (e *Engine) write(version uint64, data []byte) {
	if e.persist == nil || data == nil {
		return
	}
	e.saveMu.Lock()
	defer e.saveMu.Unlock()
	if version <= e.savedVersion {
		return
	}
	if err := e.persist.Save(BlobName, data); err != nil {
		log.Printf("[engine] warning: failed to persist state: %v", err)
		return
	}
	e.savedVersion = version
}

func copySent(in map[string]time.Time) map[string]time.Time {
	out := make(map[string]time.Time, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
