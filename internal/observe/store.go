// Package observe holds the bounded window of recent observations and
// derives (trigger, outcome) pairs from it.
package observe

import (
	"sort"
	"time"

	"github.com/ShayCichocki/suitpredict/pkg/models"
)

const (
	// DefaultWindow is how many sequence indices are kept behind the newest one.
	DefaultWindow = 50
	// DefaultLag is the distance between a trigger and the outcome it predicts.
	DefaultLag = 2
)

// PairSink receives derived pairs and their invalidations.
type PairSink interface {
	AppendPair(p models.DerivedPair)
	InvalidateResult(resultIndex int)
}

// RecordResult describes what a Record call changed.
type RecordResult struct {
	// Stored is false for idempotent re-deliveries and out-of-window indices.
	Stored bool
	// Corrected is true when an existing observation was replaced.
	Corrected bool
	// Pair is set when a counterpart lag steps earlier was found.
	Pair *models.DerivedPair
	// Evicted is the number of observations dropped by the window.
	Evicted int
}

// Store is an ordered, size-bounded window of observations.
// It is not safe for concurrent use; the engine serializes access.
type Store struct {
	window  int
	lag     int
	entries map[int]models.Observation
	maxSeen int
	seen    bool
	sink    PairSink
}

// NewStore creates a store. Non-positive window or lag fall back to defaults.
func NewStore(window, lag int, sink PairSink) *Store {
	if window <= 0 {
		window = DefaultWindow
	}
	if lag <= 0 {
		lag = DefaultLag
	}
	return &Store{
		window:  window,
		lag:     lag,
		entries: make(map[int]models.Observation),
		sink:    sink,
	}
}

// Lag returns the configured trigger-to-outcome distance.
func (s *Store) Lag() int {
	return s.lag
}

// Record stores the observation at seq. Identical re-deliveries are no-ops;
// a different trigger at an existing index replaces it and invalidates pairs
// previously derived with that result index.
func (s *Store) Record(seq int, trigger, outcome string, at time.Time) RecordResult {
	var res RecordResult
	if s.seen && seq < s.maxSeen-s.window {
		return res
	}

	if existing, ok := s.entries[seq]; ok {
		if existing.TriggerKey == trigger {
			return res
		}
		res.Corrected = true
		if s.sink != nil {
			s.sink.InvalidateResult(seq)
		}
	}

	s.entries[seq] = models.Observation{
		SequenceIndex: seq,
		TriggerKey:    trigger,
		OutcomeClass:  outcome,
		ObservedAt:    at,
	}
	res.Stored = true

	if !s.seen || seq > s.maxSeen {
		s.maxSeen = seq
		s.seen = true
	}

	if src, ok := s.entries[seq-s.lag]; ok {
		pair := models.DerivedPair{
			TriggerKey:   src.TriggerKey,
			OutcomeClass: outcome,
			SourceIndex:  src.SequenceIndex,
			ResultIndex:  seq,
			DerivedAt:    at,
		}
		res.Pair = &pair
		if s.sink != nil {
			s.sink.AppendPair(pair)
		}
	}

	res.Evicted = s.EvictOlderThan(s.maxSeen - s.window)
	return res
}

// Lookup returns the trigger observed at seq.
func (s *Store) Lookup(seq int) (string, bool) {
	o, ok := s.entries[seq]
	if !ok {
		return "", false
	}
	return o.TriggerKey, true
}

// EvictOlderThan drops every observation with index below floor.
func (s *Store) EvictOlderThan(floor int) int {
	n := 0
	for seq := range s.entries {
		if seq < floor {
			delete(s.entries, seq)
			n++
		}
	}
	return n
}

// Len returns the number of stored observations.
func (s *Store) Len() int {
	return len(s.entries)
}

// Observations returns the window ordered by sequence index.
func (s *Store) Observations() []models.Observation {
	out := make([]models.Observation, 0, len(s.entries))
	for _, o := range s.entries {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceIndex < out[j].SequenceIndex })
	return out
}

// Restore replaces the window with previously persisted observations.
// Pairs are not re-emitted; the learner restores its own log.
func (s *Store) Restore(obs []models.Observation) {
	s.entries = make(map[int]models.Observation, len(obs))
	s.seen = false
	s.maxSeen = 0
	for _, o := range obs {
		s.entries[o.SequenceIndex] = o
		if !s.seen || o.SequenceIndex > s.maxSeen {
			s.maxSeen = o.SequenceIndex
			s.seen = true
		}
	}
	if s.seen {
		s.EvictOlderThan(s.maxSeen - s.window)
	}
}

// Reset clears the window.
func (s *Store) Reset() {
	s.entries = make(map[int]models.Observation)
	s.seen = false
	s.maxSeen = 0
}
