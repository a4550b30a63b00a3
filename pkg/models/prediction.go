package models

import "time"

// PredictionStatus represents the lifecycle state of a prediction.
type PredictionStatus string

const (
	// PredictionPending indicates the prediction is awaiting verification.
	PredictionPending PredictionStatus = "pending"
	// PredictionWon indicates the predicted outcome appeared within the window.
	PredictionWon PredictionStatus = "won"
	// PredictionLost indicates the window closed without the predicted outcome.
	PredictionLost PredictionStatus = "lost"
)

// Valid returns true if the status is a known value.
func (s PredictionStatus) Valid() bool {
	switch s {
	case PredictionPending, PredictionWon, PredictionLost:
		return true
	default:
		return false
	}
}

// Terminal returns true if no further transition is possible.
func (s PredictionStatus) Terminal() bool {
	return s == PredictionWon || s == PredictionLost
}

// Prediction is a claim that OutcomeClass will appear at TargetIndex
// or within the following verification offsets.
type Prediction struct {
	// ID is the unique identifier for this prediction.
	ID string `json:"id"`
	// SourceIndex is the sequence index of the message that triggered it.
	SourceIndex int `json:"source_index"`
	// TargetIndex is SourceIndex + lag; verification offsets are relative to it.
	TargetIndex int `json:"target_index"`
	// OutcomeClass is the predicted outcome.
	OutcomeClass string `json:"outcome_class"`
	// TriggerKey is the trigger that produced the prediction.
	TriggerKey string `json:"trigger_key"`
	// SupportCount is the rule support at creation time (learned mode only).
	SupportCount int `json:"support_count,omitempty"`
	// Status is the current lifecycle state.
	Status PredictionStatus `json:"status"`
	// ResolvedOffset is set once the prediction reaches a terminal state.
	ResolvedOffset *int `json:"resolved_offset,omitempty"`
	// Learned is true when the prediction came from the learned rule set.
	Learned bool `json:"learned"`
	// MessageID is the notifier message carrying the prediction, 0 if none.
	MessageID int `json:"message_id,omitempty"`
	// CreatedAt is when the prediction was admitted.
	CreatedAt time.Time `json:"created_at"`
	// ResolvedAt is when the prediction reached a terminal state.
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// Offset returns the resolved offset, or -1 while pending.
func (p *Prediction) Offset() int {
	if p.ResolvedOffset == nil {
		return -1
	}
	return *p.ResolvedOffset
}
