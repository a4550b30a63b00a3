// Package predict manages the prediction lifecycle: admission, creation
// and verification of the single in-flight prediction.
package predict

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/suitpredict/pkg/models"
)

// Admission errors. They are expected during normal operation.
var (
	// ErrSessionClosed indicates the session clock is outside every window.
	ErrSessionClosed = errors.New("session closed")
	// ErrPending indicates a prediction is already in flight.
	ErrPending = errors.New("prediction pending")
	// ErrCooldown indicates the last prediction was created too recently.
	ErrCooldown = errors.New("cooldown active")
	// ErrGap indicates the target index is too close to the previous one.
	ErrGap = errors.New("index gap not satisfied")
	// ErrNotPending indicates a verification attempt with nothing in flight.
	ErrNotPending = errors.New("no pending prediction")
)

// GapPolicy controls how the index gap between consecutive predictions is checked.
type GapPolicy string

const (
	// GapAtLeast admits targets at least MinGap after the previous target.
	GapAtLeast GapPolicy = "at_least"
	// GapExactly admits only targets exactly MinGap after the previous target.
	// Once the exact slot passes, no later target can satisfy it until a reset.
	GapExactly GapPolicy = "exactly"
)

// Valid returns true if the policy is a known value.
func (g GapPolicy) Valid() bool {
	return g == GapAtLeast || g == GapExactly
}

const (
	DefaultCooldown           = 120 * time.Second
	DefaultMinGap             = 3
	DefaultLag                = 2
	DefaultStaticFailureLimit = 2
	DefaultMaxHistory         = 500
	// MaxOffset is the closing verification step.
	MaxOffset = 2
)

// Quarantiner suspends a learned pair after a failed prediction.
type Quarantiner interface {
	Quarantine(trigger, outcome string, supportAtFailure int) models.QuarantineEntry
}

// Activator switches learned mode on and reports the support of the
// current learned rules.
type Activator interface {
	ForceActivate()
	Support(trigger, outcome string) (int, bool)
}

// Options configures a Manager. Zero fields use the defaults.
type Options struct {
	// Cooldown between creations. Negative disables it.
	Cooldown           time.Duration
	MinGap             int
	GapPolicy          GapPolicy
	Lag                int
	StaticFailureLimit int
	MaxHistory         int
}

func (o Options) withDefaults() Options {
	if o.Cooldown < 0 {
		o.Cooldown = 0
	} else if o.Cooldown == 0 {
		o.Cooldown = DefaultCooldown
	}
	if o.MinGap <= 0 {
		o.MinGap = DefaultMinGap
	}
	if !o.GapPolicy.Valid() {
		o.GapPolicy = GapAtLeast
	}
	if o.Lag <= 0 {
		o.Lag = DefaultLag
	}
	if o.StaticFailureLimit <= 0 {
		o.StaticFailureLimit = DefaultStaticFailureLimit
	}
	if o.MaxHistory <= 0 {
		o.MaxHistory = DefaultMaxHistory
	}
	return o
}

// Candidate is what the selector chose for a new prediction.
type Candidate struct {
	SourceIndex  int
	TriggerKey   string
	OutcomeClass string
	SupportCount int
	Learned      bool
}

// Resolution describes a terminal transition produced by Verify.
type Resolution struct {
	Prediction models.Prediction
	// Quarantined is set when a learned loss suspended its pair.
	Quarantined *models.QuarantineEntry
	// ForcedLearned is true when consecutive static losses switched mode.
	ForcedLearned bool
}

// State is the persisted form of the manager.
type State struct {
	History        []models.Prediction `json:"history"`
	LastCreatedAt  time.Time           `json:"last_created_at"`
	LastTarget     int                 `json:"last_target"`
	HasLast        bool                `json:"has_last"`
	StaticFailures int                 `json:"static_failures"`
}

// Manager owns prediction history and the single pending prediction.
// It is not safe for concurrent use; the engine serializes access.
type Manager struct {
	opts        Options
	history     []models.Prediction
	pending     int // index into history, -1 when none
	lastCreated time.Time
	lastTarget  int
	hasLast     bool
	staticFails int
	quarantiner Quarantiner
	activator   Activator
	now         func() time.Time // For testing
}

// NewManager creates a manager. q and a may be nil.
func NewManager(opts Options, q Quarantiner, a Activator) *Manager {
	return &Manager{
		opts:        opts.withDefaults(),
		pending:     -1,
		quarantiner: q,
		activator:   a,
		now:         time.Now,
	}
}

// SetClock replaces the time source.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// Options returns the effective options.
func (m *Manager) Options() Options {
	return m.opts
}

// Admit checks whether a prediction triggered at sourceIndex may be created.
func (m *Manager) Admit(sourceIndex int, sessionActive bool) error {
	if !sessionActive {
		return ErrSessionClosed
	}
	if m.pending >= 0 {
		return fmt.Errorf("%w: target %d", ErrPending, m.history[m.pending].TargetIndex)
	}
	if m.hasLast {
		if elapsed := m.now().Sub(m.lastCreated); elapsed < m.opts.Cooldown {
			return fmt.Errorf("%w: %s remaining", ErrCooldown, (m.opts.Cooldown - elapsed).Round(time.Second))
		}
		target := sourceIndex + m.opts.Lag
		gap := target - m.lastTarget
		switch m.opts.GapPolicy {
		case GapExactly:
			if gap != m.opts.MinGap {
				return fmt.Errorf("%w: gap %d, need exactly %d", ErrGap, gap, m.opts.MinGap)
			}
		default:
			if gap < m.opts.MinGap {
				return fmt.Errorf("%w: gap %d, need at least %d", ErrGap, gap, m.opts.MinGap)
			}
		}
	}
	return nil
}

// Create admits and stores a new pending prediction.
func (m *Manager) Create(c Candidate, sessionActive bool) (models.Prediction, error) {
	if err := m.Admit(c.SourceIndex, sessionActive); err != nil {
		return models.Prediction{}, err
	}
	now := m.now()
	p := models.Prediction{
		ID:           uuid.New().String(),
		SourceIndex:  c.SourceIndex,
		TargetIndex:  c.SourceIndex + m.opts.Lag,
		OutcomeClass: c.OutcomeClass,
		TriggerKey:   c.TriggerKey,
		SupportCount: c.SupportCount,
		Status:       models.PredictionPending,
		Learned:      c.Learned,
		CreatedAt:    now,
	}
	m.history = append(m.history, p)
	m.pending = len(m.history) - 1
	m.lastCreated = now
	m.lastTarget = p.TargetIndex
	m.hasLast = true
	m.trim()
	return p, nil
}

// Verify checks the pending prediction against a final result at seq.
// It returns nil when nothing resolved.
func (m *Manager) Verify(seq int, outcomes []string) *Resolution {
	if m.pending < 0 {
		return nil
	}
	p := &m.history[m.pending]
	offset := seq - p.TargetIndex
	if offset < 0 {
		return nil
	}

	hit := contains(outcomes, p.OutcomeClass)
	var status models.PredictionStatus
	switch {
	case offset < MaxOffset:
		if !hit {
			return nil
		}
		status = models.PredictionWon
	case offset == MaxOffset:
		status = models.PredictionLost
		if hit {
			status = models.PredictionWon
		}
	default:
		status = models.PredictionLost
	}

	now := m.now()
	p.Status = status
	p.ResolvedOffset = &offset
	p.ResolvedAt = &now
	m.pending = -1

	res := &Resolution{Prediction: *p}
	if status == models.PredictionWon {
		m.staticFails = 0
		return res
	}

	if p.Learned {
		if m.quarantiner != nil {
			q := m.quarantiner.Quarantine(p.TriggerKey, p.OutcomeClass, m.supportAtFailure(*p))
			res.Quarantined = &q
		}
		return res
	}

	m.staticFails++
	if m.staticFails >= m.opts.StaticFailureLimit {
		m.staticFails = 0
		if m.activator != nil {
			m.activator.ForceActivate()
		}
		res.ForcedLearned = true
	}
	return res
}

// supportAtFailure is the pair's support in the current rule set, falling
// back to the support at creation once the rule has left the set.
func (m *Manager) supportAtFailure(p models.Prediction) int {
	if m.activator != nil {
		if n, ok := m.activator.Support(p.TriggerKey, p.OutcomeClass); ok {
			return n
		}
	}
	return p.SupportCount
}

// SetMessageID records the notifier message carrying prediction id.
func (m *Manager) SetMessageID(id string, messageID int) bool {
	for i := len(m.history) - 1; i >= 0; i-- {
		if m.history[i].ID == id {
			m.history[i].MessageID = messageID
			return true
		}
	}
	return false
}

// Pending returns the in-flight prediction.
func (m *Manager) Pending() (models.Prediction, bool) {
	if m.pending < 0 {
		return models.Prediction{}, false
	}
	return m.history[m.pending], true
}

// History returns a copy of all retained predictions, oldest first.
func (m *Manager) History() []models.Prediction {
	return append([]models.Prediction(nil), m.history...)
}

// Since returns retained predictions created at or after t.
func (m *Manager) Since(t time.Time) []models.Prediction {
	var out []models.Prediction
	for _, p := range m.history {
		if !p.CreatedAt.Before(t) {
			out = append(out, p)
		}
	}
	return out
}

// StaticFailures returns the consecutive static loss count.
func (m *Manager) StaticFailures() int {
	return m.staticFails
}

// State returns the persisted form.
func (m *Manager) State() State {
	return State{
		History:        m.History(),
		LastCreatedAt:  m.lastCreated,
		LastTarget:     m.lastTarget,
		HasLast:        m.hasLast,
		StaticFailures: m.staticFails,
	}
}

// Restore reloads persisted state. Only the newest pending record stays
// pending; any older one is resolved lost so at most one is in flight.
func (m *Manager) Restore(s State) {
	m.history = append([]models.Prediction(nil), s.History...)
	m.lastCreated = s.LastCreatedAt
	m.lastTarget = s.LastTarget
	m.hasLast = s.HasLast
	m.staticFails = s.StaticFailures
	m.pending = -1
	for i := len(m.history) - 1; i >= 0; i-- {
		if m.history[i].Status != models.PredictionPending {
			continue
		}
		if m.pending < 0 {
			m.pending = i
			continue
		}
		now := m.now()
		m.history[i].Status = models.PredictionLost
		m.history[i].ResolvedAt = &now
	}
	m.trim()
}

// Reset drops history, the pending prediction and every counter.
func (m *Manager) Reset() {
	m.history = nil
	m.pending = -1
	m.lastCreated = time.Time{}
	m.lastTarget = 0
	m.hasLast = false
	m.staticFails = 0
}

// trim bounds history without dropping the pending record.
func (m *Manager) trim() {
	over := len(m.history) - m.opts.MaxHistory
	if over <= 0 {
		return
	}
	if m.pending >= 0 && m.pending < over {
		over = m.pending
	}
	m.history = append([]models.Prediction(nil), m.history[over:]...)
	if m.pending >= 0 {
		m.pending -= over
	}
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
