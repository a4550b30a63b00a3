// Package engine owns the prediction aggregate: the observation window,
// the learner, the usage ledger, the rule selector and the prediction
// lifecycle. Every mutation runs under a single lock; notifications and
// persistence happen after the lock is released.
package engine

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/ShayCichocki/suitpredict/internal/ledger"
	"github.com/ShayCichocki/suitpredict/internal/learning"
	"github.com/ShayCichocki/suitpredict/internal/logging"
	"github.com/ShayCichocki/suitpredict/internal/observe"
	"github.com/ShayCichocki/suitpredict/internal/predict"
	"github.com/ShayCichocki/suitpredict/internal/selector"
	"github.com/ShayCichocki/suitpredict/internal/session"
	"github.com/ShayCichocki/suitpredict/internal/state"
	"github.com/ShayCichocki/suitpredict/pkg/models"
)

// Parser extracts the engine inputs from a message.
type Parser interface {
	SequenceIndex(text string) (int, bool)
	TriggerCandidates(text string) []string
	OutcomeSet(text string) []string
	Observation(text string) (trigger, outcome string, ok bool)
	IsFinal(text string) bool
}

// Notifier publishes prediction messages.
type Notifier interface {
	Send(ctx context.Context, text string) (int, error)
	Edit(ctx context.Context, messageID int, text string) error
}

// Formatter renders outbound texts.
type Formatter interface {
	PredictionText(p models.Prediction) string
	ResolvedText(p models.Prediction) string
	ReportText(label string, r models.SessionReport) string
	SessionStartText(label string) string
}

// Config holds the engine tunables. Zero values use package defaults.
type Config struct {
	Window        int
	Lag           int
	TopK          int
	MaxPairs      int
	MaxUses       int
	QuarantineTTL time.Duration
	Predict       predict.Options
	ClassOrder    []string
	StaticTable   map[string]string
	// LearnedActive is the learned-mode flag used when nothing is persisted.
	LearnedActive bool
}

// Deps are the collaborators of the engine. Store, Notifier and Debug may be nil.
type Deps struct {
	Parser    Parser
	Formatter Formatter
	Clock     *session.Clock
	Notifier  Notifier
	Store     state.BlobStore
	Debug     *logging.DebugLogger
}

// Message is one inbound result message.
type Message struct {
	ChatID int64
	Text   string
	Edited bool
	At     time.Time
}

// HandleResult reports what a message changed.
type HandleResult struct {
	SequenceIndex int
	Parsed        bool
	Observed      bool
	Corrected     bool
	Pair          *models.DerivedPair
	Resolved      *predict.Resolution
	Created       *models.Prediction
	// Rejected is the admission error when a candidate existed but creation was refused.
	Rejected error
}

// Engine is the single owned aggregate.
type Engine struct {
	mu       sync.Mutex
	cfg      Config
	store    *observe.Store
	learner  *learning.Learner
	ledger   *ledger.Ledger
	selector *selector.Selector
	manager  *predict.Manager
	clock    *session.Clock

	parser    Parser
	formatter Formatter
	notifier  Notifier
	debug     *logging.DebugLogger

	sent map[string]time.Time // dedup keys of reports, announcements and resets

	persist      state.BlobStore
	version      uint64
	saveMu       sync.Mutex
	savedVersion uint64
}

// New wires an engine from its configuration and collaborators.
func New(cfg Config, deps Deps) *Engine {
	if deps.Clock == nil {
		deps.Clock = session.NewClock(nil, nil, 0)
	}
	learner := learning.NewLearner(cfg.TopK, cfg.MaxPairs, cfg.LearnedActive)
	led := ledger.New(cfg.MaxUses, cfg.QuarantineTTL)
	predictOpts := cfg.Predict
	if predictOpts.Lag == 0 {
		predictOpts.Lag = cfg.Lag
	}
	e := &Engine{
		cfg:       cfg,
		store:     observe.NewStore(cfg.Window, cfg.Lag, learner),
		learner:   learner,
		ledger:    led,
		selector:  selector.New(cfg.ClassOrder, cfg.StaticTable),
		manager:   predict.NewManager(predictOpts, led, learner),
		clock:     deps.Clock,
		parser:    deps.Parser,
		formatter: deps.Formatter,
		notifier:  deps.Notifier,
		debug:     deps.Debug,
		persist:   deps.Store,
		sent:      make(map[string]time.Time),
	}
	return e
}

// SetClock replaces the time source of every component.
func (e *Engine) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clock.SetClock(now)
	e.learner.SetClock(now)
	e.ledger.SetClock(now)
	e.manager.SetClock(now)
}

// HandleMessage ingests one result message: it records the observation,
// verifies the pending prediction on final results and, for new messages,
// tries to create the next prediction.
func (e *Engine) HandleMessage(ctx context.Context, msg Message) HandleResult {
	var res HandleResult
	if e.parser == nil {
		return res
	}

	e.mu.Lock()
	seq, ok := e.parser.SequenceIndex(msg.Text)
	if !ok {
		e.mu.Unlock()
		return res
	}
	res.SequenceIndex = seq
	res.Parsed = true

	at := msg.At
	if at.IsZero() {
		at = e.clock.Now()
	}

	if trigger, outcome, ok := e.parser.Observation(msg.Text); ok {
		rec := e.store.Record(seq, trigger, outcome, at)
		res.Observed = rec.Stored
		res.Corrected = rec.Corrected
		res.Pair = rec.Pair
	}

	if e.parser.IsFinal(msg.Text) {
		res.Resolved = e.manager.Verify(seq, e.parser.OutcomeSet(msg.Text))
		if r := res.Resolved; r != nil {
			log.Printf("[engine] prediction %d→%s %s at offset %d", r.Prediction.TargetIndex, r.Prediction.OutcomeClass, r.Prediction.Status, r.Prediction.Offset())
			if r.Quarantined != nil {
				log.Printf("[engine] quarantined %s until %s", r.Quarantined.Key(), r.Quarantined.ExpiresAt.Format(time.RFC3339))
			}
			if r.ForcedLearned {
				log.Printf("[engine] static rules failing, learned mode forced on")
			}
		}
	}

	if !msg.Edited {
		res.Created, res.Rejected = e.tryPredict(seq, msg.Text)
	}

	changed := res.Observed || res.Resolved != nil || res.Created != nil
	var snap []byte
	var version uint64
	if changed {
		snap, version = e.encodeLocked()
	}
	e.mu.Unlock()

	if snap != nil {
		e.write(version, snap)
	}

	if r := res.Resolved; r != nil {
		e.publishResolution(ctx, r.Prediction)
	}
	if p := res.Created; p != nil {
		e.publishPrediction(ctx, *p)
	}
	return res
}

// tryPredict runs admission, selection and creation. Caller holds e.mu.
func (e *Engine) tryPredict(seq int, text string) (*models.Prediction, error) {
	candidates := e.parser.TriggerCandidates(text)
	if len(candidates) == 0 {
		return nil, nil
	}

	active := e.clock.IsActiveWindow(e.clock.Now())
	if err := e.manager.Admit(seq, active); err != nil {
		e.debug.Log("admission rejected at %d: %v", seq, err)
		return nil, err
	}

	learned := e.learner.Active()
	choice, ok := e.selector.Select(candidates, e.learner.Rules(), learned, e.ledger)
	if !ok {
		e.debug.Log("no usable rule at %d (learned=%v, candidates=%v)", seq, learned, candidates)
		return nil, nil
	}

	p, err := e.manager.Create(predict.Candidate{
		SourceIndex:  seq,
		TriggerKey:   choice.TriggerKey,
		OutcomeClass: choice.OutcomeClass,
		SupportCount: choice.SupportCount,
		Learned:      choice.Learned,
	}, active)
	if err != nil {
		e.debug.Log("creation rejected at %d: %v", seq, err)
		return nil, err
	}
	if choice.Learned {
		e.ledger.RecordUse(choice.TriggerKey)
	}
	log.Printf("[engine] predicted %s at %d from %s (learned=%v)", p.OutcomeClass, p.TargetIndex, p.TriggerKey, p.Learned)
	return &p, nil
}

// publishPrediction sends the prediction text and attaches the message ID.
func (e *Engine) publishPrediction(ctx context.Context, p models.Prediction) {
	if e.notifier == nil || e.formatter == nil {
		return
	}
	id, err := e.notifier.Send(ctx, e.formatter.PredictionText(p))
	if err != nil {
		log.Printf("[engine] warning: failed to send prediction %d: %v", p.TargetIndex, err)
		return
	}

	e.mu.Lock()
	var resolved *models.Prediction
	if e.manager.SetMessageID(p.ID, id) {
		// Verification may have run while the send was in flight.
		for _, h := range e.manager.History() {
			if h.ID == p.ID && h.Status.Terminal() {
				h := h
				resolved = &h
			}
		}
	}
	snap, version := e.encodeLocked()
	e.mu.Unlock()
	e.write(version, snap)

	if resolved != nil {
		e.publishResolution(ctx, *resolved)
	}
}

// publishResolution edits the prediction message in place.
func (e *Engine) publishResolution(ctx context.Context, p models.Prediction) {
	if e.notifier == nil || e.formatter == nil {
		return
	}
	if p.MessageID == 0 {
		e.debug.Log("prediction %s resolved before its message was sent", p.ID)
		return
	}
	if err := e.notifier.Edit(ctx, p.MessageID, e.formatter.ResolvedText(p)); err != nil {
		log.Printf("[engine] warning: failed to edit prediction %d: %v", p.TargetIndex, err)
	}
}

// IsAdmissionRejection reports whether err is an expected admission refusal.
func IsAdmissionRejection(err error) bool {
	return errors.Is(err, predict.ErrPending) ||
		errors.Is(err, predict.ErrCooldown) ||
		errors.Is(err, predict.ErrGap) ||
		errors.Is(err, predict.ErrSessionClosed)
}
