package engine

import (
	"context"
	"log"
	"time"

	"github.com/ShayCichocki/suitpredict/pkg/models"
)

// RelearnResult summarises a relearn.
type RelearnResult struct {
	Rules    int
	Active   bool
	Released []string
}

// Relearn rebuilds the rule set from the pair log, refreshes the usage
// ledger and releases quarantined pairs whose support improved. force
// switches learned mode on regardless of the outcome.
func (e *Engine) Relearn(ctx context.Context, force bool) RelearnResult {
	e.mu.Lock()
	res := e.relearnLocked(force)
	snap, version := e.encodeLocked()
	e.mu.Unlock()

	e.write(version, snap)
	return res
}

func (e *Engine) relearnLocked(force bool) RelearnResult {
	rs := e.learner.Relearn(force)
	e.ledger.OnRuleSetReplaced(rs)
	released := e.ledger.ReleaseImproved(rs)
	e.clock.MarkRelearned(e.clock.Now())

	log.Printf("[engine] relearned %d rules from %d pairs (learned=%v)", rs.Len(), len(e.learner.Pairs()), e.learner.Active())
	for _, key := range released {
		log.Printf("[engine] released %s from quarantine: support improved", key)
	}
	return RelearnResult{Rules: rs.Len(), Active: e.learner.Active(), Released: released}
}

// Tick runs the periodic relearn when it is due. It reports whether a
// relearn happened.
func (e *Engine) Tick(ctx context.Context, now time.Time) bool {
	e.mu.Lock()
	if !e.clock.RelearnDue(now) {
		e.mu.Unlock()
		return false
	}
	e.relearnLocked(false)
	snap, version := e.encodeLocked()
	e.mu.Unlock()

	e.write(version, snap)
	return true
}

// markOnce records key as done and reports whether it was new. Caller holds e.mu.
func (e *Engine) markOnce(key string, now time.Time) bool {
	if _, ok := e.sent[key]; ok {
		return false
	}
	e.sent[key] = now
	return true
}

// SendReport publishes the report for the session window that closed most
// recently before now. Each hourly slot is reported at most once.
func (e *Engine) SendReport(ctx context.Context, now time.Time) (models.SessionReport, bool) {
	e.mu.Lock()
	if !e.markOnce("report:"+e.clock.ReportKey(now), now) {
		e.mu.Unlock()
		return models.SessionReport{}, false
	}
	w, start, end := e.clock.LastClosed(now)
	var preds []models.Prediction
	for _, p := range e.manager.Since(start) {
		if p.CreatedAt.Before(end) {
			preds = append(preds, p)
		}
	}
	rep := models.BuildReport(preds, now)
	label := w.String()
	snap, version := e.encodeLocked()
	e.mu.Unlock()

	e.write(version, snap)
	log.Printf("[engine] report %s: %d total, %d won, %d lost", label, rep.Total, rep.Won, rep.Lost)
	e.broadcast(ctx, e.reportText(label, rep))
	return rep, true
}

// AnnounceSession publishes the session-start message once per hourly slot.
func (e *Engine) AnnounceSession(ctx context.Context, now time.Time) bool {
	e.mu.Lock()
	if !e.markOnce("start:"+e.clock.ReportKey(now), now) {
		e.mu.Unlock()
		return false
	}
	label := e.clock.Label(now)
	snap, version := e.encodeLocked()
	e.mu.Unlock()

	e.write(version, snap)
	if e.formatter != nil {
		e.broadcast(ctx, e.formatter.SessionStartText(label))
	}
	return true
}

// DailyReset clears all learning and prediction state once per local day
// and switches learned mode back on.
func (e *Engine) DailyReset(ctx context.Context, now time.Time) bool {
	e.mu.Lock()
	key := "reset:" + e.clock.DayKey(now)
	if _, done := e.sent[key]; done {
		e.mu.Unlock()
		return false
	}
	e.resetLocked(true)
	e.sent[key] = now
	snap, version := e.encodeLocked()
	e.mu.Unlock()

	e.write(version, snap)
	log.Printf("[engine] daily reset done, learned mode on")
	return true
}

// Reset clears observations, pairs, rules, usage, quarantine, cursors,
// predictions and dedup keys, then sets learned mode to learnedActive.
func (e *Engine) Reset(ctx context.Context, learnedActive bool) {
	e.mu.Lock()
	e.resetLocked(learnedActive)
	snap, version := e.encodeLocked()
	e.mu.Unlock()

	e.write(version, snap)
	log.Printf("[engine] reset, learned mode %v", learnedActive)
}

func (e *Engine) resetLocked(learnedActive bool) {
	e.store.Reset()
	e.learner.Reset()
	e.learner.SetActive(learnedActive)
	e.ledger.Reset()
	e.selector.ResetCursors()
	e.manager.Reset()
	e.sent = make(map[string]time.Time)
}

// SetLearnedMode overrides the learned-mode flag.
func (e *Engine) SetLearnedMode(ctx context.Context, active bool) {
	e.mu.Lock()
	e.learner.SetActive(active)
	snap, version := e.encodeLocked()
	e.mu.Unlock()

	e.write(version, snap)
	log.Printf("[engine] learned mode set to %v", active)
}

// SetStaticTable replaces the static trigger → outcome table.
func (e *Engine) SetStaticTable(table map[string]string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selector.SetStatic(table)
	log.Printf("[engine] static table replaced (%d entries)", len(table))
}

// Report builds a report over every retained prediction.
func (e *Engine) Report() models.SessionReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return models.BuildReport(e.manager.History(), e.clock.Now())
}

func (e *Engine) reportText(label string, rep models.SessionReport) string {
	if e.formatter == nil {
		return ""
	}
	return e.formatter.ReportText(label, rep)
}

// broadcast sends text to the prediction channel, logging failures.
func (e *Engine) broadcast(ctx context.Context, text string) {
	if e.notifier == nil || text == "" {
		return
	}
	if _, err := e.notifier.Send(ctx, text); err != nil {
		log.Printf("[engine] warning: failed to send message: %v", err)
	}
}
