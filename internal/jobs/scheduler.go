// Package jobs runs the periodic work of the bot: relearn ticks, session
// reports, session-start announcements and the daily reset.
package jobs

import (
	"context"
	"log"
	"time"

	"github.com/ShayCichocki/suitpredict/pkg/models"
)

// Defaults of the schedule, in local hours of the session clock.
var (
	DefaultReportHours = []int{0, 6, 12, 18}
	DefaultStartHours  = []int{1, 9, 15, 21}
)

const (
	// DefaultInterval is how often the scheduler wakes up.
	DefaultInterval = time.Minute
	// DefaultResetAt is the local time of the daily reset, as hour*60+minute.
	DefaultResetAt = 0*60 + 59
	// DefaultResetWindow bounds how late a missed reset may still run.
	DefaultResetWindow = 10 * time.Minute
)

// Engine is the set of periodic operations the scheduler triggers.
// Each operation deduplicates itself, so calling it again in the same
// slot is harmless.
type Engine interface {
	Tick(ctx context.Context, now time.Time) bool
	SendReport(ctx context.Context, now time.Time) (models.SessionReport, bool)
	AnnounceSession(ctx context.Context, now time.Time) bool
	DailyReset(ctx context.Context, now time.Time) bool
}

// Config configures the schedule.
type Config struct {
	Interval    time.Duration
	ReportHours []int
	StartHours  []int
	// ResetAt is minutes after local midnight; negative disables the reset.
	ResetAt     int
	ResetWindow time.Duration
	Location    *time.Location
}

// DefaultConfig returns the default schedule in loc.
func DefaultConfig(loc *time.Location) Config {
	return Config{
		Interval:    DefaultInterval,
		ReportHours: DefaultReportHours,
		StartHours:  DefaultStartHours,
		ResetAt:     DefaultResetAt,
		ResetWindow: DefaultResetWindow,
		Location:    loc,
	}
}

// Scheduler fires engine operations when their slot comes up.
type Scheduler struct {
	config Config
	engine Engine
	now    func() time.Time // For testing
}

// New creates a scheduler.
func New(config Config, engine Engine) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.ResetWindow <= 0 {
		config.ResetWindow = DefaultResetWindow
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &Scheduler{config: config, engine: engine, now: time.Now}
}

// Run wakes up every interval until ctx is done. It checks once
// immediately so a restart inside a slot catches up.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.RunOnce(ctx, s.now())
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.RunOnce(ctx, s.now())
		}
	}
}

// Fired lists what a RunOnce call triggered.
type Fired struct {
	Relearned bool
	Reported  bool
	Announced bool
	Reset     bool
}

// RunOnce triggers every operation whose slot contains now.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) Fired {
	local := now.In(s.config.Location)
	var f Fired

	// Reset first so the session opening after it starts clean.
	if s.resetDue(local) {
		f.Reset = s.engine.DailyReset(ctx, now)
	}
	f.Relearned = s.engine.Tick(ctx, now)
	if containsHour(s.config.ReportHours, local.Hour()) {
		_, f.Reported = s.engine.SendReport(ctx, now)
	}
	if containsHour(s.config.StartHours, local.Hour()) {
		f.Announced = s.engine.AnnounceSession(ctx, now)
	}

	if f.Reset || f.Reported || f.Announced {
		log.Printf("[jobs] %s: reset=%v report=%v announce=%v", local.Format("15:04"), f.Reset, f.Reported, f.Announced)
	}
	return f
}

func (s *Scheduler) resetDue(local time.Time) bool {
	if s.config.ResetAt < 0 {
		return false
	}
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.config.Location)
	at := midnight.Add(time.Duration(s.config.ResetAt) * time.Minute)
	return !local.Before(at) && local.Sub(at) < s.config.ResetWindow
}

func containsHour(hours []int, h int) bool {
	for _, x := range hours {
		if x == h {
			return true
		}
	}
	return false
}
