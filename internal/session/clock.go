// Package session decides when predictions may be made and names the
// session windows used by reports and announcements.
package session

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTimeZone is the zone the session hours are expressed in.
	DefaultTimeZone = "Africa/Porto-Novo"
	// DefaultRelearnInterval gates the periodic relearn.
	DefaultRelearnInterval = 10 * time.Minute
)

// Window is an hour range [StartHour, EndHour) in the clock's zone.
type Window struct {
	StartHour int `json:"start_hour" mapstructure:"start_hour"`
	EndHour   int `json:"end_hour" mapstructure:"end_hour"`
}

// DefaultWindows are the four daily prediction sessions.
var DefaultWindows = []Window{{1, 6}, {9, 12}, {15, 18}, {21, 24}}

// Contains reports whether hour falls in the window.
func (w Window) Contains(hour int) bool {
	return hour >= w.StartHour && hour < w.EndHour
}

// String renders the window as "01h-06h".
func (w Window) String() string {
	return fmt.Sprintf("%02dh-%02dh", w.StartHour, w.EndHour)
}

// ParseWindow parses "start-end" hour ranges such as "21-24".
func ParseWindow(s string) (Window, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 {
		return Window{}, fmt.Errorf("invalid window %q: expected start-end", s)
	}
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Window{}, fmt.Errorf("invalid window start %q: %w", parts[0], err)
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Window{}, fmt.Errorf("invalid window end %q: %w", parts[1], err)
	}
	if start < 0 || end > 24 || start >= end {
		return Window{}, fmt.Errorf("invalid window %q: need 0 <= start < end <= 24", s)
	}
	return Window{StartHour: start, EndHour: end}, nil
}

// ParseWindows parses a list of "start-end" ranges.
func ParseWindows(specs []string) ([]Window, error) {
	out := make([]Window, 0, len(specs))
	for _, s := range specs {
		w, err := ParseWindow(s)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

// Clock answers session questions in a fixed time zone.
// It is not safe for concurrent use; the engine serializes access.
type Clock struct {
	loc             *time.Location
	windows         []Window
	relearnInterval time.Duration
	lastRelearn     time.Time
	now             func() time.Time // For testing
}

// NewClock creates a clock. Empty windows use DefaultWindows.
func NewClock(loc *time.Location, windows []Window, relearnInterval time.Duration) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	if len(windows) == 0 {
		windows = DefaultWindows
	}
	if relearnInterval <= 0 {
		relearnInterval = DefaultRelearnInterval
	}
	ws := append([]Window(nil), windows...)
	sort.Slice(ws, func(i, j int) bool { return ws[i].StartHour < ws[j].StartHour })
	return &Clock{
		loc:             loc,
		windows:         ws,
		relearnInterval: relearnInterval,
		now:             time.Now,
	}
}

// LoadClock resolves zone by name and creates a clock.
func LoadClock(zone string, windows []Window, relearnInterval time.Duration) (*Clock, error) {
	if zone == "" {
		zone = DefaultTimeZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", zone, err)
	}
	return NewClock(loc, windows, relearnInterval), nil
}

// SetClock replaces the time source.
func (c *Clock) SetClock(now func() time.Time) {
	c.now = now
}

// Now returns the current time in the clock's zone.
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// Location returns the clock's zone.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Windows returns the configured windows ordered by start hour.
func (c *Clock) Windows() []Window {
	return append([]Window(nil), c.windows...)
}

// WindowAt returns the window containing t.
func (c *Clock) WindowAt(t time.Time) (Window, bool) {
	h := t.In(c.loc).Hour()
	for _, w := range c.windows {
		if w.Contains(h) {
			return w, true
		}
	}
	return Window{}, false
}

// IsActiveWindow reports whether predictions are allowed at t.
func (c *Clock) IsActiveWindow(t time.Time) bool {
	_, ok := c.WindowAt(t)
	return ok
}

// Label names the session at t, or "closed".
func (c *Clock) Label(t time.Time) string {
	if w, ok := c.WindowAt(t); ok {
		return w.String()
	}
	return "closed"
}

// RelearnDue reports whether the relearn interval has elapsed at t.
func (c *Clock) RelearnDue(t time.Time) bool {
	return c.lastRelearn.IsZero() || t.Sub(c.lastRelearn) >= c.relearnInterval
}

// MarkRelearned records a relearn at t.
func (c *Clock) MarkRelearned(t time.Time) {
	c.lastRelearn = t
}

// LastRelearn returns the time of the last relearn, zero if none.
func (c *Clock) LastRelearn() time.Time {
	return c.lastRelearn
}

// ReportKey is the dedup key of the hourly slot containing t.
func (c *Clock) ReportKey(t time.Time) string {
	return t.In(c.loc).Format("2006-01-02T15")
}

// DayKey is the dedup key of the local day containing t.
func (c *Clock) DayKey(t time.Time) string {
	return t.In(c.loc).Format("2006-01-02")
}

// LastClosed returns the most recent window that ended at or before t
// and its local start and end times. It looks back one day.
func (c *Clock) LastClosed(t time.Time) (Window, time.Time, time.Time) {
	local := t.In(c.loc)
	y, m, d := local.Date()
	var (
		best               Window
		bestStart, bestEnd time.Time
	)
	for day := 0; day >= -1; day-- {
		base := time.Date(y, m, d+day, 0, 0, 0, 0, c.loc)
		for _, w := range c.windows {
			end := base.Add(time.Duration(w.EndHour) * time.Hour)
			if end.After(local) {
				continue
			}
			if bestEnd.IsZero() || end.After(bestEnd) {
				best = w
				bestStart = base.Add(time.Duration(w.StartHour) * time.Hour)
				bestEnd = end
			}
		}
		if !bestEnd.IsZero() {
			break
		}
	}
	return best, bestStart, bestEnd
}
