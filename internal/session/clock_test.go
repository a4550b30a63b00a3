package session

import (
	"testing"
	"time"
)

func fixedZone() *time.Location {
	return time.FixedZone("WAT", 3600)
}

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 1, hour, min, 0, 0, fixedZone())
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		in      string
		want    Window
		wantErr bool
	}{
		{"1-6", Window{1, 6}, false},
		{" 21 - 24 ", Window{21, 24}, false},
		{"6-1", Window{}, true},
		{"0-25", Window{}, true},
		{"nine", Window{}, true},
		{"a-3", Window{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWindow(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWindow(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseWindow(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsActiveWindow(t *testing.T) {
	c := NewClock(fixedZone(), nil, 0)

	tests := []struct {
		hour int
		want bool
	}{
		{0, false}, {1, true}, {5, true}, {6, false},
		{9, true}, {12, false}, {15, true}, {18, false},
		{21, true}, {23, true},
	}
	for _, tt := range tests {
		if got := c.IsActiveWindow(at(tt.hour, 30)); got != tt.want {
			t.Errorf("IsActiveWindow(%02d:30) = %v, want %v", tt.hour, got, tt.want)
		}
	}
}

func TestIsActiveWindow_ConvertsZone(t *testing.T) {
	c := NewClock(fixedZone(), nil, 0)
	// 00:30 UTC is 01:30 WAT.
	utc := time.Date(2026, 3, 1, 0, 30, 0, 0, time.UTC)
	if !c.IsActiveWindow(utc) {
		t.Error("00:30 UTC should be inside the 01h-06h session")
	}
}

func TestLabel(t *testing.T) {
	c := NewClock(fixedZone(), nil, 0)
	if got := c.Label(at(10, 0)); got != "09h-12h" {
		t.Errorf("Label() = %q, want 09h-12h", got)
	}
	if got := c.Label(at(7, 0)); got != "closed" {
		t.Errorf("Label() = %q, want closed", got)
	}
}

func TestRelearnDue(t *testing.T) {
	c := NewClock(fixedZone(), nil, 10*time.Minute)
	start := at(10, 0)

	if !c.RelearnDue(start) {
		t.Fatal("first relearn should be due")
	}
	c.MarkRelearned(start)
	if c.RelearnDue(start.Add(9 * time.Minute)) {
		t.Error("relearn should not be due before the interval")
	}
	if !c.RelearnDue(start.Add(10 * time.Minute)) {
		t.Error("relearn should be due at the interval")
	}
}

func TestLastClosed(t *testing.T) {
	c := NewClock(fixedZone(), nil, 0)

	tests := []struct {
		name      string
		now       time.Time
		want      Window
		wantStart time.Time
	}{
		{"report at 06", at(6, 0), Window{1, 6}, at(1, 0)},
		{"report at 12", at(12, 0), Window{9, 12}, at(9, 0)},
		{"midnight looks back a day", at(0, 0), Window{21, 24}, at(21, 0).AddDate(0, 0, -1)},
		{"mid session picks previous", at(16, 0), Window{9, 12}, at(9, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, start, _ := c.LastClosed(tt.now)
			if w != tt.want {
				t.Errorf("LastClosed() window = %v, want %v", w, tt.want)
			}
			if !start.Equal(tt.wantStart) {
				t.Errorf("LastClosed() start = %v, want %v", start, tt.wantStart)
			}
		})
	}
}

func TestReportKey(t *testing.T) {
	c := NewClock(fixedZone(), nil, 0)
	if got := c.ReportKey(at(18, 2)); got != "2026-03-01T18" {
		t.Errorf("ReportKey() = %q", got)
	}
}

func TestLoadClock(t *testing.T) {
	if _, err := LoadClock("Not/AZone", nil, 0); err == nil {
		t.Error("LoadClock() should fail for an unknown zone")
	}
	c, err := LoadClock("UTC", []Window{{9, 12}}, 0)
	if err != nil {
		t.Fatalf("LoadClock() error = %v", err)
	}
	if len(c.Windows()) != 1 {
		t.Errorf("Windows() = %v", c.Windows())
	}
}
