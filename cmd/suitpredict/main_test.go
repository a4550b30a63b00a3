package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ShayCichocki/suitpredict/internal/config"
	"github.com/ShayCichocki/suitpredict/internal/notify"
	"github.com/ShayCichocki/suitpredict/internal/predict"
	"github.com/ShayCichocki/suitpredict/internal/rules"
	"github.com/ShayCichocki/suitpredict/internal/state"
)

func TestEngineConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.GapPolicy = "exactly"
	cfg.Engine.Cooldown = -1

	ec := engineConfig(cfg, rules.Default())

	if ec.Window != 50 || ec.Lag != 2 || ec.TopK != 2 || ec.MaxUses != 2 {
		t.Errorf("engine config = %+v", ec)
	}
	if ec.Predict.GapPolicy != predict.GapExactly || ec.Predict.Cooldown != -1 || ec.Predict.Lag != 2 {
		t.Errorf("predict options = %+v", ec.Predict)
	}
	if len(ec.StaticTable) != 16 || len(ec.ClassOrder) != 4 {
		t.Errorf("static table %d entries, class order %v", len(ec.StaticTable), ec.ClassOrder)
	}
}

func TestStoreOptions(t *testing.T) {
	cfg := config.Default()
	if opts := storeOptions(cfg); opts.Backend != "sqlite" || opts.Path != "" {
		t.Errorf("sqlite options = %+v", opts)
	}

	t.Setenv("XDG_DATA_HOME", "/data")
	cfg.Storage.Backend = "badger"
	if got := storeOptions(cfg).Path; got != filepath.Join("/data", "suitpredict", "badger") {
		t.Errorf("badger path = %q", got)
	}
}

func TestJobsConfig(t *testing.T) {
	cfg := config.Default()
	clock, err := newClock(cfg)
	if err != nil {
		t.Fatalf("newClock failed: %v", err)
	}

	jc, err := jobsConfig(cfg, clock)
	if err != nil {
		t.Fatalf("jobsConfig failed: %v", err)
	}
	if jc.ResetAt != 59 || jc.Location.String() != "Africa/Porto-Novo" || len(jc.StartHours) != 4 {
		t.Errorf("jobs config = %+v", jc)
	}

	cfg.Schedule.ResetAt = ""
	if jc, _ := jobsConfig(cfg, clock); jc.ResetAt != -1 {
		t.Errorf("disabled reset = %d, want -1", jc.ResetAt)
	}
}

func TestWebhookEndpoint(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://bot.example", "https://bot.example/webhook"},
		{"https://bot.example/", "https://bot.example/webhook"},
		{"https://bot.example/webhook", "https://bot.example/webhook"},
	}
	for _, tt := range tests {
		if got := webhookEndpoint(tt.in); got != tt.want {
			t.Errorf("webhookEndpoint(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetConfigValue(t *testing.T) {
	cfg := config.Default()
	cfg.Telegram.Token = "123456789:ABCdefGHIjklMNOpqrSTUvwxYZ0123456789"

	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "engine.lag", want: "2"},
		{key: "Engine.Gap_Policy", want: "at_least"},
		{key: "engine.quarantine_ttl", want: "1h0m0s"},
		{key: "schedule.report_hours", want: "0,6,12,18"},
		{key: "rules.watch", want: "true"},
		{key: "storage.path", want: "(not set)"},
		{key: "telegram.token", want: "123456789:...6789"},
		{key: "engine", wantErr: true},
		{key: "engine.nope", wantErr: true},
	}
	for _, tt := range tests {
		got, err := getConfigValue(cfg, tt.key)
		if (err != nil) != tt.wantErr {
			t.Errorf("getConfigValue(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("getConfigValue(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestParseConfigValue(t *testing.T) {
	tests := []struct {
		name    string
		current any
		raw     string
		want    string
		wantErr bool
	}{
		{name: "bool", current: true, raw: "false", want: "false"},
		{name: "bad bool", current: true, raw: "maybe", wantErr: true},
		{name: "int", current: 2, raw: "3", want: "3"},
		{name: "bad int", current: 2, raw: "x", wantErr: true},
		{name: "int list", current: []any{0, 6}, raw: "1, 9,15", want: "1,9,15"},
		{name: "bad int list", current: []any{0}, raw: "1,x", wantErr: true},
		{name: "string list", current: []any{"1-6"}, raw: "9-12,21-24", want: "9-12,21-24"},
		{name: "duration", current: "1h0m0s", raw: "30m", want: "30m"},
		{name: "bad duration", current: "1h0m0s", raw: "soon", wantErr: true},
		{name: "string", current: "at_least", raw: "exactly", want: "exactly"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseConfigValue("k", tt.current, tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && formatValue(got) != tt.want {
				t.Errorf("value = %v, want %s", got, tt.want)
			}
		})
	}
}

func TestReplayStartTime(t *testing.T) {
	loc := time.FixedZone("WAT", 3600)
	now := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC) // 00:30 on Mar 2 in WAT

	got, err := replayStartTime("", loc, now)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2026, 3, 2, 9, 0, 0, 0, loc); !got.Equal(want) {
		t.Errorf("default start = %v, want %v", got, want)
	}

	got, err = replayStartTime("2026-03-01 21:15", loc, now)
	if err != nil || got.Hour() != 21 || got.Location() != loc {
		t.Errorf("parsed start = %v, %v", got, err)
	}

	if _, err := replayStartTime("yesterday", loc, now); err == nil {
		t.Error("expected error for bad start")
	}
}

func TestReplay(t *testing.T) {
	cfg := config.Default()
	cfg.Session.Windows = []string{"0-24"}

	notifier := notify.NewLogNotifier(true)
	eng, clock, err := newEngine(cfg, state.NewMemory(), notifier, nil)
	if err != nil {
		t.Fatalf("newEngine failed: %v", err)
	}

	input := strings.Join([]string{
		"#N10. 5(A♠K♦) - 3(2♣)",
		"",
		"#N12. ✅ 7(10♥3♦) - 6(2♠)",
		"edit: #N12. ✅ 7(10♥3♦) - 6(2♠)",
	}, "\n")
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, clock.Location())

	stats, err := replay(context.Background(), eng, strings.NewReader(input), start, time.Minute)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}

	if stats.Messages != 3 || stats.Parsed != 3 {
		t.Errorf("messages=%d parsed=%d, want 3/3", stats.Messages, stats.Parsed)
	}
	if stats.Created != 1 || stats.Rejected != 1 {
		t.Errorf("created=%d rejected=%d, want 1/1 (second attempt inside cooldown)", stats.Created, stats.Rejected)
	}
	if stats.Report.Won != 1 || stats.Report.ByOffset[0] != 1 {
		t.Errorf("report = %+v, want one win at offset 0", stats.Report)
	}
	if len(notifier.Messages()) != 1 {
		t.Errorf("sent %d messages, want 1 prediction", len(notifier.Messages()))
	}
}
