package main

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/ShayCichocki/suitpredict/internal/bot"
	"github.com/ShayCichocki/suitpredict/internal/config"
	"github.com/ShayCichocki/suitpredict/internal/engine"
	"github.com/ShayCichocki/suitpredict/internal/jobs"
	"github.com/ShayCichocki/suitpredict/internal/logging"
	"github.com/ShayCichocki/suitpredict/internal/notify"
	"github.com/ShayCichocki/suitpredict/internal/parse"
	"github.com/ShayCichocki/suitpredict/internal/predict"
	"github.com/ShayCichocki/suitpredict/internal/rules"
	"github.com/ShayCichocki/suitpredict/internal/session"
	"github.com/ShayCichocki/suitpredict/internal/state"
)

// loadConfig honours --config, falling back to the XDG and project files.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	return config.Load()
}

// engineConfig maps the engine section onto engine.Config.
func engineConfig(cfg *config.Config, table rules.Table) engine.Config {
	e := cfg.Engine
	return engine.Config{
		Window:        e.Window,
		Lag:           e.Lag,
		TopK:          e.TopK,
		MaxPairs:      e.MaxPairs,
		MaxUses:       e.MaxUses,
		QuarantineTTL: e.QuarantineTTL,
		Predict: predict.Options{
			Cooldown:           e.Cooldown,
			MinGap:             e.MinGap,
			GapPolicy:          predict.GapPolicy(e.GapPolicy),
			Lag:                e.Lag,
			StaticFailureLimit: e.StaticFailureLimit,
			MaxHistory:         e.MaxHistory,
		},
		ClassOrder:    e.ClassOrder,
		StaticTable:   table,
		LearnedActive: e.LearnedActive,
	}
}

func newClock(cfg *config.Config) (*session.Clock, error) {
	windows, err := session.ParseWindows(cfg.Session.Windows)
	if err != nil {
		return nil, fmt.Errorf("session windows: %w", err)
	}
	return session.LoadClock(cfg.Session.TimeZone, windows, cfg.Session.RelearnInterval)
}

// storeOptions resolves the storage section. A Badger store without a
// path lives next to the default SQLite file.
func storeOptions(cfg *config.Config) state.Options {
	opts := state.Options{
		Backend: cfg.Storage.Backend,
		Path:    cfg.Storage.Path,
		Driver:  cfg.Storage.Driver,
	}
	if strings.EqualFold(opts.Backend, state.BackendBadger) && opts.Path == "" {
		opts.Path = filepath.Join(filepath.Dir(state.DefaultDBPath()), "badger")
	}
	return opts
}

func openDebug(cfg *config.Config) *logging.DebugLogger {
	if cfg.Logging.DebugFile == "" {
		return logging.NopLogger()
	}
	debug, err := logging.NewDebugLogger(cfg.Logging.DebugFile)
	if err != nil {
		log.Printf("[main] warning: debug log disabled: %v", err)
		return logging.NopLogger()
	}
	return debug
}

// newEngine builds an engine over store and restores its persisted state.
func newEngine(cfg *config.Config, store state.BlobStore, notifier engine.Notifier, debug *logging.DebugLogger) (*engine.Engine, *session.Clock, error) {
	clock, err := newClock(cfg)
	if err != nil {
		return nil, nil, err
	}
	table, err := rules.LoadFile(cfg.Rules.StaticFile)
	if err != nil {
		return nil, nil, fmt.Errorf("static rules: %w", err)
	}

	eng := engine.New(engineConfig(cfg, table), engine.Deps{
		Parser:    parse.New(),
		Formatter: notify.Formatter{},
		Clock:     clock,
		Notifier:  notifier,
		Store:     store,
		Debug:     debug,
	})
	if err := eng.Load(); err != nil {
		return nil, nil, fmt.Errorf("load state: %w", err)
	}
	return eng, clock, nil
}

func jobsConfig(cfg *config.Config, clock *session.Clock) (jobs.Config, error) {
	resetAt, err := cfg.Schedule.ResetMinutes()
	if err != nil {
		return jobs.Config{}, err
	}
	jc := jobs.DefaultConfig(clock.Location())
	jc.Interval = cfg.Schedule.Interval
	jc.ReportHours = cfg.Schedule.ReportHours
	jc.StartHours = cfg.Schedule.StartHours
	jc.ResetAt = resetAt
	return jc, nil
}

func botConfig(cfg *config.Config) bot.Config {
	return bot.Config{
		SourceChatID:     cfg.Telegram.SourceChannel,
		PredictionChatID: cfg.Telegram.PredictionChannel,
		RateLimit:        cfg.Bot.RateLimit,
		RateWindow:       cfg.Bot.RateWindow,
		ReportHours:      cfg.Schedule.ReportHours,
	}
}

// webhookEndpoint appends the webhook path to the public base URL.
func webhookEndpoint(base string) string {
	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, "/webhook") {
		return base
	}
	return base + "/webhook"
}
