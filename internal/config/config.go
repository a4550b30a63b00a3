// Package config handles configuration loading and management for suitpredict.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SUITPREDICT_ENGINE_LAG.
const EnvPrefix = "SUITPREDICT"

// Config holds all configuration for suitpredict.
type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram" yaml:"telegram"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Engine   EngineConfig   `mapstructure:"engine" yaml:"engine"`
	Session  SessionConfig  `mapstructure:"session" yaml:"session"`
	Schedule ScheduleConfig `mapstructure:"schedule" yaml:"schedule"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Rules    RulesConfig    `mapstructure:"rules" yaml:"rules"`
	Bot      BotConfig      `mapstructure:"bot" yaml:"bot"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	TUI      TUIConfig      `mapstructure:"tui" yaml:"tui"`
}

// TelegramConfig holds Bot API settings.
type TelegramConfig struct {
	Token             string        `mapstructure:"token" yaml:"token"`
	APIURL            string        `mapstructure:"api_url" yaml:"api_url"`
	SourceChannel     int64         `mapstructure:"source_channel" yaml:"source_channel"`
	PredictionChannel int64         `mapstructure:"prediction_channel" yaml:"prediction_channel"`
	WebhookURL        string        `mapstructure:"webhook_url" yaml:"webhook_url"`
	WebhookSecret     string        `mapstructure:"webhook_secret" yaml:"webhook_secret"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// EngineConfig holds the learning and prediction tunables.
type EngineConfig struct {
	Window        int           `mapstructure:"window" yaml:"window"`
	Lag           int           `mapstructure:"lag" yaml:"lag"`
	TopK          int           `mapstructure:"top_k" yaml:"top_k"`
	MaxPairs      int           `mapstructure:"max_pairs" yaml:"max_pairs"`
	MaxUses       int           `mapstructure:"max_uses" yaml:"max_uses"`
	QuarantineTTL time.Duration `mapstructure:"quarantine_ttl" yaml:"quarantine_ttl"`
	// Cooldown between predictions; negative disables it.
	Cooldown           time.Duration `mapstructure:"cooldown" yaml:"cooldown"`
	MinGap             int           `mapstructure:"min_gap" yaml:"min_gap"`
	GapPolicy          string        `mapstructure:"gap_policy" yaml:"gap_policy"`
	StaticFailureLimit int           `mapstructure:"static_failure_limit" yaml:"static_failure_limit"`
	MaxHistory         int           `mapstructure:"max_history" yaml:"max_history"`
	ClassOrder         []string      `mapstructure:"class_order" yaml:"class_order"`
	LearnedActive      bool          `mapstructure:"learned_active" yaml:"learned_active"`
}

// SessionConfig holds the session clock settings.
type SessionConfig struct {
	TimeZone        string        `mapstructure:"time_zone" yaml:"time_zone"`
	Windows         []string      `mapstructure:"windows" yaml:"windows"`
	RelearnInterval time.Duration `mapstructure:"relearn_interval" yaml:"relearn_interval"`
}

// ScheduleConfig holds the periodic job settings.
type ScheduleConfig struct {
	Interval    time.Duration `mapstructure:"interval" yaml:"interval"`
	ReportHours []int         `mapstructure:"report_hours" yaml:"report_hours"`
	StartHours  []int         `mapstructure:"start_hours" yaml:"start_hours"`
	// ResetAt is the local "HH:MM" of the daily reset; empty disables it.
	ResetAt string `mapstructure:"reset_at" yaml:"reset_at"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
	Path    string `mapstructure:"path" yaml:"path"`
	Driver  string `mapstructure:"driver" yaml:"driver"`
}

// RulesConfig holds the static table settings.
type RulesConfig struct {
	StaticFile string `mapstructure:"static_file" yaml:"static_file"`
	Watch      bool   `mapstructure:"watch" yaml:"watch"`
}

// BotConfig holds command handling settings.
type BotConfig struct {
	RateLimit  int           `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateWindow time.Duration `mapstructure:"rate_window" yaml:"rate_window"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	DebugFile string `mapstructure:"debug_file" yaml:"debug_file"`
}

// TUIConfig holds dashboard settings.
type TUIConfig struct {
	RefreshRate time.Duration `mapstructure:"refresh_rate" yaml:"refresh_rate"`
	StatusURL   string        `mapstructure:"status_url" yaml:"status_url"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (SUITPREDICT_*, BOT_TOKEN, WEBHOOK_URL, PORT)
// 2. Project config (.suitpredict.yaml in current directory or parent)
// 3. User config (~/.config/suitpredict/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	bindEnv(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Telegram.Token = expandEnv(cfg.Telegram.Token)
	cfg.Telegram.WebhookSecret = expandEnv(cfg.Telegram.WebhookSecret)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindEnv maps environment overrides. Hosting platforms set the bare
// BOT_TOKEN, WEBHOOK_URL and PORT names.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("telegram.token", EnvPrefix+"_TELEGRAM_TOKEN", "BOT_TOKEN")
	v.BindEnv("telegram.webhook_url", EnvPrefix+"_TELEGRAM_WEBHOOK_URL", "WEBHOOK_URL")
	v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Engine.MinGap < 3 {
		return fmt.Errorf("engine.min_gap must be at least 3, got %d", c.Engine.MinGap)
	}
	switch c.Engine.GapPolicy {
	case "at_least", "exactly":
	default:
		return fmt.Errorf("engine.gap_policy must be at_least or exactly, got %q", c.Engine.GapPolicy)
	}
	if c.Engine.Lag < 1 {
		return fmt.Errorf("engine.lag must be positive, got %d", c.Engine.Lag)
	}
	if c.Engine.TopK < 1 {
		return fmt.Errorf("engine.top_k must be positive, got %d", c.Engine.TopK)
	}
	if _, err := c.Schedule.ResetMinutes(); err != nil {
		return err
	}
	for _, h := range append(append([]int(nil), c.Schedule.ReportHours...), c.Schedule.StartHours...) {
		if h < 0 || h > 23 {
			return fmt.Errorf("schedule hour %d out of range", h)
		}
	}
	return nil
}

// ResetMinutes returns the reset time as minutes after midnight, or -1
// when the reset is disabled.
func (s ScheduleConfig) ResetMinutes() (int, error) {
	if s.ResetAt == "" {
		return -1, nil
	}
	hh, mm, ok := strings.Cut(s.ResetAt, ":")
	if !ok {
		return 0, fmt.Errorf("schedule.reset_at %q: want HH:MM", s.ResetAt)
	}
	h, err1 := strconv.Atoi(hh)
	m, err2 := strconv.Atoi(mm)
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("schedule.reset_at %q: want HH:MM", s.ResetAt)
	}
	return h*60 + m, nil
}

// Save writes a single key to the user config file, creating it if needed.
func Save(key string, value interface{}) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)
	if _, err := os.Stat(configPath); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading %s: %w", configPath, err)
		}
	}
	v.Set(key, value)
	return v.WriteConfigAs(configPath)
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.api_url", d.Telegram.APIURL)
	v.SetDefault("telegram.source_channel", d.Telegram.SourceChannel)
	v.SetDefault("telegram.prediction_channel", d.Telegram.PredictionChannel)
	v.SetDefault("telegram.webhook_url", "")
	v.SetDefault("telegram.webhook_secret", "")
	v.SetDefault("telegram.timeout", d.Telegram.Timeout.String())

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)

	v.SetDefault("engine.window", d.Engine.Window)
	v.SetDefault("engine.lag", d.Engine.Lag)
	v.SetDefault("engine.top_k", d.Engine.TopK)
	v.SetDefault("engine.max_pairs", d.Engine.MaxPairs)
	v.SetDefault("engine.max_uses", d.Engine.MaxUses)
	v.SetDefault("engine.quarantine_ttl", d.Engine.QuarantineTTL.String())
	v.SetDefault("engine.cooldown", d.Engine.Cooldown.String())
	v.SetDefault("engine.min_gap", d.Engine.MinGap)
	v.SetDefault("engine.gap_policy", d.Engine.GapPolicy)
	v.SetDefault("engine.static_failure_limit", d.Engine.StaticFailureLimit)
	v.SetDefault("engine.max_history", d.Engine.MaxHistory)
	v.SetDefault("engine.class_order", d.Engine.ClassOrder)
	v.SetDefault("engine.learned_active", d.Engine.LearnedActive)

	v.SetDefault("session.time_zone", d.Session.TimeZone)
	v.SetDefault("session.windows", d.Session.Windows)
	v.SetDefault("session.relearn_interval", d.Session.RelearnInterval.String())

	v.SetDefault("schedule.interval", d.Schedule.Interval.String())
	v.SetDefault("schedule.report_hours", d.Schedule.ReportHours)
	v.SetDefault("schedule.start_hours", d.Schedule.StartHours)
	v.SetDefault("schedule.reset_at", d.Schedule.ResetAt)

	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.driver", d.Storage.Driver)

	v.SetDefault("rules.static_file", "")
	v.SetDefault("rules.watch", d.Rules.Watch)

	v.SetDefault("bot.rate_limit", d.Bot.RateLimit)
	v.SetDefault("bot.rate_window", d.Bot.RateWindow.String())

	v.SetDefault("logging.debug_file", "")

	v.SetDefault("tui.refresh_rate", d.TUI.RefreshRate.String())
	v.SetDefault("tui.status_url", d.TUI.StatusURL)
}

// getUserConfigDir returns the XDG config directory for suitpredict.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "suitpredict")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "suitpredict")
	}
	return filepath.Join(home, ".config", "suitpredict")
}

// findProjectConfig searches for .suitpredict.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".suitpredict.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Telegram: TelegramConfig{
			APIURL:  "https://api.telegram.org",
			Timeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Host: "",
			Port: 10000,
		},
		Engine: EngineConfig{
			Window:             50,
			Lag:                2,
			TopK:               2,
			MaxPairs:           1000,
			MaxUses:            2,
			QuarantineTTL:      time.Hour,
			Cooldown:           120 * time.Second,
			MinGap:             3,
			GapPolicy:          "at_least",
			StaticFailureLimit: 2,
			MaxHistory:         500,
			ClassOrder:         []string{"♠", "♥", "♦", "♣"},
			LearnedActive:      false,
		},
		Session: SessionConfig{
			TimeZone:        "Africa/Porto-Novo",
			Windows:         []string{"1-6", "9-12", "15-18", "21-24"},
			RelearnInterval: 10 * time.Minute,
		},
		Schedule: ScheduleConfig{
			Interval:    time.Minute,
			ReportHours: []int{0, 6, 12, 18},
			StartHours:  []int{1, 9, 15, 21},
			ResetAt:     "00:59",
		},
		Storage: StorageConfig{
			Backend: "sqlite",
			Driver:  "sqlite",
		},
		Rules: RulesConfig{
			Watch: true,
		},
		Bot: BotConfig{
			RateLimit:  30,
			RateWindow: time.Minute,
		},
		TUI: TUIConfig{
			RefreshRate: 2 * time.Second,
			StatusURL:   "http://localhost:10000/status",
		},
	}
}
