package config

import (
	"testing"
)

const validToken = "123456789:AAHk3nB0tT0kenSecretValue1234567890"

func TestGetBotToken(t *testing.T) {
	t.Run("from environment variable", func(t *testing.T) {
		t.Setenv("BOT_TOKEN", validToken)

		token, err := GetBotToken(&Config{})
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if token != validToken {
			t.Errorf("expected env token, got %q", token)
		}
	})

	t.Run("from config", func(t *testing.T) {
		t.Setenv("BOT_TOKEN", "")

		cfg := &Config{Telegram: TelegramConfig{Token: "42:config-token"}}
		token, err := GetBotToken(cfg)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if token != "42:config-token" {
			t.Errorf("expected '42:config-token', got %q", token)
		}
	})

	t.Run("unresolved reference", func(t *testing.T) {
		t.Setenv("BOT_TOKEN", "")

		cfg := &Config{Telegram: TelegramConfig{Token: "${SUITPREDICT_UNSET_TOKEN_VAR}"}}
		if _, err := GetBotToken(cfg); err != ErrNoBotToken {
			t.Errorf("expected ErrNoBotToken, got %v", err)
		}
	})

	t.Run("no token configured", func(t *testing.T) {
		t.Setenv("BOT_TOKEN", "")

		if _, err := GetBotToken(&Config{}); err != ErrNoBotToken {
			t.Errorf("expected ErrNoBotToken, got %v", err)
		}
	})
}

func TestValidateBotToken(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{"valid", validToken, false},
		{"empty", "", true},
		{"no colon", "123456789AAHk3nB0tT0kenSecretValue1234567890", true},
		{"non numeric id", "abc:AAHk3nB0tT0kenSecretValue1234567890", true},
		{"short secret", "123:short", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBotToken(tt.token)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBotToken() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMaskBotToken(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"", "(not set)"},
		{"123:short", "***"},
		{validToken, "123456789:...7890"},
	}

	for _, tt := range tests {
		if got := MaskBotToken(tt.token); got != tt.want {
			t.Errorf("MaskBotToken(%q) = %q, want %q", tt.token, got, tt.want)
		}
	}
}

func TestGetBotTokenSource(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	if got := GetBotTokenSource(&Config{}); got != TokenSourceNone {
		t.Errorf("expected none, got %q", got)
	}

	cfg := &Config{Telegram: TelegramConfig{Token: validToken}}
	if got := GetBotTokenSource(cfg); got != TokenSourceConfig {
		t.Errorf("expected config_file, got %q", got)
	}

	t.Setenv("BOT_TOKEN", validToken)
	if got := GetBotTokenSource(cfg); got != TokenSourceEnv {
		t.Errorf("expected environment, got %q", got)
	}
}
