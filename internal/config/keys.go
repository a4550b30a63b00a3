// Package config provides bot token management utilities.
package config

import (
	"errors"
	"os"
	"strings"
)

// ErrNoBotToken is returned when no bot token is configured.
var ErrNoBotToken = errors.New("no Telegram bot token configured")

// GetBotToken returns the Telegram bot token from the configuration.
// It checks in order: BOT_TOKEN environment variable, config file.
func GetBotToken(cfg *Config) (string, error) {
	if token := os.Getenv("BOT_TOKEN"); token != "" {
		return token, nil
	}

	if cfg != nil && cfg.Telegram.Token != "" {
		token := os.ExpandEnv(cfg.Telegram.Token)
		if token != "" && !strings.HasPrefix(token, "${") {
			return token, nil
		}
	}

	return "", ErrNoBotToken
}

// ValidateBotToken performs basic validation on a bot token.
// It checks the "<bot id>:<secret>" shape but does not call the Bot API.
func ValidateBotToken(token string) error {
	if token == "" {
		return ErrNoBotToken
	}

	id, secret, ok := strings.Cut(token, ":")
	if !ok {
		return errors.New("invalid bot token format: expected '<id>:<secret>'")
	}
	if id == "" || strings.Trim(id, "0123456789") != "" {
		return errors.New("invalid bot token format: bot id must be numeric")
	}
	if len(secret) < 30 {
		return errors.New("invalid bot token format: secret too short")
	}

	return nil
}

// MaskBotToken returns a masked version of the token for display.
// Shows the bot id and the last 4 characters.
func MaskBotToken(token string) string {
	if token == "" {
		return "(not set)"
	}

	id, secret, ok := strings.Cut(token, ":")
	if !ok || len(secret) <= 8 {
		return "***"
	}

	return id + ":..." + secret[len(secret)-4:]
}

// TokenSource represents where a bot token was loaded from.
type TokenSource string

const (
	TokenSourceEnv    TokenSource = "environment"
	TokenSourceConfig TokenSource = "config_file"
	TokenSourceNone   TokenSource = "none"
)

// GetBotTokenSource returns where the bot token was sourced from.
func GetBotTokenSource(cfg *Config) TokenSource {
	if os.Getenv("BOT_TOKEN") != "" {
		return TokenSourceEnv
	}

	if cfg != nil && cfg.Telegram.Token != "" {
		token := os.ExpandEnv(cfg.Telegram.Token)
		if token != "" && !strings.HasPrefix(token, "${") {
			return TokenSourceConfig
		}
	}

	return TokenSourceNone
}
