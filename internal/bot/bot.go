// Package bot turns Telegram webhook updates into engine calls: source
// channel posts feed the engine, operator commands and inline buttons
// inspect or steer it.
package bot

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/ShayCichocki/suitpredict/internal/engine"
	"github.com/ShayCichocki/suitpredict/internal/logging"
	"github.com/ShayCichocki/suitpredict/internal/notify"
	"github.com/ShayCichocki/suitpredict/pkg/models"
)

// Inline button callback payloads.
const (
	callbackApply   = "inter_apply"
	callbackDefault = "inter_default"
)

// Engine is the part of the engine the bot drives.
type Engine interface {
	HandleMessage(ctx context.Context, msg engine.Message) engine.HandleResult
	Relearn(ctx context.Context, force bool) engine.RelearnResult
	SetLearnedMode(ctx context.Context, active bool)
	Reset(ctx context.Context, learnedActive bool)
	Status() engine.Status
}

// Replier sends command replies.
type Replier interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup *notify.InlineKeyboard) (int, error)
	EditMessage(ctx context.Context, chatID int64, messageID int, text string, markup *notify.InlineKeyboard) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string) error
}

// Config configures the bot.
type Config struct {
	// SourceChatID is the only chat whose posts feed the engine.
	SourceChatID int64
	// PredictionChatID is shown by /stat.
	PredictionChatID int64
	RateLimit        int
	RateWindow       time.Duration
	// ReportHours are the local hours at which reports go out, for /qua.
	ReportHours []int
}

// Bot dispatches webhook updates.
type Bot struct {
	cfg       Config
	engine    Engine
	replier   Replier
	limiter   *RateLimiter
	formatter notify.Formatter
	debug     *logging.DebugLogger
	now       func() time.Time // For testing
}

// New creates a bot. debug may be nil.
func New(cfg Config, eng Engine, replier Replier, debug *logging.DebugLogger) *Bot {
	if len(cfg.ReportHours) == 0 {
		cfg.ReportHours = []int{0, 6, 12, 18}
	}
	return &Bot{
		cfg:     cfg,
		engine:  eng,
		replier: replier,
		limiter: NewRateLimiter(cfg.RateLimit, cfg.RateWindow),
		debug:   debug,
		now:     time.Now,
	}
}

// HandleUpdate processes one update. Failures are logged; the webhook
// always acknowledges.
func (b *Bot) HandleUpdate(ctx context.Context, u Update) {
	if u.CallbackQuery != nil {
		b.handleCallback(ctx, u.CallbackQuery)
		return
	}

	msg, edited := u.incoming()
	if msg == nil || msg.Text == "" {
		return
	}

	if name, args, ok := parseCommand(msg.Text); ok && !edited {
		if !b.limiter.Allow(msg.SenderID()) {
			b.debug.Log("[bot] rate limited user %d on /%s", msg.SenderID(), name)
			return
		}
		b.handleCommand(ctx, msg.Chat.ID, name, args)
		return
	}

	if msg.Chat.ID != b.cfg.SourceChatID || b.cfg.SourceChatID == 0 {
		return
	}
	res := b.engine.HandleMessage(ctx, engine.Message{
		ChatID: msg.Chat.ID,
		Text:   msg.Text,
		Edited: edited,
		At:     msg.Time(b.now()),
	})
	if res.Parsed {
		b.debug.Log("[bot] game %d handled (edited=%v observed=%v)", res.SequenceIndex, edited, res.Observed)
	}
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, name string, args []string) {
	if b.engine == nil {
		b.reply(ctx, chatID, notReadyText, nil)
		return
	}

	switch name {
	case "start", "help":
		b.reply(ctx, chatID, helpText, nil)
	case "stat":
		b.reply(ctx, chatID, b.statText(b.engine.Status()), nil)
	case "inter":
		b.handleInter(ctx, chatID, args)
	case "collect":
		text, kb := collectText(b.engine.Status())
		b.reply(ctx, chatID, text, kb)
	case "qua":
		b.reply(ctx, chatID, quarantineText(b.engine.Status(), b.cfg.ReportHours), nil)
	case "bilan":
		st := b.engine.Status()
		b.reply(ctx, chatID, b.formatter.ReportText(st.Session, previewReport(st)), nil)
	case "reset":
		before := b.engine.Status()
		b.engine.Reset(ctx, false)
		log.Printf("[bot] full reset requested from chat %d", chatID)
		b.reply(ctx, chatID, resetText(before, b.cfg.SourceChatID, b.cfg.PredictionChatID), nil)
	default:
		b.debug.Log("[bot] ignoring unknown command /%s", name)
	}
}

func (b *Bot) handleInter(ctx context.Context, chatID int64, args []string) {
	action := "status"
	if len(args) > 0 {
		action = strings.ToLower(args[0])
	}

	switch action {
	case "activate":
		res := b.engine.Relearn(ctx, true)
		log.Printf("[bot] learned mode activated (%d rules)", res.Rules)
		b.reply(ctx, chatID, "✅ <b>MODE INTER ACTIVÉ</b>\nAnalyse des règles par enseigne relancée.", nil)
	case "default":
		b.engine.SetLearnedMode(ctx, false)
		b.reply(ctx, chatID, "❌ <b>MODE INTER DÉSACTIVÉ</b>\nRetour aux règles statiques.", nil)
	case "status":
		text, kb := interStatus(b.engine.Status())
		b.reply(ctx, chatID, text, kb)
	default:
		b.reply(ctx, chatID, helpText, nil)
	}
}

func (b *Bot) handleCallback(ctx context.Context, q *CallbackQuery) {
	if q.Message == nil || b.engine == nil {
		return
	}
	switch q.Data {
	case callbackApply:
		b.engine.Relearn(ctx, true)
	case callbackDefault:
		b.engine.SetLearnedMode(ctx, false)
	default:
		b.debug.Log("[bot] ignoring callback %q", q.Data)
		return
	}

	if b.replier == nil {
		return
	}
	if err := b.replier.AnswerCallbackQuery(ctx, q.ID, ""); err != nil {
		log.Printf("[bot] warning: failed to answer callback: %v", err)
	}
	text, kb := interStatus(b.engine.Status())
	if err := b.replier.EditMessage(ctx, q.Message.Chat.ID, q.Message.MessageID, text, kb); err != nil {
		log.Printf("[bot] warning: failed to edit status message: %v", err)
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string, kb *notify.InlineKeyboard) {
	if b.replier == nil {
		return
	}
	if _, err := b.replier.SendMessage(ctx, chatID, text, kb); err != nil {
		log.Printf("[bot] warning: failed to reply to chat %d: %v", chatID, err)
	}
}

// previewReport covers the predictions of the current local day.
func previewReport(st engine.Status) models.SessionReport {
	y, m, d := st.Now.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, st.Now.Location())
	var preds []models.Prediction
	for _, p := range st.Predictions.History {
		if !p.CreatedAt.Before(dayStart) {
			preds = append(preds, p)
		}
	}
	return models.BuildReport(preds, st.Now)
}
