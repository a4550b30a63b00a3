// Package notify delivers prediction and report messages through the
// Telegram Bot API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultAPIURL is the Telegram Bot API base URL.
	DefaultAPIURL = "https://api.telegram.org"
	// DefaultTimeout bounds every API call.
	DefaultTimeout = 10 * time.Second
)

// Config configures the Telegram client.
type Config struct {
	Token   string
	APIURL  string
	Timeout time.Duration
}

// Client is a minimal Telegram Bot API client.
type Client struct {
	config Config
	client *http.Client
}

// NewClient creates a client. Empty fields use the defaults.
func NewClient(config Config) *Client {
	if config.APIURL == "" {
		config.APIURL = DefaultAPIURL
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &Client{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// InlineButton is one inline keyboard button.
type InlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

// InlineKeyboard is a reply_markup with inline buttons.
type InlineKeyboard struct {
	InlineKeyboard [][]InlineButton `json:"inline_keyboard"`
}

// apiResponse is the envelope of every Bot API reply.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
}

type sentMessage struct {
	MessageID int `json:"message_id"`
}

func (c *Client) call(ctx context.Context, method string, req any, out any) error {
	if c.config.Token == "" {
		return fmt.Errorf("telegram %s: no bot token configured", method)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimRight(c.config.APIURL, "/") + "/bot" + c.config.Token + "/" + method
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, redact(err, c.config.Token))
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("telegram %s returned %d: %s", method, resp.StatusCode, string(bodyBytes))
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !apiResp.OK {
		return fmt.Errorf("telegram %s failed (%d): %s", method, apiResp.ErrorCode, apiResp.Description)
	}
	if out != nil && len(apiResp.Result) > 0 {
		if err := json.Unmarshal(apiResp.Result, out); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	return nil
}

// redact strips the bot token from transport errors, which embed the URL.
func redact(err error, token string) error {
	if token == "" {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), token, "<token>"))
}

// SendMessage posts text to chatID and returns the new message ID.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup *InlineKeyboard) (int, error) {
	req := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if markup != nil {
		req["reply_markup"] = markup
	}
	var msg sentMessage
	if err := c.call(ctx, "sendMessage", req, &msg); err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// EditMessageText replaces the text of an existing message.
func (c *Client) EditMessageText(ctx context.Context, chatID int64, messageID int, text string) error {
	return c.EditMessage(ctx, chatID, messageID, text, nil)
}

// EditMessage replaces the text and inline keyboard of an existing message.
func (c *Client) EditMessage(ctx context.Context, chatID int64, messageID int, text string, markup *InlineKeyboard) error {
	req := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if markup != nil {
		req["reply_markup"] = markup
	}
	return c.call(ctx, "editMessageText", req, nil)
}

// AnswerCallbackQuery acknowledges an inline button press.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	req := map[string]any{
		"callback_query_id": callbackID,
		"text":              text,
	}
	return c.call(ctx, "answerCallbackQuery", req, nil)
}

// SetWebhook registers url as the update endpoint. A non-empty secret is
// echoed back by Telegram in the X-Telegram-Bot-Api-Secret-Token header.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	req := map[string]any{
		"url":             url,
		"allowed_updates": []string{"message", "edited_message", "channel_post", "edited_channel_post", "callback_query"},
	}
	if secret != "" {
		req["secret_token"] = secret
	}
	return c.call(ctx, "setWebhook", req, nil)
}

// Channel sends to one fixed chat. It satisfies the engine's notifier.
type Channel struct {
	client *Client
	chatID int64
}

// NewChannel binds client to chatID.
func NewChannel(client *Client, chatID int64) *Channel {
	return &Channel{client: client, chatID: chatID}
}

// Send posts text to the channel.
func (c *Channel) Send(ctx context.Context, text string) (int, error) {
	if c.chatID == 0 {
		return 0, fmt.Errorf("no prediction channel configured")
	}
	return c.client.SendMessage(ctx, c.chatID, text, nil)
}

// Edit replaces the text of a channel message.
func (c *Channel) Edit(ctx context.Context, messageID int, text string) error {
	if c.chatID == 0 {
		return fmt.Errorf("no prediction channel configured")
	}
	return c.client.EditMessageText(ctx, c.chatID, messageID, text)
}
