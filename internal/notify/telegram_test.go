package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ShayCichocki/suitpredict/pkg/models"
)

func newTestAPI(t *testing.T, handler func(method string, body map[string]any) string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		method := parts[len(parts)-1]
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(handler(method, body)))
	}))
	t.Cleanup(srv.Close)
	return NewClient(Config{Token: "123:abc", APIURL: srv.URL})
}

func TestSendMessage(t *testing.T) {
	var gotText string
	c := newTestAPI(t, func(method string, body map[string]any) string {
		if method != "sendMessage" {
			t.Errorf("method = %s, want sendMessage", method)
		}
		gotText, _ = body["text"].(string)
		return `{"ok":true,"result":{"message_id":42}}`
	})

	id, err := c.SendMessage(context.Background(), -100, "hello", nil)
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if id != 42 {
		t.Errorf("message id = %d, want 42", id)
	}
	if gotText != "hello" {
		t.Errorf("text = %q, want hello", gotText)
	}
}

func TestCall_APIError(t *testing.T) {
	c := newTestAPI(t, func(string, map[string]any) string {
		return `{"ok":false,"error_code":400,"description":"Bad Request: message is not modified"}`
	})

	err := c.EditMessageText(context.Background(), 1, 2, "same")
	if err == nil || !strings.Contains(err.Error(), "not modified") {
		t.Errorf("EditMessageText error = %v", err)
	}
}

func TestSetWebhook(t *testing.T) {
	var got map[string]any
	c := newTestAPI(t, func(method string, body map[string]any) string {
		if method != "setWebhook" {
			t.Errorf("method = %s, want setWebhook", method)
		}
		got = body
		return `{"ok":true,"result":true}`
	})

	if err := c.SetWebhook(context.Background(), "https://bot.example/webhook", "s3cret"); err != nil {
		t.Fatalf("SetWebhook failed: %v", err)
	}
	if got["url"] != "https://bot.example/webhook" || got["secret_token"] != "s3cret" {
		t.Errorf("setWebhook body = %v", got)
	}
}

func TestCall_NoToken(t *testing.T) {
	c := NewClient(Config{})
	if _, err := c.SendMessage(context.Background(), 1, "x", nil); err == nil {
		t.Error("SendMessage without token should fail")
	}
}

func TestChannel_RequiresChat(t *testing.T) {
	ch := NewChannel(NewClient(Config{Token: "t"}), 0)
	if _, err := ch.Send(context.Background(), "x"); err == nil {
		t.Error("Send without chat should fail")
	}
}

func TestFormatter(t *testing.T) {
	f := Formatter{}
	off := 1
	p := models.Prediction{TargetIndex: 22, OutcomeClass: "♥", Status: models.PredictionPending}

	if got := f.PredictionText(p); got != "🔵22🔵:❤️statut :⏳" {
		t.Errorf("PredictionText() = %q", got)
	}

	p.Status = models.PredictionWon
	p.ResolvedOffset = &off
	if got := f.ResolvedText(p); !strings.HasSuffix(got, "✅1️⃣") {
		t.Errorf("ResolvedText(won) = %q", got)
	}

	p.Status = models.PredictionLost
	if got := f.ResolvedText(p); !strings.HasSuffix(got, "❌") {
		t.Errorf("ResolvedText(lost) = %q", got)
	}

	rep := models.SessionReport{Total: 4, Won: 3, Lost: 1}
	if got := f.ReportText("09h-12h", rep); !strings.Contains(got, "75.0%") {
		t.Errorf("ReportText() = %q, missing rate", got)
	}
}

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier(true)
	id, _ := n.Send(context.Background(), "a")
	n.Edit(context.Background(), id, "b")

	if msgs := n.Messages(); len(msgs) != 1 || msgs[0] != "a" {
		t.Errorf("Messages() = %v", msgs)
	}
	if text, ok := n.EditOf(id); !ok || text != "b" {
		t.Errorf("EditOf() = %q, %v", text, ok)
	}
}
