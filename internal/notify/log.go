package notify

import (
	"context"
	"log"
	"sync"
)

// LogNotifier prints messages instead of sending them. It is used when no
// bot token is configured and by the replay command.
type LogNotifier struct {
	mu     sync.Mutex
	nextID int
	sent   []string
	edits  map[int]string
	quiet  bool
}

// NewLogNotifier creates a notifier. quiet suppresses log output.
func NewLogNotifier(quiet bool) *LogNotifier {
	return &LogNotifier{edits: make(map[int]string), quiet: quiet}
}

// Send records text and returns a fake message ID.
func (n *LogNotifier) Send(_ context.Context, text string) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	n.sent = append(n.sent, text)
	if !n.quiet {
		log.Printf("[notify] send #%d: %s", n.nextID, text)
	}
	return n.nextID, nil
}

// Edit records the replacement text.
func (n *LogNotifier) Edit(_ context.Context, messageID int, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.edits[messageID] = text
	if !n.quiet {
		log.Printf("[notify] edit #%d: %s", messageID, text)
	}
	return nil
}

// Messages returns a copy of every sent text.
func (n *LogNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.sent...)
}

// EditOf returns the latest edit of messageID.
func (n *LogNotifier) EditOf(messageID int) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	text, ok := n.edits[messageID]
	return text, ok
}
