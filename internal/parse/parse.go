// Package parse extracts sequence indices, cards and suits from game
// result messages.
package parse

import (
	"regexp"
	"strconv"
	"strings"
)

// Suits in canonical form, without emoji variation selectors.
const (
	Spade   = "♠"
	Heart   = "♥"
	Diamond = "♦"
	Club    = "♣"
)

// Suits lists the outcome classes in their fixed order.
var Suits = []string{Spade, Heart, Diamond, Club}

var (
	gameNumberRe = regexp.MustCompile(`(?:#N|#|N)(\d+)`)
	blueNumberRe = regexp.MustCompile(`🔵(\d+)🔵`)
	firstGroupRe = regexp.MustCompile(`\d+\(([^)]+)\)`)
	anyGroupRe   = regexp.MustCompile(`\(([^)]*)\)`)
	cardRe       = regexp.MustCompile(`(10|[2-9]|[AJQK])([♠♥♦♣])`)

	suitReplacer = strings.NewReplacer(
		"\ufe0f", "",
		"❤", Heart,
		" ", "",
	)
)

// Card is a rank and a canonical suit.
type Card struct {
	Rank string
	Suit string
}

// Key is the trigger key of the card, e.g. "A♠".
func (c Card) Key() string {
	return c.Rank + c.Suit
}

// NormalizeSuit maps emoji and variant forms to the canonical suit.
// Unknown input is returned with variation selectors stripped.
func NormalizeSuit(s string) string {
	return suitReplacer.Replace(strings.TrimSpace(s))
}

// NormalizeCard upper-cases the rank and canonicalizes the suit.
func NormalizeCard(s string) string {
	return strings.ToUpper(NormalizeSuit(s))
}

// Cards returns every card found in text, in order.
func Cards(text string) []Card {
	norm := strings.ToUpper(NormalizeSuit(text))
	matches := cardRe.FindAllStringSubmatch(norm, -1)
	out := make([]Card, 0, len(matches))
	for _, m := range matches {
		out = append(out, Card{Rank: m[1], Suit: m[2]})
	}
	return out
}

// Parser implements the message extraction used by the engine.
type Parser struct{}

// New returns a parser.
func New() *Parser {
	return &Parser{}
}

// SequenceIndex extracts the game number ("#N123", "N123", "#123" or "🔵123🔵").
func (p *Parser) SequenceIndex(text string) (int, bool) {
	if m := gameNumberRe.FindStringSubmatch(strings.ToUpper(text)); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n, true
		}
	}
	if m := blueNumberRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n, true
		}
	}
	return 0, false
}

// firstGroup returns the cards of the first "score(cards)" group.
func firstGroup(text string) ([]Card, bool) {
	m := firstGroupRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	return Cards(m[1]), true
}

// TriggerCandidates returns the distinct card keys of the first group in
// message order.
func (p *Parser) TriggerCandidates(text string) []string {
	cards, ok := firstGroup(text)
	if !ok {
		return nil
	}
	seen := make(map[string]struct{}, len(cards))
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		k := c.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// OutcomeSet returns the distinct suits of the first group. Without a
// group, the first three cards of the message are used.
func (p *Parser) OutcomeSet(text string) []string {
	cards, ok := firstGroup(text)
	if !ok {
		cards = Cards(text)
		if len(cards) > 3 {
			cards = cards[:3]
		}
	}
	seen := make(map[string]struct{}, len(cards))
	var out []string
	for _, c := range cards {
		if _, dup := seen[c.Suit]; dup {
			continue
		}
		seen[c.Suit] = struct{}{}
		out = append(out, c.Suit)
	}
	return out
}

// Observation returns the first card of the first parenthesized group
// (or of the whole message) as trigger and its suit as outcome.
func (p *Parser) Observation(text string) (string, string, bool) {
	content := text
	if m := anyGroupRe.FindStringSubmatch(text); m != nil {
		content = m[1]
	}
	cards := Cards(content)
	if len(cards) == 0 {
		return "", "", false
	}
	return cards[0].Key(), cards[0].Suit, true
}

// IsFinal reports whether the message carries a completion marker.
func (p *Parser) IsFinal(text string) bool {
	return strings.ContainsAny(text, "✅❌🔰")
}
