// Package rules provides the static trigger → outcome table used while
// learned mode is off, with optional YAML overrides.
package rules

import (
	"fmt"
	"os"
	"sort"

	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/suitpredict/internal/parse"
)

// Table maps a trigger card to the suit it predicts.
type Table map[string]string

// Default returns the built-in table: the aces to fours of every suit.
func Default() Table {
	return Table{
		"A♠": parse.Heart, "2♠": parse.Club, "3♠": parse.Diamond, "4♠": parse.Spade,
		"A♥": parse.Club, "2♥": parse.Diamond, "3♥": parse.Spade, "4♥": parse.Heart,
		"A♦": parse.Spade, "2♦": parse.Heart, "3♦": parse.Club, "4♦": parse.Diamond,
		"A♣": parse.Diamond, "2♣": parse.Spade, "3♣": parse.Heart, "4♣": parse.Club,
	}
}

// Entry is one rule in a YAML table file.
type Entry struct {
	Trigger string `yaml:"trigger"`
	Predict string `yaml:"predict"`
}

// fileFormat is the structure of a static table file.
type fileFormat struct {
	// Replace drops the built-in table instead of overlaying it.
	Replace bool    `yaml:"replace"`
	Rules   []Entry `yaml:"static_rules"`
}

// Parse decodes a YAML table and overlays it on the default table unless
// the file sets replace: true.
func Parse(data []byte) (Table, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse static table: %w", err)
	}

	table := Default()
	if f.Replace {
		table = Table{}
	}
	for i, e := range f.Rules {
		cards := parse.Cards(e.Trigger)
		if len(cards) != 1 {
			return nil, fmt.Errorf("static rule %d: invalid trigger %q", i+1, e.Trigger)
		}
		suit := parse.NormalizeSuit(e.Predict)
		if !validSuit(suit) {
			return nil, fmt.Errorf("static rule %d: invalid suit %q", i+1, e.Predict)
		}
		table[cards[0].Key()] = suit
	}
	return table, nil
}

// LoadFile reads a static table file. An empty path returns the default table.
func LoadFile(path string) (Table, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read static table: %w", err)
	}
	return Parse(data)
}

// Marshal encodes t as a complete table file that replaces the default.
func Marshal(t Table) ([]byte, error) {
	return yaml.Marshal(fileFormat{Replace: true, Rules: t.Entries()})
}

// Entries returns the table as entries sorted by trigger.
func (t Table) Entries() []Entry {
	out := make([]Entry, 0, len(t))
	for trig, suit := range t {
		out = append(out, Entry{Trigger: trig, Predict: suit})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Trigger < out[j].Trigger })
	return out
}

func validSuit(s string) bool {
	for _, v := range parse.Suits {
		if s == v {
			return true
		}
	}
	return false
}
