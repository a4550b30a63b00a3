package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestNewInputField(t *testing.T) {
	field := NewInputField()

	if field == nil {
		t.Fatal("NewInputField returned nil")
	}
	if field.width != 80 {
		t.Errorf("Default width = %d, want 80", field.width)
	}
}

func TestInputField_SetWidth(t *testing.T) {
	field := NewInputField()

	field.SetWidth(120)

	if field.width != 120 {
		t.Errorf("Width after SetWidth(120) = %d, want 120", field.width)
	}
	// Input width should be width - 4 for prompt and padding
	if field.input.Width != 116 {
		t.Errorf("Input width = %d, want 116", field.input.Width)
	}
}

func TestInputField_Update_Enter(t *testing.T) {
	field := NewInputField()
	field.input.SetValue("kd")

	_, cmd := field.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("Expected command from enter")
	}

	submitted, ok := cmd().(FilterSubmittedMsg)
	if !ok {
		t.Fatalf("Expected FilterSubmittedMsg, got %T", cmd())
	}
	if submitted.Query != "K♦" {
		t.Errorf("Query = %q, want K♦", submitted.Query)
	}
}

func TestInputField_Update_EnterEmptyClears(t *testing.T) {
	field := NewInputField()

	_, cmd := field.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("Expected command from enter")
	}
	if got := cmd().(FilterSubmittedMsg).Query; got != "" {
		t.Errorf("Query = %q, want empty", got)
	}
}

func TestInputField_Reset(t *testing.T) {
	field := NewInputField()
	field.input.SetValue("A♠")

	field.Reset()

	if field.input.Value() != "" {
		t.Errorf("Value after Reset = %q, want empty", field.input.Value())
	}
}

func TestNormalizeFilter(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"K♦", "K♦"},
		{"k♦️", "K♦"},
		{"kd", "K♦"},
		{"10h", "10♥"},
		{" as ", "A♠"},
		{"QC", "Q♣"},
		{"", ""},
		{"zz", "ZZ"},
	}
	for _, tt := range tests {
		if got := NormalizeFilter(tt.in); got != tt.want {
			t.Errorf("NormalizeFilter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
