package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/suitpredict/internal/parse"
)

// FilterSubmittedMsg is sent when the user confirms a trigger filter.
type FilterSubmittedMsg struct {
	Query string
}

// InputField is a text input for filtering views by trigger card.
type InputField struct {
	input textinput.Model
	width int
}

// NewInputField creates a new InputField.
func NewInputField() *InputField {
	ti := textinput.New()
	ti.Placeholder = "Filter by trigger (e.g. K♦ or Kd) and press Enter..."
	ti.CharLimit = 16
	ti.Width = 60

	return &InputField{
		input: ti,
		width: 80,
	}
}

// SetWidth sets the width of the input field.
func (f *InputField) SetWidth(width int) {
	f.width = width
	f.input.Width = width - 4 // Account for prompt and padding
}

// Update handles messages for the input field.
func (f *InputField) Update(msg tea.Msg) (*InputField, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		query := NormalizeFilter(f.input.Value())
		return f, func() tea.Msg {
			return FilterSubmittedMsg{Query: query}
		}
	}

	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return f, cmd
}

// View renders the input field.
func (f *InputField) View() string {
	promptStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Bold(true)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Width(f.width - 2)

	prompt := promptStyle.Render("/ ")
	return boxStyle.Render(prompt + f.input.View())
}

// Focus sets focus on the input field.
func (f *InputField) Focus() tea.Cmd {
	return f.input.Focus()
}

// Blur removes focus from the input field.
func (f *InputField) Blur() {
	f.input.Blur()
}

// Reset clears the input.
func (f *InputField) Reset() {
	f.input.Reset()
}

// suitLetters lets operators type suits without an emoji keyboard.
var suitLetters = map[byte]string{'s': parse.Spade, 'h': parse.Heart, 'd': parse.Diamond, 'c': parse.Club}

// NormalizeFilter turns "kd", "K♦️" or "10h" into a card key. Text that
// is not a single card is returned trimmed and uppercased.
func NormalizeFilter(s string) string {
	s = strings.TrimSpace(s)
	if cards := parse.Cards(s); len(cards) == 1 {
		return cards[0].Key()
	}
	if n := len(s); n >= 2 {
		if suit, ok := suitLetters[s[n-1]|0x20]; ok {
			if cards := parse.Cards(s[:n-1] + suit); len(cards) == 1 {
				return cards[0].Key()
			}
		}
	}
	return parse.NormalizeCard(s)
}
