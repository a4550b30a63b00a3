package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/suitpredict/internal/engine"
)

// Header renders the title bar and the engine mode line.
type Header struct {
	width int
}

// NewHeader creates a new Header.
func NewHeader() *Header {
	return &Header{
		width: 80,
	}
}

// SetWidth sets the header width.
func (h *Header) SetWidth(width int) {
	h.width = width
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)
	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)
	closedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))
)

// View renders the header for st. A nil status renders the title only.
func (h *Header) View(st *engine.Status) string {
	title := titleStyle.Render("♠ ♥ suitpredict ♦ ♣")
	if st == nil {
		return lipgloss.NewStyle().Width(h.width).Render(title)
	}

	session := closedStyle.Render("session closed")
	if st.SessionActive {
		session = activeStyle.Render("session " + st.Session)
	}
	mode := "static"
	if st.LearnedActive {
		mode = "learned"
	}
	line := fmt.Sprintf("%s  %s  %s", session,
		subtleStyle.Render("mode: "+mode),
		subtleStyle.Render(st.Now.Format("2006-01-02 15:04:05 MST")))

	return lipgloss.NewStyle().
		Width(h.width).
		PaddingBottom(1).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, line))
}

// Height returns the header height in lines.
func (h *Header) Height() int {
	return 3
}
