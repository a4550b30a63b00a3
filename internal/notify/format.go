package notify

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/suitpredict/pkg/models"
)

var suitDisplay = map[string]string{
	"♠": "♠️",
	"♥": "❤️",
	"♦": "♦️",
	"♣": "♣️",
}

// offsetMarks label wins by the offset at which they resolved.
var offsetMarks = []string{"✅0️⃣", "✅1️⃣", "✅2️⃣"}

// DisplaySuit renders a canonical suit with its emoji presentation.
func DisplaySuit(s string) string {
	if d, ok := suitDisplay[s]; ok {
		return d
	}
	return s
}

// Formatter renders engine events as channel messages.
type Formatter struct{}

// PredictionText renders a freshly created prediction.
func (Formatter) PredictionText(p models.Prediction) string {
	return fmt.Sprintf("🔵%d🔵:%sstatut :⏳", p.TargetIndex, DisplaySuit(p.OutcomeClass))
}

// ResolvedText renders a prediction after verification.
func (Formatter) ResolvedText(p models.Prediction) string {
	mark := "❌"
	if p.Status == models.PredictionWon {
		if off := p.Offset(); off >= 0 && off < len(offsetMarks) {
			mark = offsetMarks[off]
		} else {
			mark = "✅"
		}
	}
	return fmt.Sprintf("🔵%d🔵:%sstatut :%s", p.TargetIndex, DisplaySuit(p.OutcomeClass), mark)
}

// ReportText renders a session report.
func (Formatter) ReportText(label string, r models.SessionReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>BILAN %s</b>\n\n", label)
	fmt.Fprintf(&b, "Total : %d\n", r.Total)
	fmt.Fprintf(&b, "✅ Gagnés : %d (0️⃣ %d · 1️⃣ %d · 2️⃣ %d)\n", r.Won, r.ByOffset[0], r.ByOffset[1], r.ByOffset[2])
	fmt.Fprintf(&b, "❌ Perdus : %d\n", r.Lost)
	fmt.Fprintf(&b, "Taux : %.1f%%", r.Rate())
	if r.Pending > 0 {
		fmt.Fprintf(&b, "\n⏳ En cours : %d", r.Pending)
	}
	return b.String()
}

// SessionStartText announces the opening of a session window.
func (Formatter) SessionStartText(label string) string {
	return fmt.Sprintf("🚀 Session %s ouverte. Prédictions actives.", label)
}
