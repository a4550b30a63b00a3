package bot

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ShayCichocki/suitpredict/internal/engine"
	"github.com/ShayCichocki/suitpredict/internal/notify"
	"github.com/ShayCichocki/suitpredict/internal/selector"
	"github.com/ShayCichocki/suitpredict/pkg/models"
)

// minPairsForRules is the pair count below which /collect warns that
// learning has too little data.
const minPairsForRules = 3

const helpText = `🤖 <b>Bot de prédiction</b>

/start - Afficher cette aide
/stat - État du bot (canaux, mode actif)
/inter status - Règles apprises par enseigne
/inter activate - Activer le mode intelligent
/inter default - Revenir aux règles statiques
/collect - Données collectées par enseigne
/qua - Quarantaine et dernières prédictions
/bilan - Aperçu du bilan de la session
/reset - Réinitialiser complètement le bot`

const notReadyText = "❌ Le moteur de prédiction n'est pas chargé."

func modeLabel(learned bool) string {
	if learned {
		return "IA"
	}
	return "Statique"
}

func yesNo(b bool) string {
	if b {
		return "✅ OUI"
	}
	return "❌ NON"
}

func chatLabel(id int64) string {
	if id == 0 {
		return "Non défini"
	}
	return fmt.Sprintf("%d", id)
}

func (b *Bot) statText(st engine.Status) string {
	return fmt.Sprintf("📊 <b>STATUS</b>\nSource (Input): <code>%s</code>\nPrédiction (Output): <code>%s</code>\nMode: %s\nSession: %s",
		chatLabel(b.cfg.SourceChatID), chatLabel(b.cfg.PredictionChatID), modeLabel(st.LearnedActive), st.Session)
}

// interStatus renders the learned rules with the activate/deactivate keyboard.
func interStatus(st engine.Status) (string, *notify.InlineKeyboard) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🧠 <b>MODE INTER</b> : %s\n", yesNo(st.LearnedActive))
	fmt.Fprintf(&sb, "Paires collectées : %d\n\n", len(st.Pairs))
	if st.Rules.Empty() {
		sb.WriteString("📋 Pas encore de règles INTER\n")
	} else {
		for _, class := range classOrder(st.Rules) {
			fmt.Fprintf(&sb, "Pour prédire %s:\n", notify.DisplaySuit(class))
			for _, r := range st.Rules.Rules(class) {
				fmt.Fprintf(&sb, "  • %s (%dx)\n", r.TriggerKey, r.SupportCount)
			}
		}
	}

	kb := &notify.InlineKeyboard{}
	if st.LearnedActive {
		kb.InlineKeyboard = [][]notify.InlineButton{{
			{Text: "🔄 Relancer Analyse", CallbackData: callbackApply},
			{Text: "❌ Désactiver INTER", CallbackData: callbackDefault},
		}}
	} else {
		kb.InlineKeyboard = [][]notify.InlineButton{{
			{Text: "✅ Activer INTER", CallbackData: callbackApply},
		}}
	}
	return strings.TrimRight(sb.String(), "\n"), kb
}

// collectText renders every collected pair grouped by outcome.
func collectText(st engine.Status) (string, *notify.InlineKeyboard) {
	var sb strings.Builder
	sb.WriteString("🧠 <b>ÉTAT DU MODE INTELLIGENT</b>\n\n")
	fmt.Fprintf(&sb, "Actif : %s\nDonnées collectées : %d\n\n", yesNo(st.LearnedActive), len(st.Pairs))

	if len(st.Pairs) == 0 {
		sb.WriteString("⚠️ <b>Aucune donnée collectée.</b>\n")
	} else {
		counts := make(map[string]map[string]int)
		for _, p := range st.Pairs {
			if counts[p.OutcomeClass] == nil {
				counts[p.OutcomeClass] = make(map[string]int)
			}
			counts[p.OutcomeClass][p.TriggerKey]++
		}
		sb.WriteString("📊 <b>TOUS LES DÉCLENCHEURS COLLECTÉS:</b>\n\n")
		for _, class := range orderedClasses(counts) {
			fmt.Fprintf(&sb, "<b>Pour enseigne %s:</b>\n", notify.DisplaySuit(class))
			for _, tc := range mostCommon(counts[class]) {
				fmt.Fprintf(&sb, "  • %s (%dx)\n", tc.trigger, tc.count)
			}
			sb.WriteString("\n")
		}
	}
	if len(st.Pairs) < minPairsForRules {
		fmt.Fprintf(&sb, "⚠️ Minimum %d jeux requis pour créer des règles (actuellement: %d).", minPairsForRules, len(st.Pairs))
	}

	kb := &notify.InlineKeyboard{}
	switch {
	case len(st.Pairs) < minPairsForRules:
		kb.InlineKeyboard = [][]notify.InlineButton{{{Text: "🔄 Analyser les données", CallbackData: callbackApply}}}
	case st.LearnedActive:
		kb.InlineKeyboard = [][]notify.InlineButton{{
			{Text: "🔄 Relancer Analyse", CallbackData: callbackApply},
			{Text: "❌ Désactiver INTER", CallbackData: callbackDefault},
		}}
	default:
		kb.InlineKeyboard = [][]notify.InlineButton{{{Text: "✅ Activer INTER", CallbackData: callbackApply}}}
	}
	return strings.TrimRight(sb.String(), "\n"), kb
}

// quarantineText renders the quarantine, the last predictions, the time
// to the next report and the learned rules.
func quarantineText(st engine.Status, reportHours []int) string {
	var sb strings.Builder
	sb.WriteString("🔒 <b>ÉTAT DU BOT</b>\n\n")

	if len(st.Quarantine) == 0 {
		sb.WriteString("✅ Aucun TOP en quarantaine\n\n")
	} else {
		sb.WriteString("🔒 TOP EN QUARANTAINE:\n")
		for _, q := range st.Quarantine {
			left := q.ExpiresAt.Sub(st.Now).Round(time.Minute)
			fmt.Fprintf(&sb, "  • %s → %s (support %d, expire dans %s)\n", q.TriggerKey, notify.DisplaySuit(q.OutcomeClass), q.SupportCount, left)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("📊 Les 5 dernières prédictions\n")
	recent := lastN(st.Predictions.History, 5)
	if len(recent) == 0 {
		sb.WriteString("  Aucune prédiction\n")
	}
	for _, p := range recent {
		origin := "📋 STATIQUE"
		if p.Learned {
			origin = "🧠 INTER"
		}
		fmt.Fprintf(&sb, "  • Jeu %d: %s (%s) - Déclencheur: %s [%s]\n",
			p.TargetIndex, notify.DisplaySuit(p.OutcomeClass), statusMark(p.Status), p.TriggerKey, origin)
	}
	sb.WriteString("\n")

	until := untilNextHour(st.Now, reportHours)
	fmt.Fprintf(&sb, "⏰ Prochain bilan dans: %dh%02d\n\n", int(until.Hours()), int(until.Minutes())%60)
	fmt.Fprintf(&sb, "🧠 Mode INTER: %s\n", yesNo(st.LearnedActive))
	fmt.Fprintf(&sb, "📈 Données collectées: %d jeux\n", len(st.Pairs))
	fmt.Fprintf(&sb, "📋 Règles apprises: %d", st.Rules.Len())
	return sb.String()
}

func resetText(before engine.Status, sourceID, predictionID int64) string {
	return fmt.Sprintf("✅ <b>RÉINITIALISATION COMPLÈTE</b>\n\n"+
		"📋 DONNÉES SUPPRIMÉES:\n"+
		"  • %d prédictions\n"+
		"  • %d jeux collectés\n"+
		"  • %d règles\n"+
		"  • %d TOP en quarantaine\n\n"+
		"✅ DONNÉES CONSERVÉES:\n"+
		"  • Canal Source: %s\n"+
		"  • Canal Prédiction: %s\n\n"+
		"Mode INTER: DÉSACTIVÉ ❌",
		len(before.Predictions.History), len(before.Pairs), before.Rules.Len(), len(before.Quarantine),
		chatLabel(sourceID), chatLabel(predictionID))
}

func statusMark(s models.PredictionStatus) string {
	switch s {
	case models.PredictionWon:
		return "✅"
	case models.PredictionLost:
		return "❌"
	default:
		return "⏳"
	}
}

// untilNextHour returns the time from now to the next occurrence of any of
// the given hours on the hour.
func untilNextHour(now time.Time, hours []int) time.Duration {
	best := 24 * time.Hour
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for _, h := range hours {
		at := midnight.Add(time.Duration(h) * time.Hour)
		if !at.After(now) {
			at = at.Add(24 * time.Hour)
		}
		if d := at.Sub(now); d < best {
			best = d
		}
	}
	return best
}

func lastN(preds []models.Prediction, n int) []models.Prediction {
	out := make([]models.Prediction, 0, n)
	for i := len(preds) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, preds[i])
	}
	return out
}

func classOrder(rs models.RuleSet) []string {
	present := make(map[string]int, len(rs.ByOutcome))
	for c, rules := range rs.ByOutcome {
		present[c] = len(rules)
	}
	return orderedClasses(present)
}

// orderedClasses returns the keys of m in suit order, unknown keys last.
func orderedClasses[V any](m map[string]V) []string {
	var out []string
	seen := make(map[string]bool)
	for _, c := range selector.DefaultClassOrder {
		if _, ok := m[c]; ok {
			out = append(out, c)
			seen[c] = true
		}
	}
	var rest []string
	for c := range m {
		if !seen[c] {
			rest = append(rest, c)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

type triggerCount struct {
	trigger string
	count   int
}

func mostCommon(counts map[string]int) []triggerCount {
	out := make([]triggerCount, 0, len(counts))
	for t, c := range counts {
		out = append(out, triggerCount{t, c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].trigger < out[j].trigger
	})
	return out
}
