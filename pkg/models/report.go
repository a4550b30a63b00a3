package models

import "time"

// SessionReport summarises resolved predictions.
type SessionReport struct {
	Total       int       `json:"total"`
	Won         int       `json:"won"`
	Lost        int       `json:"lost"`
	Pending     int       `json:"pending"`
	ByOffset    [3]int    `json:"by_offset"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Rate returns the win percentage, 0 when nothing has resolved.
func (r SessionReport) Rate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Won) / float64(r.Total) * 100
}

// BuildReport computes a report over the given predictions.
func BuildReport(preds []Prediction, now time.Time) SessionReport {
	rep := SessionReport{GeneratedAt: now}
	for _, p := range preds {
		switch p.Status {
		case PredictionWon:
			rep.Won++
			rep.Total++
			if off := p.Offset(); off >= 0 && off < len(rep.ByOffset) {
				rep.ByOffset[off]++
			}
		case PredictionLost:
			rep.Lost++
			rep.Total++
		case PredictionPending:
			rep.Pending++
		}
	}
	return rep
}
