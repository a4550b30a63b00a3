package models

import (
	"testing"
	"time"
)

func TestPredictionStatus_Valid(t *testing.T) {
	tests := []struct {
		name   string
		status PredictionStatus
		want   bool
	}{
		{"pending is valid", PredictionPending, true},
		{"won is valid", PredictionWon, true},
		{"lost is valid", PredictionLost, true},
		{"empty string is invalid", PredictionStatus(""), false},
		{"unknown status is invalid", PredictionStatus("expired"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPredictionStatus_Terminal(t *testing.T) {
	if PredictionPending.Terminal() {
		t.Error("pending should not be terminal")
	}
	if !PredictionWon.Terminal() || !PredictionLost.Terminal() {
		t.Error("won and lost should be terminal")
	}
}

func TestPrediction_Offset(t *testing.T) {
	p := Prediction{Status: PredictionPending}
	if got := p.Offset(); got != -1 {
		t.Errorf("Offset() = %d, want -1 while pending", got)
	}
	off := 2
	p.ResolvedOffset = &off
	if got := p.Offset(); got != 2 {
		t.Errorf("Offset() = %d, want 2", got)
	}
}

func TestBuildReport(t *testing.T) {
	zero, one := 0, 1
	preds := []Prediction{
		{Status: PredictionWon, ResolvedOffset: &zero},
		{Status: PredictionWon, ResolvedOffset: &one},
		{Status: PredictionLost, ResolvedOffset: &one},
		{Status: PredictionPending},
	}

	rep := BuildReport(preds, time.Now())
	if rep.Total != 3 {
		t.Errorf("Total = %d, want 3", rep.Total)
	}
	if rep.Won != 2 || rep.Lost != 1 || rep.Pending != 1 {
		t.Errorf("Won/Lost/Pending = %d/%d/%d, want 2/1/1", rep.Won, rep.Lost, rep.Pending)
	}
	if rep.ByOffset != [3]int{1, 1, 0} {
		t.Errorf("ByOffset = %v, want [1 1 0]", rep.ByOffset)
	}
	if got := rep.Rate(); got < 66.6 || got > 66.7 {
		t.Errorf("Rate() = %f, want ~66.67", got)
	}
}

func TestSessionReport_RateEmpty(t *testing.T) {
	if got := (SessionReport{}).Rate(); got != 0 {
		t.Errorf("Rate() = %f, want 0", got)
	}
}
