// Package detect implements the anomaly detectors and the orchestrator that
// runs them against a freshly written transaction.
package detect

import (
	"context"
	"time"

	"github.com/Veraticus/spicewatch/internal/model"
	"github.com/shopspring/decimal"
)

// Finding is one detector's verdict before it becomes a stored anomaly.
type Finding struct {
	Evidence    model.Evidence
	Type        model.AnomalyType
	Severity    model.Severity
	Explanation string
}

// Detector inspects a single transaction. A nil finding with a nil error
// means nothing was found. now is the shared detection time of the run.
type Detector interface {
	Name() string
	Detect(ctx context.Context, txn model.Transaction, now time.Time) (*Finding, error)
}

// Thresholds holds the tunable constants of the deterministic detectors and
// of the classification decision.
type Thresholds struct {
	// Location is used for time-of-day checks and month boundaries.
	Location *time.Location

	SuspiciousKeywords []string

	DuplicateWindow time.Duration
	HistoryWindow   time.Duration

	SpikeMultiplier decimal.Decimal
	OveruseShare    decimal.Decimal
	OveruseFloor    decimal.Decimal
	LeakMaxAmount   decimal.Decimal
	HighValue       decimal.Decimal
	PreventiveRatio decimal.Decimal

	LeakMinPrior int
	OddHourStart int
	OddHourEnd   int
}

// MinOveruseFloor is the smallest monthly total the overuse check accepts.
var MinOveruseFloor = decimal.NewFromInt(1000)

// DefaultThresholds returns the production defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Location:           time.Local,
		SuspiciousKeywords: []string{"unknown", "cash", "transfer", "mystery"},
		DuplicateWindow:    10 * time.Minute,
		HistoryWindow:      30 * 24 * time.Hour,
		SpikeMultiplier:    decimal.NewFromInt(3),
		OveruseShare:       decimal.RequireFromString("0.6"),
		OveruseFloor:       MinOveruseFloor,
		LeakMaxAmount:      decimal.NewFromInt(50),
		HighValue:          decimal.NewFromInt(5000),
		PreventiveRatio:    decimal.RequireFromString("0.9"),
		LeakMinPrior:       2,
		OddHourStart:       1,
		OddHourEnd:         5,
	}
}

// normalized fills zero values with defaults and enforces the overuse floor minimum.
func (t Thresholds) normalized() Thresholds {
	d := DefaultThresholds()
	if t.Location == nil {
		t.Location = d.Location
	}
	if t.SuspiciousKeywords == nil {
		t.SuspiciousKeywords = d.SuspiciousKeywords
	}
	if t.DuplicateWindow <= 0 {
		t.DuplicateWindow = d.DuplicateWindow
	}
	if t.HistoryWindow <= 0 {
		t.HistoryWindow = d.HistoryWindow
	}
	if !t.SpikeMultiplier.IsPositive() {
		t.SpikeMultiplier = d.SpikeMultiplier
	}
	if !t.OveruseShare.IsPositive() {
		t.OveruseShare = d.OveruseShare
	}
	if t.OveruseFloor.LessThan(MinOveruseFloor) {
		t.OveruseFloor = MinOveruseFloor
	}
	if !t.LeakMaxAmount.IsPositive() {
		t.LeakMaxAmount = d.LeakMaxAmount
	}
	if !t.HighValue.IsPositive() {
		t.HighValue = d.HighValue
	}
	if !t.PreventiveRatio.IsPositive() {
		t.PreventiveRatio = d.PreventiveRatio
	}
	if t.LeakMinPrior <= 0 {
		t.LeakMinPrior = d.LeakMinPrior
	}
	if t.OddHourStart == 0 && t.OddHourEnd == 0 {
		t.OddHourStart, t.OddHourEnd = d.OddHourStart, d.OddHourEnd
	}
	return t
}

// money converts a decimal to the float64 stored in evidence, rounded to cents.
func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func ptr[T any](v T) *T { return &v }
