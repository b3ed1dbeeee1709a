package detect

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/spicewatch/internal/model"
	"github.com/Veraticus/spicewatch/internal/service"
	"github.com/shopspring/decimal"
)

// SpikeDetector flags amounts far above the owner's trailing average.
type SpikeDetector struct {
	txns       service.TransactionReader
	window     time.Duration
	multiplier decimal.Decimal
}

// NewSpikeDetector creates a spike detector.
func NewSpikeDetector(txns service.TransactionReader, window time.Duration, multiplier decimal.Decimal) *SpikeDetector {
	return &SpikeDetector{txns: txns, window: window, multiplier: multiplier}
}

// Name implements Detector.
func (d *SpikeDetector) Name() string { return "spending-spike" }

// Detect implements Detector. An empty history never flags.
func (d *SpikeDetector) Detect(ctx context.Context, txn model.Transaction, _ time.Time) (*Finding, error) {
	from := txn.Date.Add(-d.window)
	to := txn.Date
	history, err := d.txns.FindTransactions(ctx, model.TransactionQuery{
		OwnerID:   txn.OwnerID,
		From:      &from,
		To:        &to,
		ExcludeID: txn.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load spending history: %w", err)
	}
	if len(history) == 0 {
		return nil, nil
	}

	total := decimal.Zero
	for _, h := range history {
		total = total.Add(h.Amount)
	}
	average := total.Div(decimal.NewFromInt(int64(len(history))))
	if !average.IsPositive() {
		return nil, nil
	}

	threshold := average.Mul(d.multiplier)
	if !txn.Amount.GreaterThan(threshold) {
		return nil, nil
	}

	percentage := txn.Amount.Sub(average).Div(average).Mul(decimal.NewFromInt(100))

	return &Finding{
		Type:     model.AnomalySpendingSpike,
		Severity: model.SeverityHigh,
		Explanation: fmt.Sprintf("Amount %s is %s%% above your 30-day average of %s",
			txn.Amount.StringFixed(2), percentage.StringFixed(0), average.StringFixed(2)),
		Evidence: model.SpikeEvidence{
			Average:    money(average),
			Current:    money(txn.Amount),
			Threshold:  money(threshold),
			Percentage: money(percentage),
		},
	}, nil
}
