package detect

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/spicewatch/internal/model"
	"github.com/Veraticus/spicewatch/internal/service"
	"github.com/shopspring/decimal"
)

// LeakDetector spots small charges that keep recurring under the same title,
// the typical shape of a forgotten subscription.
type LeakDetector struct {
	txns      service.TransactionReader
	window    time.Duration
	maxAmount decimal.Decimal
	minPrior  int
}

// NewLeakDetector creates a silent leak detector.
func NewLeakDetector(txns service.TransactionReader, window time.Duration, maxAmount decimal.Decimal, minPrior int) *LeakDetector {
	return &LeakDetector{txns: txns, window: window, maxAmount: maxAmount, minPrior: minPrior}
}

// Name implements Detector.
func (d *LeakDetector) Name() string { return "silent-leak" }

// Detect implements Detector.
func (d *LeakDetector) Detect(ctx context.Context, txn model.Transaction, _ time.Time) (*Finding, error) {
	if txn.Amount.GreaterThan(d.maxAmount) {
		return nil, nil
	}

	from := txn.Date.Add(-d.window)
	to := txn.Date
	prior, err := d.txns.FindTransactions(ctx, model.TransactionQuery{
		OwnerID:   txn.OwnerID,
		Title:     txn.Title,
		MaxAmount: &txn.Amount,
		From:      &from,
		To:        &to,
		ExcludeID: txn.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load recurring charges: %w", err)
	}
	if len(prior) < d.minPrior {
		return nil, nil
	}

	total := txn.Amount
	for _, p := range prior {
		total = total.Add(p.Amount)
	}
	count := len(prior) + 1
	days := int(d.window.Hours() / 24)

	return &Finding{
		Type:     model.AnomalySilentLeak,
		Severity: model.SeverityLow,
		Explanation: fmt.Sprintf("%q has been charged %d times in the last %d days (%s total). Is this a subscription you still use?",
			txn.Title, count, days, total.StringFixed(2)),
		Evidence: model.LeakEvidence{
			Period:      fmt.Sprintf("%d days", days),
			Count:       count,
			TotalAmount: money(total),
		},
	}, nil
}
