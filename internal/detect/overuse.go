package detect

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/spicewatch/internal/model"
	"github.com/Veraticus/spicewatch/internal/service"
	"github.com/shopspring/decimal"
)

// OveruseDetector flags a category that dominates the month's spending.
type OveruseDetector struct {
	txns  service.TransactionReader
	loc   *time.Location
	share decimal.Decimal
	floor decimal.Decimal
}

// NewOveruseDetector creates a category overuse detector.
func NewOveruseDetector(txns service.TransactionReader, share, floor decimal.Decimal, loc *time.Location) *OveruseDetector {
	if loc == nil {
		loc = time.Local
	}
	return &OveruseDetector{txns: txns, share: share, floor: floor, loc: loc}
}

// Name implements Detector.
func (d *OveruseDetector) Name() string { return "category-overuse" }

// MonthBounds returns the first and last instant of the month containing t.
func MonthBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}

// Detect implements Detector. Both totals add the candidate amount on top of
// the stored sums, which already include it.
func (d *OveruseDetector) Detect(ctx context.Context, txn model.Transaction, _ time.Time) (*Finding, error) {
	start, end := MonthBounds(txn.Date, d.loc)
	category := txn.Category

	categorySpend, err := d.txns.SumByCategory(ctx, txn.OwnerID, &category, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to sum category spend: %w", err)
	}
	totalSpend, err := d.txns.SumByCategory(ctx, txn.OwnerID, nil, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to sum monthly spend: %w", err)
	}

	categoryTotal := categorySpend.Add(txn.Amount)
	totalMonthly := totalSpend.Add(txn.Amount)

	if !totalMonthly.GreaterThan(d.floor) {
		return nil, nil
	}

	ratio := categoryTotal.Div(totalMonthly)
	if !ratio.GreaterThan(d.share) {
		return nil, nil
	}

	percentage := ratio.Mul(decimal.NewFromInt(100))

	return &Finding{
		Type:     model.AnomalyCategoryUsage,
		Severity: model.SeverityMedium,
		Explanation: fmt.Sprintf("%s accounts for %s%% of this month's spending (%s of %s)",
			category, percentage.StringFixed(0), categoryTotal.StringFixed(2), totalMonthly.StringFixed(2)),
		Evidence: model.OveruseEvidence{
			CategoryTotal: money(categoryTotal),
			TotalMonthly:  money(totalMonthly),
			Percentage:    money(percentage),
		},
	}, nil
}
