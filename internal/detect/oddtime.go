package detect

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/spicewatch/internal/model"
)

// OddTimeDetector flags spending in the small hours.
type OddTimeDetector struct {
	loc   *time.Location
	start int
	end   int
}

// NewOddTimeDetector flags transactions whose local hour h satisfies start <= h < end.
func NewOddTimeDetector(start, end int, loc *time.Location) *OddTimeDetector {
	if loc == nil {
		loc = time.Local
	}
	return &OddTimeDetector{start: start, end: end, loc: loc}
}

// Name implements Detector.
func (d *OddTimeDetector) Name() string { return "odd-time" }

// Detect implements Detector.
func (d *OddTimeDetector) Detect(_ context.Context, txn model.Transaction, _ time.Time) (*Finding, error) {
	hour := txn.Date.In(d.loc).Hour()
	if hour < d.start || hour >= d.end {
		return nil, nil
	}

	return &Finding{
		Type:        model.AnomalyOddTime,
		Severity:    model.SeverityLow,
		Explanation: fmt.Sprintf("Transaction made at %s, outside your usual hours", txn.Date.In(d.loc).Format("15:04")),
		Evidence:    model.OddTimeEvidence{Hour: hour},
	}, nil
}
