package detect

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/Veraticus/spicewatch/internal/model"
	"github.com/Veraticus/spicewatch/internal/service"
	"github.com/agnivade/levenshtein"
)

// shortTitleLen is the length below which titles may differ by one edit
// instead of two.
const shortTitleLen = 5

// DuplicateDetector finds a recent transaction with the same owner and amount
// and a near-identical title.
type DuplicateDetector struct {
	txns   service.TransactionReader
	window time.Duration
}

// NewDuplicateDetector creates a duplicate detector looking back over window.
func NewDuplicateDetector(txns service.TransactionReader, window time.Duration) *DuplicateDetector {
	return &DuplicateDetector{txns: txns, window: window}
}

// Name implements Detector.
func (d *DuplicateDetector) Name() string { return "duplicate" }

// FindDuplicate returns the first earlier transaction matching txn, or nil.
// The window has no upper bound so that small clock skew between writers
// cannot hide a duplicate.
func (d *DuplicateDetector) FindDuplicate(ctx context.Context, txn model.Transaction) (*model.Transaction, error) {
	from := txn.Date.Add(-d.window)
	candidates, err := d.txns.FindTransactions(ctx, model.TransactionQuery{
		OwnerID:   txn.OwnerID,
		Amount:    &txn.Amount,
		From:      &from,
		ExcludeID: txn.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load recent transactions: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	title := txn.NormalizedTitle()
	for i := range candidates {
		if candidates[i].ID == txn.ID {
			continue
		}
		if TitlesMatch(title, candidates[i].NormalizedTitle()) {
			return &candidates[i], nil
		}
	}
	return nil, nil
}

// TitlesMatch reports whether two normalized titles are equal or within the
// allowed edit distance: 1 when a is shorter than five characters, 2 otherwise.
func TitlesMatch(a, b string) bool {
	if a == b {
		return true
	}
	maxDistance := 2
	if utf8.RuneCountInString(a) < shortTitleLen {
		maxDistance = 1
	}
	return levenshtein.ComputeDistance(a, b) <= maxDistance
}

// Detect implements Detector.
func (d *DuplicateDetector) Detect(ctx context.Context, txn model.Transaction, _ time.Time) (*Finding, error) {
	dup, err := d.FindDuplicate(ctx, txn)
	if err != nil || dup == nil {
		return nil, err
	}

	return &Finding{
		Type:     model.AnomalyDuplicate,
		Severity: model.SeverityMedium,
		Explanation: fmt.Sprintf("Possible duplicate of %q (%s) recorded at %s",
			dup.Title, dup.Amount.StringFixed(2), dup.Date.Format("15:04")),
		Evidence: model.DuplicateEvidence{DuplicateOf: dup.ID},
	}, nil
}
