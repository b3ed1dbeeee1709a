package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single expense record written by the bookkeeping layer.
// The detection engine only ever reads it.
type Transaction struct {
	Date        time.Time
	ID          string
	OwnerID     string
	Title       string
	Description string
	Category    Category
	Amount      decimal.Decimal
}

// NormalizedTitle returns the title trimmed and case-folded for comparisons.
func (t Transaction) NormalizedTitle() string {
	return NormalizeTitle(t.Title)
}

// NormalizeTitle trims and case-folds a transaction title.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// TransactionQuery selects transactions belonging to one owner.
// Nil or empty fields are not applied.
type TransactionQuery struct {
	From      *time.Time
	To        *time.Time
	Amount    *decimal.Decimal
	MaxAmount *decimal.Decimal
	Category  *Category
	OwnerID   string
	// Title matches case-insensitively after trimming.
	Title     string
	ExcludeID string
	Limit     int
}
