package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Budget caps spending in one category (or all of them) for a single period.
type Budget struct {
	StartDate time.Time
	EndDate   time.Time
	ID        string
	OwnerID   string
	Category  string
	Limit     decimal.Decimal
	Active    bool
}

// Covers reports whether at falls inside the budget period, both ends inclusive.
func (b Budget) Covers(at time.Time) bool {
	return !at.Before(b.StartDate) && !at.After(b.EndDate)
}

// AppliesTo reports whether the budget tracks spending in category.
func (b Budget) AppliesTo(category Category) bool {
	if b.IsAllCategories() {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(b.Category), string(category))
}

// IsAllCategories reports whether the budget uses the all-categories sentinel.
func (b Budget) IsAllCategories() bool {
	return strings.EqualFold(strings.TrimSpace(b.Category), AllCategories)
}
