// Package service defines the contracts between the detection engine and its collaborators.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/spicewatch/internal/model"
	"github.com/shopspring/decimal"
)

// TransactionReader gives detectors read-only access to an owner's history.
type TransactionReader interface {
	FindTransactions(ctx context.Context, query model.TransactionQuery) ([]model.Transaction, error)
	// SumByCategory totals the owner's spending between from and to, both inclusive.
	// A nil category sums across all categories.
	SumByCategory(ctx context.Context, ownerID string, category *model.Category, from, to time.Time) (decimal.Decimal, error)
}

// BudgetReader looks up budgets relevant to a transaction.
type BudgetReader interface {
	// FindActiveBudgets returns active budgets whose period covers at and whose
	// category matches case-insensitively or is the all-categories sentinel.
	FindActiveBudgets(ctx context.Context, ownerID, category string, at time.Time) ([]model.Budget, error)
}

// AnomalyWriter persists a batch of anomalies. A failed call means none of
// the batch was stored.
type AnomalyWriter interface {
	InsertAnomalies(ctx context.Context, anomalies []model.Anomaly) error
}

// AuditAppender appends to the audit log. Entries are never updated or removed.
type AuditAppender interface {
	AppendAudit(ctx context.Context, entry model.AuditEntry) error
}

// Classifier returns an external opinion about a transaction, or false when
// no opinion could be obtained.
type Classifier interface {
	Classify(ctx context.Context, txn model.Transaction) (*model.Classification, bool)
}

// AnomalyFilter narrows anomaly listings.
type AnomalyFilter struct {
	Since   *time.Time
	OwnerID string
	Status  model.AnomalyStatus
	Type    model.AnomalyType
	Limit   int
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
