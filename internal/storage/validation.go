// Package storage provides the SQLite persistence layer for transactions,
// budgets, anomalies and the audit log.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/spicewatch/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrInvalidDateRange   = errors.New("start date must be before end date")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidBudget      = errors.New("invalid budget")
	ErrInvalidAnomaly     = errors.New("invalid anomaly")
	ErrInvalidAudit       = errors.New("invalid audit entry")
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateTransactions(transactions []model.Transaction) error {
	if len(transactions) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}
	for i := range transactions {
		if err := validateTransaction(&transactions[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

func validateTransaction(txn *model.Transaction) error {
	switch {
	case txn.ID == "":
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	case txn.OwnerID == "":
		return fmt.Errorf("%w: missing owner", ErrInvalidTransaction)
	case txn.Date.IsZero():
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	case strings.TrimSpace(txn.Title) == "":
		return fmt.Errorf("%w: missing title", ErrInvalidTransaction)
	case !txn.Category.IsValid():
		return fmt.Errorf("%w: unknown category %q", ErrInvalidTransaction, txn.Category)
	case txn.Amount.IsNegative():
		return fmt.Errorf("%w: negative amount %s", ErrInvalidTransaction, txn.Amount)
	}
	return nil
}

func validateBudget(b *model.Budget) error {
	if b == nil {
		return fmt.Errorf("%w: nil budget", ErrInvalidBudget)
	}
	switch {
	case b.ID == "":
		return fmt.Errorf("%w: missing ID", ErrInvalidBudget)
	case b.OwnerID == "":
		return fmt.Errorf("%w: missing owner", ErrInvalidBudget)
	case strings.TrimSpace(b.Category) == "":
		return fmt.Errorf("%w: missing category", ErrInvalidBudget)
	case !b.Limit.IsPositive():
		return fmt.Errorf("%w: limit must be positive", ErrInvalidBudget)
	case b.EndDate.Before(b.StartDate):
		return fmt.Errorf("%w: %w", ErrInvalidBudget, ErrInvalidDateRange)
	}
	if !b.IsAllCategories() {
		if _, err := model.ParseCategory(b.Category); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidBudget, err)
		}
	}
	return nil
}

func validateAnomalies(anomalies []model.Anomaly) error {
	if len(anomalies) == 0 {
		return fmt.Errorf("%w: anomalies", ErrEmptySlice)
	}
	for i := range anomalies {
		if err := anomalies[i].Validate(); err != nil {
			return fmt.Errorf("%w at index %d: %w", ErrInvalidAnomaly, i, err)
		}
	}
	return nil
}

func validateAudit(entry *model.AuditEntry) error {
	switch {
	case entry.ID == "":
		return fmt.Errorf("%w: missing ID", ErrInvalidAudit)
	case entry.Action == "":
		return fmt.Errorf("%w: missing action", ErrInvalidAudit)
	case entry.ResourceType == "" || entry.ResourceID == "":
		return fmt.Errorf("%w: missing resource", ErrInvalidAudit)
	case entry.Actor == "":
		return fmt.Errorf("%w: missing actor", ErrInvalidAudit)
	case entry.Timestamp.IsZero():
		return fmt.Errorf("%w: missing timestamp", ErrInvalidAudit)
	}
	return nil
}
