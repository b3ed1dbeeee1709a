package storage

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/spicewatch/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidateContext(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, validateContext(context.Background()))
	assert.NoError(t, validateContext(cancelled), "cancelled contexts are still valid")
	assert.ErrorIs(t, validateContext(nil), ErrNilContext)
}

func TestValidateString(t *testing.T) {
	assert.NoError(t, validateString("test", "param"))
	assert.ErrorIs(t, validateString("", "param"), ErrEmptyString)
	assert.ErrorIs(t, validateString("   ", "param"), ErrEmptyString)
}

func TestValidateTransaction(t *testing.T) {
	valid := testTransaction("t1", "Coffee", "4.50", model.CategoryFood, testBase)

	tests := []struct {
		mutate func(*model.Transaction)
		name   string
	}{
		{name: "missing id", mutate: func(t *model.Transaction) { t.ID = "" }},
		{name: "missing owner", mutate: func(t *model.Transaction) { t.OwnerID = "" }},
		{name: "zero date", mutate: func(t *model.Transaction) { t.Date = time.Time{} }},
		{name: "blank title", mutate: func(t *model.Transaction) { t.Title = "  " }},
		{name: "unknown category", mutate: func(t *model.Transaction) { t.Category = "groceries" }},
		{name: "negative amount", mutate: func(t *model.Transaction) { t.Amount = decimal.NewFromInt(-1) }},
	}

	assert.NoError(t, validateTransaction(&valid))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := valid
			tt.mutate(&txn)
			assert.ErrorIs(t, validateTransaction(&txn), ErrInvalidTransaction)
		})
	}

	assert.ErrorIs(t, validateTransactions(nil), ErrEmptySlice)
}

func TestValidateBudget(t *testing.T) {
	valid := model.Budget{
		ID:        "b1",
		OwnerID:   testOwner,
		Category:  "food",
		Limit:     decimal.NewFromInt(500),
		StartDate: testBase,
		EndDate:   testBase.AddDate(0, 1, 0),
		Active:    true,
	}
	assert.NoError(t, validateBudget(&valid))

	all := valid
	all.Category = "ALL"
	assert.NoError(t, validateBudget(&all))

	unknown := valid
	unknown.Category = "groceries"
	assert.ErrorIs(t, validateBudget(&unknown), ErrInvalidBudget)

	zero := valid
	zero.Limit = decimal.Zero
	assert.ErrorIs(t, validateBudget(&zero), ErrInvalidBudget)

	backwards := valid
	backwards.EndDate = testBase.AddDate(0, 0, -1)
	assert.ErrorIs(t, validateBudget(&backwards), ErrInvalidDateRange)

	assert.ErrorIs(t, validateBudget(nil), ErrInvalidBudget)
}

func TestValidateAudit(t *testing.T) {
	valid := model.AuditEntry{
		ID:           "a1",
		Action:       model.AuditActionAnomalyReviewed,
		ResourceType: model.AuditResourceAnomaly,
		ResourceID:   "an-1",
		Actor:        "alex",
		Timestamp:    testBase,
	}
	assert.NoError(t, validateAudit(&valid))

	noActor := valid
	noActor.Actor = ""
	assert.ErrorIs(t, validateAudit(&noActor), ErrInvalidAudit)

	noResource := valid
	noResource.ResourceID = ""
	assert.ErrorIs(t, validateAudit(&noResource), ErrInvalidAudit)
}
