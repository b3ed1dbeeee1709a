package storage

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/spicewatch/internal/common"
	"github.com/Veraticus/spicewatch/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBudget(id, category string) *model.Budget {
	return &model.Budget{
		ID:        id,
		OwnerID:   testOwner,
		Category:  category,
		Limit:     decimal.NewFromInt(500),
		StartDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 10, 31, 23, 59, 59, 0, time.UTC),
		Active:    true,
	}
}

func TestFindActiveBudgets(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveBudget(ctx, testBudget("food", "Food")))
	require.NoError(t, store.SaveBudget(ctx, testBudget("all", "ALL")))
	require.NoError(t, store.SaveBudget(ctx, testBudget("travel", "travel")))
	inactive := testBudget("off", "food")
	inactive.Active = false
	require.NoError(t, store.SaveBudget(ctx, inactive))
	november := testBudget("nov", "food")
	november.StartDate = time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	november.EndDate = time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveBudget(ctx, november))

	budgets, err := store.FindActiveBudgets(ctx, testOwner, "FOOD", testBase)
	require.NoError(t, err)

	var ids []string
	for _, b := range budgets {
		ids = append(ids, b.ID)
		assert.True(t, b.Limit.Equal(decimal.NewFromInt(500)))
	}
	assert.ElementsMatch(t, []string{"food", "all"}, ids)

	budgets, err = store.FindActiveBudgets(ctx, testOwner, "food", time.Date(2026, 10, 31, 23, 59, 59, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, budgets, 2, "end date is inclusive")

	all, err := store.ListBudgets(ctx, testOwner)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestSaveBudget_UpsertAndToggle(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	b := testBudget("b1", "food")
	require.NoError(t, store.SaveBudget(ctx, b))
	b.Limit = decimal.NewFromInt(750)
	require.NoError(t, store.SaveBudget(ctx, b))
	require.NoError(t, store.SetBudgetActive(ctx, "b1", false))

	budgets, err := store.ListBudgets(ctx, testOwner)
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.True(t, budgets[0].Limit.Equal(decimal.NewFromInt(750)))
	assert.False(t, budgets[0].Active)

	assert.ErrorIs(t, store.SetBudgetActive(ctx, "missing", true), common.ErrNotFound)
}

func TestSaveBudget_Validation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	bad := testBudget("b1", "groceries")
	assert.ErrorIs(t, store.SaveBudget(ctx, bad), ErrInvalidBudget)

	inverted := testBudget("b2", "food")
	inverted.EndDate = inverted.StartDate.Add(-time.Hour)
	assert.ErrorIs(t, store.SaveBudget(ctx, inverted), ErrInvalidDateRange)

	zero := testBudget("b3", "food")
	zero.Limit = decimal.Zero
	assert.ErrorIs(t, store.SaveBudget(ctx, zero), ErrInvalidBudget)
}
