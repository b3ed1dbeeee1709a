package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/spicewatch/internal/common"
	"github.com/Veraticus/spicewatch/internal/model"
	"github.com/shopspring/decimal"
)

const budgetColumns = `id, owner_id, category, amount_limit, start_date, end_date, active`

// SaveBudget creates or replaces a budget.
func (s *SQLiteStorage) SaveBudget(ctx context.Context, budget *model.Budget) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBudget(budget); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (id, owner_id, category, amount_limit, start_date, end_date, active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category = excluded.category,
			amount_limit = excluded.amount_limit,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			active = excluded.active
	`,
		budget.ID,
		budget.OwnerID,
		strings.TrimSpace(budget.Category),
		budget.Limit.String(),
		formatTime(budget.StartDate),
		formatTime(budget.EndDate),
		budget.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to save budget: %w", err)
	}
	return nil
}

// FindActiveBudgets returns the owner's active budgets covering at whose
// category matches case-insensitively or is the all-categories sentinel.
func (s *SQLiteStorage) FindActiveBudgets(ctx context.Context, ownerID, category string, at time.Time) ([]model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	ts := formatTime(at)
	return s.queryBudgets(ctx, `
		SELECT `+budgetColumns+` FROM budgets
		WHERE owner_id = ? AND active = 1
			AND start_date <= ? AND end_date >= ?
			AND (LOWER(category) = LOWER(?) OR LOWER(category) = ?)
		ORDER BY start_date, id
	`, ownerID, ts, ts, strings.TrimSpace(category), model.AllCategories)
}

// ListBudgets returns every budget of an owner, active or not.
func (s *SQLiteStorage) ListBudgets(ctx context.Context, ownerID string) ([]model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryBudgets(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE owner_id = ? ORDER BY start_date, id`, ownerID)
}

// SetBudgetActive enables or disables a budget.
func (s *SQLiteStorage) SetBudgetActive(ctx context.Context, id string, active bool) error {
	result, err := s.db.ExecContext(ctx, `UPDATE budgets SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update budget: %w", err)
	}
	return requireRow(result, "budget", id)
}

func (s *SQLiteStorage) queryBudgets(ctx context.Context, query string, args ...any) ([]model.Budget, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var budgets []model.Budget
	for rows.Next() {
		var (
			b          model.Budget
			limit      string
			start, end string
		)
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Category, &limit, &start, &end, &b.Active); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		if b.Limit, err = decimal.NewFromString(limit); err != nil {
			return nil, fmt.Errorf("invalid stored limit %q: %w", limit, err)
		}
		if b.StartDate, err = parseTime(start); err != nil {
			return nil, err
		}
		if b.EndDate, err = parseTime(end); err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate budgets: %w", err)
	}
	return budgets, nil
}

func requireRow(result sql.Result, resource, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", resource, id, common.ErrNotFound)
	}
	return nil
}
