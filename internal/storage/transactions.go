package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/spicewatch/internal/common"
	"github.com/Veraticus/spicewatch/internal/model"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, owner_id, date, title, description, category, amount`

// SaveTransactions stores transactions, skipping IDs that already exist.
// It returns the transactions that were newly written.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateTransactions(transactions); err != nil {
		return nil, err
	}

	var inserted []model.Transaction
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO transactions (
				id, owner_id, date, title, title_norm, description, category, amount
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, txn := range transactions {
			result, err := stmt.ExecContext(ctx,
				txn.ID,
				txn.OwnerID,
				formatTime(txn.Date),
				strings.TrimSpace(txn.Title),
				normalizeTitle(txn.Title),
				txn.Description,
				string(txn.Category),
				txn.Amount.String(),
			)
			if err != nil {
				return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
			}
			if n, _ := result.RowsAffected(); n > 0 {
				inserted = append(inserted, txn)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

// GetTransactionByID retrieves a single transaction.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// FindTransactions returns the transactions matching query, oldest first.
// Amount filters are applied after decoding since amounts are stored as text.
func (s *SQLiteStorage) FindTransactions(ctx context.Context, query model.TransactionQuery) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(query.OwnerID, "ownerID"); err != nil {
		return nil, err
	}

	var (
		where = []string{"owner_id = ?"}
		args  = []any{query.OwnerID}
	)
	if query.From != nil {
		where = append(where, "date >= ?")
		args = append(args, formatTime(*query.From))
	}
	if query.To != nil {
		where = append(where, "date <= ?")
		args = append(args, formatTime(*query.To))
	}
	if query.Category != nil {
		where = append(where, "category = ?")
		args = append(args, string(*query.Category))
	}
	if query.Title != "" {
		where = append(where, "title_norm = ?")
		args = append(args, normalizeTitle(query.Title))
	}
	if query.ExcludeID != "" {
		where = append(where, "id <> ?")
		args = append(args, query.ExcludeID)
	}

	sqlQuery := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY date, id`
	filterAmounts := query.Amount != nil || query.MaxAmount != nil
	if query.Limit > 0 && !filterAmounts {
		sqlQuery += fmt.Sprintf(" LIMIT %d", query.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		if query.Amount != nil && !txn.Amount.Equal(*query.Amount) {
			continue
		}
		if query.MaxAmount != nil && txn.Amount.GreaterThan(*query.MaxAmount) {
			continue
		}
		out = append(out, txn)
		if query.Limit > 0 && len(out) == query.Limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return out, nil
}

// SumByCategory totals an owner's spending between from and to inclusive.
// A nil category sums across every category.
func (s *SQLiteStorage) SumByCategory(ctx context.Context, ownerID string, category *model.Category, from, to time.Time) (decimal.Decimal, error) {
	if err := validateContext(ctx); err != nil {
		return decimal.Zero, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return decimal.Zero, err
	}
	if to.Before(from) {
		return decimal.Zero, fmt.Errorf("%w: end date %v is before start date %v", ErrInvalidDateRange, to, from)
	}

	query := `SELECT amount FROM transactions WHERE owner_id = ? AND date >= ? AND date <= ?`
	args := []any{ownerID, formatTime(from), formatTime(to)}
	if category != nil {
		query += ` AND category = ?`
		args = append(args, string(*category))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query spending: %w", err)
	}
	defer func() { _ = rows.Close() }()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan amount: %w", err)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid stored amount %q: %w", raw, err)
		}
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("failed to iterate amounts: %w", err)
	}
	return total, nil
}

// GetTransactionCount returns how many transactions an owner has.
func (s *SQLiteStorage) GetTransactionCount(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE owner_id = ?`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (model.Transaction, error) {
	var (
		txn               model.Transaction
		date, cat, amount string
	)
	if err := row.Scan(&txn.ID, &txn.OwnerID, &date, &txn.Title, &txn.Description, &cat, &amount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return txn, err
		}
		return txn, fmt.Errorf("failed to scan transaction: %w", err)
	}

	var err error
	if txn.Date, err = parseTime(date); err != nil {
		return txn, err
	}
	if txn.Amount, err = decimal.NewFromString(amount); err != nil {
		return txn, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	txn.Category = model.Category(cat)
	return txn, nil
}
