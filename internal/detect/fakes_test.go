package detect

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/spicewatch/internal/model"
	"github.com/shopspring/decimal"
)

var errStoreDown = errors.New("database is locked")

// memStore is an in-memory TransactionReader, BudgetReader and AnomalyWriter.
type memStore struct {
	findErr   error
	sumErr    error
	insertErr error
	txns      []model.Transaction
	budgets   []model.Budget
	inserted  []model.Anomaly
	mu        sync.Mutex
}

func (s *memStore) add(txns ...model.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txns = append(s.txns, txns...)
}

func (s *memStore) FindTransactions(_ context.Context, q model.TransactionQuery) ([]model.Transaction, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Transaction
	for _, t := range s.txns {
		switch {
		case q.OwnerID != "" && t.OwnerID != q.OwnerID:
		case q.ExcludeID != "" && t.ID == q.ExcludeID:
		case q.From != nil && t.Date.Before(*q.From):
		case q.To != nil && t.Date.After(*q.To):
		case q.Amount != nil && !t.Amount.Equal(*q.Amount):
		case q.MaxAmount != nil && t.Amount.GreaterThan(*q.MaxAmount):
		case q.Category != nil && t.Category != *q.Category:
		case q.Title != "" && !strings.EqualFold(strings.TrimSpace(t.Title), strings.TrimSpace(q.Title)):
		default:
			out = append(out, t)
		}
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (s *memStore) SumByCategory(_ context.Context, ownerID string, category *model.Category, from, to time.Time) (decimal.Decimal, error) {
	if s.sumErr != nil {
		return decimal.Zero, s.sumErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, t := range s.txns {
		if t.OwnerID != ownerID || t.Date.Before(from) || t.Date.After(to) {
			continue
		}
		if category != nil && t.Category != *category {
			continue
		}
		total = total.Add(t.Amount)
	}
	return total, nil
}

func (s *memStore) FindActiveBudgets(_ context.Context, ownerID, category string, at time.Time) ([]model.Budget, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	var out []model.Budget
	for _, b := range s.budgets {
		if b.OwnerID == ownerID && b.Active && b.Covers(at) && b.AppliesTo(model.Category(category)) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *memStore) InsertAnomalies(_ context.Context, anomalies []model.Anomaly) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserted = append(s.inserted, anomalies...)
	return nil
}

// fakeClassifier returns a fixed opinion and counts calls.
type fakeClassifier struct {
	result *model.Classification
	calls  int
}

func (c *fakeClassifier) Classify(context.Context, model.Transaction) (*model.Classification, bool) {
	c.calls++
	if c.result == nil {
		return nil, false
	}
	return c.result, true
}

// stubDetector returns a canned finding, error or panic.
type stubDetector struct {
	finding *Finding
	err     error
	name    string
	panics  bool
}

func (d stubDetector) Name() string { return d.name }

func (d stubDetector) Detect(context.Context, model.Transaction, time.Time) (*Finding, error) {
	if d.panics {
		panic("nil map write")
	}
	return d.finding, d.err
}

var (
	baseTime = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	owner    = "user-1"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func txnAt(id, title string, amount string, category model.Category, at time.Time) model.Transaction {
	return model.Transaction{
		ID:       id,
		OwnerID:  owner,
		Title:    title,
		Amount:   decimal.RequireFromString(amount),
		Category: category,
		Date:     at,
	}
}
