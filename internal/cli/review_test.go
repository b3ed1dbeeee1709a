package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/spicewatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAnomaly() model.Anomaly {
	txnID := "txn-42"
	return model.Anomaly{
		ID:            "0f8fad5b-d9cb-469f-a165-70867728950e",
		OwnerID:       "user-1",
		TransactionID: &txnID,
		Type:          model.AnomalyBudgetExceed,
		Severity:      model.SeverityHigh,
		Status:        model.StatusPending,
		Explanation:   "Food budget of 500.00 exceeded by 1.00",
		Evidence:      model.BudgetEvidence{BudgetID: "b1", BudgetLimit: 500, CurrentSpend: 501, ExceededBy: 1},
		DetectedAt:    time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC),
	}
}

func TestReviewPrompter_Ask(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Decision
	}{
		{"confirm with note", "c\ncard was stolen\n", Decision{Status: model.StatusConfirmed, Note: "card was stolen"}},
		{"dismiss without note", "dismiss\n\n", Decision{Status: model.StatusDismissed}},
		{"retry on unknown choice", "x\nr\nchecked\n", Decision{Status: model.StatusReviewed, Note: "checked"}},
		{"skip", "\n", Decision{Skip: true}},
		{"quit", "q\n", Decision{Quit: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewReviewPrompter(strings.NewReader(tt.input), &out)

			got, err := p.Ask(context.Background(), sampleAnomaly())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "exceeded by 1.00")
		})
	}
}

func TestReviewPrompter_EndOfInput(t *testing.T) {
	p := NewReviewPrompter(strings.NewReader(""), io.Discard)
	_, err := p.Ask(context.Background(), sampleAnomaly())
	assert.ErrorIs(t, err, io.EOF)
}

func TestReviewPrompter_Cancelled(t *testing.T) {
	r, w := io.Pipe()
	defer func() { _ = w.Close() }()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewReviewPrompter(r, io.Discard).Ask(ctx, sampleAnomaly())
	assert.ErrorIs(t, err, ErrInputCancelled)
}

func TestRenderAnomaly(t *testing.T) {
	out := RenderAnomaly(sampleAnomaly())
	assert.Contains(t, out, "budget-exceeded")
	assert.Contains(t, out, "exceededBy")
	assert.Contains(t, out, "txn-42")
}

func TestRenderTables(t *testing.T) {
	assert.Contains(t, RenderAnomalyTable(nil), "No anomalies")

	table := RenderAnomalyTable([]model.Anomaly{sampleAnomaly()})
	assert.Contains(t, table, "0f8fad5b")
	assert.NotContains(t, table, "0f8fad5b-d9cb")
	assert.Contains(t, table, "HIGH")

	assert.Contains(t, RenderBudgetTable(nil), "No budgets")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
