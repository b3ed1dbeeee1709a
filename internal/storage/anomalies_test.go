package storage

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/spicewatch/internal/common"
	"github.com/Veraticus/spicewatch/internal/model"
	"github.com/Veraticus/spicewatch/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAnomaly(id string, typ model.AnomalyType, evidence model.Evidence, at time.Time) model.Anomaly {
	txnID := "t1"
	return model.Anomaly{
		ID:            id,
		OwnerID:       testOwner,
		TransactionID: &txnID,
		Type:          typ,
		Severity:      model.SeverityMedium,
		Status:        model.StatusPending,
		Explanation:   "explanation for " + id,
		Evidence:      evidence,
		DetectedAt:    at,
	}
}

func TestInsertAnomalies_RoundTrip(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	batch := []model.Anomaly{
		testAnomaly("a1", model.AnomalyDuplicate, model.DuplicateEvidence{DuplicateOf: "t0"}, testBase),
		testAnomaly("a2", model.AnomalyBudgetExceed, model.BudgetEvidence{BudgetID: "b1", BudgetLimit: 500, CurrentSpend: 501, ExceededBy: 1}, testBase),
	}
	require.NoError(t, store.InsertAnomalies(ctx, batch))

	got, err := store.GetAnomaly(ctx, "a2")
	require.NoError(t, err)
	assert.Equal(t, batch[1].Evidence, got.Evidence)
	assert.Equal(t, "t1", *got.TransactionID)
	assert.True(t, got.DetectedAt.Equal(testBase))
	assert.Nil(t, got.ResolvedAt)
	assert.Nil(t, got.ResolutionNote)

	_, err = store.GetAnomaly(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestInsertAnomalies_AllOrNothing(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.InsertAnomalies(ctx, []model.Anomaly{
		testAnomaly("a1", model.AnomalyOddTime, model.OddTimeEvidence{Hour: 3}, testBase),
	}))

	err := store.InsertAnomalies(ctx, []model.Anomaly{
		testAnomaly("a2", model.AnomalyOddTime, model.OddTimeEvidence{Hour: 3}, testBase),
		testAnomaly("a1", model.AnomalyOddTime, model.OddTimeEvidence{Hour: 3}, testBase),
	})
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	_, err = store.GetAnomaly(ctx, "a2")
	assert.ErrorIs(t, err, common.ErrNotFound, "a failed batch stores nothing")

	invalid := testAnomaly("a3", model.AnomalyOddTime, model.OddTimeEvidence{Hour: 3}, testBase)
	invalid.Severity = "CRITICAL"
	assert.ErrorIs(t, store.InsertAnomalies(ctx, []model.Anomaly{invalid}), ErrInvalidAnomaly)
}

func TestListAnomalies(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	other := testAnomaly("a4", model.AnomalyOddTime, model.OddTimeEvidence{Hour: 2}, testBase)
	other.OwnerID = "user-2"
	require.NoError(t, store.InsertAnomalies(ctx, []model.Anomaly{
		testAnomaly("a1", model.AnomalyOddTime, model.OddTimeEvidence{Hour: 2}, testBase.Add(-48*time.Hour)),
		testAnomaly("a2", model.AnomalySilentLeak, model.LeakEvidence{Period: "30 days", Count: 3, TotalAmount: 30}, testBase.Add(-time.Hour)),
		testAnomaly("a3", model.AnomalyOddTime, model.OddTimeEvidence{Hour: 4}, testBase),
		other,
	}))
	_, err := store.ResolveAnomaly(ctx, "a3", model.StatusDismissed, "", "me", testBase)
	require.NoError(t, err)

	since := testBase.Add(-2 * time.Hour)
	tests := []struct {
		name   string
		filter service.AnomalyFilter
		want   []string
	}{
		{"owner newest first", service.AnomalyFilter{OwnerID: testOwner}, []string{"a3", "a2", "a1"}},
		{"pending", service.AnomalyFilter{OwnerID: testOwner, Status: model.StatusPending}, []string{"a2", "a1"}},
		{"type", service.AnomalyFilter{Type: model.AnomalyOddTime}, []string{"a3", "a4", "a1"}},
		{"since", service.AnomalyFilter{OwnerID: testOwner, Since: &since}, []string{"a3", "a2"}},
		{"limit", service.AnomalyFilter{OwnerID: testOwner, Limit: 1}, []string{"a3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListAnomalies(ctx, tt.filter)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, a := range got {
				ids = append(ids, a.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestResolveAnomaly(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	require.NoError(t, store.InsertAnomalies(ctx, []model.Anomaly{
		testAnomaly("a1", model.AnomalySpendingSpike, model.SpikeEvidence{Average: 10, Current: 40, Threshold: 30, Percentage: 300}, testBase),
	}))
	reviewedAt := testBase.Add(time.Hour)

	resolved, err := store.ResolveAnomaly(ctx, "a1", model.StatusReviewed, "  looking into it ", "alex", reviewedAt)
	require.NoError(t, err)
	assert.Equal(t, model.StatusReviewed, resolved.Status)
	assert.Equal(t, "looking into it", *resolved.ResolutionNote)

	stored, err := store.GetAnomaly(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusReviewed, stored.Status)
	require.NotNil(t, stored.ResolvedAt)
	assert.True(t, stored.ResolvedAt.Equal(reviewedAt))

	_, err = store.ResolveAnomaly(ctx, "a1", model.StatusReviewed, "", "alex", reviewedAt)
	assert.ErrorIs(t, err, common.ErrInvalidTransition)

	_, err = store.ResolveAnomaly(ctx, "a1", model.StatusConfirmed, "fraud", "alex", reviewedAt.Add(time.Hour))
	require.NoError(t, err)

	_, err = store.ResolveAnomaly(ctx, "a1", model.StatusDismissed, "", "alex", reviewedAt)
	assert.ErrorIs(t, err, common.ErrInvalidTransition, "final states stay final")

	_, err = store.ResolveAnomaly(ctx, "a1", model.StatusPending, "", "alex", reviewedAt)
	assert.ErrorIs(t, err, common.ErrInvalidTransition)

	_, err = store.ResolveAnomaly(ctx, "missing", model.StatusDismissed, "", "alex", reviewedAt)
	assert.ErrorIs(t, err, common.ErrNotFound)

	trail, err := store.ListAudit(ctx, model.AuditResourceAnomaly, "a1")
	require.NoError(t, err)
	require.Len(t, trail, 2, "only successful transitions are audited")
	assert.Equal(t, model.AuditActionAnomalyReviewed, trail[0].Action)
	assert.Equal(t, "alex", trail[0].Actor)
	assert.Equal(t, "PENDING", trail[0].Before["status"])
	assert.Equal(t, "REVIEWED", trail[0].After["status"])
	assert.Equal(t, "CONFIRMED", trail[1].After["status"])
	assert.Equal(t, "fraud", trail[1].After["resolutionNote"])
}
