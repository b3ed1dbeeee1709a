package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvidence_RoundTripPreservesVariant(t *testing.T) {
	evidence := []Evidence{
		DuplicateEvidence{DuplicateOf: "txn-1"},
		SpikeEvidence{Average: 100, Current: 301, Threshold: 300, Percentage: 201},
		BudgetEvidence{BudgetID: "b1", BudgetLimit: 500, CurrentSpend: 501, ExceededBy: 1},
		LeakEvidence{Period: "30 days", Count: 3, TotalAmount: 29.97},
		AIEvidence{Provider: "openai", Confidence: 0.8},
	}

	for _, e := range evidence {
		t.Run(string(e.Kind()), func(t *testing.T) {
			raw, err := MarshalEvidence(e)
			require.NoError(t, err)

			decoded, err := UnmarshalEvidence(raw)
			require.NoError(t, err)
			assert.Equal(t, e, decoded)
			assert.Equal(t, e.Fields(), decoded.Fields())
		})
	}
}

func TestUnmarshalEvidence_Errors(t *testing.T) {
	_, err := UnmarshalEvidence([]byte(`{"kind":"made-up","data":{}}`))
	assert.Error(t, err)

	_, err = UnmarshalEvidence([]byte(`not json`))
	assert.Error(t, err)

	e, err := UnmarshalEvidence(nil)
	assert.NoError(t, err)
	assert.Nil(t, e)
}

func TestAnomaly_Validate(t *testing.T) {
	txnID := "txn-1"
	valid := Anomaly{
		ID:            "a1",
		OwnerID:       "u1",
		TransactionID: &txnID,
		Type:          AnomalyDuplicate,
		Severity:      SeverityMedium,
		Status:        StatusPending,
		DetectedAt:    time.Now(),
		Evidence:      DuplicateEvidence{DuplicateOf: "txn-0"},
	}
	require.NoError(t, valid.Validate())

	badSeverity := valid
	badSeverity.Severity = "CRITICAL"
	assert.Error(t, badSeverity.Validate())

	mismatched := valid
	mismatched.Evidence = SpikeEvidence{}
	assert.Error(t, mismatched.Validate())

	noOwner := valid
	noOwner.OwnerID = ""
	assert.Error(t, noOwner.Validate())
}

func TestBudget_CoversAndAppliesTo(t *testing.T) {
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 10, 31, 23, 59, 59, 0, time.UTC)
	b := Budget{Category: "Food", Limit: decimal.NewFromInt(500), StartDate: start, EndDate: end, Active: true}

	assert.True(t, b.Covers(start))
	assert.True(t, b.Covers(end))
	assert.False(t, b.Covers(end.Add(time.Second)))
	assert.True(t, b.AppliesTo(CategoryFood))
	assert.False(t, b.AppliesTo(CategoryTravel))

	all := Budget{Category: "ALL"}
	assert.True(t, all.IsAllCategories())
	assert.True(t, all.AppliesTo(CategoryTravel))
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" Food ")
	require.NoError(t, err)
	assert.Equal(t, CategoryFood, c)

	_, err = ParseCategory("groceries")
	assert.Error(t, err)
	assert.True(t, CategoryOther.IsValid())
}

func TestParseAnomalyTypeAndStatus(t *testing.T) {
	typ, err := ParseAnomalyType(" Silent-Leak ")
	require.NoError(t, err)
	assert.Equal(t, AnomalySilentLeak, typ)

	_, err = ParseAnomalyType("fraud")
	assert.Error(t, err)

	st, err := ParseAnomalyStatus("dismissed")
	require.NoError(t, err)
	assert.Equal(t, StatusDismissed, st)
	assert.True(t, st.IsResolution())
	assert.False(t, StatusPending.IsResolution())
}
