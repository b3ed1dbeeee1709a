package model

import (
	"encoding/json"
	"fmt"
)

// Evidence is the type-specific payload explaining why an anomaly fired.
// Each anomaly type has exactly one evidence variant.
type Evidence interface {
	Kind() AnomalyType
	Fields() map[string]any
}

// DuplicateEvidence points at the earlier transaction this one repeats.
type DuplicateEvidence struct {
	DuplicateOf string `json:"duplicateOf"`
}

// OddTimeEvidence records the local hour the transaction was made.
type OddTimeEvidence struct {
	Hour int `json:"hour"`
}

// SpikeEvidence compares the amount against the trailing average.
type SpikeEvidence struct {
	Average    float64 `json:"average"`
	Current    float64 `json:"current"`
	Threshold  float64 `json:"threshold"`
	Percentage float64 `json:"percentage"`
}

// OveruseEvidence records a category's share of the month's spending.
type OveruseEvidence struct {
	CategoryTotal float64 `json:"categoryTotal"`
	TotalMonthly  float64 `json:"totalMonthly"`
	Percentage    float64 `json:"percentage"`
}

// BudgetEvidence describes a breached budget.
type BudgetEvidence struct {
	BudgetID     string  `json:"budgetId"`
	BudgetLimit  float64 `json:"budgetLimit"`
	CurrentSpend float64 `json:"currentSpend"`
	ExceededBy   float64 `json:"exceededBy"`
}

// PreventiveEvidence describes a budget that is close to its limit.
type PreventiveEvidence struct {
	BudgetID     string  `json:"budgetId"`
	BudgetLimit  float64 `json:"budgetLimit"`
	CurrentSpend float64 `json:"currentSpend"`
	UsedPercent  float64 `json:"usedPercent"`
}

// LeakEvidence summarizes small recurring charges with the same title.
type LeakEvidence struct {
	Period      string  `json:"period"`
	Count       int     `json:"count"`
	TotalAmount float64 `json:"totalAmount"`
}

// AIEvidence carries the external classifier's confidence.
type AIEvidence struct {
	Provider   string  `json:"provider,omitempty"`
	Confidence float64 `json:"confidence"`
}

func (DuplicateEvidence) Kind() AnomalyType  { return AnomalyDuplicate }
func (OddTimeEvidence) Kind() AnomalyType    { return AnomalyOddTime }
func (SpikeEvidence) Kind() AnomalyType      { return AnomalySpendingSpike }
func (OveruseEvidence) Kind() AnomalyType    { return AnomalyCategoryUsage }
func (BudgetEvidence) Kind() AnomalyType     { return AnomalyBudgetExceed }
func (PreventiveEvidence) Kind() AnomalyType { return AnomalyPreventive }
func (LeakEvidence) Kind() AnomalyType       { return AnomalySilentLeak }
func (AIEvidence) Kind() AnomalyType         { return AnomalyAIDetected }

// Fields returns the evidence as a flat map.
func (e DuplicateEvidence) Fields() map[string]any {
	return map[string]any{"duplicateOf": e.DuplicateOf}
}

// Fields returns the evidence as a flat map.
func (e OddTimeEvidence) Fields() map[string]any {
	return map[string]any{"hour": e.Hour}
}

// Fields returns the evidence as a flat map.
func (e SpikeEvidence) Fields() map[string]any {
	return map[string]any{
		"average":    e.Average,
		"current":    e.Current,
		"threshold":  e.Threshold,
		"percentage": e.Percentage,
	}
}

// Fields returns the evidence as a flat map.
func (e OveruseEvidence) Fields() map[string]any {
	return map[string]any{
		"categoryTotal": e.CategoryTotal,
		"totalMonthly":  e.TotalMonthly,
		"percentage":    e.Percentage,
	}
}

// Fields returns the evidence as a flat map.
func (e BudgetEvidence) Fields() map[string]any {
	return map[string]any{
		"budgetId":     e.BudgetID,
		"budgetLimit":  e.BudgetLimit,
		"currentSpend": e.CurrentSpend,
		"exceededBy":   e.ExceededBy,
	}
}

// Fields returns the evidence as a flat map.
func (e PreventiveEvidence) Fields() map[string]any {
	return map[string]any{
		"budgetId":     e.BudgetID,
		"budgetLimit":  e.BudgetLimit,
		"currentSpend": e.CurrentSpend,
		"usedPercent":  e.UsedPercent,
	}
}

// Fields returns the evidence as a flat map.
func (e LeakEvidence) Fields() map[string]any {
	return map[string]any{
		"period":      e.Period,
		"count":       e.Count,
		"totalAmount": e.TotalAmount,
	}
}

// Fields returns the evidence as a flat map.
func (e AIEvidence) Fields() map[string]any {
	return map[string]any{
		"provider":   e.Provider,
		"confidence": e.Confidence,
	}
}

type evidenceEnvelope struct {
	Kind AnomalyType     `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// MarshalEvidence encodes evidence with its kind tag so it can be decoded back
// into the right variant.
func MarshalEvidence(e Evidence) ([]byte, error) {
	if e == nil {
		return []byte("null"), nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s evidence: %w", e.Kind(), err)
	}
	return json.Marshal(evidenceEnvelope{Kind: e.Kind(), Data: data})
}

// UnmarshalEvidence decodes the output of MarshalEvidence.
func UnmarshalEvidence(raw []byte) (Evidence, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var env evidenceEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode evidence envelope: %w", err)
	}

	var target Evidence
	switch env.Kind {
	case AnomalyDuplicate:
		target = &DuplicateEvidence{}
	case AnomalyOddTime:
		target = &OddTimeEvidence{}
	case AnomalySpendingSpike:
		target = &SpikeEvidence{}
	case AnomalyCategoryUsage:
		target = &OveruseEvidence{}
	case AnomalyBudgetExceed:
		target = &BudgetEvidence{}
	case AnomalyPreventive:
		target = &PreventiveEvidence{}
	case AnomalySilentLeak:
		target = &LeakEvidence{}
	case AnomalyAIDetected:
		target = &AIEvidence{}
	default:
		return nil, fmt.Errorf("unknown evidence kind %q", env.Kind)
	}

	if err := json.Unmarshal(env.Data, target); err != nil {
		return nil, fmt.Errorf("failed to decode %s evidence: %w", env.Kind, err)
	}

	// Hand back values, not pointers, so callers can type-switch on the variant.
	switch v := target.(type) {
	case *DuplicateEvidence:
		return *v, nil
	case *OddTimeEvidence:
		return *v, nil
	case *SpikeEvidence:
		return *v, nil
	case *OveruseEvidence:
		return *v, nil
	case *BudgetEvidence:
		return *v, nil
	case *PreventiveEvidence:
		return *v, nil
	case *LeakEvidence:
		return *v, nil
	case *AIEvidence:
		return *v, nil
	}
	return target, nil
}
