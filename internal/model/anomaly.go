package model

import (
	"fmt"
	"strings"
	"time"
)

// AnomalyType tags what kind of irregularity an anomaly describes.
type AnomalyType string

// Anomaly type constants.
const (
	AnomalyDuplicate     AnomalyType = "duplicate-transaction"
	AnomalyOddTime       AnomalyType = "odd-time-pattern"
	AnomalySpendingSpike AnomalyType = "spending-spike"
	AnomalyCategoryUsage AnomalyType = "category-overuse"
	AnomalyBudgetExceed  AnomalyType = "budget-exceeded"
	AnomalySilentLeak    AnomalyType = "silent-leak"
	AnomalyPreventive    AnomalyType = "preventive-warning"
	AnomalyAIDetected    AnomalyType = "ai-detected-irregularity"
)

// ParseAnomalyType resolves an anomaly type name, ignoring case.
func ParseAnomalyType(s string) (AnomalyType, error) {
	switch t := AnomalyType(strings.ToLower(strings.TrimSpace(s))); t {
	case AnomalyDuplicate, AnomalyOddTime, AnomalySpendingSpike, AnomalyCategoryUsage,
		AnomalyBudgetExceed, AnomalySilentLeak, AnomalyPreventive, AnomalyAIDetected:
		return t, nil
	}
	return "", fmt.Errorf("unknown anomaly type %q", s)
}

// AnomalyStatus tracks the human review lifecycle of an anomaly.
type AnomalyStatus string

// Anomaly status constants.
const (
	StatusPending   AnomalyStatus = "PENDING"
	StatusReviewed  AnomalyStatus = "REVIEWED"
	StatusDismissed AnomalyStatus = "DISMISSED"
	StatusConfirmed AnomalyStatus = "CONFIRMED"
)

// ParseAnomalyStatus resolves a review status name, ignoring case.
func ParseAnomalyStatus(s string) (AnomalyStatus, error) {
	switch st := AnomalyStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusPending, StatusReviewed, StatusDismissed, StatusConfirmed:
		return st, nil
	}
	return "", fmt.Errorf("unknown anomaly status %q", s)
}

// IsResolution reports whether status is a valid target for a review action.
func (s AnomalyStatus) IsResolution() bool {
	return s == StatusReviewed || s == StatusDismissed || s == StatusConfirmed
}

// Anomaly is a flagged irregularity tied to one transaction.
type Anomaly struct {
	DetectedAt     time.Time
	Evidence       Evidence
	TransactionID  *string
	ResolutionNote *string
	ResolvedAt     *time.Time
	ID             string
	OwnerID        string
	Type           AnomalyType
	Severity       Severity
	Status         AnomalyStatus
	Explanation    string
}

// Validate checks the fields storage relies on.
func (a Anomaly) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("anomaly: missing ID")
	}
	if a.OwnerID == "" {
		return fmt.Errorf("anomaly %s: missing owner", a.ID)
	}
	if a.Type == "" {
		return fmt.Errorf("anomaly %s: missing type", a.ID)
	}
	if !a.Severity.IsValid() {
		return fmt.Errorf("anomaly %s: severity %q out of range", a.ID, a.Severity)
	}
	if a.DetectedAt.IsZero() {
		return fmt.Errorf("anomaly %s: missing detection time", a.ID)
	}
	if a.Evidence != nil && a.Evidence.Kind() != a.Type {
		return fmt.Errorf("anomaly %s: evidence kind %q does not match type %q", a.ID, a.Evidence.Kind(), a.Type)
	}
	return nil
}

// Classification is an external classifier's opinion about one transaction.
type Classification struct {
	Severity    string  `json:"severity"`
	Explanation string  `json:"explanation"`
	Provider    string  `json:"-"`
	Confidence  float64 `json:"confidence"`
	IsAnomaly   bool    `json:"isAnomaly"`
}
