package model

import "time"

// AuditEntry is one immutable record in the append-only audit log.
type AuditEntry struct {
	Timestamp    time.Time
	Before       map[string]any
	After        map[string]any
	ID           string
	Action       string
	ResourceType string
	ResourceID   string
	Actor        string
}

// Audit actions written by the review flow.
const (
	AuditActionAnomalyReviewed = "ANOMALY_REVIEWED"
	AuditResourceAnomaly       = "anomaly"
)
