package model

import "strings"

// Severity is the closed three-level scale stored with every anomaly.
type Severity string

// Severity constants.
const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

var severityAliases = map[string]Severity{
	"CRITICAL": SeverityHigh,
	"SEVERE":   SeverityHigh,
	"URGENT":   SeverityHigh,
	"EXTREME":  SeverityHigh,
	"INFO":     SeverityLow,
	"NOTE":     SeverityLow,
	"WARNING":  SeverityLow,
	"MINOR":    SeverityLow,
}

// NormalizeSeverity maps any label, including ones invented by an external
// classifier, onto LOW, MEDIUM or HIGH. Unknown and empty labels become MEDIUM.
func NormalizeSeverity(label string) Severity {
	key := strings.ToUpper(strings.TrimSpace(label))
	switch Severity(key) {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return Severity(key)
	}
	if s, ok := severityAliases[key]; ok {
		return s
	}
	return SeverityMedium
}

// IsValid reports whether s is one of the three canonical levels.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}
