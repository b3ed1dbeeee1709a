package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSeverity(t *testing.T) {
	tests := []struct {
		input string
		want  Severity
	}{
		{"LOW", SeverityLow},
		{"low", SeverityLow},
		{"  Medium ", SeverityMedium},
		{"high", SeverityHigh},
		{"critical", SeverityHigh},
		{"SEVERE", SeverityHigh},
		{"Urgent", SeverityHigh},
		{"extreme", SeverityHigh},
		{"info", SeverityLow},
		{"Note", SeverityLow},
		{"WARNING", SeverityLow},
		{"minor", SeverityLow},
		{"", SeverityMedium},
		{"catastrophic", SeverityMedium},
		{"moderate", SeverityMedium},
		{"höch", SeverityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSeverity(tt.input))
		})
	}
}

func TestNormalizeSeverity_Idempotent(t *testing.T) {
	inputs := []string{
		"", "low", "MEDIUM", "High", "critical", "info", "warning", "nonsense",
		"  urgent\t", "123", "LOW ", "note", "🔥",
	}

	for _, in := range inputs {
		once := NormalizeSeverity(in)
		assert.True(t, once.IsValid(), "normalize(%q) = %q is not canonical", in, once)
		assert.Equal(t, once, NormalizeSeverity(string(once)), "normalize is not idempotent for %q", in)
	}
}

func FuzzNormalizeSeverity(f *testing.F) {
	for _, seed := range []string{"", "LOW", "critical", "minor", "x"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, in string) {
		once := NormalizeSeverity(in)
		if !once.IsValid() {
			t.Fatalf("normalize(%q) = %q, not a canonical severity", in, once)
		}
		if twice := NormalizeSeverity(string(once)); twice != once {
			t.Fatalf("normalize not idempotent: %q -> %q -> %q", in, once, twice)
		}
	})
}
