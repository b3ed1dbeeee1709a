package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClassification(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		wantSeverity string
		wantConf     float64
		wantAnomaly  bool
		wantErr      bool
	}{
		{
			name:         "plain json",
			content:      `{"isAnomaly": true, "severity": "HIGH", "explanation": "x", "confidence": 0.8}`,
			wantAnomaly:  true,
			wantSeverity: "HIGH",
			wantConf:     0.8,
		},
		{
			name:         "markdown fenced",
			content:      "```json\n{\"isAnomaly\": false, \"severity\": \"low\", \"explanation\": \"fine\", \"confidence\": 0.3}\n```",
			wantSeverity: "LOW",
			wantConf:     0.3,
		},
		{
			name:         "invented severity normalized",
			content:      `{"isAnomaly": true, "severity": "Extreme", "explanation": "x", "confidence": 0.5}`,
			wantAnomaly:  true,
			wantSeverity: "HIGH",
			wantConf:     0.5,
		},
		{
			name:         "chatter around object and missing severity",
			content:      `Sure! {"isAnomaly": true, "explanation": "x", "confidence": 1.7} Hope that helps.`,
			wantAnomaly:  true,
			wantSeverity: "MEDIUM",
			wantConf:     1,
		},
		{
			name:    "missing isAnomaly",
			content: `{"severity": "HIGH"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			content: `looks fine to me`,
			wantErr: true,
		},
		{
			name:    "wrong types",
			content: `{"isAnomaly": "yes"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseClassification(tt.content)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAnomaly, got.IsAnomaly)
			assert.Equal(t, tt.wantSeverity, got.Severity)
			assert.InDelta(t, tt.wantConf, got.Confidence, 1e-9)
		})
	}
}

func TestBuildPrompt_Bounded(t *testing.T) {
	txn := testTxn(120, "other")
	long := make([]rune, 5000)
	for i := range long {
		long[i] = 'a'
	}
	txn.Description = string(long)

	prompt := buildPrompt(txn)
	assert.Less(t, len(prompt), 1500)
	assert.Contains(t, prompt, "Amount: 120.00")
	assert.Contains(t, prompt, "Category: other")
}
