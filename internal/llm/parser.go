package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Veraticus/spicewatch/internal/model"
)

// cleanMarkdownWrapper strips ```json fences some models add despite instructions.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```JSON")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}
	return strings.TrimSpace(content)
}

// parseClassification decodes a model answer into a Classification. The
// answer must be a JSON object carrying at least isAnomaly; anything else is
// ErrMalformedResponse. Severity comes back already normalized.
func parseClassification(content string) (model.Classification, error) {
	content = cleanMarkdownWrapper(content)

	// Tolerate chatter around the object.
	if start, end := strings.Index(content, "{"), strings.LastIndex(content, "}"); start >= 0 && end > start {
		content = content[start : end+1]
	}

	var raw struct {
		IsAnomaly   *bool    `json:"isAnomaly"`
		Severity    string   `json:"severity"`
		Explanation string   `json:"explanation"`
		Confidence  *float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return model.Classification{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if raw.IsAnomaly == nil {
		return model.Classification{}, fmt.Errorf("%w: missing isAnomaly", ErrMalformedResponse)
	}

	confidence := 0.0
	if raw.Confidence != nil {
		confidence = *raw.Confidence
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return model.Classification{
		IsAnomaly:   *raw.IsAnomaly,
		Severity:    string(model.NormalizeSeverity(raw.Severity)),
		Explanation: strings.TrimSpace(raw.Explanation),
		Confidence:  confidence,
	}, nil
}
