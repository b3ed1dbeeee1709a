package llm

import (
	"fmt"
	"strings"

	"github.com/Veraticus/spicewatch/internal/model"
)

const maxPromptField = 200

// buildPrompt describes the transaction for the model. Free-text fields are
// truncated so the request stays bounded.
func buildPrompt(txn model.Transaction) string {
	var b strings.Builder
	b.WriteString("Review this personal finance transaction and decide whether it looks irregular ")
	b.WriteString("(possible fraud, duplicate billing, an unusual merchant, or an amount out of line with the category).\n\n")
	fmt.Fprintf(&b, "Title: %s\n", truncate(txn.Title, maxPromptField))
	if desc := strings.TrimSpace(txn.Description); desc != "" {
		fmt.Fprintf(&b, "Description: %s\n", truncate(desc, maxPromptField))
	}
	fmt.Fprintf(&b, "Amount: %s\n", txn.Amount.StringFixed(2))
	fmt.Fprintf(&b, "Category: %s\n", txn.Category)
	fmt.Fprintf(&b, "Date: %s\n\n", txn.Date.Format("2006-01-02 15:04"))
	b.WriteString(`Respond with JSON: {"isAnomaly": true|false, "severity": "LOW"|"MEDIUM"|"HIGH", "explanation": "<one sentence>", "confidence": <0.0-1.0>}`)
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
