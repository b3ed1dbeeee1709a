// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/spicewatch/internal/model"
	"github.com/charmbracelet/lipgloss"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#FF6B6B")
	// SuccessColor indicates successful operations.
	SuccessColor = lipgloss.Color("#4ECDC4") // Teal
	// WarningColor indicates warnings or caution messages.
	WarningColor = lipgloss.Color("#FFE66D") // Yellow
	// ErrorColor indicates errors or failure messages.
	ErrorColor = lipgloss.Color("#FF6B6B") // Red
	// InfoColor indicates informational messages.
	InfoColor = lipgloss.Color("#95E1D3") // Light teal
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666") // Gray

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().Foreground(ErrorColor)

	// InfoStyle formats informational messages.
	InfoStyle = lipgloss.NewStyle().Foreground(InfoColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().Foreground(SubtleColor)

	// BoldStyle makes text bold.
	BoldStyle = lipgloss.NewStyle().Bold(true)

	// BoxStyle is used for bordered content boxes.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2)

	// TableHeaderStyle is used for table headers.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(lipgloss.Color("#333"))

	// TableCellStyle formats table cells with appropriate padding.
	TableCellStyle = lipgloss.NewStyle().PaddingRight(2)

	// PromptStyle is used for user prompts.
	PromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	AlertIcon   = "🚨"
	RobotIcon   = "🤖"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatTitle formats a title with the alert icon.
func FormatTitle(title string) string {
	return TitleStyle.Render(AlertIcon + " " + title)
}

// FormatPrompt formats a prompt message.
func FormatPrompt(prompt string) string {
	return PromptStyle.Render(prompt + " → ")
}

// RenderBox renders content in a styled box.
func RenderBox(title, content string) string {
	boxTitle := TitleStyle.UnsetMargins().Render(title)
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, boxTitle, content))
}

// SeverityStyle picks the color of a severity label.
func SeverityStyle(s model.Severity) lipgloss.Style {
	switch s {
	case model.SeverityHigh:
		return ErrorStyle.Bold(true)
	case model.SeverityMedium:
		return WarningStyle
	default:
		return InfoStyle
	}
}

// FormatSeverity renders a severity label in its color.
func FormatSeverity(s model.Severity) string {
	return SeverityStyle(s).Render(string(s))
}

// FormatStatus renders a review status.
func FormatStatus(s model.AnomalyStatus) string {
	switch s {
	case model.StatusPending:
		return WarningStyle.Render(string(s))
	case model.StatusConfirmed:
		return ErrorStyle.Render(string(s))
	case model.StatusDismissed:
		return SubtleStyle.Render(string(s))
	default:
		return SuccessStyle.Render(string(s))
	}
}

// RenderAnomaly renders one anomaly with its evidence in a box.
func RenderAnomaly(a model.Anomaly) string {
	icon := AlertIcon
	if a.Type == model.AnomalyAIDetected {
		icon = RobotIcon
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", FormatSeverity(a.Severity), FormatStatus(a.Status))
	fmt.Fprintf(&b, "%s\n", a.Explanation)
	if a.TransactionID != nil {
		fmt.Fprintf(&b, "%s\n", SubtleStyle.Render("transaction "+*a.TransactionID))
	}
	fmt.Fprintf(&b, "%s", SubtleStyle.Render("detected "+a.DetectedAt.Local().Format("2006-01-02 15:04")))

	if a.Evidence != nil {
		fields := a.Evidence.Fields()
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "\n%s %v", BoldStyle.Render(k+":"), fields[k])
		}
	}

	if a.ResolutionNote != nil {
		fmt.Fprintf(&b, "\n\n%s %s", BoldStyle.Render("note:"), *a.ResolutionNote)
	}

	return RenderBox(fmt.Sprintf("%s %s  %s", icon, a.Type, SubtleStyle.Render(a.ID)), b.String())
}

// RenderAnomalyTable renders anomalies as a compact table.
func RenderAnomalyTable(anomalies []model.Anomaly) string {
	if len(anomalies) == 0 {
		return FormatInfo("No anomalies found")
	}

	headers := []string{"ID", "DETECTED", "TYPE", "SEVERITY", "STATUS", "EXPLANATION"}
	rows := make([][]string, 0, len(anomalies))
	for _, a := range anomalies {
		rows = append(rows, []string{
			shortID(a.ID),
			a.DetectedAt.Local().Format("2006-01-02 15:04"),
			string(a.Type),
			FormatSeverity(a.Severity),
			FormatStatus(a.Status),
			truncate(a.Explanation, 60),
		})
	}
	return renderTable(headers, rows)
}

// RenderBudgetTable renders budgets as a compact table.
func RenderBudgetTable(budgets []model.Budget) string {
	if len(budgets) == 0 {
		return FormatInfo("No budgets configured")
	}

	headers := []string{"ID", "CATEGORY", "LIMIT", "FROM", "TO", "ACTIVE"}
	rows := make([][]string, 0, len(budgets))
	for _, b := range budgets {
		active := SuccessStyle.Render("yes")
		if !b.Active {
			active = SubtleStyle.Render("no")
		}
		rows = append(rows, []string{
			shortID(b.ID),
			b.Category,
			b.Limit.StringFixed(2),
			b.StartDate.Format("2006-01-02"),
			b.EndDate.Format("2006-01-02"),
			active,
		})
	}
	return renderTable(headers, rows)
}

func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	line := func(cells []string, style lipgloss.Style) string {
		rendered := make([]string, len(cells))
		for i, cell := range cells {
			rendered[i] = TableCellStyle.Width(widths[i] + 2).Render(cell)
		}
		return style.Render(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	}

	out := []string{line(headers, TableHeaderStyle)}
	for _, row := range rows {
		out = append(out, line(row, lipgloss.NewStyle()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, out...)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
