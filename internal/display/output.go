// Package display provides user-friendly formatting for CLI output.
package display

import (
	"fmt"
	"strings"
	"time"
)

// RunInfo holds workflow run information for consistent display.
type RunInfo struct {
	Workflow     string
	Description  string
	TicketSource string
	Manifest     string
	Proposal     string
	Created      string
	Completed    string
}

// FormatRunInfo formats run information consistently across commands.
// Empty fields are skipped.
func FormatRunInfo(header string, info RunInfo) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s: %s\n", header, Bold(info.Workflow)))

	pairs := []struct{ label, value string }{
		{"Description:", info.Description},
		{"Source:", info.TicketSource},
		{"Manifest:", info.Manifest},
		{"Proposal:", info.Proposal},
		{"Created:", info.Created},
		{"Completed:", info.Completed},
	}
	for _, p := range pairs {
		if p.value != "" {
			sb.WriteString(fmt.Sprintf("  %-13s%s\n", p.label, p.value))
		}
	}

	return sb.String()
}

// StepLine formats one step row for run status output:
// "  ● implement  [C] Completed  (profile: default, assistant: claude)".
func StepLine(name, status, profile, assistant string) string {
	line := fmt.Sprintf("  %s %-20s %s", GetStepStatusIcon(status), name, FormatStepStatusColored(status))
	var extras []string
	if profile != "" {
		extras = append(extras, "profile: "+profile)
	}
	if assistant != "" {
		extras = append(extras, "assistant: "+assistant)
	}
	if len(extras) > 0 {
		line += "  " + Muted("("+strings.Join(extras, ", ")+")")
	}
	return line
}

// PrintNextSteps prints a "Next steps:" section with consistent
// formatting. Each entry uses "command - description" format.
func PrintNextSteps(steps ...string) {
	if len(steps) == 0 {
		return
	}

	fmt.Println()
	fmt.Println(Muted("Next steps:"))

	for _, step := range steps {
		parts := strings.SplitN(step, " - ", 2)
		if len(parts) == 2 {
			fmt.Printf("  %s  %s\n", Cyan(parts[0]), Muted("- "+parts[1]))
		} else {
			fmt.Printf("  %s\n", Cyan(step))
		}
	}
}

// TimestampFormat is the standard timestamp format for CLI output.
const TimestampFormat = "2006-01-02 15:04:05"

// Timestamp formats a unix timestamp using the standard format.
// Zero yields an empty string.
func Timestamp(unix int64) string {
	if unix == 0 {
		return ""
	}
	return time.Unix(unix, 0).Format(TimestampFormat)
}

// Truncate truncates a string to a maximum length, adding "..." if
// truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}

// Table formats a simple table with headers.
func Table(headers []string, rows [][]string) string {
	var sb strings.Builder

	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(colWidths) && len(cell) > colWidths[i] {
				colWidths[i] = len(cell)
			}
		}
	}

	headerCells := make([]string, len(headers))
	for i, h := range headers {
		headerCells[i] = fmt.Sprintf("%-*s", colWidths[i], h)
	}
	sb.WriteString(Bold(strings.Join(headerCells, "  ")))
	sb.WriteString("\n")

	var separators []string
	for _, w := range colWidths {
		separators = append(separators, strings.Repeat("─", w))
	}
	sb.WriteString(Muted(strings.Join(separators, "  ")))
	sb.WriteString("\n")

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i < len(colWidths) {
				cells[i] = fmt.Sprintf("%-*s", colWidths[i], cell)
			} else {
				cells[i] = cell
			}
		}
		sb.WriteString(strings.TrimRight(strings.Join(cells, "  "), " "))
		sb.WriteString("\n")
	}

	return sb.String()
}
