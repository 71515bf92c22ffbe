package display

import (
	"fmt"
	"strings"
)

// Suggestion represents a suggested action for error recovery.
type Suggestion struct {
	Command     string
	Description string
}

// ErrorWithSuggestions formats an error message with actionable suggestions.
func ErrorWithSuggestions(message string, suggestions []Suggestion) string {
	var sb strings.Builder

	// Error header
	sb.WriteString(ErrorMsg("%s", message))
	sb.WriteString("\n")

	// Add suggestions if any
	if len(suggestions) > 0 {
		sb.WriteString("\n")
		sb.WriteString(Muted("Suggested actions:"))
		sb.WriteString("\n")
		for _, s := range suggestions {
			sb.WriteString(fmt.Sprintf("  %s %s - %s\n",
				Muted("•"),
				Cyan(s.Command),
				s.Description,
			))
		}
	}

	return sb.String()
}

// Common error messages with suggestions

// NotInitializedError returns a formatted "not initialized" error.
func NotInitializedError() string {
	return ErrorWithSuggestions(
		"aidev is not initialized in this project",
		[]Suggestion{
			{Command: "aidev init", Description: "Initialize aidev in this project"},
			{Command: "aidev profile list", Description: "See available profiles"},
		},
	)
}

// NoManifestError returns a formatted "no run manifest" error.
func NoManifestError() string {
	return ErrorWithSuggestions(
		"No workflow run found",
		[]Suggestion{
			{Command: "aidev workflow list", Description: "See available workflows"},
			{Command: "aidev workflow run <name>", Description: "Start a new run"},
		},
	)
}
