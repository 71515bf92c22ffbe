// Package display provides user-friendly formatting for internal state
// values. This separates display concerns from internal representation,
// allowing user-facing text to evolve without breaking stored manifests.
package display

import (
	"github.com/valksor/go-aidev/internal/workflow"
)

// StepStatusDisplay maps manifest step status values to user-friendly
// names.
var StepStatusDisplay = map[string]string{
	workflow.StatusNotRun: "Pending",
	workflow.StatusOK:     "Completed",
	workflow.StatusFailed: "Failed",
}

// StepStatusIcon returns the visual icon for a step status.
var StepStatusIcon = map[string]string{
	workflow.StatusNotRun: "○", // empty circle
	workflow.StatusOK:     "●", // filled circle
	workflow.StatusFailed: "✗",
}

// StepStatusAccessiblePrefix provides short text prefixes for
// accessibility. These help color-blind users distinguish statuses
// without relying on color alone.
var StepStatusAccessiblePrefix = map[string]string{
	workflow.StatusNotRun: "[P]", // Pending
	workflow.StatusOK:     "[C]", // Completed
	workflow.StatusFailed: "[F]", // Failed
}

// FormatStepStatus returns the user-friendly display name for a step
// status. Falls back to the raw status string if not found.
func FormatStepStatus(status string) string {
	if name, ok := StepStatusDisplay[status]; ok {
		return name
	}
	return status
}

// GetStepStatusIcon returns the icon for a step status.
// Returns "?" for unknown statuses.
func GetStepStatusIcon(status string) string {
	if icon, ok := StepStatusIcon[status]; ok {
		return icon
	}
	return "?"
}

// FormatStepStatusColored returns a colored status display name with
// accessibility prefix. Format: "[C] Completed".
func FormatStepStatusColored(status string) string {
	prefix, ok := StepStatusAccessiblePrefix[status]
	if !ok {
		prefix = "[?]"
	}
	return Muted(prefix) + " " + ColorStepStatus(status, FormatStepStatus(status))
}

// FormatStepStatusWithIcon returns "icon status" format for display.
func FormatStepStatusWithIcon(status string) string {
	return GetStepStatusIcon(status) + " " + ColorStepStatus(status, FormatStepStatus(status))
}
