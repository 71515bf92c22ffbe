package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/valksor/go-aidev/internal/log"
	"github.com/valksor/go-aidev/internal/ticket"
)

// SchemaVersion is carried through manifests unchanged so future format
// migrations can detect old records.
const SchemaVersion = "1.1"

// Step status values. A step starts at not-run and ends at ok or
// failed; no other state is ever persisted.
const (
	StatusNotRun = "not-run"
	StatusOK     = "ok"
	StatusFailed = "failed"
)

var (
	// ErrStepNotFound indicates an update or resume naming a step the
	// manifest never declared.
	ErrStepNotFound = errors.New("step not found in manifest")

	// ErrManifestNotFound indicates a missing manifest file.
	ErrManifestNotFound = errors.New("manifest not found")
)

// StepInput captures the resolved ticket/text context handed to a step.
type StepInput struct {
	TicketSource      string              `json:"ticket_source"`
	TicketTextPreview string              `json:"ticket_text_preview"`
	UserPrompt        string              `json:"user_prompt"`
	IssueContext      ticket.IssueContext `json:"issue_context"`
}

// StepOutput is the mutable result slot of a step record.
type StepOutput struct {
	Status      string `json:"status"`
	Result      any    `json:"result"`
	StartedAt   int64  `json:"started_at,omitempty"`
	EndedAt     int64  `json:"ended_at,omitempty"`
	CompletedAt int64  `json:"completed_at,omitempty"`
}

// StepRecord is one fully-resolved step inside a manifest.
type StepRecord struct {
	Name           string     `json:"name"`
	Profile        string     `json:"profile,omitempty"`
	PromptID       string     `json:"prompt_id"`
	PromptText     string     `json:"prompt_text"`
	Assistant      string     `json:"assistant"`
	ToolTimeoutSec int        `json:"tool_timeout_sec"`
	Retries        int        `json:"retries"`
	Input          StepInput  `json:"input"`
	Output         StepOutput `json:"output"`
}

// Manifest is the durable, timestamped record of one workflow run.
// Every mutation rewrites the whole file atomically, which is what
// makes the manifest a reliable crash-recovery log.
type Manifest struct {
	Workflow       string        `json:"workflow"`
	Description    string        `json:"description"`
	SchemaVersion  string        `json:"schema_version"`
	TicketSource   string        `json:"ticket_source"`
	TicketArg      string        `json:"ticket_arg,omitempty"`
	TicketFile     string        `json:"ticket_file,omitempty"`
	Steps          []*StepRecord `json:"steps"`
	CreatedAt      int64         `json:"created_at"`
	CompletedAt    *int64        `json:"completed_at"`
	ManifestPath   string        `json:"manifest_path"`
	ProposalOutput string        `json:"proposal_output"`

	path string
}

// LoadManifest reads a manifest from disk. A missing file is
// ErrManifestNotFound; a run that does not exist cannot be resumed.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	m.path = path
	return &m, nil
}

// Path returns the manifest's location on disk.
func (m *Manifest) Path() string {
	return m.path
}

// save rewrites the whole manifest through a temp file and rename, so a
// crash mid-write never leaves a truncated record behind.
func (m *Manifest) save() error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		if removeErr := os.Remove(tmp); removeErr != nil {
			log.Warn("failed to clean up temp file after rename error", "path", tmp, log.Err(removeErr))
		}
		return fmt.Errorf("save manifest: %w", err)
	}
	return nil
}

// Step returns the named step record, or nil.
func (m *Manifest) Step(name string) *StepRecord {
	for _, step := range m.Steps {
		if step.Name == name {
			return step
		}
	}
	return nil
}

// MarkStepComplete records a step's success and persists the manifest
// immediately. Call it after each step, not batched at the end; that is
// the crash-safety contract. An unknown step name is an error and
// leaves the file untouched.
func (m *Manifest) MarkStepComplete(stepName string, result any) error {
	return m.markStep(stepName, StatusOK, result)
}

// MarkStepFailed records a step's failure with the same persistence
// contract as MarkStepComplete.
func (m *Manifest) MarkStepFailed(stepName string, errMsg string) error {
	return m.markStep(stepName, StatusFailed, errMsg)
}

func (m *Manifest) markStep(stepName, status string, result any) error {
	step := m.Step(stepName)
	if step == nil {
		return fmt.Errorf("%w: %q", ErrStepNotFound, stepName)
	}
	step.Output.Status = status
	step.Output.Result = result
	return m.save()
}

// Validate returns the names of steps still at not-run. Empty means the
// run completed every step.
func (m *Manifest) Validate() []string {
	var incomplete []string
	for _, step := range m.Steps {
		if step.Output.Status == StatusNotRun {
			incomplete = append(incomplete, step.Name)
		}
	}
	return incomplete
}

// CompletedSteps returns the names of steps with status ok, in manifest
// order.
func (m *Manifest) CompletedSteps() []string {
	return m.stepsWithStatus(StatusOK)
}

// FailedSteps returns the names of steps with status failed, in
// manifest order.
func (m *Manifest) FailedSteps() []string {
	return m.stepsWithStatus(StatusFailed)
}

func (m *Manifest) stepsWithStatus(status string) []string {
	var names []string
	for _, step := range m.Steps {
		if step.Output.Status == status {
			names = append(names, step.Name)
		}
	}
	return names
}

// MarkComplete sets ok on the named step, or on every pending step when
// name is empty, stamping completed_at on each. The manifest-level
// completed_at is set once all steps are done.
func (m *Manifest) MarkComplete(stepName string, now int64) error {
	if stepName != "" && m.Step(stepName) == nil {
		return fmt.Errorf("%w: %q", ErrStepNotFound, stepName)
	}

	updated := false
	for _, step := range m.Steps {
		if stepName != "" && step.Name != stepName {
			continue
		}
		if step.Output.Status != StatusNotRun {
			continue
		}
		step.Output.Status = StatusOK
		step.Output.Result = "Marked complete manually"
		step.Output.CompletedAt = now
		updated = true
	}
	if !updated {
		return nil
	}

	if len(m.Validate()) == 0 && m.CompletedAt == nil {
		m.CompletedAt = &now
	}
	return m.save()
}
