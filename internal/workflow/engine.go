package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/valksor/go-aidev/internal/log"
	"github.com/valksor/go-aidev/internal/naming"
	"github.com/valksor/go-aidev/internal/profile"
	"github.com/valksor/go-aidev/internal/ticket"
)

// ProposalExecSuffix is appended to every step prompt so assistants
// write a proposal first and then execute it.
const ProposalExecSuffix = `

[Mode: proposal then execute]
1) Start with a concise proposal: goal, TODO checklist, risks/assumptions, and any approval needed.
2) Write the proposal as Markdown to the path declared in the run manifest (field: proposal_output).
3) If no approval gate is specified, immediately execute the TODOs now, applying edits/files directly.
4) Narrate actions briefly; do not stop after planning.
5) When done, state what you changed and where to find artifacts (edited file paths and the proposal_output path). If you could not write the file, paste the proposal inline and note the intended path.
`

const inputPreviewLimit = 4000

// ErrFileInputNotAllowed indicates a file argument against a workflow
// whose input declaration forbids files.
var ErrFileInputNotAllowed = errors.New("workflow does not accept file input")

// ProfileResolver resolves a profile name into its effective record.
type ProfileResolver interface {
	Resolve(name string) (*profile.Profile, error)
}

// AssistantResolver picks the assistant for a step given the
// per-invocation override and the step or workflow tool declaration.
type AssistantResolver interface {
	Resolve(cliOverride, workflowTool string) string
}

// StepRunner executes one step against an assistant and returns a
// structured result for the manifest.
type StepRunner interface {
	RunStep(ctx context.Context, assistant, promptText, input string, timeoutSec int) (any, error)
}

// TicketReader resolves a workflow's input reference to plain text.
type TicketReader interface {
	Text(ctx context.Context, source ticket.Source, ticketArg, ticketFile string) (string, error)
}

// Engine materializes run manifests from workflow specs and executes
// them with per-step durable tracking.
type Engine struct {
	loader     *Loader
	profiles   ProfileResolver
	assistants AssistantResolver
	prompts    PromptProvider
	tickets    TicketReader
	runner     StepRunner

	now func() time.Time
}

// NewEngine wires an engine from its collaborators.
func NewEngine(loader *Loader, profiles ProfileResolver, assistants AssistantResolver, prompts PromptProvider, tickets TicketReader, runner StepRunner) *Engine {
	return &Engine{
		loader:     loader,
		profiles:   profiles,
		assistants: assistants,
		prompts:    prompts,
		tickets:    tickets,
		runner:     runner,
		now:        time.Now,
	}
}

// RunOptions carries the per-invocation arguments for Prepare.
type RunOptions struct {
	Ticket       string
	TicketFile   string
	UserPrompt   string
	ToolOverride string
	FromStep     string
	StepOnly     bool
}

// Prepare builds and persists a run manifest for the spec. Every step's
// profile is resolved up front; a profile that cannot be resolved
// aborts preparation before anything is written, so a manifest never
// promises work it already knows cannot proceed.
func (e *Engine) Prepare(ctx context.Context, spec *Spec, opts RunOptions) (*Manifest, error) {
	if opts.TicketFile != "" && !spec.Input.AllowFile {
		return nil, fmt.Errorf("%w: %s", ErrFileInputNotAllowed, spec.Name)
	}

	source := ticket.DetectSource(opts.Ticket, opts.TicketFile)
	ticketText, err := e.tickets.Text(ctx, source, opts.Ticket, opts.TicketFile)
	if err != nil {
		return nil, fmt.Errorf("resolve workflow input: %w", err)
	}
	userText := opts.UserPrompt
	if userText == "" {
		userText = ticketText
	}
	issueCtx := ticket.DetectIssueContext(userText)

	steps := spec.Steps
	if opts.FromStep != "" {
		start := -1
		for i, step := range steps {
			if step.Name == opts.FromStep {
				start = i
				break
			}
		}
		if start < 0 {
			return nil, fmt.Errorf("%w: %q in workflow %q", ErrStepNotFound, opts.FromStep, spec.Name)
		}
		steps = steps[start:]
	}

	records := make([]*StepRecord, 0, len(steps))
	for _, step := range steps {
		if step.Profile != "" {
			if _, err := e.profiles.Resolve(step.Profile); err != nil {
				return nil, fmt.Errorf("step %q: resolve profile: %w", step.Name, err)
			}
		}

		promptText, err := e.prompts.Resolve(step.Prompt)
		if err != nil {
			log.Warn("prompt not resolved", log.Workflow(spec.Name), log.Step(step.Name), log.Err(err))
			promptText = fmt.Sprintf("[prompt %s not found]", step.Prompt)
		}

		workflowTool := step.Tool
		if workflowTool == "" {
			workflowTool = spec.ToolDefault
		}

		records = append(records, &StepRecord{
			Name:           step.Name,
			Profile:        step.Profile,
			PromptID:       step.Prompt,
			PromptText:     promptText + ProposalExecSuffix,
			Assistant:      e.assistants.Resolve(opts.ToolOverride, workflowTool),
			ToolTimeoutSec: step.TimeoutSec,
			Retries:        step.Retries,
			Input: StepInput{
				TicketSource:      string(source),
				TicketTextPreview: truncate(ticketText, inputPreviewLimit),
				UserPrompt:        truncate(userText, inputPreviewLimit),
				IssueContext:      issueCtx,
			},
			Output: StepOutput{Status: StatusNotRun},
		})
		if opts.StepOnly {
			break
		}
	}

	now := e.now()
	m := &Manifest{
		Workflow:      spec.Name,
		Description:   spec.Description,
		SchemaVersion: SchemaVersion,
		TicketSource:  string(source),
		TicketArg:     opts.Ticket,
		TicketFile:    opts.TicketFile,
		Steps:         records,
		CreatedAt:     now.Unix(),
	}

	runsDir := e.loader.RunsDir()
	if err := os.MkdirAll(runsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create runs directory: %w", err)
	}
	base := fmt.Sprintf("%s-%s", naming.Slugify(spec.Name, 50), now.Format("20060102-150405"))
	m.path = filepath.Join(runsDir, base+".json")
	m.ManifestPath = m.path
	m.ProposalOutput = filepath.Join(runsDir, base+".proposal.md")

	if err := m.save(); err != nil {
		return nil, err
	}
	log.Info("workflow prepared", log.Workflow(spec.Name), "manifest", m.path)
	return m, nil
}

// ExecOptions configures Execute.
type ExecOptions struct {
	// FromStep starts execution at the named step. Steps before it are
	// left untouched; the named step re-runs even when already ok.
	FromStep string
}

// Execute runs the manifest's steps in order. Steps already at ok are
// skipped unless explicitly targeted via FromStep, which is what makes
// resuming idempotent with respect to prior successes. Each result is
// persisted before the next step starts.
func (e *Engine) Execute(ctx context.Context, m *Manifest, opts ExecOptions) error {
	if opts.FromStep != "" && m.Step(opts.FromStep) == nil {
		return fmt.Errorf("%w: %q", ErrStepNotFound, opts.FromStep)
	}

	started := opts.FromStep == ""
	for _, step := range m.Steps {
		if !started {
			if step.Name != opts.FromStep {
				continue
			}
			started = true
		}
		if step.Output.Status == StatusOK && step.Name != opts.FromStep {
			log.Debug("skipping completed step", log.Step(step.Name))
			continue
		}

		if err := e.runStep(ctx, m, step); err != nil {
			return err
		}
	}

	incomplete := m.Validate()
	if len(incomplete) == 0 {
		now := e.now().Unix()
		m.CompletedAt = &now
		if err := m.save(); err != nil {
			return err
		}
		log.Info("workflow completed", log.Workflow(m.Workflow))
	} else {
		log.Warn("workflow finished with incomplete steps", log.Workflow(m.Workflow), "incomplete", strings.Join(incomplete, ","))
	}
	return nil
}

// runStep attempts one step, honoring its retry budget, and records
// exactly one terminal outcome in the manifest.
func (e *Engine) runStep(ctx context.Context, m *Manifest, step *StepRecord) error {
	step.Output.StartedAt = e.now().Unix()

	input := step.Input.UserPrompt
	if input == "" {
		input = step.Input.TicketTextPreview
	}

	var lastErr error
	for attempt := 0; attempt <= step.Retries; attempt++ {
		if attempt > 0 {
			log.Debug("retrying step", log.Step(step.Name), "attempt", attempt+1)
		}
		result, err := e.runner.RunStep(ctx, step.Assistant, step.PromptText, input, step.ToolTimeoutSec)
		if err == nil {
			step.Output.EndedAt = e.now().Unix()
			return m.MarkStepComplete(step.Name, result)
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	step.Output.EndedAt = e.now().Unix()
	log.Error("step failed", log.Workflow(m.Workflow), log.Step(step.Name), log.Err(lastErr))
	return m.MarkStepFailed(step.Name, lastErr.Error())
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
