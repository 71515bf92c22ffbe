package commands

import (
	"strings"
	"testing"

	"github.com/valksor/go-aidev/internal/workflow"
)

func resetRunFlags() {
	runTicket = ""
	runTicketFile = ""
	runUserPrompt = ""
	runTool = ""
	runFromStep = ""
	runStepOnly = false
	runPrepareOnly = false
	resumeFromStep = ""
	markCompleteStep = ""
}

func TestWorkflowList(t *testing.T) {
	setupTest(t)
	mustInit(t)

	out, err := execute(t, workflowCmd, "workflow", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"implement_ticket", "refactor_scout", "review_pr"} {
		if !strings.Contains(out, want) {
			t.Errorf("list missing bundled workflow %q:\n%s", want, out)
		}
	}
}

func TestWorkflowListProjectOverride(t *testing.T) {
	project := setupTest(t)
	mustInit(t)

	override := `workflows:
  implement_ticket:
    description: Project-specific variant
    steps:
      - name: only_step
        profile: default
        prompt: implementer
`
	writeProjectWorkflows(t, project, override)

	out, err := execute(t, workflowCmd, "workflow", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Project-specific variant") {
		t.Errorf("project workflow did not replace bundled one:\n%s", out)
	}
}

func TestWorkflowRunPrepareOnly(t *testing.T) {
	setupTest(t)
	mustInit(t)
	resetRunFlags()

	runUserPrompt = "Fix the login timeout"
	runPrepareOnly = true
	defer resetRunFlags()

	out, err := execute(t, workflowCmd, "workflow", "run", "implement_ticket")
	if err != nil {
		t.Fatalf("run --prepare-only: %v", err)
	}
	if !strings.Contains(out, "Run prepared") || !strings.Contains(out, "implement_ticket") {
		t.Errorf("run output:\n%s", out)
	}

	loader := workflow.NewLoader(workDir())
	path, err := latestManifest(loader)
	if err != nil {
		t.Fatalf("latestManifest: %v", err)
	}
	m, err := workflow.LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if len(m.Steps) != 3 {
		t.Fatalf("manifest has %d steps, want 3", len(m.Steps))
	}
	for _, step := range m.Steps {
		if step.Output.Status != workflow.StatusNotRun {
			t.Errorf("step %s status = %s before execution", step.Name, step.Output.Status)
		}
	}

	// Run is remembered for quick resume
	if len(settings.RecentRuns) == 0 || settings.RecentRuns[0] != path {
		t.Errorf("recent runs = %v, want %s first", settings.RecentRuns, path)
	}
}

func TestWorkflowRunUnknownWorkflow(t *testing.T) {
	setupTest(t)
	mustInit(t)
	resetRunFlags()

	if _, err := execute(t, workflowCmd, "workflow", "run", "no_such_workflow"); err == nil {
		t.Error("unknown workflow should fail")
	}
}

func TestWorkflowRunFileInputRejected(t *testing.T) {
	setupTest(t)
	mustInit(t)
	resetRunFlags()

	// review_pr declares allow_file: false
	runTicketFile = "notes.md"
	defer resetRunFlags()

	if _, err := execute(t, workflowCmd, "workflow", "run", "review_pr"); err == nil {
		t.Error("file input against a no-file workflow should fail")
	}
}

func TestWorkflowStatusAndMarkComplete(t *testing.T) {
	setupTest(t)
	mustInit(t)
	resetRunFlags()

	runUserPrompt = "Scan for refactors"
	runPrepareOnly = true
	if _, err := execute(t, workflowCmd, "workflow", "run", "refactor_scout"); err != nil {
		t.Fatalf("run: %v", err)
	}
	resetRunFlags()

	out, err := execute(t, workflowStatusCmd, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "scout") || !strings.Contains(out, "Pending") {
		t.Errorf("status output:\n%s", out)
	}

	if _, err := execute(t, workflowMarkCompleteCmd, "mark-complete"); err != nil {
		t.Fatalf("mark-complete: %v", err)
	}

	out, err = execute(t, workflowStatusCmd, "status")
	if err != nil {
		t.Fatalf("status after mark-complete: %v", err)
	}
	if !strings.Contains(out, "Completed") {
		t.Errorf("step not completed:\n%s", out)
	}
	if !strings.Contains(out, "Completed:") {
		t.Errorf("run-level completion missing:\n%s", out)
	}
}

func TestWorkflowMarkCompleteUnknownStep(t *testing.T) {
	setupTest(t)
	mustInit(t)
	resetRunFlags()

	runUserPrompt = "x"
	runPrepareOnly = true
	if _, err := execute(t, workflowCmd, "workflow", "run", "refactor_scout"); err != nil {
		t.Fatalf("run: %v", err)
	}
	resetRunFlags()

	markCompleteStep = "no_such_step"
	defer resetRunFlags()
	if _, err := execute(t, workflowMarkCompleteCmd, "mark-complete"); err == nil {
		t.Error("unknown step should fail")
	}
}

func TestWorkflowRuns(t *testing.T) {
	setupTest(t)
	mustInit(t)
	resetRunFlags()

	runUserPrompt = "one"
	runPrepareOnly = true
	if _, err := execute(t, workflowCmd, "workflow", "run", "refactor_scout"); err != nil {
		t.Fatalf("run: %v", err)
	}
	resetRunFlags()

	out, err := execute(t, workflowRunsCmd, "runs")
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if !strings.Contains(out, "refactor_scout") || !strings.Contains(out, "0/1") {
		t.Errorf("runs output:\n%s", out)
	}
}

func TestWorkflowStatusNoRuns(t *testing.T) {
	setupTest(t)
	mustInit(t)

	out, err := execute(t, workflowStatusCmd, "status")
	if err == nil {
		t.Error("status without runs should fail")
	}
	if !strings.Contains(out, "No workflow run found") {
		t.Errorf("missing suggestion output:\n%s", out)
	}
}
