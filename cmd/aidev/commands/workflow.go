package commands

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/valksor/go-aidev/internal/config"
	"github.com/valksor/go-aidev/internal/display"
	"github.com/valksor/go-aidev/internal/workflow"
)

var (
	runTicket      string
	runTicketFile  string
	runUserPrompt  string
	runTool        string
	runFromStep    string
	runStepOnly    bool
	runPrepareOnly bool

	resumeFromStep string

	markCompleteStep string
)

var workflowCmd = &cobra.Command{
	Use:     "workflow",
	Short:   "Run and inspect multi-step workflows",
	GroupID: "workflow",
	Long: `Workflows are named sequences of steps, each binding a profile and a
prompt to an assistant. Running a workflow writes a durable JSON
manifest that records every step's outcome; a run that stops early can
be resumed from the manifest without repeating completed steps.`,
}

var workflowListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available workflows",
	RunE:  runWorkflowList,
}

var workflowRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Prepare and execute a workflow",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkflowRun,
}

var workflowStatusCmd = &cobra.Command{
	Use:   "status [manifest]",
	Short: "Show the status of a workflow run",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWorkflowStatus,
}

var workflowResumeCmd = &cobra.Command{
	Use:   "resume [manifest]",
	Short: "Resume an interrupted workflow run",
	Long: `Resume a run from its manifest. Steps already completed are skipped;
use --from-step to re-run a specific step even when it succeeded.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWorkflowResume,
}

var workflowMarkCompleteCmd = &cobra.Command{
	Use:   "mark-complete [manifest]",
	Short: "Mark pending steps as completed manually",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWorkflowMarkComplete,
}

var workflowRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List run manifests for this project",
	RunE:  runWorkflowRuns,
}

func init() {
	rootCmd.AddCommand(workflowCmd)
	workflowCmd.AddCommand(workflowListCmd, workflowRunCmd, workflowStatusCmd,
		workflowResumeCmd, workflowMarkCompleteCmd, workflowRunsCmd)

	workflowRunCmd.Flags().StringVarP(&runTicket, "ticket", "t", "",
		"Ticket reference (jira key, github/gitlab issue URL, or raw text)")
	workflowRunCmd.Flags().StringVarP(&runTicketFile, "file", "f", "",
		"Read workflow input from a file")
	workflowRunCmd.Flags().StringVarP(&runUserPrompt, "prompt", "p", "",
		"Extra instructions passed to every step")
	workflowRunCmd.Flags().StringVar(&runTool, "tool", "",
		"Assistant override for all steps")
	workflowRunCmd.Flags().StringVar(&runFromStep, "from-step", "",
		"Start the manifest at the named step")
	workflowRunCmd.Flags().BoolVar(&runStepOnly, "step-only", false,
		"Include only the first selected step")
	workflowRunCmd.Flags().BoolVar(&runPrepareOnly, "prepare-only", false,
		"Write the manifest without executing it")

	workflowResumeCmd.Flags().StringVar(&resumeFromStep, "from-step", "",
		"Re-run starting at the named step, even if it completed")

	workflowMarkCompleteCmd.Flags().StringVar(&markCompleteStep, "step", "",
		"Mark only the named step (default: all pending steps)")
}

func runWorkflowList(cmd *cobra.Command, args []string) error {
	loader := workflow.NewLoader(workDir())
	workflows, warnings, err := loader.Load()
	if err != nil {
		return err
	}

	names := make([]string, 0, len(workflows))
	for name := range workflows {
		names = append(names, name)
	}
	sort.Strings(names)

	var rows [][]string
	for _, name := range names {
		spec := workflows[name]
		rows = append(rows, []string{
			name,
			strconv.Itoa(len(spec.Steps)),
			display.Truncate(spec.Description, 60),
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, display.Table([]string{"NAME", "STEPS", "DESCRIPTION"}, rows))
	for _, w := range warnings {
		fmt.Fprintln(out, display.WarningMsg("skipped: %s", w))
	}
	return nil
}

func runWorkflowRun(cmd *cobra.Command, args []string) error {
	name := args[0]
	projectDir := workDir()
	if config.ProjectDir(projectDir) == "" {
		fmt.Fprint(cmd.OutOrStdout(), display.NotInitializedError())
		return fmt.Errorf("project not initialized")
	}

	engine, loader, err := newEngine(projectDir)
	if err != nil {
		return err
	}
	workflows, _, err := loader.Load()
	if err != nil {
		return err
	}
	spec, ok := workflows[name]
	if !ok {
		return fmt.Errorf("workflow not found: %s (try 'aidev workflow list')", name)
	}

	m, err := engine.Prepare(cmd.Context(), spec, workflow.RunOptions{
		Ticket:       runTicket,
		TicketFile:   runTicketFile,
		UserPrompt:   runUserPrompt,
		ToolOverride: runTool,
		FromStep:     runFromStep,
		StepOnly:     runStepOnly,
	})
	if err != nil {
		return err
	}

	if settings != nil {
		settings.AddRecentRun(m.Path())
		if err := settings.Save(); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), display.WarningMsg("could not save settings: %v", err))
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, display.FormatRunInfo("Run prepared", display.RunInfo{
		Workflow:     m.Workflow,
		Description:  m.Description,
		TicketSource: m.TicketSource,
		Manifest:     m.Path(),
		Proposal:     m.ProposalOutput,
		Created:      display.Timestamp(m.CreatedAt),
	}))

	if runPrepareOnly {
		display.PrintNextSteps(
			"aidev workflow resume - Execute the prepared run",
			"aidev workflow status - Inspect the manifest",
		)
		return nil
	}

	if err := engine.Execute(cmd.Context(), m, workflow.ExecOptions{}); err != nil {
		return err
	}
	printStepSummary(cmd, m)
	return nil
}

func runWorkflowStatus(cmd *cobra.Command, args []string) error {
	loader := workflow.NewLoader(workDir())

	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	path, err := resolveManifestArg(loader, arg)
	if err != nil {
		fmt.Fprint(cmd.OutOrStdout(), display.NoManifestError())
		return err
	}
	m, err := workflow.LoadManifest(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	completed := ""
	if m.CompletedAt != nil {
		completed = display.Timestamp(*m.CompletedAt)
	}
	fmt.Fprint(out, display.FormatRunInfo("Run", display.RunInfo{
		Workflow:     m.Workflow,
		Description:  m.Description,
		TicketSource: m.TicketSource,
		Manifest:     m.Path(),
		Proposal:     m.ProposalOutput,
		Created:      display.Timestamp(m.CreatedAt),
		Completed:    completed,
	}))

	fmt.Fprintf(out, "\nSteps:\n")
	for _, step := range m.Steps {
		fmt.Fprintln(out, display.StepLine(step.Name, step.Output.Status, step.Profile, step.Assistant))
	}

	if incomplete := m.Validate(); len(incomplete) > 0 {
		display.PrintNextSteps(
			"aidev workflow resume - Run the remaining steps",
			"aidev workflow mark-complete - Mark steps done manually",
		)
	}
	return nil
}

func runWorkflowResume(cmd *cobra.Command, args []string) error {
	projectDir := workDir()
	engine, loader, err := newEngine(projectDir)
	if err != nil {
		return err
	}

	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	path, err := resolveManifestArg(loader, arg)
	if err != nil {
		fmt.Fprint(cmd.OutOrStdout(), display.NoManifestError())
		return err
	}
	m, err := workflow.LoadManifest(path)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), display.InfoMsg("Resuming %s", m.Workflow))
	if err := engine.Execute(cmd.Context(), m, workflow.ExecOptions{FromStep: resumeFromStep}); err != nil {
		return err
	}
	printStepSummary(cmd, m)
	return nil
}

func runWorkflowMarkComplete(cmd *cobra.Command, args []string) error {
	loader := workflow.NewLoader(workDir())

	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	path, err := resolveManifestArg(loader, arg)
	if err != nil {
		fmt.Fprint(cmd.OutOrStdout(), display.NoManifestError())
		return err
	}
	m, err := workflow.LoadManifest(path)
	if err != nil {
		return err
	}

	if err := m.MarkComplete(markCompleteStep, time.Now().Unix()); err != nil {
		return err
	}

	if markCompleteStep != "" {
		fmt.Fprintln(cmd.OutOrStdout(), display.SuccessMsg("Marked step %s complete", markCompleteStep))
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), display.SuccessMsg("Marked pending steps complete"))
	}
	printStepSummary(cmd, m)
	return nil
}

func runWorkflowRuns(cmd *cobra.Command, args []string) error {
	loader := workflow.NewLoader(workDir())
	entries, err := listManifests(loader)
	if err != nil || len(entries) == 0 {
		fmt.Fprint(cmd.OutOrStdout(), display.NoManifestError())
		return nil
	}

	var rows [][]string
	for _, path := range entries {
		m, err := workflow.LoadManifest(path)
		if err != nil {
			rows = append(rows, []string{path, "?", "", "(unreadable)"})
			continue
		}
		state := "in progress"
		if m.CompletedAt != nil {
			state = "completed"
		} else if len(m.FailedSteps()) > 0 {
			state = "failed"
		}
		rows = append(rows, []string{
			m.Workflow,
			state,
			display.Timestamp(m.CreatedAt),
			fmt.Sprintf("%d/%d", len(m.CompletedSteps()), len(m.Steps)),
		})
	}

	fmt.Fprint(cmd.OutOrStdout(), display.Table([]string{"WORKFLOW", "STATE", "CREATED", "STEPS"}, rows))
	return nil
}

// printStepSummary prints one line per step plus failure hints.
func printStepSummary(cmd *cobra.Command, m *workflow.Manifest) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nSteps:\n")
	for _, step := range m.Steps {
		fmt.Fprintln(out, display.StepLine(step.Name, step.Output.Status, step.Profile, step.Assistant))
	}

	if failed := m.FailedSteps(); len(failed) > 0 {
		fmt.Fprintf(out, "\n%s\n", display.ErrorMsg("%d step(s) failed", len(failed)))
		display.PrintNextSteps(
			fmt.Sprintf("aidev workflow resume --from-step %s - Retry the failed step", failed[0]),
			"aidev workflow status - Inspect step results",
		)
	} else if m.CompletedAt != nil {
		fmt.Fprintf(out, "\n%s\n", display.SuccessMsg("Workflow completed"))
	}
}
