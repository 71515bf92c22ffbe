package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/valksor/go-aidev/internal/config"
	"github.com/valksor/go-aidev/internal/display"
	"github.com/valksor/go-aidev/internal/workflow"
)

var initProfile string

var initCmd = &cobra.Command{
	Use:     "init",
	Short:   "Initialize aidev globally and in the current project",
	GroupID: "config",
	Long: `Initialize the ~/.aidev directory tree, seed the bundled MCP server
catalog, and create the project-local .aidev directory with its config,
profile marker, and workflow definitions.

Running init again is safe; existing files are left alone.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initProfile, "profile", "default", "Profile to activate for this project")
}

func runInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	mgr, err := config.NewManager()
	if err != nil {
		return fmt.Errorf("locate config directory: %w", err)
	}

	firstRun := !mgr.IsInitialized()
	if err := mgr.InitDirectories(); err != nil {
		return fmt.Errorf("initialize config directories: %w", err)
	}
	if firstRun {
		fmt.Fprintf(out, "Created config directory: %s\n", mgr.AidevDir())
	}

	catalog, err := newCatalog()
	if err != nil {
		return err
	}
	if err := catalog.SeedBundled(); err != nil {
		return fmt.Errorf("seed MCP server catalog: %w", err)
	}

	projectDir := workDir()
	alreadyInit := config.ProjectDir(projectDir) != ""
	dir, err := config.InitProject(projectDir, initProfile)
	if err != nil {
		return fmt.Errorf("initialize project: %w", err)
	}
	if alreadyInit {
		fmt.Fprintf(out, "Project already initialized: %s\n", dir)
	} else {
		fmt.Fprintf(out, "Created project config: %s\n", dir)
	}

	loader := workflow.NewLoader(projectDir)
	if _, err := loader.EnsureWorkflowsFile(); err != nil {
		return fmt.Errorf("seed workflows file: %w", err)
	}

	// Create global .env template if it doesn't exist
	if _, err := os.Stat(mgr.EnvFile()); os.IsNotExist(err) {
		if err := createEnvTemplate(mgr.EnvFile()); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create .env template: %v\n", err)
		} else {
			fmt.Fprintf(out, "Created .env template: %s\n", mgr.EnvFile())
		}
	}

	fmt.Fprintf(out, "Initialized with profile %s\n", display.Bold(initProfile))

	display.PrintNextSteps(
		"aidev profile list - See available profiles",
		"aidev launch claude - Generate config and start a tool",
		"aidev workflow list - See available workflows",
	)
	return nil
}

func createEnvTemplate(path string) error {
	template := `# Aidev environment variables
# This file is gitignored - store secrets here safely.
# System environment variables take priority over values defined here.

# Example: tracker credentials for workflow tickets
# GITHUB_TOKEN=ghp_...
# GITLAB_TOKEN=glpat-...
# JIRA_URL=https://your-org.atlassian.net
# JIRA_EMAIL=you@example.com
# JIRA_API_TOKEN=...
`
	return os.WriteFile(path, []byte(template), 0o600) // 0600 for secrets
}
