package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valksor/go-aidev/internal/config"
	"github.com/valksor/go-aidev/internal/display"
	"github.com/valksor/go-aidev/internal/env"
	"github.com/valksor/go-aidev/internal/mcp"
	"github.com/valksor/go-aidev/internal/tools"
)

var (
	launchProfile    string
	launchSkipConfig bool
	launchDetach     bool
)

var launchCmd = &cobra.Command{
	Use:     "launch <tool> [args...]",
	Short:   "Generate a tool's MCP config and start it",
	GroupID: "tool",
	Long: `Launch an AI tool with the active profile applied.

The resolved profile is rendered into the tool's MCP configuration
first, then the tool starts with the profile's environment merged over
the global and project scopes. Extra arguments are passed through.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLaunch,
}

func init() {
	rootCmd.AddCommand(launchCmd)
	launchCmd.Flags().StringVar(&launchProfile, "profile", "",
		"Profile to apply (default: the project's active profile)")
	launchCmd.Flags().BoolVar(&launchSkipConfig, "skip-config", false,
		"Start the tool without regenerating its MCP config")
	launchCmd.Flags().BoolVar(&launchDetach, "detach", false,
		"Start the tool detached instead of attached to this terminal")
}

func runLaunch(cmd *cobra.Command, args []string) error {
	toolID := args[0]
	extraArgs := args[1:]
	projectDir := workDir()

	toolMgr := tools.NewManager()
	info, err := toolMgr.Detect(toolID)
	if err != nil {
		return err
	}
	if !info.Installed {
		return fmt.Errorf("%w: %s (install from %s)", tools.ErrToolNotInstalled, info.Name, info.InstallURL)
	}

	mgr, resolver, err := newProfileResolver(projectDir)
	if err != nil {
		return err
	}
	profileName := launchProfile
	if profileName == "" {
		profileName = config.ActiveProfile(projectDir)
	}
	resolved, err := resolver.Resolve(profileName)
	if err != nil {
		return err
	}

	layered, err := mergedEnv(mgr, projectDir)
	if err != nil {
		return err
	}

	if !launchSkipConfig {
		configPath, err := toolMgr.ConfigPath(toolID, projectDir)
		if err != nil {
			return err
		}
		catalog := mcp.NewCatalog(mgr.MCPServersDir(), mgr.CustomMCPDir())
		if err := mcp.NewRenderer(catalog).Generate(toolID, resolved, layered, configPath); err != nil {
			return fmt.Errorf("generate MCP config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", display.Muted("Config: "+configPath))
	}

	// Profile environment templates expand against the layered scopes;
	// an unexpandable value is passed through literally.
	launchEnv := env.Merge(layered, nil)
	if expanded, err := env.ExpandAll(resolved.Environment, layered); err == nil {
		launchEnv = env.Merge(launchEnv, expanded)
	} else {
		fmt.Fprintln(cmd.ErrOrStderr(), display.WarningMsg("profile environment not fully expanded: %v", err))
		launchEnv = env.Merge(launchEnv, resolved.Environment)
	}

	fmt.Fprintln(cmd.OutOrStdout(), display.InfoMsg("Launching %s with profile %s", info.Name, profileName))
	return toolMgr.Launch(cmd.Context(), toolID, tools.LaunchOptions{
		Args: extraArgs,
		Env:  launchEnv,
		Dir:  projectDir,
		Wait: !launchDetach,
	})
}
