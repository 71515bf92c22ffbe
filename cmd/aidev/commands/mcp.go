package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/valksor/go-aidev/internal/config"
	"github.com/valksor/go-aidev/internal/display"
	"github.com/valksor/go-aidev/internal/env"
	"github.com/valksor/go-aidev/internal/mcp"
	"github.com/valksor/go-aidev/internal/tools"
)

var (
	mcpAddUser bool

	mcpRemoveYes bool

	mcpGenerateProfile string
	mcpGenerateOutput  string
)

var mcpCmd = &cobra.Command{
	Use:     "mcp",
	Short:   "Manage MCP server definitions",
	GroupID: "tool",
	Long: `Manage the catalog of MCP server definitions.

Definitions come from three scopes: bundled (compiled into the binary),
user (~/.aidev/config/mcp-servers), and custom (the custom subdirectory).
Custom definitions shadow user ones, which shadow the bundled set.`,
}

var mcpListCmd = &cobra.Command{
	Use:   "list",
	Short: "List MCP server definitions",
	RunE:  runMCPList,
}

var mcpShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print one server definition as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runMCPShow,
}

var mcpAddCmd = &cobra.Command{
	Use:   "add <name> <file>",
	Short: "Add a server definition from a JSON file",
	Args:  cobra.ExactArgs(2),
	RunE:  runMCPAdd,
}

var mcpRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a custom server definition",
	Args:  cobra.ExactArgs(1),
	RunE:  runMCPRemove,
}

var mcpGenerateCmd = &cobra.Command{
	Use:   "generate <tool>",
	Short: "Render the active profile into a tool's MCP config",
	Long: `Render the resolved profile into the named tool's MCP configuration
file. Most tools get a full {"mcpServers": ...} JSON file; gemini gets
its settings.json merged in place, preserving unrelated settings.`,
	Args: cobra.ExactArgs(1),
	RunE: runMCPGenerate,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.AddCommand(mcpListCmd, mcpShowCmd, mcpAddCmd, mcpRemoveCmd, mcpGenerateCmd)

	mcpAddCmd.Flags().BoolVar(&mcpAddUser, "user", false,
		"Save into the user scope instead of custom")

	mcpRemoveCmd.Flags().BoolVarP(&mcpRemoveYes, "yes", "y", false,
		"Skip confirmation prompt")

	mcpGenerateCmd.Flags().StringVar(&mcpGenerateProfile, "profile", "",
		"Profile to render (default: the project's active profile)")
	mcpGenerateCmd.Flags().StringVarP(&mcpGenerateOutput, "output", "o", "",
		"Write the config to this path instead of the tool's default")
}

func runMCPList(cmd *cobra.Command, args []string) error {
	catalog, err := newCatalog()
	if err != nil {
		return err
	}
	names, err := catalog.List()
	if err != nil {
		return err
	}

	var rows [][]string
	for _, name := range names {
		def, err := catalog.Get(name)
		if err != nil {
			rows = append(rows, []string{name, "?", "(unreadable)"})
			continue
		}
		transport, target := "command", ""
		if cmdStr, ok := def["command"].(string); ok {
			target = cmdStr
		} else if url, ok := def["url"].(string); ok {
			transport, target = "url", url
		} else if url, ok := def["httpUrl"].(string); ok {
			transport, target = "http", url
		} else if url, ok := def["http_url"].(string); ok {
			transport, target = "http", url
		} else {
			transport = "?"
		}
		rows = append(rows, []string{name, transport, display.Truncate(target, 50)})
	}

	fmt.Fprint(cmd.OutOrStdout(), display.Table([]string{"NAME", "TRANSPORT", "TARGET"}, rows))
	return nil
}

func runMCPShow(cmd *cobra.Command, args []string) error {
	catalog, err := newCatalog()
	if err != nil {
		return err
	}
	def, err := catalog.Get(args[0])
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal server definition: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func runMCPAdd(cmd *cobra.Command, args []string) error {
	name, file := args[0], args[1]

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read definition: %w", err)
	}
	var def mcp.ServerDef
	if err := json.Unmarshal(data, &def); err != nil {
		return fmt.Errorf("parse definition %s: %w", file, err)
	}

	catalog, err := newCatalog()
	if err != nil {
		return err
	}
	if err := catalog.Save(name, def, !mcpAddUser); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), display.SuccessMsg("Added MCP server %s", name))
	return nil
}

func runMCPRemove(cmd *cobra.Command, args []string) error {
	name := args[0]

	confirmed, err := confirmAction(fmt.Sprintf("This will remove the custom server %q.", name), mcpRemoveYes)
	if err != nil {
		return err
	}
	if !confirmed {
		fmt.Fprintln(cmd.OutOrStdout(), display.Muted("Remove cancelled"))
		return nil
	}

	catalog, err := newCatalog()
	if err != nil {
		return err
	}
	if err := catalog.Remove(name); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), display.SuccessMsg("Removed MCP server %s", name))
	return nil
}

func runMCPGenerate(cmd *cobra.Command, args []string) error {
	toolID := args[0]
	projectDir := workDir()

	mgr, resolver, err := newProfileResolver(projectDir)
	if err != nil {
		return err
	}

	profileName := mcpGenerateProfile
	if profileName == "" {
		profileName = config.ActiveProfile(projectDir)
	}
	resolved, err := resolver.Resolve(profileName)
	if err != nil {
		return err
	}

	configPath := mcpGenerateOutput
	if configPath == "" {
		toolMgr := tools.NewManager()
		configPath, err = toolMgr.ConfigPath(toolID, projectDir)
		if err != nil {
			return err
		}
	}

	globalEnv, err := mergedEnv(mgr, projectDir)
	if err != nil {
		return err
	}

	catalog := mcp.NewCatalog(mgr.MCPServersDir(), mgr.CustomMCPDir())
	if err := mcp.NewRenderer(catalog).Generate(toolID, resolved, globalEnv, configPath); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), display.SuccessMsg("Generated %s config from profile %s", toolID, profileName))
	fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", display.Muted(configPath))
	return nil
}

// mergedEnv layers the project scope over the global scope; profile
// environment templates expand against the result.
func mergedEnv(mgr *config.Manager, projectDir string) (map[string]string, error) {
	global, err := mgr.GlobalEnv()
	if err != nil {
		return nil, fmt.Errorf("read global env: %w", err)
	}
	if config.ProjectDir(projectDir) == "" {
		return global, nil
	}
	project, err := config.ProjectEnv(projectDir)
	if err != nil {
		return nil, fmt.Errorf("read project env: %w", err)
	}
	return env.Merge(global, project), nil
}
