package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valksor/go-aidev/internal/config"
	"github.com/valksor/go-aidev/internal/display"
	"github.com/valksor/go-aidev/internal/profile"
)

var (
	profileShowResolved bool
	profileShowJSON     bool

	profileCreateDescription string
	profileCreateExtends     string

	profileCloneDescription string
	profileCloneServers     []string

	profileDeleteYes bool
)

var profileCmd = &cobra.Command{
	Use:     "profile",
	Short:   "Manage configuration profiles",
	GroupID: "profile",
	Long: `Profiles bundle MCP servers, environment variables, and tool settings
under a name. A profile can extend another; resolution walks the chain
and merges each child over its parent.`,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	RunE:  runProfileList,
}

var profileShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileShow,
}

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new custom profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileCreate,
}

var profileCloneCmd = &cobra.Command{
	Use:   "clone <source> <target>",
	Short: "Clone a profile into a flattened custom copy",
	Args:  cobra.ExactArgs(2),
	RunE:  runProfileClone,
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a custom or project profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileDelete,
}

var profileExportCmd = &cobra.Command{
	Use:   "export <name> <file>",
	Short: "Export a fully-resolved profile to a file",
	Args:  cobra.ExactArgs(2),
	RunE:  runProfileExport,
}

var profileImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a profile file into the custom scope",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileImport,
}

var profileDiffCmd = &cobra.Command{
	Use:   "diff <profile1> <profile2>",
	Short: "Compare two resolved profiles",
	Args:  cobra.ExactArgs(2),
	RunE:  runProfileDiff,
}

var profileUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the active profile for this project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileUse,
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileListCmd, profileShowCmd, profileCreateCmd,
		profileCloneCmd, profileDeleteCmd, profileExportCmd, profileImportCmd,
		profileDiffCmd, profileUseCmd)

	profileShowCmd.Flags().BoolVar(&profileShowResolved, "resolved", false,
		"Show the effective profile with inheritance applied")
	profileShowCmd.Flags().BoolVar(&profileShowJSON, "json", false,
		"Output raw JSON")

	profileCreateCmd.Flags().StringVarP(&profileCreateDescription, "description", "d", "",
		"Profile description")
	profileCreateCmd.Flags().StringVar(&profileCreateExtends, "extends", "",
		"Parent profile to inherit from")

	profileCloneCmd.Flags().StringVarP(&profileCloneDescription, "description", "d", "",
		"Description for the clone")
	profileCloneCmd.Flags().StringSliceVar(&profileCloneServers, "servers", nil,
		"Replace the MCP server selection (comma-separated)")

	profileDeleteCmd.Flags().BoolVarP(&profileDeleteYes, "yes", "y", false,
		"Skip confirmation prompt")
}

func runProfileList(cmd *cobra.Command, args []string) error {
	projectDir := workDir()
	mgr, err := config.NewManager()
	if err != nil {
		return fmt.Errorf("locate config directory: %w", err)
	}
	store := newProfileStore(mgr, projectDir)
	active := config.ActiveProfile(projectDir)

	var rows [][]string
	for _, name := range store.List() {
		p, scope, err := store.LoadScoped(name)
		if err != nil {
			rows = append(rows, []string{name, "?", "", fmt.Sprintf("(unreadable: %v)", err)})
			continue
		}
		label := name
		if name == active {
			label = "* " + name
		}
		rows = append(rows, []string{
			label,
			display.ColorScope(string(scope), string(scope)),
			p.Extends,
			display.Truncate(p.Description, 50),
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, display.Table([]string{"NAME", "SCOPE", "EXTENDS", "DESCRIPTION"}, rows))
	fmt.Fprintf(out, "\n%s\n", display.Muted("* active profile for this project"))
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	name := args[0]
	projectDir := workDir()
	mgr, resolver, err := newProfileResolver(projectDir)
	if err != nil {
		return err
	}

	var p *profile.Profile
	scope := ""
	if profileShowResolved {
		p, err = resolver.Resolve(name)
	} else {
		var s profile.Scope
		p, s, err = newProfileStore(mgr, projectDir).LoadScoped(name)
		scope = string(s)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if profileShowJSON {
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal profile: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "Profile: %s\n", display.Bold(p.Name))
	if scope != "" {
		fmt.Fprintf(out, "  %-13s%s\n", "Scope:", display.ColorScope(scope, scope))
	}
	if p.Description != "" {
		fmt.Fprintf(out, "  %-13s%s\n", "Description:", p.Description)
	}
	if p.Extends != "" {
		fmt.Fprintf(out, "  %-13s%s\n", "Extends:", p.Extends)
	}
	if len(p.Tags) > 0 {
		fmt.Fprintf(out, "  %-13s%s\n", "Tags:", strings.Join(p.Tags, ", "))
	}

	if len(p.MCPServers) > 0 {
		fmt.Fprintf(out, "\nMCP servers:\n")
		for _, s := range p.MCPServers {
			marker := display.Success("enabled")
			if !s.Enabled {
				marker = display.Muted("disabled")
			}
			fmt.Fprintf(out, "  %-20s %s\n", s.Name, marker)
		}
	}
	if len(p.Environment) > 0 {
		fmt.Fprintf(out, "\nEnvironment:\n")
		for _, k := range sortedKeys(p.Environment) {
			fmt.Fprintf(out, "  %s=%s\n", k, p.Environment[k])
		}
	}
	if len(p.Tools) > 0 {
		fmt.Fprintf(out, "\nTools:\n")
		names := make([]string, 0, len(p.Tools))
		for k := range p.Tools {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			state := display.Success("enabled")
			if !p.Tools[k].Enabled {
				state = display.Muted("disabled")
			}
			fmt.Fprintf(out, "  %-20s %s\n", k, state)
		}
	}
	return nil
}

func runProfileCreate(cmd *cobra.Command, args []string) error {
	projectDir := workDir()
	mgr, err := config.NewManager()
	if err != nil {
		return fmt.Errorf("locate config directory: %w", err)
	}

	p, err := newProfileStore(mgr, projectDir).Create(args[0], profileCreateDescription, profileCreateExtends)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), display.SuccessMsg("Created profile %s", p.Name))
	display.PrintNextSteps(
		fmt.Sprintf("aidev profile show %s - Inspect the new profile", p.Name),
		fmt.Sprintf("aidev profile use %s - Activate it for this project", p.Name),
	)
	return nil
}

func runProfileClone(cmd *cobra.Command, args []string) error {
	_, resolver, err := newProfileResolver(workDir())
	if err != nil {
		return err
	}

	p, err := resolver.CloneProfile(args[0], args[1], profileCloneDescription, profileCloneServers)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), display.SuccessMsg("Cloned %s to %s", args[0], p.Name))
	return nil
}

func runProfileDelete(cmd *cobra.Command, args []string) error {
	name := args[0]
	mgr, err := config.NewManager()
	if err != nil {
		return fmt.Errorf("locate config directory: %w", err)
	}

	confirmed, err := confirmAction(fmt.Sprintf("This will delete profile %q.", name), profileDeleteYes)
	if err != nil {
		return err
	}
	if !confirmed {
		fmt.Fprintln(cmd.OutOrStdout(), display.Muted("Delete cancelled"))
		return nil
	}

	if err := newProfileStore(mgr, workDir()).Delete(name); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), display.SuccessMsg("Deleted profile %s", name))
	return nil
}

func runProfileExport(cmd *cobra.Command, args []string) error {
	_, resolver, err := newProfileResolver(workDir())
	if err != nil {
		return err
	}
	if err := resolver.Export(args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), display.SuccessMsg("Exported %s to %s", args[0], args[1]))
	return nil
}

func runProfileImport(cmd *cobra.Command, args []string) error {
	mgr, err := config.NewManager()
	if err != nil {
		return fmt.Errorf("locate config directory: %w", err)
	}
	p, err := newProfileStore(mgr, workDir()).Import(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), display.SuccessMsg("Imported profile %s", p.Name))
	return nil
}

func runProfileDiff(cmd *cobra.Command, args []string) error {
	_, resolver, err := newProfileResolver(workDir())
	if err != nil {
		return err
	}
	d, err := resolver.Diff(args[0], args[1])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Diff: %s -> %s\n", display.Bold(d.Profile1), display.Bold(d.Profile2))
	printSetDiff(out, "MCP servers", d.MCPServers)
	printSetDiff(out, "Environment", d.Environment)
	printSetDiff(out, "Tags", d.Tags)

	if len(d.EnvChanged) > 0 {
		fmt.Fprintf(out, "\nChanged environment values:\n")
		for _, k := range sortedChangeKeys(d.EnvChanged) {
			c := d.EnvChanged[k]
			fmt.Fprintf(out, "  %s: %s -> %s\n", k, display.Muted(c.From), c.To)
		}
	}
	return nil
}

func runProfileUse(cmd *cobra.Command, args []string) error {
	name := args[0]
	projectDir := workDir()

	if config.ProjectDir(projectDir) == "" {
		fmt.Fprint(cmd.OutOrStdout(), display.NotInitializedError())
		return fmt.Errorf("project not initialized")
	}

	mgr, err := config.NewManager()
	if err != nil {
		return fmt.Errorf("locate config directory: %w", err)
	}
	if !newProfileStore(mgr, projectDir).Exists(name) {
		return fmt.Errorf("%w: %s", profile.ErrNotFound, name)
	}

	if err := config.SetActiveProfile(projectDir, name); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), display.SuccessMsg("Active profile is now %s", name))
	return nil
}

func printSetDiff(out io.Writer, label string, d profile.SetDiff) {
	if len(d.Added) == 0 && len(d.Removed) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s:\n", label)
	for _, name := range d.Added {
		fmt.Fprintf(out, "  %s %s\n", display.Success("+"), name)
	}
	for _, name := range d.Removed {
		fmt.Fprintf(out, "  %s %s\n", display.Error("-"), name)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedChangeKeys(m map[string]profile.ValueChange) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
