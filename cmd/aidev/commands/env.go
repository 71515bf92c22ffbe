package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valksor/go-aidev/internal/config"
	"github.com/valksor/go-aidev/internal/display"
	"github.com/valksor/go-aidev/internal/env"
)

var envGlobal bool

var envCmd = &cobra.Command{
	Use:     "env",
	Short:   "Manage environment variables",
	GroupID: "config",
	Long: `Manage aidev environment variables.

Variables live in two scopes: global (~/.aidev/.env) and project
(.aidev/.env). Project values override global ones; system environment
variables override both at load time.`,
}

var envListCmd = &cobra.Command{
	Use:   "list",
	Short: "List environment variables",
	RunE:  runEnvList,
}

var envGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one environment variable",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnvGet,
}

var envSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set an environment variable",
	Args:  cobra.ExactArgs(2),
	RunE:  runEnvSet,
}

var envUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove an environment variable",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnvUnset,
}

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.AddCommand(envListCmd, envGetCmd, envSetCmd, envUnsetCmd)
	envCmd.PersistentFlags().BoolVarP(&envGlobal, "global", "g", false,
		"Operate on the global scope instead of the project")
}

// envScopes loads the global and project variable maps. The project map
// is empty when the project has not been initialized.
func envScopes() (global, project map[string]string, err error) {
	mgr, err := config.NewManager()
	if err != nil {
		return nil, nil, fmt.Errorf("locate config directory: %w", err)
	}
	global, err = mgr.GlobalEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("read global env: %w", err)
	}

	projectDir := workDir()
	if config.ProjectDir(projectDir) == "" {
		return global, map[string]string{}, nil
	}
	project, err = config.ProjectEnv(projectDir)
	if err != nil {
		return nil, nil, fmt.Errorf("read project env: %w", err)
	}
	return global, project, nil
}

func runEnvList(cmd *cobra.Command, args []string) error {
	global, project, err := envScopes()
	if err != nil {
		return err
	}

	var rows [][]string
	if envGlobal {
		for _, k := range sortedKeys(global) {
			rows = append(rows, []string{k, maskSecret(k, global[k]), "global"})
		}
	} else {
		merged := env.Merge(global, project)
		for _, k := range sortedKeys(merged) {
			scope := "global"
			if _, ok := project[k]; ok {
				scope = "project"
			}
			rows = append(rows, []string{k, maskSecret(k, merged[k]), scope})
		}
	}

	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), display.Muted("No environment variables set"))
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), display.Table([]string{"KEY", "VALUE", "SCOPE"}, rows))
	return nil
}

func runEnvGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	global, project, err := envScopes()
	if err != nil {
		return err
	}

	var value string
	var ok bool
	if envGlobal {
		value, ok = global[key]
	} else {
		value, ok = env.Merge(global, project)[key]
	}
	if !ok {
		return fmt.Errorf("variable not set: %s", key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runEnvSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	if envGlobal {
		mgr, err := config.NewManager()
		if err != nil {
			return fmt.Errorf("locate config directory: %w", err)
		}
		if err := mgr.SetGlobalEnv(key, value); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), display.SuccessMsg("Set %s (global)", key))
		return nil
	}

	projectDir := workDir()
	if config.ProjectDir(projectDir) == "" {
		fmt.Fprint(cmd.OutOrStdout(), display.NotInitializedError())
		return fmt.Errorf("project not initialized")
	}
	if err := config.SetProjectEnv(projectDir, key, value); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), display.SuccessMsg("Set %s (project)", key))
	return nil
}

func runEnvUnset(cmd *cobra.Command, args []string) error {
	key := args[0]

	if envGlobal {
		mgr, err := config.NewManager()
		if err != nil {
			return fmt.Errorf("locate config directory: %w", err)
		}
		if err := mgr.UnsetGlobalEnv(key); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), display.SuccessMsg("Unset %s (global)", key))
		return nil
	}

	projectDir := workDir()
	if config.ProjectDir(projectDir) == "" {
		fmt.Fprint(cmd.OutOrStdout(), display.NotInitializedError())
		return fmt.Errorf("project not initialized")
	}
	if err := config.UnsetProjectEnv(projectDir, key); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), display.SuccessMsg("Unset %s (project)", key))
	return nil
}

// maskSecret hides values of keys that look like credentials.
func maskSecret(key, value string) string {
	upper := strings.ToUpper(key)
	for _, marker := range []string{"TOKEN", "SECRET", "KEY", "PASSWORD"} {
		if strings.Contains(upper, marker) {
			if len(value) <= 4 {
				return "****"
			}
			return value[:4] + strings.Repeat("*", 4)
		}
	}
	return value
}
