package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/valksor/go-aidev/internal/config"
	"github.com/valksor/go-aidev/internal/display"
	"github.com/valksor/go-aidev/internal/log"
)

var (
	settings *config.Settings

	// Global flags.
	verbose bool
	noColor bool
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "aidev",
	Short: "AI assistant configuration and workflow manager",
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	Long: `Aidev manages AI assistant configuration through named profiles and
runs multi-step workflows against assistant CLIs, by Valksor.

Profiles bundle MCP servers, environment variables, and tool settings.
A profile can extend another; the resolved result is rendered into each
tool's native MCP configuration file.

Quick Start:
  aidev init                       Initialize in the current project
  aidev profile list               See available profiles
  aidev launch claude              Generate config and start a tool
  aidev workflow run fix_bug --ticket ABC-123

For workflows:  aidev workflow list
For MCP setup:  aidev mcp list`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load .env files FIRST, before anything else
		// This ensures env vars are available for all subsequent operations
		if err := config.LoadDotEnvFromCwd(); err != nil {
			// Log warning but don't fail - .env parsing errors should be reported
			// but shouldn't prevent the command from running
			fmt.Fprintf(os.Stderr, "warning: failed to load .aidev/.env: %v\n", err)
		}

		// Configure logging from CLI flag
		log.Configure(log.Options{
			Verbose: verbose,
		})

		// Initialize color output from CLI flag (also respects NO_COLOR env)
		display.InitColors(noColor)

		// Load settings (user preferences)
		var err error
		settings, err = config.LoadSettings()
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}

		log.Debug("initialized", "verbose", verbose)

		// Async update check (non-blocking, doesn't slow startup)
		// Skip for the 'update' command itself to avoid redundant checks
		if cmd.Name() != "update" && shouldCheckForUpdates(settings) {
			go checkForUpdatesInBackground(cmd.Context())
		}

		return nil
	},
}

// Execute runs the root command with signal handling.
func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable color output")

	// Add command groups for better help organization
	rootCmd.AddGroup(&cobra.Group{
		ID:    "profile",
		Title: "Profile Commands:",
	}, &cobra.Group{
		ID:    "workflow",
		Title: "Workflow Commands:",
	}, &cobra.Group{
		ID:    "tool",
		Title: "Tool Commands:",
	}, &cobra.Group{
		ID:    "config",
		Title: "Configuration Commands:",
	})
}

// GetSettings returns the loaded settings.
func GetSettings() *config.Settings {
	return settings
}
