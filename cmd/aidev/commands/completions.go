package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// completionsCmd generates shell completion scripts
var completionsCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `To load completions:

Bash:
  $ source <(aidev completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ aidev completion bash > /etc/bash_completion.d/aidev
  # macOS:
  $ aidev completion bash > /usr/local/etc/bash_completion.d/aidev

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it.  You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ aidev completion zsh > "${fpath[1]}/_aidev"

  # You will need to start a new shell for this setup to take effect.

fish:
  $ aidev completion fish | source

  # To load completions for each session, execute once:
  $ aidev completion fish > ~/.config/fish/completions/aidev.fish

PowerShell:
  PS> aidev completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> aidev completion powershell > aidev.ps1
  # and source this file from your PowerShell profile.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	RunE:                  runCompletions,
}

func init() {
	rootCmd.AddCommand(completionsCmd)
}

func runCompletions(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("shell type not specified. Choose from: bash, zsh, fish, powershell")
	}

	shell := args[0]
	switch shell {
	case "bash":
		return cmd.Root().GenBashCompletion(os.Stdout)
	case "zsh":
		return cmd.Root().GenZshCompletion(os.Stdout)
	case "fish":
		return cmd.Root().GenFishCompletion(os.Stdout, true)
	case "powershell":
		return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
	default:
		return fmt.Errorf("unsupported shell type: %s", shell)
	}
}
