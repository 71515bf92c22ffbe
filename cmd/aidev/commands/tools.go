package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valksor/go-aidev/internal/display"
	"github.com/valksor/go-aidev/internal/tools"
)

var toolsCmd = &cobra.Command{
	Use:     "tools",
	Short:   "Show detected AI tools",
	GroupID: "tool",
	RunE:    runTools,
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	mgr := tools.NewManager()

	var rows [][]string
	for _, info := range mgr.DetectAll() {
		status := display.Error("not installed")
		if info.Installed {
			status = display.Success("installed")
		}
		detail := display.Truncate(info.Version, 40)
		if !info.Installed {
			detail = display.Muted(info.InstallURL)
		}
		rows = append(rows, []string{info.ID, info.Name, status, detail})
	}

	fmt.Fprint(cmd.OutOrStdout(), display.Table([]string{"ID", "TOOL", "STATUS", "VERSION"}, rows))
	return nil
}
