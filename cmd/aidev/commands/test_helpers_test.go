package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/valksor/go-aidev/internal/config"
	"github.com/valksor/go-aidev/internal/display"
)

// setupTest isolates a test behind a fresh HOME and project directory
// and returns the project directory.
func setupTest(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)

	project := t.TempDir()
	t.Chdir(project)

	display.SetColorsEnabled(false)
	t.Cleanup(func() { display.SetColorsEnabled(true) })

	settings = &config.Settings{}
	return project
}

// execute runs one registered subcommand under a throwaway root and
// captures its combined output.
func execute(t *testing.T, sub *cobra.Command, args ...string) (string, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	root := &cobra.Command{Use: "aidev", SilenceUsage: true, SilenceErrors: true}
	root.SetOut(buf)
	root.SetErr(buf)
	// Top-level commands carry group ids, which cobra requires the
	// parent to define.
	root.AddGroup(&cobra.Group{ID: "profile"}, &cobra.Group{ID: "workflow"},
		&cobra.Group{ID: "tool"}, &cobra.Group{ID: "config"})
	root.AddCommand(sub)
	root.SetArgs(args)
	root.SetContext(context.Background())

	err := root.Execute()
	return buf.String(), err
}

// mustInit runs the init command and fails the test on error.
func mustInit(t *testing.T) {
	t.Helper()
	initProfile = "default"
	if _, err := execute(t, initCmd, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
}

// writeProjectWorkflows replaces the project-local workflows file.
func writeProjectWorkflows(t *testing.T, projectDir, content string) {
	t.Helper()
	path := filepath.Join(projectDir, ".aidev", "workflows.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write workflows file: %v", err)
	}
}
