package commands

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/valksor/go-aidev/internal/assistant"
	"github.com/valksor/go-aidev/internal/config"
	"github.com/valksor/go-aidev/internal/mcp"
	"github.com/valksor/go-aidev/internal/profile"
	"github.com/valksor/go-aidev/internal/ticket"
	"github.com/valksor/go-aidev/internal/workflow"
)

// workDir returns the directory commands treat as the project root.
func workDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// projectProfilesDir returns the project-scope profile directory, or ""
// when the project has not been initialized.
func projectProfilesDir(projectDir string) string {
	dir := config.ProjectDir(projectDir)
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "profiles")
}

// newProfileStore builds the profile store spanning the user-global
// custom scope and the project scope.
func newProfileStore(mgr *config.Manager, projectDir string) *profile.Store {
	return profile.NewStore(mgr.CustomProfilesDir(), projectProfilesDir(projectDir))
}

// newProfileResolver is the common setup sequence for commands that need
// effective profiles.
func newProfileResolver(projectDir string) (*config.Manager, *profile.Resolver, error) {
	mgr, err := config.NewManager()
	if err != nil {
		return nil, nil, fmt.Errorf("locate config directory: %w", err)
	}
	return mgr, profile.NewResolver(newProfileStore(mgr, projectDir)), nil
}

// newCatalog builds the MCP server catalog over the user-global
// directories.
func newCatalog() (*mcp.Catalog, error) {
	mgr, err := config.NewManager()
	if err != nil {
		return nil, fmt.Errorf("locate config directory: %w", err)
	}
	return mcp.NewCatalog(mgr.MCPServersDir(), mgr.CustomMCPDir()), nil
}

// newEngine wires the workflow engine from its collaborators for the
// given project directory.
func newEngine(projectDir string) (*workflow.Engine, *workflow.Loader, error) {
	_, resolver, err := newProfileResolver(projectDir)
	if err != nil {
		return nil, nil, err
	}

	projCfg, err := config.LoadProjectConfig(projectDir)
	if err != nil {
		return nil, nil, fmt.Errorf("load project config: %w", err)
	}
	var settingsDefault string
	if settings != nil {
		settingsDefault = settings.PreferredAssistant
	}

	loader := workflow.NewLoader(projectDir)
	engine := workflow.NewEngine(
		loader,
		resolver,
		assistant.NewResolver(projCfg.DefaultAssistant, settingsDefault),
		workflow.NewBundledPrompts(projectDir),
		ticket.NewFetcher(),
		assistant.NewRunner(),
	)
	return engine, loader, nil
}

// resolveManifestArg turns a command-line manifest argument into an
// on-disk path. An empty argument means the most recent run; a bare name
// is looked up inside the runs directory.
func resolveManifestArg(loader *workflow.Loader, arg string) (string, error) {
	if arg == "" {
		return latestManifest(loader)
	}
	if _, err := os.Stat(arg); err == nil {
		return arg, nil
	}

	candidate := filepath.Join(loader.RunsDir(), arg)
	if !strings.HasSuffix(candidate, ".json") {
		candidate += ".json"
	}
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", fmt.Errorf("%w: %s", workflow.ErrManifestNotFound, arg)
}

// listManifests returns every run manifest path in the project's runs
// directory, oldest first. Manifest names embed a sortable timestamp, so
// lexical order is creation order.
func listManifests(loader *workflow.Loader) ([]string, error) {
	entries, err := os.ReadDir(loader.RunsDir())
	if err != nil {
		return nil, workflow.ErrManifestNotFound
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(loader.RunsDir(), name)
	}
	return paths, nil
}

// latestManifest returns the newest run manifest in the project's runs
// directory.
func latestManifest(loader *workflow.Loader) (string, error) {
	paths, err := listManifests(loader)
	if err != nil {
		return "", err
	}
	if len(paths) == 0 {
		return "", workflow.ErrManifestNotFound
	}
	return paths[len(paths)-1], nil
}

// confirmAction prompts the user for confirmation unless skipConfirm is true.
// Returns true if the action should proceed, false if cancelled.
// The prompt parameter should describe what will happen (e.g., "delete this profile").
func confirmAction(prompt string, skipConfirm bool) (bool, error) {
	if skipConfirm {
		return true, nil
	}

	fmt.Printf("%s\nAre you sure? [y/N]: ", prompt)

	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("read response: %w", err)
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}
