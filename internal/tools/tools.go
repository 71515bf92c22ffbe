// Package tools detects installed AI tools and launches them with a
// prepared environment.
package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/valksor/go-aidev/internal/log"
)

// ErrUnsupportedTool indicates a tool identifier outside the supported
// set.
var ErrUnsupportedTool = errors.New("unsupported tool")

// ErrToolNotInstalled indicates a launch attempt for a tool whose
// binary is not on PATH.
var ErrToolNotInstalled = errors.New("tool not installed")

// Info describes one supported tool and its detection result.
type Info struct {
	ID         string
	Name       string
	Binary     string
	ConfigPath string
	InstallURL string
	Installed  bool
	Version    string
}

type toolSpec struct {
	name       string
	binary     string
	configPath string // relative to home
	installURL string
}

// The supported tool set is compiled in, like the built-in profiles.
var supportedTools = map[string]toolSpec{
	"claude": {
		name:       "Claude Code",
		binary:     "claude",
		configPath: ".claude/mcp.json",
		installURL: "https://docs.anthropic.com/en/docs/claude-code",
	},
	"cursor": {
		name:       "Cursor",
		binary:     "cursor",
		configPath: ".cursor/mcp.json",
		installURL: "https://cursor.com",
	},
	"codex": {
		name:       "Codex CLI",
		binary:     "codex",
		configPath: ".codex/mcp.json",
		installURL: "https://github.com/openai/codex",
	},
	"gemini": {
		name:       "Gemini CLI",
		binary:     "gemini",
		configPath: ".gemini/settings.json",
		installURL: "https://github.com/google-gemini/gemini-cli",
	},
	"ollama": {
		name:       "Ollama",
		binary:     "ollama",
		configPath: "",
		installURL: "https://ollama.com",
	},
}

// Manager detects and launches supported tools.
type Manager struct {
	lookPath func(string) (string, error)
	home     string
}

// NewManager creates a manager using the real PATH and home directory.
func NewManager() *Manager {
	home, _ := os.UserHomeDir()
	return &Manager{lookPath: exec.LookPath, home: home}
}

// Supported lists supported tool identifiers, sorted.
func Supported() []string {
	ids := make([]string, 0, len(supportedTools))
	for id := range supportedTools {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Detect checks whether a tool's binary is installed and probes its
// version.
func (m *Manager) Detect(toolID string) (*Info, error) {
	spec, ok := supportedTools[toolID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTool, toolID)
	}

	info := &Info{
		ID:         toolID,
		Name:       spec.name,
		Binary:     spec.binary,
		InstallURL: spec.installURL,
	}
	if spec.configPath != "" {
		info.ConfigPath = filepath.Join(m.home, spec.configPath)
	}

	if path, err := m.lookPath(spec.binary); err == nil {
		info.Installed = true
		info.Version = probeVersion(path)
	}
	return info, nil
}

// DetectAll detects every supported tool, sorted by identifier.
func (m *Manager) DetectAll() []*Info {
	infos := make([]*Info, 0, len(supportedTools))
	for _, id := range Supported() {
		info, err := m.Detect(id)
		if err != nil {
			continue
		}
		infos = append(infos, info)
	}
	return infos
}

// ConfigPath returns where the tool's MCP configuration should be
// written. Gemini prefers a project-level .gemini/settings.json when
// the project has one, and gets one created at the project root when
// the directory looks like a project.
func (m *Manager) ConfigPath(toolID, projectDir string) (string, error) {
	info, err := m.Detect(toolID)
	if err != nil {
		return "", err
	}

	if toolID == "gemini" && projectDir != "" {
		if path, err := m.projectGeminiSettings(projectDir); err == nil && path != "" {
			return path, nil
		}
	}
	return info.ConfigPath, nil
}

// projectGeminiSettings walks from projectDir upward looking for an
// existing .gemini/settings.json, stopping at the home directory. When
// none exists but the tree has a project marker, a fresh settings file
// is created at the project root.
func (m *Manager) projectGeminiSettings(projectDir string) (string, error) {
	for dir := projectDir; ; dir = filepath.Dir(dir) {
		candidate := filepath.Join(dir, ".gemini", "settings.json")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		if dir == m.home || filepath.Dir(dir) == dir {
			break
		}
	}

	root := m.detectProjectRoot(projectDir)
	if root == "" {
		return "", nil
	}
	target := filepath.Join(root, ".gemini", "settings.json")
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create .gemini dir: %w", err)
	}
	if _, err := os.Stat(target); os.IsNotExist(err) {
		if err := os.WriteFile(target, []byte("{ \"mcpServers\": {} }\n"), 0o644); err != nil {
			return "", fmt.Errorf("create gemini settings: %w", err)
		}
	}
	return target, nil
}

func (m *Manager) detectProjectRoot(start string) string {
	for dir := start; ; dir = filepath.Dir(dir) {
		for _, marker := range []string{".git", ".aidev"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
		}
		if dir == m.home || filepath.Dir(dir) == dir {
			return ""
		}
	}
}

// LaunchOptions configures Launch.
type LaunchOptions struct {
	Args []string
	Env  map[string]string
	Dir  string
	// Wait runs the tool attached to the current terminal and blocks
	// until it exits. Without it the tool is started detached.
	Wait bool
}

// Launch starts a tool with the process environment plus opts.Env.
func (m *Manager) Launch(ctx context.Context, toolID string, opts LaunchOptions) error {
	info, err := m.Detect(toolID)
	if err != nil {
		return err
	}
	if !info.Installed {
		return fmt.Errorf("%w: %s (install from %s)", ErrToolNotInstalled, info.Name, info.InstallURL)
	}

	cmd := exec.CommandContext(ctx, info.Binary, opts.Args...)
	cmd.Dir = opts.Dir
	cmd.Env = os.Environ()
	for key, value := range opts.Env {
		cmd.Env = append(cmd.Env, key+"="+value)
	}

	log.Info("launching tool", "tool", info.Name)
	if opts.Wait {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return cmd.Run()
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch %s: %w", info.Name, err)
	}
	return cmd.Process.Release()
}

// probeVersion tries common version flags and returns the first line of
// the first one that succeeds.
func probeVersion(binaryPath string) string {
	for _, flag := range []string{"--version", "-v", "version"} {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		out, err := exec.CommandContext(ctx, binaryPath, flag).Output()
		cancel()
		if err != nil {
			continue
		}
		line := strings.SplitN(strings.TrimSpace(string(out)), "\n", 2)[0]
		if line != "" {
			return line
		}
	}
	return ""
}
