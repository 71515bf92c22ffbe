package tools

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testManager(t *testing.T, installed ...string) *Manager {
	t.Helper()
	set := make(map[string]bool, len(installed))
	for _, name := range installed {
		set[name] = true
	}
	return &Manager{
		home: t.TempDir(),
		lookPath: func(name string) (string, error) {
			if set[name] {
				return "/usr/local/bin/" + name, nil
			}
			return "", errors.New("not found")
		},
	}
}

func TestDetectUnsupported(t *testing.T) {
	m := testManager(t)
	if _, err := m.Detect("emacs"); !errors.Is(err, ErrUnsupportedTool) {
		t.Errorf("error = %v, want ErrUnsupportedTool", err)
	}
}

func TestDetectNotInstalled(t *testing.T) {
	m := testManager(t)

	info, err := m.Detect("claude")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if info.Installed {
		t.Error("claude reported installed with empty PATH")
	}
	if info.ConfigPath == "" {
		t.Error("config path not set")
	}
}

func TestDetectAllSorted(t *testing.T) {
	m := testManager(t, "claude", "ollama")

	infos := m.DetectAll()
	if len(infos) != len(Supported()) {
		t.Fatalf("DetectAll returned %d tools", len(infos))
	}
	for i := 1; i < len(infos); i++ {
		if infos[i-1].ID > infos[i].ID {
			t.Errorf("not sorted: %s before %s", infos[i-1].ID, infos[i].ID)
		}
	}

	byID := make(map[string]*Info)
	for _, info := range infos {
		byID[info.ID] = info
	}
	if !byID["claude"].Installed || byID["cursor"].Installed {
		t.Errorf("detection mismatch: %+v", byID)
	}
}

func TestConfigPathDefault(t *testing.T) {
	m := testManager(t)

	path, err := m.ConfigPath("cursor", "")
	if err != nil {
		t.Fatalf("ConfigPath: %v", err)
	}
	if path != filepath.Join(m.home, ".cursor", "mcp.json") {
		t.Errorf("path = %q", path)
	}
}

func TestConfigPathGeminiProjectOverride(t *testing.T) {
	m := testManager(t)
	projectDir := t.TempDir()

	settings := filepath.Join(projectDir, ".gemini", "settings.json")
	if err := os.MkdirAll(filepath.Dir(settings), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(settings, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	path, err := m.ConfigPath("gemini", projectDir)
	if err != nil {
		t.Fatalf("ConfigPath: %v", err)
	}
	if path != settings {
		t.Errorf("path = %q, want project settings", path)
	}
}

func TestConfigPathGeminiCreatesInProject(t *testing.T) {
	m := testManager(t)
	projectDir := t.TempDir()

	// Project marker makes the directory eligible for a fresh settings
	// file.
	if err := os.MkdirAll(filepath.Join(projectDir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}

	path, err := m.ConfigPath("gemini", projectDir)
	if err != nil {
		t.Fatalf("ConfigPath: %v", err)
	}
	want := filepath.Join(projectDir, ".gemini", "settings.json")
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("settings file not created: %v", err)
	}
}

func TestConfigPathGeminiNoProjectFallsBack(t *testing.T) {
	m := testManager(t)

	path, err := m.ConfigPath("gemini", t.TempDir())
	if err != nil {
		t.Fatalf("ConfigPath: %v", err)
	}
	if path != filepath.Join(m.home, ".gemini", "settings.json") {
		t.Errorf("path = %q, want user-level settings", path)
	}
}

func TestLaunchNotInstalled(t *testing.T) {
	m := testManager(t)

	err := m.Launch(t.Context(), "claude", LaunchOptions{})
	if !errors.Is(err, ErrToolNotInstalled) {
		t.Errorf("error = %v, want ErrToolNotInstalled", err)
	}
}
