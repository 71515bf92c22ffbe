package mcp

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/valksor/go-aidev/internal/profile"
)

func testRenderer(t *testing.T) *Renderer {
	t.Helper()
	r := NewRenderer(testCatalog(t))
	r.lookPath = func(name string) (string, error) {
		return "/usr/local/bin/" + name, nil
	}
	return r
}

func readJSON(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return doc
}

func TestGenerateStandardConfig(t *testing.T) {
	r := testRenderer(t)
	p := &profile.Profile{
		Name: "web",
		MCPServers: []profile.MCPServerRef{
			{Name: "filesystem", Enabled: true},
			{Name: "github", Enabled: true},
			{Name: "duckduckgo", Enabled: false},
		},
	}
	globalEnv := map[string]string{"GITHUB_TOKEN": "tok123"}

	configPath := filepath.Join(t.TempDir(), "mcp.json")
	if err := r.Generate("claude", p, globalEnv, configPath); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	doc := readJSON(t, configPath)
	servers := doc["mcpServers"].(map[string]any)
	if len(servers) != 2 {
		t.Errorf("servers = %v, want 2 enabled entries", servers)
	}
	if _, ok := servers["duckduckgo"]; ok {
		t.Error("disabled server rendered")
	}

	github := servers["github"].(map[string]any)
	if github["command"] != "/usr/local/bin/npx" {
		t.Errorf("command = %v, want resolved path", github["command"])
	}
	envMap := github["env"].(map[string]any)
	if envMap["GITHUB_PERSONAL_ACCESS_TOKEN"] != "tok123" {
		t.Errorf("env = %v, want token expanded", envMap)
	}
}

func TestGenerateProfileEnvWinsOverGlobal(t *testing.T) {
	r := testRenderer(t)
	p := &profile.Profile{
		Name:        "web",
		MCPServers:  []profile.MCPServerRef{{Name: "github", Enabled: true}},
		Environment: map[string]string{"GITHUB_TOKEN": "fromprofile"},
	}

	configPath := filepath.Join(t.TempDir(), "mcp.json")
	if err := r.Generate("claude", p, map[string]string{"GITHUB_TOKEN": "fromglobal"}, configPath); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	servers := readJSON(t, configPath)["mcpServers"].(map[string]any)
	envMap := servers["github"].(map[string]any)["env"].(map[string]any)
	if envMap["GITHUB_PERSONAL_ACCESS_TOKEN"] != "fromprofile" {
		t.Errorf("env = %v, want profile value", envMap)
	}
}

func TestGenerateProfileConfigOverride(t *testing.T) {
	r := testRenderer(t)
	p := &profile.Profile{
		Name: "web",
		MCPServers: []profile.MCPServerRef{
			{Name: "filesystem", Enabled: true, Config: map[string]any{"root": "/srv/project"}},
		},
	}

	configPath := filepath.Join(t.TempDir(), "mcp.json")
	if err := r.Generate("cursor", p, nil, configPath); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	servers := readJSON(t, configPath)["mcpServers"].(map[string]any)
	cfg := servers["filesystem"].(map[string]any)["config"].(map[string]any)
	if cfg["root"] != "/srv/project" {
		t.Errorf("config = %v", cfg)
	}
}

func TestGenerateSkipsUnknownServer(t *testing.T) {
	r := testRenderer(t)
	p := &profile.Profile{
		Name: "web",
		MCPServers: []profile.MCPServerRef{
			{Name: "no-such-server", Enabled: true},
			{Name: "git", Enabled: true},
		},
	}

	configPath := filepath.Join(t.TempDir(), "mcp.json")
	if err := r.Generate("claude", p, nil, configPath); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	servers := readJSON(t, configPath)["mcpServers"].(map[string]any)
	if len(servers) != 1 {
		t.Errorf("servers = %v, want only git", servers)
	}
}

func TestGenerateSkipsServerWithoutTransport(t *testing.T) {
	r := testRenderer(t)
	if err := r.catalog.Save("broken", ServerDef{"name": "broken", "description": "no transport"}, true); err != nil {
		t.Fatal(err)
	}
	p := &profile.Profile{
		Name:       "web",
		MCPServers: []profile.MCPServerRef{{Name: "broken", Enabled: true}},
	}

	configPath := filepath.Join(t.TempDir(), "mcp.json")
	if err := r.Generate("claude", p, nil, configPath); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	servers := readJSON(t, configPath)["mcpServers"].(map[string]any)
	if len(servers) != 0 {
		t.Errorf("servers = %v, want none", servers)
	}
}

func TestGenerateGeminiMergesExisting(t *testing.T) {
	r := testRenderer(t)
	configPath := filepath.Join(t.TempDir(), "settings.json")

	existing := map[string]any{
		"theme": "dark",
		"mcpServers": map[string]any{
			"keepme":     map[string]any{"command": "keep"},
			"duckduckgo": map[string]any{"command": "old"},
		},
	}
	data, _ := json.Marshal(existing)
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatal(err)
	}

	p := &profile.Profile{
		Name: "web",
		MCPServers: []profile.MCPServerRef{
			{Name: "git", Enabled: true},
			{Name: "duckduckgo", Enabled: false},
		},
	}
	if err := r.Generate("gemini", p, nil, configPath); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	doc := readJSON(t, configPath)
	if doc["theme"] != "dark" {
		t.Error("unrelated settings lost in merge")
	}
	servers := doc["mcpServers"].(map[string]any)
	if _, ok := servers["keepme"]; !ok {
		t.Error("unrelated server entry lost in merge")
	}
	if _, ok := servers["duckduckgo"]; ok {
		t.Error("disabled server not pruned")
	}
	if _, ok := servers["git"]; !ok {
		t.Error("enabled server not upserted")
	}
}

func TestNormalizeGeminiEntry(t *testing.T) {
	entry := ServerDef{
		"http_url":     "https://example.com/mcp",
		"http_headers": map[string]any{"Authorization": "Bearer x"},
		"command":      "npx",
	}
	normalized := normalizeGeminiEntry(entry)

	if normalized["httpUrl"] != "https://example.com/mcp" {
		t.Errorf("httpUrl = %v", normalized["httpUrl"])
	}
	if _, ok := normalized["http_url"]; ok {
		t.Error("snake_case key leaked through")
	}
	headers := normalized["headers"].(map[string]any)
	if headers["Authorization"] != "Bearer x" {
		t.Errorf("headers = %v", headers)
	}
}
