package mcp

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/valksor/go-aidev/internal/env"
	"github.com/valksor/go-aidev/internal/log"
	"github.com/valksor/go-aidev/internal/profile"
)

// Keys copied from a server definition into a rendered entry when
// present. Tools ignore keys they do not understand except where a
// renderer normalizes them.
var passthroughKeys = []string{
	"cwd",
	"url",
	"httpUrl",
	"http_url",
	"bearer_token_env_var",
	"http_headers",
	"headers",
	"env_http_headers",
	"env_vars",
	"enabled_tools",
	"disabled_tools",
	"startup_timeout_sec",
	"tool_timeout_sec",
	"timeout",
	"trust",
	"description",
	"includeTools",
	"excludeTools",
}

// Renderer turns a resolved profile into tool-native MCP configuration
// files.
type Renderer struct {
	catalog  *Catalog
	lookPath func(string) (string, error)
}

// NewRenderer creates a renderer backed by the given catalog.
func NewRenderer(catalog *Catalog) *Renderer {
	return &Renderer{catalog: catalog, lookPath: exec.LookPath}
}

// Generate writes the MCP configuration for a tool. Gemini merges into
// its settings.json shape; every other tool gets the standard
// mcpServers JSON document.
func (r *Renderer) Generate(toolID string, resolved *profile.Profile, globalEnv map[string]string, configPath string) error {
	entries, disabled := r.buildEntries(resolved, globalEnv)

	if toolID == "gemini" {
		return r.renderGemini(configPath, entries, disabled)
	}
	return r.renderStandard(configPath, entries)
}

// buildEntries expands the profile's server references into concrete
// entries. Disabled servers are collected by name so merging renderers
// can prune them from existing files.
func (r *Renderer) buildEntries(resolved *profile.Profile, globalEnv map[string]string) (map[string]ServerDef, []string) {
	vars := env.Merge(globalEnv, resolved.Environment)
	entries := make(map[string]ServerDef)
	var disabled []string

	for _, ref := range resolved.MCPServers {
		if !ref.Enabled {
			disabled = append(disabled, ref.Name)
			continue
		}

		def, err := r.catalog.Get(ref.Name)
		if err != nil {
			log.Warn("mcp server definition missing", "server", ref.Name, log.Err(err))
			continue
		}

		entry := make(ServerDef)
		for _, key := range passthroughKeys {
			if value, ok := def[key]; ok {
				entry[key] = value
			}
		}

		if command, ok := def["command"].(string); ok && command != "" {
			if resolved, err := r.lookPath(command); err == nil {
				entry["command"] = resolved
			} else {
				entry["command"] = command
			}
		}
		if args, ok := def["args"]; ok {
			entry["args"] = args
		}

		if !hasTransport(entry) {
			log.Warn("mcp server has no command or url, skipping", "server", ref.Name)
			continue
		}

		if rawEnv, ok := def["env"].(map[string]any); ok {
			expanded := make(map[string]any, len(rawEnv))
			for key, value := range rawEnv {
				text, ok := value.(string)
				if !ok {
					expanded[key] = value
					continue
				}
				resolved, err := env.Expand(text, vars)
				if err != nil {
					log.Warn("mcp env expansion failed", "server", ref.Name, "key", key, log.Err(err))
					resolved = text
				}
				expanded[key] = resolved
			}
			entry["env"] = expanded
		}

		if approve, ok := def["autoApprove"]; ok {
			entry["autoApprove"] = approve
		}

		if len(ref.Config) > 0 {
			merged := make(map[string]any)
			if existing, ok := entry["config"].(map[string]any); ok {
				for k, v := range existing {
					merged[k] = v
				}
			}
			for k, v := range ref.Config {
				merged[k] = v
			}
			entry["config"] = merged
		}

		if _, ok := entry["startup_timeout_sec"]; !ok {
			entry["startup_timeout_sec"] = 30
		}
		if _, ok := entry["tool_timeout_sec"]; !ok {
			entry["tool_timeout_sec"] = 60
		}

		entries[ref.Name] = entry
	}

	return entries, disabled
}

func hasTransport(entry ServerDef) bool {
	for _, key := range []string{"command", "url", "httpUrl", "http_url"} {
		if value, ok := entry[key].(string); ok && value != "" {
			return true
		}
	}
	return false
}

// renderStandard writes the mcpServers JSON document used by Claude,
// Cursor, and compatible tools. The file is replaced wholesale.
func (r *Renderer) renderStandard(configPath string, entries map[string]ServerDef) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(map[string]any{"mcpServers": entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal mcp config: %w", err)
	}
	return os.WriteFile(configPath, data, 0o644)
}

// renderGemini merges entries into an existing Gemini settings.json,
// pruning servers the profile disables and normalizing snake_case keys
// to the shape Gemini expects.
func (r *Renderer) renderGemini(configPath string, entries map[string]ServerDef, disabled []string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	existing := make(map[string]any)
	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, &existing); err != nil {
			log.Warn("could not parse existing gemini settings, starting fresh", "path", configPath, log.Err(err))
			existing = make(map[string]any)
		}
	}

	servers, _ := existing["mcpServers"].(map[string]any)
	if servers == nil {
		servers = make(map[string]any)
	}
	for _, name := range disabled {
		delete(servers, name)
	}
	for name, entry := range entries {
		servers[name] = normalizeGeminiEntry(entry)
	}
	existing["mcpServers"] = servers

	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal gemini settings: %w", err)
	}
	return os.WriteFile(configPath, data, 0o644)
}

func normalizeGeminiEntry(entry ServerDef) map[string]any {
	normalized := make(map[string]any, len(entry))
	for key, value := range entry {
		if value == nil {
			continue
		}
		switch key {
		case "http_url":
			normalized["httpUrl"] = value
		case "http_headers":
			mergeStringMap(normalized, "headers", value)
		case "env_http_headers":
			mergeStringMap(normalized, "headers", value)
		case "env_vars":
			// A list of variable names to forward from the environment.
			forwarded := make(map[string]any)
			if names, ok := value.([]any); ok {
				for _, n := range names {
					if name, ok := n.(string); ok {
						forwarded[name] = os.Getenv(name)
					}
				}
			}
			mergeStringMap(normalized, "env", forwarded)
		case "env":
			mergeStringMap(normalized, "env", value)
		default:
			normalized[key] = value
		}
	}
	return normalized
}

// mergeStringMap merges value (when it is a map) into normalized[key],
// so headers and env built from several source keys accumulate instead
// of clobbering each other.
func mergeStringMap(normalized map[string]any, key string, value any) {
	target, _ := normalized[key].(map[string]any)
	if target == nil {
		target = make(map[string]any)
	}
	if extra, ok := value.(map[string]any); ok {
		for k, v := range extra {
			target[k] = v
		}
	}
	normalized[key] = target
}
