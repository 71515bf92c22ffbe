// Package config manages the global ~/.aidev tree and per-project
// .aidev directories.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/valksor/go-aidev/internal/env"
)

const (
	// AidevDirName is the name of the configuration directory, both
	// under the home directory and inside projects.
	AidevDirName = ".aidev"

	// EnvFileName is the name of the environment variables file.
	EnvFileName = ".env"
)

// Manager resolves and maintains the global configuration tree:
//
//	~/.aidev/
//	  config/
//	    profiles/          built-in profile overrides
//	    profiles/custom/   user-defined profiles
//	    mcp-servers/       server definitions
//	    mcp-servers/custom/
//	    tools.json
//	  cache/
//	  logs/
//	  settings.json
//	  .env
type Manager struct {
	home string
}

// NewManager creates a manager rooted at the user's home directory.
func NewManager() (*Manager, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return &Manager{home: home}, nil
}

func (m *Manager) AidevDir() string          { return filepath.Join(m.home, AidevDirName) }
func (m *Manager) ConfigDir() string         { return filepath.Join(m.AidevDir(), "config") }
func (m *Manager) ProfilesDir() string       { return filepath.Join(m.ConfigDir(), "profiles") }
func (m *Manager) CustomProfilesDir() string { return filepath.Join(m.ProfilesDir(), "custom") }
func (m *Manager) MCPServersDir() string     { return filepath.Join(m.ConfigDir(), "mcp-servers") }
func (m *Manager) CustomMCPDir() string      { return filepath.Join(m.MCPServersDir(), "custom") }
func (m *Manager) CacheDir() string          { return filepath.Join(m.AidevDir(), "cache") }
func (m *Manager) LogsDir() string           { return filepath.Join(m.AidevDir(), "logs") }
func (m *Manager) EnvFile() string           { return filepath.Join(m.AidevDir(), EnvFileName) }
func (m *Manager) ToolsConfigFile() string   { return filepath.Join(m.ConfigDir(), "tools.json") }

// InitDirectories creates every directory of the global tree.
func (m *Manager) InitDirectories() error {
	dirs := []string{
		m.AidevDir(),
		m.ConfigDir(),
		m.ProfilesDir(),
		m.CustomProfilesDir(),
		m.MCPServersDir(),
		m.CustomMCPDir(),
		m.CacheDir(),
		m.LogsDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// IsInitialized reports whether the global tree exists.
func (m *Manager) IsInitialized() bool {
	if _, err := os.Stat(m.ConfigDir()); err != nil {
		return false
	}
	return true
}

// GlobalEnv reads the global .env file. Missing file yields an empty
// map.
func (m *Manager) GlobalEnv() (map[string]string, error) {
	return env.ReadFile(m.EnvFile())
}

// SetGlobalEnv sets one variable in the global .env file.
func (m *Manager) SetGlobalEnv(key, value string) error {
	vars, err := m.GlobalEnv()
	if err != nil {
		return err
	}
	vars[key] = value
	return env.WriteFile(m.EnvFile(), vars)
}

// UnsetGlobalEnv removes one variable from the global .env file.
func (m *Manager) UnsetGlobalEnv(key string) error {
	vars, err := m.GlobalEnv()
	if err != nil {
		return err
	}
	if _, ok := vars[key]; !ok {
		return nil
	}
	delete(vars, key)
	return env.WriteFile(m.EnvFile(), vars)
}

// ToolsConfig reads config/tools.json. Missing file yields an empty
// map.
func (m *Manager) ToolsConfig() (map[string]any, error) {
	data, err := os.ReadFile(m.ToolsConfigFile())
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("read tools config: %w", err)
	}
	var cfg map[string]any
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid tools config: %w", err)
	}
	return cfg, nil
}

// SaveToolsConfig writes config/tools.json.
func (m *Manager) SaveToolsConfig(cfg map[string]any) error {
	if err := os.MkdirAll(m.ConfigDir(), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tools config: %w", err)
	}
	return os.WriteFile(m.ToolsConfigFile(), data, 0o644)
}
