package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/valksor/go-aidev/internal/env"
)

const (
	projectConfigFile  = "config.json"
	projectProfileFile = "profile"
)

// ProjectConfig is the contents of a project's .aidev/config.json.
type ProjectConfig struct {
	Profile          string            `json:"profile"`
	DefaultAssistant string            `json:"default_assistant,omitempty"`
	Environment      map[string]string `json:"environment"`
	MCPOverrides     map[string]any    `json:"mcp_overrides"`
}

// ProjectDir returns the project's .aidev directory, or "" if the
// project has not been initialized.
func ProjectDir(projectDir string) string {
	dir := filepath.Join(projectDir, AidevDirName)
	if _, err := os.Stat(dir); err != nil {
		return ""
	}
	return dir
}

// InitProject creates the .aidev directory inside a project with its
// config.json, profile marker, and empty .env. Existing files are left
// alone, so re-running init is safe.
func InitProject(projectDir, profileName string) (string, error) {
	dir := filepath.Join(projectDir, AidevDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create project config dir: %w", err)
	}

	configPath := filepath.Join(dir, projectConfigFile)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := &ProjectConfig{
			Profile:      profileName,
			Environment:  map[string]string{},
			MCPOverrides: map[string]any{},
		}
		if err := SaveProjectConfig(projectDir, cfg); err != nil {
			return "", err
		}
	}

	profilePath := filepath.Join(dir, projectProfileFile)
	if _, err := os.Stat(profilePath); os.IsNotExist(err) {
		if err := os.WriteFile(profilePath, []byte(profileName), 0o644); err != nil {
			return "", fmt.Errorf("write profile marker: %w", err)
		}
	}

	envPath := filepath.Join(dir, EnvFileName)
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		if err := os.WriteFile(envPath, nil, 0o644); err != nil {
			return "", fmt.Errorf("create project env file: %w", err)
		}
	}

	return dir, nil
}

// LoadProjectConfig reads .aidev/config.json. A missing file yields a
// zero-value config with the default profile, never an error.
func LoadProjectConfig(projectDir string) (*ProjectConfig, error) {
	path := filepath.Join(projectDir, AidevDirName, projectConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ProjectConfig{
				Profile:      "default",
				Environment:  map[string]string{},
				MCPOverrides: map[string]any{},
			}, nil
		}
		return nil, fmt.Errorf("read project config: %w", err)
	}

	var cfg ProjectConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid project config %s: %w", path, err)
	}
	if cfg.Environment == nil {
		cfg.Environment = map[string]string{}
	}
	if cfg.MCPOverrides == nil {
		cfg.MCPOverrides = map[string]any{}
	}
	return &cfg, nil
}

// SaveProjectConfig writes .aidev/config.json.
func SaveProjectConfig(projectDir string, cfg *ProjectConfig) error {
	dir := filepath.Join(projectDir, AidevDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create project config dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal project config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, projectConfigFile), data, 0o644)
}

// ActiveProfile returns the profile named by the project's profile
// marker file, falling back to config.json and then to "default".
func ActiveProfile(projectDir string) string {
	data, err := os.ReadFile(filepath.Join(projectDir, AidevDirName, projectProfileFile))
	if err == nil {
		if name := strings.TrimSpace(string(data)); name != "" {
			return name
		}
	}

	cfg, err := LoadProjectConfig(projectDir)
	if err == nil && cfg.Profile != "" {
		return cfg.Profile
	}
	return "default"
}

// SetActiveProfile updates both the profile marker and config.json so
// the two views never disagree.
func SetActiveProfile(projectDir, profileName string) error {
	cfg, err := LoadProjectConfig(projectDir)
	if err != nil {
		return err
	}
	cfg.Profile = profileName
	if err := SaveProjectConfig(projectDir, cfg); err != nil {
		return err
	}

	path := filepath.Join(projectDir, AidevDirName, projectProfileFile)
	if err := os.WriteFile(path, []byte(profileName), 0o644); err != nil {
		return fmt.Errorf("write profile marker: %w", err)
	}
	return nil
}

// ProjectEnv reads the project's .aidev/.env file. Missing file yields
// an empty map.
func ProjectEnv(projectDir string) (map[string]string, error) {
	return env.ReadFile(filepath.Join(projectDir, AidevDirName, EnvFileName))
}

// SetProjectEnv sets one variable in the project's .env file.
func SetProjectEnv(projectDir, key, value string) error {
	path := filepath.Join(projectDir, AidevDirName, EnvFileName)
	vars, err := env.ReadFile(path)
	if err != nil {
		return err
	}
	vars[key] = value
	return env.WriteFile(path, vars)
}

// UnsetProjectEnv removes one variable from the project's .env file.
func UnsetProjectEnv(projectDir, key string) error {
	path := filepath.Join(projectDir, AidevDirName, EnvFileName)
	vars, err := env.ReadFile(path)
	if err != nil {
		return err
	}
	if _, ok := vars[key]; !ok {
		return nil
	}
	delete(vars, key)
	return env.WriteFile(path, vars)
}
