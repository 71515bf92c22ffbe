package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Settings holds user preferences that persist between sessions
type Settings struct {
	// Preferred assistant (lowest-priority default for workflow runs)
	PreferredAssistant string `json:"preferred_assistant,omitempty"`

	// Default profile for newly initialized projects
	DefaultProfile string `json:"default_profile,omitempty"`

	// Recent workflow manifest paths (for quick resume)
	RecentRuns []string `json:"recent_runs,omitempty"`

	// Last time the background update check ran
	LastUpdateCheck time.Time `json:"last_update_check,omitempty"`
}

// SettingsPath returns the path to the settings file
func SettingsPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, AidevDirName, "settings.json")
}

// LoadSettings reads settings from disk
func LoadSettings() (*Settings, error) {
	path := SettingsPath()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Settings{}, nil // Return empty settings if file doesn't exist
		}
		return nil, err
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, err
	}

	return &settings, nil
}

// Save writes settings to disk
func (s *Settings) Save() error {
	path := SettingsPath()

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// AddRecentRun adds a manifest path to the recent list (max 10, most
// recent first)
func (s *Settings) AddRecentRun(manifestPath string) {
	// Remove if already present
	filtered := make([]string, 0, len(s.RecentRuns))
	for _, p := range s.RecentRuns {
		if p != manifestPath {
			filtered = append(filtered, p)
		}
	}

	// Add to front
	s.RecentRuns = append([]string{manifestPath}, filtered...)

	// Trim to max 10
	if len(s.RecentRuns) > 10 {
		s.RecentRuns = s.RecentRuns[:10]
	}
}
