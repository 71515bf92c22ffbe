package commands

import (
	"testing"
	"time"

	"github.com/valksor/go-aidev/internal/config"
)

func TestShouldCheckForUpdates(t *testing.T) {
	oldVersion := Version
	defer func() { Version = oldVersion }()

	Version = "dev"
	if shouldCheckForUpdates(&config.Settings{}) {
		t.Error("dev builds should never check for updates")
	}

	Version = "v1.2.3"
	if !shouldCheckForUpdates(&config.Settings{}) {
		t.Error("release build with no prior check should check")
	}

	recent := &config.Settings{LastUpdateCheck: time.Now().Add(-1 * time.Hour)}
	if shouldCheckForUpdates(recent) {
		t.Error("checked an hour ago, should not check again")
	}

	stale := &config.Settings{LastUpdateCheck: time.Now().Add(-25 * time.Hour)}
	if !shouldCheckForUpdates(stale) {
		t.Error("checked over a day ago, should check again")
	}
}

func TestSaveUpdateCheckTime(t *testing.T) {
	setupTest(t)

	s := &config.Settings{}
	if err := saveUpdateCheckTime(s); err != nil {
		t.Fatalf("saveUpdateCheckTime: %v", err)
	}
	if s.LastUpdateCheck.IsZero() {
		t.Error("LastUpdateCheck not stamped")
	}

	loaded, err := config.LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if loaded.LastUpdateCheck.IsZero() {
		t.Error("LastUpdateCheck not persisted")
	}
}
