package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/valksor/go-aidev/internal/config"
	"github.com/valksor/go-aidev/internal/display"
	"github.com/valksor/go-aidev/internal/update"
)

// checkForUpdatesInBackground performs an asynchronous update check.
// It respects the update check interval and only prints to stderr.
// This function should be called in a goroutine from PersistentPreRunE.
func checkForUpdatesInBackground(ctx context.Context) {
	// Use a short timeout to avoid slowing down CLI startup
	timeoutCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Get settings to check last update time
	settings, err := config.LoadSettings()
	if err != nil {
		return // Silently skip if settings can't be loaded
	}

	if !shouldCheckForUpdates(settings) {
		return
	}

	token := os.Getenv("GITHUB_TOKEN")
	checker := update.NewChecker(token, "valksor", "go-aidev")

	opts := update.CheckOptions{
		CurrentVersion:    Version,
		IncludePreRelease: false, // Only check for stable releases in background
	}

	status, err := checker.Check(timeoutCtx, opts)
	if err != nil {
		// Silently skip on errors - don't bother the user
		// Update the timestamp so we don't check again too soon
		_ = saveUpdateCheckTime(settings)

		return
	}

	// Update the timestamp
	_ = saveUpdateCheckTime(settings)

	// A non-error status means a newer release exists. Print to stderr
	// so it doesn't interfere with command output.
	fmt.Fprintf(os.Stderr, "\n%s %s is available (you have %s)\n",
		display.Info("→"), display.Bold(status.LatestVersion), display.Muted(Version))
	fmt.Fprintf(os.Stderr, "%s Run 'aidev update' to install\n\n", display.Muted("→"))
}

// saveUpdateCheckTime saves the current time as the last update check time.
func saveUpdateCheckTime(settings *config.Settings) error {
	settings.LastUpdateCheck = time.Now()

	return settings.Save()
}

// shouldCheckForUpdates returns true if update checks are enabled and it's time to check again.
func shouldCheckForUpdates(settings *config.Settings) bool {
	// Skip if this is a dev build
	if Version == "dev" || Version == "none" {
		return false
	}

	// Check if we've checked recently
	if !settings.LastUpdateCheck.IsZero() {
		const checkInterval = 24 * time.Hour
		elapsed := time.Since(settings.LastUpdateCheck)
		if elapsed < checkInterval {
			return false
		}
	}

	return true
}
