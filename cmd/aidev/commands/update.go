package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/valksor/go-aidev/internal/display"
	"github.com/valksor/go-aidev/internal/update"
)

var (
	updatePreRelease bool
	updateCheckOnly  bool
	updateYes        bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update aidev to the latest version",
	Long: `Update aidev to the latest version from GitHub releases.

By default, only stable releases are considered. Use --pre-release to include
pre-release versions.

The update process:
1. Checks for the latest release
2. Downloads the binary for your platform
3. Verifies checksum (if available)
4. Replaces the current binary atomically

After a successful update, restart aidev to use the new version.`,
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().BoolVarP(&updatePreRelease, "pre-release", "p", false,
		"Include pre-release versions")
	updateCmd.Flags().BoolVar(&updateCheckOnly, "check", false,
		"Check for updates without installing")
	updateCmd.Flags().BoolVarP(&updateYes, "yes", "y", false,
		"Skip confirmation prompt")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	// Anonymous access works for public repos; a token avoids rate limits
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		fmt.Fprintf(os.Stderr, "%s Running without authentication (rate limits may apply)\n",
			display.Warning("→"))
	}

	opts := update.CheckOptions{
		CurrentVersion:    Version,
		IncludePreRelease: updatePreRelease,
	}

	fmt.Println(display.Info("→") + " Checking for updates...")

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	checker := update.NewChecker(token, "valksor", "go-aidev")

	status, err := checker.Check(ctx, opts)
	if err != nil {
		if errors.Is(err, update.ErrNoUpdateAvailable) {
			fmt.Println(display.SuccessMsg("Already up to date"))
			fmt.Printf("Current version: %s\n", Version)

			return nil
		}
		if errors.Is(err, update.ErrDevBuild) {
			fmt.Printf(display.Warning("⚠")+" Dev build detected (%s)\n", Version)
			fmt.Println("Update checks are not available for dev builds.")
			fmt.Println("Install a release version to enable updates:")
			fmt.Println("  https://github.com/valksor/go-aidev/releases")

			return nil
		}

		return fmt.Errorf("check for updates: %w", err)
	}

	fmt.Printf("\n%s %s\n", display.Success("✓"), display.Bold("Update available"))
	fmt.Printf("  Current:   %s\n", display.Muted(status.CurrentVersion))
	fmt.Printf("  Latest:    %s\n", display.Success(status.LatestVersion))
	if status.ReleaseURL != "" {
		fmt.Printf("  Release:   %s\n", display.Muted(status.ReleaseURL))
	}
	if status.AssetSize > 0 {
		sizeMB := float64(status.AssetSize) / 1024 / 1024
		fmt.Printf("  Download:  %s (%.1f MB)\n", display.Muted(status.AssetName), sizeMB)
	}

	if updateCheckOnly {
		return nil
	}

	if !updateYes {
		prompt := fmt.Sprintf("Download and install %s?", status.LatestVersion)
		confirmed, err := confirmAction(prompt, false)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println(display.Muted("Update cancelled"))

			return nil
		}
	}

	installer := update.NewInstaller()
	writable, _ := installer.IsWritable()
	if !writable {
		return fmt.Errorf("%s\n\nTry running with sudo: sudo aidev update", display.ErrorMsg(
			"Cannot write to binary directory"))
	}

	fmt.Println(display.Info("→") + " Downloading update...")

	if status.ChecksumsURL == "" {
		fmt.Printf("%s Release publishes no checksums, skipping verification\n",
			display.Warning("→"))
	}

	downloader := update.NewDownloader()
	downloadedPath, err := downloader.DownloadWithChecksums(
		ctx,
		status.AssetURL,
		status.ChecksumsURL,
		status.AssetName,
	)
	if err != nil {
		return fmt.Errorf("download update: %w", err)
	}

	fmt.Println(display.SuccessMsg("Download complete"))

	if err := installer.Install(downloadedPath); err != nil {
		return fmt.Errorf("install update: %w", err)
	}

	fmt.Printf("\n%s Updated to %s\n", display.SuccessMsg(""), display.Bold(status.LatestVersion))
	fmt.Printf("%s Restart aidev to use the new version\n\n", display.Muted("→"))

	return nil
}
