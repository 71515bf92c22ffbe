package update

import (
	"fmt"
	"os"
	"path/filepath"
)

// Installer swaps the running binary for a downloaded replacement.
type Installer struct{}

func NewInstaller() *Installer {
	return &Installer{}
}

// Install moves the downloaded binary over the current executable.
// The rename is atomic on POSIX; the running process keeps its old
// file, new invocations pick up the replacement.
func (i *Installer) Install(downloadedPath string) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("%w: locate executable: %w", ErrInstallFailed, err)
	}
	if err := os.Chmod(downloadedPath, 0o755); err != nil {
		return fmt.Errorf("%w: chmod: %w", ErrInstallFailed, err)
	}
	if err := os.Rename(downloadedPath, self); err != nil {
		return fmt.Errorf("%w: rename: %w", ErrInstallFailed, err)
	}
	return nil
}

// IsWritable reports whether the executable's directory accepts new
// files. A false result usually means the user needs elevated
// privileges to update.
func (i *Installer) IsWritable() (bool, error) {
	self, err := os.Executable()
	if err != nil {
		return false, err
	}
	probe, err := os.CreateTemp(filepath.Dir(self), ".aidev-update-probe-")
	if err != nil {
		return false, nil
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())
	return true, nil
}
