package update

import "errors"

var (
	// ErrNoUpdateAvailable signals the running binary is already the
	// latest release.
	ErrNoUpdateAvailable = errors.New("update: no update available")

	// ErrDevBuild signals the binary was built without release version
	// information, so there is nothing meaningful to compare against.
	ErrDevBuild = errors.New("update: dev build")

	// ErrDownloadFailed wraps any failure while fetching a release asset.
	ErrDownloadFailed = errors.New("update: download failed")

	// ErrChecksumFailed signals the downloaded asset did not match the
	// published checksum.
	ErrChecksumFailed = errors.New("update: checksum verification failed")

	// ErrInstallFailed wraps any failure while swapping the binary.
	ErrInstallFailed = errors.New("update: installation failed")

	// ErrAssetNotFound signals the release carries no binary for the
	// current GOOS/GOARCH pair.
	ErrAssetNotFound = errors.New("update: no asset for this platform")
)
