package update

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"strings"
)

// Downloader fetches release assets and verifies them against the
// published checksums file.
type Downloader struct {
	client *http.Client
}

func NewDownloader() *Downloader {
	return &Downloader{client: &http.Client{}}
}

// DownloadWithChecksums fetches the checksums file, extracts the entry
// for assetName, then downloads and verifies the binary. A missing or
// unreadable checksums file degrades to an unverified download.
func (d *Downloader) DownloadWithChecksums(ctx context.Context, assetURL, checksumsURL, assetName string) (string, error) {
	var checksum string
	if checksumsURL != "" {
		if sum, err := d.fetchChecksum(ctx, checksumsURL, assetName); err == nil {
			checksum = sum
		}
	}
	return d.Download(ctx, assetURL, checksum)
}

// Download streams the asset to a temp file, hashing as it goes. When
// expectedChecksum is non-empty the hash must match or the file is
// discarded. Returns the temp file path.
func (d *Downloader) Download(ctx context.Context, url, expectedChecksum string) (string, error) {
	tmp, err := os.CreateTemp("", "aidev-update-*.bin")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %w", ErrDownloadFailed, err)
	}
	defer func() { _ = tmp.Close() }()

	fail := func(err error) (string, error) {
		_ = os.Remove(tmp.Name())
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrDownloadFailed, err))
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrDownloadFailed, err))
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fail(fmt.Errorf("%w: unexpected status %d", ErrDownloadFailed, resp.StatusCode))
	}

	hasher := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, hasher), resp.Body); err != nil {
		return fail(fmt.Errorf("%w: %w", ErrDownloadFailed, err))
	}

	if expectedChecksum != "" {
		actual := hex.EncodeToString(hasher.Sum(nil))
		if !strings.EqualFold(actual, expectedChecksum) {
			return fail(fmt.Errorf("%w: expected %s, got %s", ErrChecksumFailed, expectedChecksum, actual))
		}
	}
	return tmp.Name(), nil
}

func (d *Downloader) fetchChecksum(ctx context.Context, url, assetName string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	sum := ParseChecksumsFile(string(content), assetName)
	if sum == "" {
		return "", fmt.Errorf("no checksum entry for %s", assetName)
	}
	return sum, nil
}

// ParseChecksumsFile finds the checksum for assetName in sha256sum
// output. Lines look like "checksum  name" or "checksum *name".
func ParseChecksumsFile(content, assetName string) string {
	for _, line := range strings.Split(content, "\n") {
		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) < 2 {
			continue
		}
		if strings.TrimPrefix(parts[1], "*") == assetName {
			return parts[0]
		}
	}
	return ""
}

// GetAssetName returns the release asset name for this platform.
func GetAssetName() string {
	return fmt.Sprintf("aidev-%s-%s", runtime.GOOS, runtime.GOARCH)
}
