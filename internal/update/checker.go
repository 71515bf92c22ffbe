package update

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v67/github"
	"golang.org/x/mod/semver"
	"golang.org/x/oauth2"
)

// CheckOptions configures a single update check.
type CheckOptions struct {
	CurrentVersion    string
	IncludePreRelease bool
}

// UpdateStatus describes a newer release found by Check.
type UpdateStatus struct {
	CurrentVersion string
	LatestVersion  string
	AssetName      string
	AssetURL       string
	AssetSize      int64
	ChecksumsURL   string
	IsPreRelease   bool
	ReleaseURL     string
	ReleaseNotes   string
}

// Checker looks up GitHub releases for a repository and compares them
// against the running version.
type Checker struct {
	client *github.Client
	owner  string
	repo   string
}

// NewChecker builds a checker for owner/repo. An empty token means
// unauthenticated requests, which is fine for public repos apart from
// rate limits.
func NewChecker(token, owner, repo string) *Checker {
	client := github.NewClient(nil)
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		client = github.NewClient(oauth2.NewClient(context.Background(), ts))
	}
	if owner == "" {
		owner = "valksor"
	}
	if repo == "" {
		repo = "go-aidev"
	}
	return &Checker{client: client, owner: owner, repo: repo}
}

// Check returns the newest release that is newer than the running
// version. ErrDevBuild means the binary carries no release version;
// ErrNoUpdateAvailable means the binary is current.
func (c *Checker) Check(ctx context.Context, opts CheckOptions) (*UpdateStatus, error) {
	if opts.CurrentVersion == "dev" || opts.CurrentVersion == "none" || opts.CurrentVersion == "" {
		return nil, ErrDevBuild
	}

	release, err := c.latestRelease(ctx, opts.IncludePreRelease)
	if err != nil {
		return nil, err
	}

	latest := "v" + strings.TrimPrefix(release.GetTagName(), "v")
	current := "v" + strings.TrimPrefix(opts.CurrentVersion, "v")
	if semver.Compare(current, latest) >= 0 {
		return nil, ErrNoUpdateAvailable
	}

	status := &UpdateStatus{
		CurrentVersion: opts.CurrentVersion,
		LatestVersion:  release.GetTagName(),
		AssetName:      GetAssetName(),
		IsPreRelease:   release.GetPrerelease(),
		ReleaseURL:     release.GetHTMLURL(),
		ReleaseNotes:   release.GetBody(),
	}
	for _, asset := range release.Assets {
		switch asset.GetName() {
		case status.AssetName:
			status.AssetURL = asset.GetBrowserDownloadURL()
			status.AssetSize = int64(asset.GetSize())
		case "checksums.txt":
			status.ChecksumsURL = asset.GetBrowserDownloadURL()
		}
	}
	if status.AssetURL == "" {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, status.AssetName)
	}
	return status, nil
}

// latestRelease returns the newest non-draft release, honoring the
// pre-release filter. The API returns releases newest first.
func (c *Checker) latestRelease(ctx context.Context, includePre bool) (*github.RepositoryRelease, error) {
	releases, _, err := c.client.Repositories.ListReleases(ctx, c.owner, c.repo,
		&github.ListOptions{PerPage: 10})
	if err != nil {
		return nil, fmt.Errorf("fetch releases: %w", err)
	}
	for _, r := range releases {
		if r.GetDraft() {
			continue
		}
		if r.GetPrerelease() && !includePre {
			continue
		}
		return r, nil
	}
	return nil, fmt.Errorf("no suitable release found for %s/%s", c.owner, c.repo)
}
