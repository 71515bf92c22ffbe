package ticket

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"
)

// GitLab fetches issues and merge requests via the GitLab API.
// References use owner/repo#N for issues and owner/repo!N for merge
// requests; gitlab.com and self-hosted URLs are also accepted.
type GitLab struct {
	gl *gitlab.Client
}

// NewGitLab creates a GitLab provider. host selects a self-hosted
// instance; empty means gitlab.com.
func NewGitLab(token, host string) (*GitLab, error) {
	var options []gitlab.ClientOptionFunc
	if host != "" && host != "gitlab.com" && host != "https://gitlab.com" {
		baseURL := strings.TrimSuffix(host, "/") + "/api/v4"
		options = append(options, gitlab.WithBaseURL(baseURL))
	}

	client, err := gitlab.NewClient(token, options...)
	if err != nil {
		return nil, wrapProvider("gitlab", fmt.Errorf("create client: %w", err))
	}
	return &GitLab{gl: client}, nil
}

func (g *GitLab) Name() string { return "gitlab" }

var (
	gitlabRefURLRe   = regexp.MustCompile(`gitlab\.[^/]+/(.+)/-/(issues|merge_requests)/(\d+)`)
	gitlabRefShortRe = regexp.MustCompile(`^([^!#\s]+/[^!#\s]+)([!#])(\d+)$`)
)

// parseGitLabRef returns the project path, the IID, and whether the
// reference names a merge request.
func parseGitLabRef(ref string) (project string, iid int64, mergeRequest bool, err error) {
	if m := gitlabRefURLRe.FindStringSubmatch(ref); m != nil {
		iid, _ := strconv.ParseInt(m[3], 10, 64)
		return m[1], iid, m[2] == "merge_requests", nil
	}
	if m := gitlabRefShortRe.FindStringSubmatch(ref); m != nil {
		iid, _ := strconv.ParseInt(m[3], 10, 64)
		return m[1], iid, m[2] == "!", nil
	}
	return "", 0, false, invalidRef("gitlab", ref)
}

// Fetch retrieves the referenced issue or merge request.
func (g *GitLab) Fetch(ctx context.Context, ref string) (*Ticket, error) {
	project, iid, mergeRequest, err := parseGitLabRef(ref)
	if err != nil {
		return nil, err
	}

	if mergeRequest {
		mr, _, err := g.gl.MergeRequests.GetMergeRequest(project, iid, nil, gitlab.WithContext(ctx))
		if err != nil {
			return nil, wrapProvider("gitlab", wrapGitLabError(err, ref))
		}
		return &Ticket{
			ID:    fmt.Sprintf("%s!%d", project, iid),
			Title: mr.Title,
			Body:  mr.Description,
			URL:   mr.WebURL,
		}, nil
	}

	issue, _, err := g.gl.Issues.GetIssue(project, iid, gitlab.WithContext(ctx))
	if err != nil {
		return nil, wrapProvider("gitlab", wrapGitLabError(err, ref))
	}
	return &Ticket{
		ID:    fmt.Sprintf("%s#%d", project, iid),
		Title: issue.Title,
		Body:  issue.Description,
		URL:   issue.WebURL,
	}, nil
}

func wrapGitLabError(err error, ref string) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "404"):
		return fmt.Errorf("%w: %s", ErrNotFound, ref)
	case strings.Contains(msg, "401"), strings.Contains(msg, "403"):
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	default:
		return err
	}
}
