package ticket

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"github.com/google/go-github/v67/github"
	"golang.org/x/oauth2"
)

// GitHub fetches issues and pull requests via the GitHub API.
// Unauthenticated clients work for public repositories.
type GitHub struct {
	client *github.Client
}

// NewGitHub creates a GitHub provider. An empty token yields an
// unauthenticated client.
func NewGitHub(ctx context.Context, token string) *GitHub {
	var hc *http.Client
	if token != "" {
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}
	return &GitHub{client: github.NewClient(hc)}
}

func (g *GitHub) Name() string { return "github" }

var (
	githubIssueURLRe = regexp.MustCompile(`github\.com/([^/]+)/([^/]+)/(?:issues|pull)/(\d+)`)
	githubIssueRefRe = regexp.MustCompile(`^([^/\s]+)/([^#\s]+)#(\d+)$`)
)

// parseGitHubRef accepts issue/PR URLs and owner/repo#number shorthand.
func parseGitHubRef(ref string) (owner, repo string, number int, err error) {
	m := githubIssueURLRe.FindStringSubmatch(ref)
	if m == nil {
		m = githubIssueRefRe.FindStringSubmatch(ref)
	}
	if m == nil {
		return "", "", 0, invalidRef("github", ref)
	}
	number, err = strconv.Atoi(m[3])
	if err != nil {
		return "", "", 0, invalidRef("github", ref)
	}
	return m[1], m[2], number, nil
}

// Fetch retrieves the referenced issue. Pull requests resolve through
// the same endpoint.
func (g *GitHub) Fetch(ctx context.Context, ref string) (*Ticket, error) {
	owner, repo, number, err := parseGitHubRef(ref)
	if err != nil {
		return nil, err
	}

	issue, resp, err := g.client.Issues.Get(ctx, owner, repo, number)
	if err != nil {
		if resp != nil {
			switch resp.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				return nil, wrapProvider("github", fmt.Errorf("%w: %v", ErrUnauthorized, err))
			case http.StatusNotFound:
				return nil, wrapProvider("github", fmt.Errorf("%w: %s/%s#%d", ErrNotFound, owner, repo, number))
			}
		}
		return nil, wrapProvider("github", err)
	}

	return &Ticket{
		ID:    fmt.Sprintf("%s/%s#%d", owner, repo, number),
		Title: issue.GetTitle(),
		Body:  issue.GetBody(),
		URL:   issue.GetHTMLURL(),
	}, nil
}
