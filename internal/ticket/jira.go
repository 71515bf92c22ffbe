package ticket

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const jiraRequestTimeout = 30 * time.Second

// Jira fetches issues from Jira Cloud or Server over the REST API.
type Jira struct {
	httpClient *http.Client
	baseURL    string
	token      string
	email      string
	apiVersion string
}

// NewJira creates a Jira provider. Cloud instances (atlassian.net) use
// API v3 with email+token basic auth; anything else is treated as
// Server/Data Center on API v2.
func NewJira(baseURL, email, token string) *Jira {
	apiVersion := "3"
	if baseURL != "" && !strings.Contains(baseURL, "atlassian.net") {
		apiVersion = "2"
	}
	return &Jira{
		httpClient: &http.Client{Timeout: jiraRequestTimeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		email:      email,
		apiVersion: apiVersion,
	}
}

func (j *Jira) Name() string { return "jira" }

var jiraIssueKeyRe = regexp.MustCompile(`[A-Z]+-\d+`)

// parseJiraRef extracts the issue key from a bare key or browse URL.
func parseJiraRef(ref string) (string, error) {
	if key := jiraIssueKeyRe.FindString(ref); key != "" {
		return key, nil
	}
	return "", invalidRef("jira", ref)
}

func (j *Jira) authHeader() string {
	if j.email != "" {
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(j.email+":"+j.token))
	}
	return "Bearer " + j.token
}

type jiraIssue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary     string `json:"summary"`
		Description any    `json:"description"`
	} `json:"fields"`
}

// Fetch retrieves the referenced issue.
func (j *Jira) Fetch(ctx context.Context, ref string) (*Ticket, error) {
	key, err := parseJiraRef(ref)
	if err != nil {
		return nil, err
	}
	if j.baseURL == "" {
		return nil, wrapProvider("jira", fmt.Errorf("%w: JIRA_URL not configured", ErrNoToken))
	}

	url := fmt.Sprintf("%s/rest/api/%s/issue/%s", j.baseURL, j.apiVersion, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, wrapProvider("jira", fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", j.authHeader())
	req.Header.Set("Accept", "application/json")

	resp, err := j.httpClient.Do(req)
	if err != nil {
		return nil, wrapProvider("jira", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, wrapProvider("jira", fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode))
	case http.StatusNotFound:
		return nil, wrapProvider("jira", fmt.Errorf("%w: %s", ErrNotFound, key))
	default:
		return nil, wrapProvider("jira", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapProvider("jira", fmt.Errorf("read response: %w", err))
	}
	var issue jiraIssue
	if err := json.Unmarshal(body, &issue); err != nil {
		return nil, wrapProvider("jira", fmt.Errorf("parse response: %w", err))
	}

	return &Ticket{
		ID:    issue.Key,
		Title: issue.Fields.Summary,
		Body:  renderJiraDescription(issue.Fields.Description),
		URL:   j.baseURL + "/browse/" + issue.Key,
	}, nil
}

// renderJiraDescription flattens a description to plain text. API v2
// returns a string; v3 returns an Atlassian Document Format tree, from
// which only text nodes are collected.
func renderJiraDescription(desc any) string {
	switch v := desc.(type) {
	case string:
		return v
	case map[string]any:
		var b strings.Builder
		collectADFText(v, &b)
		return strings.TrimSpace(b.String())
	default:
		return ""
	}
}

func collectADFText(node map[string]any, b *strings.Builder) {
	if text, ok := node["text"].(string); ok {
		b.WriteString(text)
	}
	if nodeType, ok := node["type"].(string); ok && nodeType == "paragraph" {
		defer b.WriteString("\n")
	}
	content, ok := node["content"].([]any)
	if !ok {
		return
	}
	for _, child := range content {
		if m, ok := child.(map[string]any); ok {
			collectADFText(m, b)
		}
	}
}
