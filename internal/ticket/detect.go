package ticket

import (
	"regexp"
	"strings"
)

var (
	jiraKeyRe         = regexp.MustCompile(`[A-Z]+-\d+`)
	githubShorthandRe = regexp.MustCompile(`^[^/]+/[^#]+#\d+`)
	githubURLRe       = regexp.MustCompile(`github\.com/([^/]+)/([^/]+)/(issues|pull)/(\d+)`)
	gitlabURLRe       = regexp.MustCompile(`gitlab\.com/([^/]+)/([^/]+)/-/(issues|merge_requests)/(\d+)`)
	gitlabHostedRe    = regexp.MustCompile(`gitlab\.[^/]+/([^/]+)/([^/]+)/-/(issues|merge_requests)/(\d+)`)
	gitlabShorthandRe = regexp.MustCompile(`^([^/]+)/([^!#]+)[!#](\d+)`)
)

// DetectSource infers the ticket source from the supplied arguments.
// A file argument always wins; jira is recognized by key pattern or
// Atlassian URL; github by URL or owner/repo#N shorthand; anything else
// is raw text.
func DetectSource(ticketArg, ticketFile string) Source {
	if ticketFile != "" {
		return SourceFile
	}
	if ticketArg == "" {
		return SourceRaw
	}
	if jiraKeyRe.MatchString(ticketArg) || strings.Contains(ticketArg, "atlassian.net") {
		return SourceJira
	}
	if strings.Contains(ticketArg, "github.com") || githubShorthandRe.MatchString(ticketArg) {
		return SourceGitHub
	}
	return SourceRaw
}

// IssueContext describes an issue or merge-request reference found in
// free text.
type IssueContext struct {
	IsIssue bool   `json:"is_issue"`
	Type    string `json:"issue_type,omitempty"`
	ID      string `json:"issue_id,omitempty"`
	Pattern string `json:"detected_pattern,omitempty"`
}

// DetectIssueContext scans text for jira, github, or gitlab references.
// URL forms are checked before shorthand forms so URL context wins.
func DetectIssueContext(text string) IssueContext {
	if text == "" {
		return IssueContext{}
	}

	if strings.Contains(text, "atlassian.net") {
		return IssueContext{IsIssue: true, Type: "jira", Pattern: "atlassian_url"}
	}
	if m := jiraKeyRe.FindString(text); m != "" {
		return IssueContext{IsIssue: true, Type: "jira", ID: m, Pattern: "jira_key"}
	}
	if m := githubURLRe.FindStringSubmatch(text); m != nil {
		return IssueContext{
			IsIssue: true,
			Type:    "github",
			ID:      m[1] + "/" + m[2] + "#" + m[4],
			Pattern: "github_url",
		}
	}
	if m := gitlabURLRe.FindStringSubmatch(text); m != nil {
		return IssueContext{
			IsIssue: true,
			Type:    "gitlab",
			ID:      m[1] + "/" + m[2] + "!" + m[4],
			Pattern: "gitlab_url",
		}
	}
	if m := gitlabHostedRe.FindStringSubmatch(text); m != nil {
		return IssueContext{
			IsIssue: true,
			Type:    "gitlab",
			ID:      m[1] + "/" + m[2] + "!" + m[4],
			Pattern: "gitlab_self_hosted_url",
		}
	}
	if m := gitlabShorthandRe.FindStringSubmatch(text); m != nil && strings.Contains(text, "!") {
		return IssueContext{IsIssue: true, Type: "gitlab", ID: text, Pattern: "gitlab_shorthand"}
	}
	if githubShorthandRe.MatchString(text) {
		return IssueContext{IsIssue: true, Type: "github", ID: text, Pattern: "github_shorthand"}
	}
	return IssueContext{}
}
