// Package ticket classifies workflow input references (jira keys, github
// and gitlab issue URLs, files, raw text) and fetches ticket content from
// the matching tracker.
package ticket

import (
	"context"
)

// Source identifies where a workflow's input comes from.
type Source string

const (
	SourceJira   Source = "jira"
	SourceGitHub Source = "github"
	SourceGitLab Source = "gitlab"
	SourceFile   Source = "file"
	SourceRaw    Source = "raw"
)

// Ticket is the normalized content fetched from a tracker.
type Ticket struct {
	ID    string
	Title string
	Body  string
	URL   string
}

// Provider fetches ticket content for one tracker.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, ref string) (*Ticket, error)
}
