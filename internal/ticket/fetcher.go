package ticket

import (
	"context"
	"os"
	"sync"

	"github.com/valksor/go-aidev/internal/log"
)

// Fetcher dispatches ticket references to the provider matching their
// detected source. Providers are built lazily from environment
// credentials (GITHUB_TOKEN, GITLAB_TOKEN/GITLAB_HOST, JIRA_URL/
// JIRA_EMAIL/JIRA_API_TOKEN).
type Fetcher struct {
	mu        sync.Mutex
	providers map[Source]Provider
	env       func(string) string
}

// NewFetcher creates a fetcher reading credentials from the process
// environment.
func NewFetcher() *Fetcher {
	return &Fetcher{
		providers: make(map[Source]Provider),
		env:       os.Getenv,
	}
}

func (f *Fetcher) provider(ctx context.Context, source Source) Provider {
	f.mu.Lock()
	defer f.mu.Unlock()

	if p, ok := f.providers[source]; ok {
		return p
	}

	var p Provider
	switch source {
	case SourceGitHub:
		p = NewGitHub(ctx, f.env("GITHUB_TOKEN"))
	case SourceGitLab:
		gl, err := NewGitLab(f.env("GITLAB_TOKEN"), f.env("GITLAB_HOST"))
		if err != nil {
			log.Warn("gitlab provider unavailable", log.Err(err))
			return nil
		}
		p = gl
	case SourceJira:
		p = NewJira(f.env("JIRA_URL"), f.env("JIRA_EMAIL"), f.env("JIRA_API_TOKEN"))
	case SourceFile:
		p = File{}
	default:
		return nil
	}
	f.providers[source] = p
	return p
}

// Fetch retrieves the ticket behind a reference.
func (f *Fetcher) Fetch(ctx context.Context, source Source, ref string) (*Ticket, error) {
	p := f.provider(ctx, source)
	if p == nil {
		return &Ticket{ID: ref, Body: ref}, nil
	}
	return p.Fetch(ctx, ref)
}

// Text resolves the workflow input to plain text. File sources read the
// file; tracker sources fetch the ticket and fall back to the raw
// argument with a warning when the tracker is unreachable, so a missing
// token never blocks manifest creation.
func (f *Fetcher) Text(ctx context.Context, source Source, ticketArg, ticketFile string) (string, error) {
	switch source {
	case SourceFile:
		t, err := File{}.Fetch(ctx, ticketFile)
		if err != nil {
			return "", err
		}
		return t.Body, nil
	case SourceRaw:
		return ticketArg, nil
	default:
		t, err := f.Fetch(ctx, source, ticketArg)
		if err != nil {
			log.Warn("could not fetch ticket, using raw argument",
				"source", string(source), "ref", ticketArg, log.Err(err))
			return ticketArg, nil
		}
		if t.Title == "" {
			return t.Body, nil
		}
		return t.Title + "\n\n" + t.Body, nil
	}
}
