package ticket

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File reads ticket content from a local file.
type File struct{}

func (File) Name() string { return "file" }

// Fetch loads the file and uses its first heading or line as the title.
func (File) Fetch(_ context.Context, ref string) (*Ticket, error) {
	data, err := os.ReadFile(ref)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, wrapProvider("file", fmt.Errorf("%w: %s", ErrNotFound, ref))
		}
		return nil, wrapProvider("file", err)
	}

	body := string(data)
	title := filepath.Base(ref)
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "#"))
		if line != "" {
			title = line
			break
		}
	}

	return &Ticket{ID: ref, Title: title, Body: body, URL: ref}, nil
}
