package assistant

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/valksor/go-aidev/internal/log"
)

// ErrNoRunner is returned for assistants without a non-interactive CLI
// mode (cursor).
var ErrNoRunner = errors.New("no runner available for assistant")

// Runner executes one workflow step against an assistant CLI.
type Runner struct {
	lookPath func(string) (string, error)
}

// NewRunner creates a subprocess runner.
func NewRunner() *Runner {
	return &Runner{lookPath: exec.LookPath}
}

// command maps an assistant id to its non-interactive CLI invocation.
// Claude takes the system prompt as a flag with the input positional;
// codex prefers its headless exec subcommand; gemini and ollama take
// one merged prompt.
func (r *Runner) command(name, promptText, input, merged string, interactive bool) []string {
	available := func(bin string) bool {
		_, err := r.lookPath(bin)
		return err == nil
	}

	switch name {
	case Claude:
		if available("claude") {
			return []string{"claude", "--system-prompt", promptText, input}
		}
	case Codex:
		if available("codex") {
			if interactive {
				return []string{"codex", merged}
			}
			return []string{"codex", "exec", merged}
		}
	case Gemini:
		if available("gemini") {
			if interactive {
				return []string{"gemini", "--prompt-interactive", merged}
			}
			return []string{"gemini", "--prompt", merged}
		}
	case Ollama:
		if available("ollama") {
			return []string{"ollama", "run", "llama3.1", "--prompt", merged}
		}
	}
	return nil
}

// RunStep invokes the assistant with the step's prompt and input,
// enforcing the timeout, and returns a structured result for the
// manifest.
func (r *Runner) RunStep(ctx context.Context, name, promptText, input string, timeoutSec int) (any, error) {
	merged := promptText + "\n\nINPUT:\n" + input
	argv := r.command(name, promptText, input, merged, false)
	if argv == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoRunner, name)
	}

	if timeoutSec <= 0 {
		timeoutSec = 30
	}
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSec)*time.Second)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug("running assistant", "assistant", name, "timeout_sec", timeoutSec)
	err := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("assistant %s timed out after %ds", name, timeoutSec)
	}
	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		if len(detail) > 200 {
			detail = detail[:200]
		}
		return nil, fmt.Errorf("%s: %w (stderr: %s)", strings.Join(argv, " "), err, detail)
	}

	prompt := promptText
	if len(prompt) > 2000 {
		prompt = prompt[:2000]
	}
	return map[string]any{
		"assistant":   name,
		"returncode":  0,
		"stdout":      stdout.String(),
		"stderr":      stderr.String(),
		"prompt_used": prompt,
	}, nil
}
