package assistant

import (
	"os"
	"os/exec"
)

// EnvDefaultVar names the environment variable that overrides the
// configured default assistant.
const EnvDefaultVar = "AIDEV_DEFAULT_ASSISTANT"

// Resolver picks the assistant for a workflow step.
//
// Precedence:
//  1. CLI override
//  2. Step or workflow-level tool declaration
//  3. AIDEV_DEFAULT_ASSISTANT environment variable
//  4. Project config default
//  5. User settings preference
//  6. Hard default "claude"
type Resolver struct {
	projectDefault  string
	settingsDefault string
	lookPath        func(string) (string, error)
}

// NewResolver creates a resolver carrying the project-level and
// settings-level defaults.
func NewResolver(projectDefault, settingsDefault string) *Resolver {
	return &Resolver{
		projectDefault:  projectDefault,
		settingsDefault: settingsDefault,
		lookPath:        exec.LookPath,
	}
}

// Resolve returns the assistant identifier for one step.
func (r *Resolver) Resolve(cliOverride, workflowTool string) string {
	for _, candidate := range []string{
		cliOverride,
		workflowTool,
		os.Getenv(EnvDefaultVar),
		r.projectDefault,
		r.settingsDefault,
		Claude,
	} {
		if candidate != "" {
			return candidate
		}
	}
	return r.FallbackByAvailability()
}

// FallbackByAvailability returns the first installed assistant in the
// fixed fallback order, defaulting to claude when none is installed.
func (r *Resolver) FallbackByAvailability() string {
	for _, candidate := range FallbackOrder {
		if _, err := r.lookPath(candidate); err == nil {
			return candidate
		}
	}
	return Claude
}
