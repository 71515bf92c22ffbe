// Package workflow loads declarative workflow definitions and drives
// their run manifests: creation, incremental step tracking, and resume.
package workflow

import "fmt"

// Input declares how a workflow accepts its ticket or text argument.
type Input struct {
	Kind      string `yaml:"kind,omitempty"`
	AllowFile bool   `yaml:"allow_file,omitempty"`
}

// Step is one unit of a workflow: a profile reference, a prompt
// reference, and execution policy.
type Step struct {
	Name       string `yaml:"name"`
	Profile    string `yaml:"profile,omitempty"`
	Prompt     string `yaml:"prompt"`
	Tool       string `yaml:"tool,omitempty"`
	TimeoutSec int    `yaml:"timeout_sec,omitempty"`
	Retries    int    `yaml:"retries,omitempty"`
}

// Spec is a named workflow definition.
type Spec struct {
	Name        string `yaml:"-"`
	Description string `yaml:"description,omitempty"`
	ToolDefault string `yaml:"tool,omitempty"`
	Input       Input  `yaml:"input,omitempty"`
	Steps       []Step `yaml:"steps"`
}

const defaultStepTimeoutSec = 30

// validate checks required step fields and applies defaults. Step names
// must be unique since they are the resume and update key.
func (s *Spec) validate() error {
	seen := make(map[string]bool, len(s.Steps))
	for i := range s.Steps {
		step := &s.Steps[i]
		if step.Name == "" || step.Prompt == "" {
			return fmt.Errorf("step %d missing name/prompt", i)
		}
		if seen[step.Name] {
			return fmt.Errorf("duplicate step name %q", step.Name)
		}
		seen[step.Name] = true
		if step.TimeoutSec <= 0 {
			step.TimeoutSec = defaultStepTimeoutSec
		}
		if step.Retries < 0 {
			step.Retries = 0
		}
	}
	return nil
}
