package workflow

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/valksor/go-aidev/internal/log"
)

//go:embed templates/workflows.yaml templates/prompts/*.txt
var templatesFS embed.FS

// ProjectConfigDir is the per-project configuration directory.
const ProjectConfigDir = ".aidev"

// WorkflowsFileName is the project-local workflow definitions file.
const WorkflowsFileName = "workflows.yaml"

// RunsDirName holds workflow run manifests inside the project config dir.
const RunsDirName = "workflow-runs"

// Loader produces the effective catalog of named workflow specs:
// bundled template definitions overlaid with the project's own file.
type Loader struct {
	projectDir string
}

// NewLoader creates a loader for the given project directory.
func NewLoader(projectDir string) *Loader {
	return &Loader{projectDir: projectDir}
}

// WorkflowsPath returns the project-local workflows file path.
func (l *Loader) WorkflowsPath() string {
	return filepath.Join(l.projectDir, ProjectConfigDir, WorkflowsFileName)
}

// RunsDir returns the directory holding run manifests.
func (l *Loader) RunsDir() string {
	return filepath.Join(l.projectDir, ProjectConfigDir, RunsDirName)
}

// EnsureWorkflowsFile seeds the project workflows file from the bundled
// template when it does not exist yet.
func (l *Loader) EnsureWorkflowsFile() (string, error) {
	target := l.WorkflowsPath()
	if _, err := os.Stat(target); err == nil {
		return target, nil
	}
	data, err := templatesFS.ReadFile("templates/workflows.yaml")
	if err != nil {
		return "", fmt.Errorf("read bundled workflows: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("seed workflows file: %w", err)
	}
	log.Info("seeded workflows file", "path", target)
	return target, nil
}

// Load merges the bundled template workflows with the project's file.
// A project workflow with the same name replaces the template version in
// full. Malformed entries are skipped and reported as warnings so one
// bad definition does not block the rest.
func (l *Loader) Load() (map[string]*Spec, []string, error) {
	merged := make(map[string]yaml.Node)

	templateData, err := templatesFS.ReadFile("templates/workflows.yaml")
	if err != nil {
		return nil, nil, fmt.Errorf("read bundled workflows: %w", err)
	}
	if err := collectWorkflowNodes(templateData, merged); err != nil {
		return nil, nil, fmt.Errorf("parse bundled workflows: %w", err)
	}

	var warnings []string
	projectData, err := os.ReadFile(l.WorkflowsPath())
	if err == nil {
		if err := collectWorkflowNodes(projectData, merged); err != nil {
			warnings = append(warnings, fmt.Sprintf("project workflows file ignored: %v", err))
		}
	} else if !os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("read project workflows: %w", err)
	}

	workflows := make(map[string]*Spec, len(merged))
	for name, node := range merged {
		var spec Spec
		if err := node.Decode(&spec); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		spec.Name = name
		if err := spec.validate(); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		workflows[name] = &spec
	}

	for _, w := range warnings {
		log.Warn("workflow definition skipped", "reason", w)
	}
	return workflows, warnings, nil
}

// collectWorkflowNodes overlays one source's workflow entries into the
// merge map. Entries are kept as raw YAML nodes so a later source
// replaces the whole record, never deep-merges it. The map must hold
// value-typed nodes: yaml.v3 leaves pointer-typed map values as zero
// nodes, which would decode every workflow to an empty Spec.
func collectWorkflowNodes(data []byte, into map[string]yaml.Node) error {
	var file struct {
		Workflows map[string]yaml.Node `yaml:"workflows"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}
	for name, node := range file.Workflows {
		into[name] = node
	}
	return nil
}

// PromptProvider resolves a prompt identifier to prompt text.
type PromptProvider interface {
	Resolve(id string) (string, error)
}

// BundledPrompts serves the prompt files compiled into the binary, with
// an optional project-local prompts directory taking precedence.
type BundledPrompts struct {
	projectDir string
}

// NewBundledPrompts creates the default prompt provider.
func NewBundledPrompts(projectDir string) *BundledPrompts {
	return &BundledPrompts{projectDir: projectDir}
}

// Resolve returns the prompt text for an identifier.
func (p *BundledPrompts) Resolve(id string) (string, error) {
	if p.projectDir != "" {
		local := filepath.Join(p.projectDir, ProjectConfigDir, "prompts", id+".txt")
		if data, err := os.ReadFile(local); err == nil {
			return string(data), nil
		}
	}
	data, err := templatesFS.ReadFile("templates/prompts/" + id + ".txt")
	if err != nil {
		return "", fmt.Errorf("prompt not found: %s", id)
	}
	return string(data), nil
}
