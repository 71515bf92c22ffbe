// Package assistant resolves which AI assistant CLI handles a workflow
// step and runs it as a subprocess.
package assistant

import (
	"os/exec"
)

// Known assistant identifiers.
const (
	Claude = "claude"
	Codex  = "codex"
	Cursor = "cursor"
	Gemini = "gemini"
	Ollama = "ollama"
)

// FallbackOrder is the fixed preference order used when no explicit
// choice is configured anywhere.
var FallbackOrder = []string{Claude, Codex, Cursor, Gemini, Ollama}

// Info describes a detected assistant binary.
type Info struct {
	Name      string
	Path      string
	Installed bool
}

// Detect looks up the assistant binary on PATH.
func Detect(name string) Info {
	path, err := exec.LookPath(name)
	return Info{Name: name, Path: path, Installed: err == nil}
}

// Known reports whether name is a recognized assistant identifier.
func Known(name string) bool {
	for _, id := range FallbackOrder {
		if id == name {
			return true
		}
	}
	return false
}
