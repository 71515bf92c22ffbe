// Package env merges scoped environment variable stores and expands
// ${VAR} / ${VAR:-default} template placeholders.
package env

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/valksor/go-aidev/internal/log"
)

// ErrUnterminatedVar is returned when a template contains a "${" with no
// matching closing brace.
var ErrUnterminatedVar = errors.New("unterminated ${ in template")

// Merge combines the global and project scopes into one flat map.
// Keys present in both take the project value (more specific wins).
func Merge(global, project map[string]string) map[string]string {
	merged := make(map[string]string, len(global)+len(project))
	for k, v := range global {
		merged[k] = v
	}
	for k, v := range project {
		merged[k] = v
	}
	return merged
}

// Expand resolves ${NAME} and ${NAME:-default} placeholders in template
// against vars. An absent NAME logs a warning and leaves the reference
// unresolved; a set-but-empty NAME substitutes the empty string. For
// the ${NAME:-default} form the default applies when NAME is unset or
// empty. Expansion never fails on missing variables, and defaults are
// substituted verbatim, not re-expanded.
func Expand(template string, vars map[string]string) (string, error) {
	var out strings.Builder
	i := 0
	for i < len(template) {
		if template[i] != '$' || i+1 >= len(template) || template[i+1] != '{' {
			out.WriteByte(template[i])
			i++
			continue
		}

		// Scan the variable name after "${"
		j := i + 2
		for j < len(template) && isNameChar(template[j]) {
			j++
		}
		name := template[i+2 : j]

		switch {
		case j < len(template) && template[j] == '}':
			value, ok := vars[name]
			if !ok {
				log.Warn("environment variable not set", "name", name)
				out.WriteString(template[i : j+1])
			} else {
				out.WriteString(value)
			}
			i = j + 1

		case j+1 < len(template) && template[j] == ':' && template[j+1] == '-':
			end, err := matchClosingBrace(template, j+2)
			if err != nil {
				return "", fmt.Errorf("%w: %q", ErrUnterminatedVar, template[i:])
			}
			if value, ok := vars[name]; ok && value != "" {
				out.WriteString(value)
			} else {
				out.WriteString(template[j+2 : end])
			}
			i = end + 1

		default:
			return "", fmt.Errorf("%w: %q", ErrUnterminatedVar, template[i:])
		}
	}
	return out.String(), nil
}

// ExpandAll expands every value in a map against vars.
func ExpandAll(values, vars map[string]string) (map[string]string, error) {
	expanded := make(map[string]string, len(values))
	for k, v := range values {
		resolved, err := Expand(v, vars)
		if err != nil {
			return nil, fmt.Errorf("expand %s: %w", k, err)
		}
		expanded[k] = resolved
	}
	return expanded, nil
}

// matchClosingBrace finds the index of the brace closing a ${...} opened
// before start. Nested ${...} inside a default value is tracked so that
// defaults containing references still parse.
func matchClosingBrace(s string, start int) (int, error) {
	depth := 1
	for i := start; i < len(s); i++ {
		switch {
		case s[i] == '{' && i > 0 && s[i-1] == '$':
			depth++
		case s[i] == '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, ErrUnterminatedVar
}

func isNameChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// ReadFile loads a .env file into a map. A missing file is not an error;
// it yields an empty map.
func ReadFile(path string) (map[string]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return make(map[string]string), nil
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}
	return vars, nil
}

// WriteFile persists a map to a .env file, creating parent directories.
func WriteFile(path string, vars map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create env directory: %w", err)
	}
	if err := godotenv.Write(vars, path); err != nil {
		return fmt.Errorf("write env file %s: %w", path, err)
	}
	return nil
}
