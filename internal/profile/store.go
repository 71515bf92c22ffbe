package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/valksor/go-aidev/internal/log"
)

// Scope identifies where a profile definition lives.
type Scope string

const (
	ScopeBuiltin Scope = "builtin"
	ScopeCustom  Scope = "custom"
	ScopeProject Scope = "project"
)

// Store provides name-addressed access to profile records across the
// three scopes. Bare-name lookup order is project, then custom, then
// built-in, so the most specific definition wins.
type Store struct {
	customDir  string
	projectDir string
}

// NewStore creates a store over the user-global custom profile directory
// and the project-local profile directory. Either may be empty to
// disable that scope.
func NewStore(customDir, projectDir string) *Store {
	return &Store{customDir: customDir, projectDir: projectDir}
}

func (s *Store) scopeDir(scope Scope) string {
	switch scope {
	case ScopeCustom:
		return s.customDir
	case ScopeProject:
		return s.projectDir
	default:
		return ""
	}
}

func (s *Store) path(dir, name string) string {
	return filepath.Join(dir, name+".json")
}

// Load returns the named profile from the highest-precedence scope that
// defines it.
func (s *Store) Load(name string) (*Profile, error) {
	p, _, err := s.LoadScoped(name)
	return p, err
}

// LoadScoped is Load plus the scope the definition came from.
func (s *Store) LoadScoped(name string) (*Profile, Scope, error) {
	for _, scope := range []Scope{ScopeProject, ScopeCustom} {
		dir := s.scopeDir(scope)
		if dir == "" {
			continue
		}
		p, err := readProfile(s.path(dir, name))
		if err == nil {
			return p, scope, nil
		}
		if !os.IsNotExist(err) {
			return nil, "", fmt.Errorf("load profile %s: %w", name, err)
		}
	}
	if p := Builtin(name); p != nil {
		return p, ScopeBuiltin, nil
	}
	return nil, "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Save writes a profile into the custom or project scope. The built-in
// scope is read-only.
func (s *Store) Save(p *Profile, scope Scope) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if scope == ScopeBuiltin {
		return fmt.Errorf("save profile %s: %w", p.Name, ErrBuiltinReadOnly)
	}
	dir := s.scopeDir(scope)
	if dir == "" {
		return fmt.Errorf("save profile %s: scope %q not configured", p.Name, scope)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create profile directory: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal profile %s: %w", p.Name, err)
	}
	return writeFileAtomic(s.path(dir, p.Name), data)
}

// List enumerates every profile name visible to this store, sorted.
func (s *Store) List() []string {
	seen := make(map[string]bool)
	for _, name := range BuiltinNames() {
		seen[name] = true
	}
	for _, dir := range []string{s.customDir, s.projectDir} {
		if dir == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			seen[strings.TrimSuffix(e.Name(), ".json")] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Exists reports whether any scope defines the named profile.
func (s *Store) Exists(name string) bool {
	_, _, err := s.LoadScoped(name)
	return err == nil
}

// Create writes a fresh profile into the custom scope.
func (s *Store) Create(name, description, extends string) (*Profile, error) {
	if s.Exists(name) {
		return nil, fmt.Errorf("%w: %s", ErrExists, name)
	}
	if extends != "" && !s.Exists(extends) {
		return nil, fmt.Errorf("parent %w: %s", ErrNotFound, extends)
	}
	p := &Profile{Name: name, Description: description, Extends: extends}
	if err := s.Save(p, ScopeCustom); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a custom or project profile. Built-ins cannot be
// deleted.
func (s *Store) Delete(name string) error {
	if IsBuiltin(name) {
		return fmt.Errorf("delete profile %s: %w", name, ErrBuiltinReadOnly)
	}
	for _, scope := range []Scope{ScopeProject, ScopeCustom} {
		dir := s.scopeDir(scope)
		if dir == "" {
			continue
		}
		err := os.Remove(s.path(dir, name))
		if err == nil {
			log.Debug("profile deleted", log.Profile(name), "scope", string(scope))
			return nil
		}
		if !os.IsNotExist(err) {
			return fmt.Errorf("delete profile %s: %w", name, err)
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Import reads a profile record from an external file and stores it in
// the custom scope.
func (s *Store) Import(path string) (*Profile, error) {
	p, err := readProfile(path)
	if err != nil {
		return nil, fmt.Errorf("import profile: %w", err)
	}
	if err := s.Save(p, ScopeCustom); err != nil {
		return nil, err
	}
	return p, nil
}

func readProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// writeFileAtomic writes to a temp file and renames it over the target
// so readers never observe a partial record.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		if removeErr := os.Remove(tmp); removeErr != nil {
			log.Warn("failed to clean up temp file after rename error", "path", tmp, log.Err(removeErr))
		}
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
