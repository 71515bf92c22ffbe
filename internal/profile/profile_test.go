package profile

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	base := t.TempDir()
	return NewStore(filepath.Join(base, "custom"), filepath.Join(base, "project"))
}

func mustSave(t *testing.T, s *Store, p *Profile, scope Scope) {
	t.Helper()
	if err := s.Save(p, scope); err != nil {
		t.Fatalf("Save(%s, %s): %v", p.Name, scope, err)
	}
}

func TestStoreLookupOrder(t *testing.T) {
	s := newTestStore(t)

	mustSave(t, s, &Profile{Name: "mine", Description: "custom scope"}, ScopeCustom)

	p, scope, err := s.LoadScoped("mine")
	if err != nil {
		t.Fatalf("LoadScoped: %v", err)
	}
	if scope != ScopeCustom || p.Description != "custom scope" {
		t.Errorf("got scope %s description %q", scope, p.Description)
	}

	// Project scope shadows custom.
	mustSave(t, s, &Profile{Name: "mine", Description: "project scope"}, ScopeProject)

	p, scope, err = s.LoadScoped("mine")
	if err != nil {
		t.Fatalf("LoadScoped: %v", err)
	}
	if scope != ScopeProject || p.Description != "project scope" {
		t.Errorf("got scope %s description %q", scope, p.Description)
	}
}

func TestStoreShadowsBuiltin(t *testing.T) {
	s := newTestStore(t)

	p, scope, err := s.LoadScoped("web")
	if err != nil {
		t.Fatalf("LoadScoped(web): %v", err)
	}
	if scope != ScopeBuiltin {
		t.Fatalf("scope = %s, want builtin", scope)
	}
	if len(p.MCPServers) == 0 {
		t.Error("built-in web profile has no servers")
	}

	mustSave(t, s, &Profile{Name: "web", Description: "shadowed"}, ScopeCustom)

	p, scope, err = s.LoadScoped("web")
	if err != nil {
		t.Fatalf("LoadScoped(web): %v", err)
	}
	if scope != ScopeCustom || p.Description != "shadowed" {
		t.Errorf("custom scope should shadow builtin, got %s %q", scope, p.Description)
	}
}

func TestStoreNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Load("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load error = %v, want ErrNotFound", err)
	}
}

func TestSaveBuiltinScopeRejected(t *testing.T) {
	s := newTestStore(t)
	err := s.Save(&Profile{Name: "x"}, ScopeBuiltin)
	if !errors.Is(err, ErrBuiltinReadOnly) {
		t.Errorf("Save error = %v, want ErrBuiltinReadOnly", err)
	}
}

func TestDeleteBuiltinRejected(t *testing.T) {
	s := newTestStore(t)
	if err := s.Delete("web"); !errors.Is(err, ErrBuiltinReadOnly) {
		t.Errorf("Delete error = %v, want ErrBuiltinReadOnly", err)
	}
}

func TestCreateAndDelete(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Create("mine", "my profile", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create("mine", "", ""); !errors.Is(err, ErrExists) {
		t.Errorf("second Create error = %v, want ErrExists", err)
	}
	if _, err := s.Create("orphan", "", "no-such-parent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Create with missing parent error = %v, want ErrNotFound", err)
	}

	if err := s.Delete("mine"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Load("mine"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load after delete = %v, want ErrNotFound", err)
	}
}

func TestProfileValidate(t *testing.T) {
	valid := []string{"web", "my-profile", "my_profile", "p1"}
	for _, name := range valid {
		p := Profile{Name: name}
		if err := p.Validate(); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", name, err)
		}
	}
	invalid := []string{"", "has space", "slash/name", "dot.name"}
	for _, name := range invalid {
		p := Profile{Name: name}
		if err := p.Validate(); !errors.Is(err, ErrInvalidProfile) {
			t.Errorf("Validate(%q) = %v, want ErrInvalidProfile", name, err)
		}
	}
}

func TestResolveChildOverridesEnvironment(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, &Profile{
		Name:        "parent",
		Environment: map[string]string{"X": "1", "Y": "2"},
	}, ScopeCustom)
	mustSave(t, s, &Profile{
		Name:        "child",
		Extends:     "parent",
		Environment: map[string]string{"X": "9"},
	}, ScopeCustom)

	resolved, err := NewResolver(s).Resolve("child")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	want := map[string]string{"X": "9", "Y": "2"}
	if !reflect.DeepEqual(resolved.Environment, want) {
		t.Errorf("Environment = %v, want %v", resolved.Environment, want)
	}
	if resolved.Extends != "" {
		t.Errorf("effective profile still has extends %q", resolved.Extends)
	}
}

func TestResolveServersReplacedByName(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, &Profile{
		Name:       "parent",
		MCPServers: []MCPServerRef{{Name: "git", Enabled: true}},
	}, ScopeCustom)
	mustSave(t, s, &Profile{
		Name:    "child",
		Extends: "parent",
		MCPServers: []MCPServerRef{
			{Name: "git", Enabled: false},
			{Name: "github", Enabled: true},
		},
	}, ScopeCustom)

	resolved, err := NewResolver(s).Resolve("child")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	want := []MCPServerRef{
		{Name: "git", Enabled: false},
		{Name: "github", Enabled: true},
	}
	if !reflect.DeepEqual(resolved.MCPServers, want) {
		t.Errorf("MCPServers = %v, want %v", resolved.MCPServers, want)
	}
}

func TestResolveScenario(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, &Profile{
		Name:        "base",
		Environment: map[string]string{"A": "1"},
		MCPServers:  []MCPServerRef{{Name: "fs", Enabled: true}},
	}, ScopeCustom)
	mustSave(t, s, &Profile{
		Name:        "webby",
		Extends:     "base",
		Environment: map[string]string{"B": "2"},
		MCPServers:  []MCPServerRef{{Name: "github", Enabled: true}},
	}, ScopeCustom)

	resolved, err := NewResolver(s).Resolve("webby")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	wantEnv := map[string]string{"A": "1", "B": "2"}
	if !reflect.DeepEqual(resolved.Environment, wantEnv) {
		t.Errorf("Environment = %v, want %v", resolved.Environment, wantEnv)
	}
	wantServers := []MCPServerRef{
		{Name: "fs", Enabled: true},
		{Name: "github", Enabled: true},
	}
	if !reflect.DeepEqual(resolved.MCPServers, wantServers) {
		t.Errorf("MCPServers = %v, want %v", resolved.MCPServers, wantServers)
	}
}

func TestResolveDeterministic(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, &Profile{
		Name:        "c",
		Tags:        []string{"root"},
		Environment: map[string]string{"A": "1"},
		MCPServers:  []MCPServerRef{{Name: "fs", Enabled: true}, {Name: "git", Enabled: true}},
	}, ScopeCustom)
	mustSave(t, s, &Profile{Name: "b", Extends: "c", Tags: []string{"mid"}}, ScopeCustom)
	mustSave(t, s, &Profile{
		Name:       "a",
		Extends:    "b",
		Tags:       []string{"leaf"},
		MCPServers: []MCPServerRef{{Name: "git", Enabled: false}},
	}, ScopeCustom)

	r := NewResolver(s)
	first, err := r.Resolve("a")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	second, err := r.Resolve("a")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	j1, _ := json.Marshal(first)
	j2, _ := json.Marshal(second)
	if string(j1) != string(j2) {
		t.Errorf("resolution not deterministic:\n%s\n%s", j1, j2)
	}
}

func TestResolveCycleDetected(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, &Profile{Name: "a", Extends: "b"}, ScopeCustom)
	mustSave(t, s, &Profile{Name: "b", Extends: "a"}, ScopeCustom)

	r := NewResolver(s)
	for _, name := range []string{"a", "b"} {
		if _, err := r.Resolve(name); !errors.Is(err, ErrCyclicInheritance) {
			t.Errorf("Resolve(%s) error = %v, want ErrCyclicInheritance", name, err)
		}
	}

	// A profile extending itself is the degenerate cycle.
	mustSave(t, s, &Profile{Name: "selfie", Extends: "selfie"}, ScopeCustom)
	if _, err := r.Resolve("selfie"); !errors.Is(err, ErrCyclicInheritance) {
		t.Errorf("Resolve(selfie) error = %v, want ErrCyclicInheritance", err)
	}
}

func TestResolveMissingParent(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, &Profile{Name: "child", Extends: "ghost"}, ScopeCustom)

	if _, err := NewResolver(s).Resolve("child"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve error = %v, want ErrNotFound", err)
	}
}

func TestResolveBuiltinDefault(t *testing.T) {
	s := newTestStore(t)

	resolved, err := NewResolver(s).Resolve("default")
	if err != nil {
		t.Fatalf("Resolve(default): %v", err)
	}
	// default extends web, so it inherits web's server selection.
	found := false
	for _, srv := range resolved.MCPServers {
		if srv.Name == "filesystem" {
			found = true
		}
	}
	if !found {
		t.Errorf("default profile should inherit web servers, got %v", resolved.MCPServers)
	}
	wantTags := []string{"default", "web"}
	if !reflect.DeepEqual(resolved.Tags, wantTags) {
		t.Errorf("Tags = %v, want %v", resolved.Tags, wantTags)
	}
}

func TestCloneFlattensInheritance(t *testing.T) {
	s := newTestStore(t)
	r := NewResolver(s)

	cloned, err := r.CloneProfile("default", "mine", "", nil)
	if err != nil {
		t.Fatalf("CloneProfile: %v", err)
	}
	if cloned.Extends != "" {
		t.Errorf("clone carries extends %q, want flattened", cloned.Extends)
	}
	if cloned.Description != "Cloned from default" {
		t.Errorf("Description = %q", cloned.Description)
	}
	if len(cloned.MCPServers) == 0 {
		t.Error("clone lost inherited servers")
	}

	if _, err := r.CloneProfile("default", "mine", "", nil); !errors.Is(err, ErrExists) {
		t.Errorf("clone over existing = %v, want ErrExists", err)
	}
}

func TestCloneWithServerOverride(t *testing.T) {
	s := newTestStore(t)

	cloned, err := NewResolver(s).CloneProfile("web", "slim", "trimmed", []string{"git"})
	if err != nil {
		t.Fatalf("CloneProfile: %v", err)
	}
	want := []MCPServerRef{{Name: "git", Enabled: true}}
	if !reflect.DeepEqual(cloned.MCPServers, want) {
		t.Errorf("MCPServers = %v, want %v", cloned.MCPServers, want)
	}
	if cloned.Description != "trimmed" {
		t.Errorf("Description = %q", cloned.Description)
	}
}

func TestExportAndImport(t *testing.T) {
	s := newTestStore(t)
	r := NewResolver(s)
	out := filepath.Join(t.TempDir(), "exported.json")

	if err := r.Export("default", out); err != nil {
		t.Fatalf("Export: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var exported Profile
	if err := json.Unmarshal(data, &exported); err != nil {
		t.Fatalf("unmarshal export: %v", err)
	}
	if exported.Extends != "" {
		t.Errorf("export should be fully resolved, has extends %q", exported.Extends)
	}

	// Round-trip through Import into a fresh store.
	s2 := newTestStore(t)
	imported, err := s2.Import(out)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if imported.Name != "default" {
		t.Errorf("imported name = %q", imported.Name)
	}
}

func TestDiff(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, &Profile{
		Name:        "one",
		Tags:        []string{"a"},
		Environment: map[string]string{"K": "old", "ONLY1": "x"},
		MCPServers:  []MCPServerRef{{Name: "git", Enabled: true}},
	}, ScopeCustom)
	mustSave(t, s, &Profile{
		Name:        "two",
		Tags:        []string{"a", "b"},
		Environment: map[string]string{"K": "new"},
		MCPServers:  []MCPServerRef{{Name: "git", Enabled: true}, {Name: "k8s", Enabled: true}},
	}, ScopeCustom)

	d, err := NewResolver(s).Diff("one", "two")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	if !reflect.DeepEqual(d.MCPServers.Added, []string{"k8s"}) {
		t.Errorf("servers added = %v", d.MCPServers.Added)
	}
	if !reflect.DeepEqual(d.Environment.Removed, []string{"ONLY1"}) {
		t.Errorf("env removed = %v", d.Environment.Removed)
	}
	if !reflect.DeepEqual(d.Tags.Added, []string{"b"}) {
		t.Errorf("tags added = %v", d.Tags.Added)
	}
	change, ok := d.EnvChanged["K"]
	if !ok || change.From != "old" || change.To != "new" {
		t.Errorf("EnvChanged = %v", d.EnvChanged)
	}
}
