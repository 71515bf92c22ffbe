package env

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestMergeProjectWins(t *testing.T) {
	global := map[string]string{"X": "1", "Y": "2"}
	project := map[string]string{"X": "9", "Z": "3"}

	merged := Merge(global, project)

	want := map[string]string{"X": "9", "Y": "2", "Z": "3"}
	if len(merged) != len(want) {
		t.Fatalf("merged has %d keys, want %d", len(merged), len(want))
	}
	for k, v := range want {
		if merged[k] != v {
			t.Errorf("merged[%q] = %q, want %q", k, merged[k], v)
		}
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	global := map[string]string{"A": "1"}
	project := map[string]string{"A": "2"}

	_ = Merge(global, project)

	if global["A"] != "1" {
		t.Errorf("global mutated: %v", global)
	}
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     map[string]string
		want     string
	}{
		{
			name:     "simple substitution",
			template: "${FOO}",
			vars:     map[string]string{"FOO": "bar"},
			want:     "bar",
		},
		{
			name:     "missing variable left unresolved",
			template: "prefix-${FOO}-suffix",
			vars:     map[string]string{},
			want:     "prefix-${FOO}-suffix",
		},
		{
			name:     "set-but-empty substitutes empty string",
			template: "x${FOO}y",
			vars:     map[string]string{"FOO": ""},
			want:     "xy",
		},
		{
			name:     "default used when unset",
			template: "${FOO:-bar}",
			vars:     map[string]string{},
			want:     "bar",
		},
		{
			name:     "default ignored when set",
			template: "${FOO:-bar}",
			vars:     map[string]string{"FOO": "baz"},
			want:     "baz",
		},
		{
			name:     "empty value falls back to default",
			template: "${FOO:-bar}",
			vars:     map[string]string{"FOO": ""},
			want:     "bar",
		},
		{
			name:     "empty default",
			template: "x${FOO:-}y",
			vars:     map[string]string{},
			want:     "xy",
		},
		{
			name:     "multiple placeholders",
			template: "${A}/${B:-two}",
			vars:     map[string]string{"A": "one"},
			want:     "one/two",
		},
		{
			name:     "default is not re-expanded",
			template: "${FOO:-${BAR}}",
			vars:     map[string]string{"BAR": "nope"},
			want:     "${BAR}",
		},
		{
			name:     "plain text untouched",
			template: "no variables here",
			vars:     map[string]string{},
			want:     "no variables here",
		},
		{
			name:     "lone dollar untouched",
			template: "cost: $5",
			vars:     map[string]string{},
			want:     "cost: $5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.template, tt.vars)
			if err != nil {
				t.Fatalf("Expand() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Expand(%q) = %q, want %q", tt.template, got, tt.want)
			}
		})
	}
}

func TestExpandUnterminated(t *testing.T) {
	for _, template := range []string{"${FOO", "${FOO:-bar", "${FOO:-${BAR}", "a${"} {
		_, err := Expand(template, map[string]string{"FOO": "x"})
		if !errors.Is(err, ErrUnterminatedVar) {
			t.Errorf("Expand(%q) error = %v, want ErrUnterminatedVar", template, err)
		}
	}
}

func TestExpandAll(t *testing.T) {
	values := map[string]string{
		"KUBECONFIG": "${HOME}/.kube/config",
		"TOKEN":      "${API_TOKEN:-dev-token}",
	}
	vars := map[string]string{"HOME": "/home/dev"}

	expanded, err := ExpandAll(values, vars)
	if err != nil {
		t.Fatalf("ExpandAll() error = %v", err)
	}

	if expanded["KUBECONFIG"] != "/home/dev/.kube/config" {
		t.Errorf("KUBECONFIG = %q", expanded["KUBECONFIG"])
	}
	if expanded["TOKEN"] != "dev-token" {
		t.Errorf("TOKEN = %q", expanded["TOKEN"])
	}
}

func TestReadFileMissing(t *testing.T) {
	vars, err := ReadFile(filepath.Join(t.TempDir(), "nope", ".env"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(vars) != 0 {
		t.Errorf("expected empty map, got %v", vars)
	}
}

func TestWriteAndReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", ".env")

	want := map[string]string{"GITHUB_TOKEN": "abc", "JIRA_URL": "https://x.atlassian.net"}
	if err := WriteFile(path, want); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("got[%q] = %q, want %q", k, got[k], v)
		}
	}
}
