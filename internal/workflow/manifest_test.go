package workflow

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeTestManifest(t *testing.T, steps ...string) string {
	t.Helper()
	records := make([]*StepRecord, len(steps))
	for i, name := range steps {
		records[i] = &StepRecord{
			Name:   name,
			Output: StepOutput{Status: StatusNotRun},
		}
	}
	m := &Manifest{
		Workflow:      "test_workflow",
		Description:   "test",
		SchemaVersion: SchemaVersion,
		Steps:         records,
		path:          filepath.Join(t.TempDir(), "test_workflow-20260101-000000.json"),
	}
	m.ManifestPath = m.path
	if err := m.save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	return m.path
}

func TestLoadManifestMissing(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, ErrManifestNotFound) {
		t.Errorf("error = %v, want ErrManifestNotFound", err)
	}
}

func TestLoadManifestInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadManifest(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestMarkStepCompleteDurable(t *testing.T) {
	path := writeTestManifest(t, "step_one", "step_two")

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	for _, step := range m.Steps {
		if step.Output.Status != StatusNotRun {
			t.Errorf("fresh step %s status = %q", step.Name, step.Output.Status)
		}
	}

	if err := m.MarkStepComplete("step_one", "Step one result"); err != nil {
		t.Fatalf("MarkStepComplete: %v", err)
	}

	// Reload from disk: the update must already be durable.
	reloaded, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	step := reloaded.Step("step_one")
	if step.Output.Status != StatusOK {
		t.Errorf("status = %q, want ok", step.Output.Status)
	}
	if step.Output.Result != "Step one result" {
		t.Errorf("result = %v", step.Output.Result)
	}
	if got := reloaded.CompletedSteps(); !reflect.DeepEqual(got, []string{"step_one"}) {
		t.Errorf("CompletedSteps = %v", got)
	}
}

func TestMarkStepFailed(t *testing.T) {
	path := writeTestManifest(t, "step_one")

	m, _ := LoadManifest(path)
	if err := m.MarkStepFailed("step_one", "merge conflict detected"); err != nil {
		t.Fatalf("MarkStepFailed: %v", err)
	}

	reloaded, _ := LoadManifest(path)
	step := reloaded.Step("step_one")
	if step.Output.Status != StatusFailed {
		t.Errorf("status = %q, want failed", step.Output.Status)
	}
	if step.Output.Result != "merge conflict detected" {
		t.Errorf("result = %v", step.Output.Result)
	}
	if got := reloaded.FailedSteps(); !reflect.DeepEqual(got, []string{"step_one"}) {
		t.Errorf("FailedSteps = %v", got)
	}
}

func TestUnknownStepRejectedFileUntouched(t *testing.T) {
	path := writeTestManifest(t, "step_one")
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	m, _ := LoadManifest(path)
	if err := m.MarkStepComplete("nonexistent", "x"); !errors.Is(err, ErrStepNotFound) {
		t.Fatalf("error = %v, want ErrStepNotFound", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("manifest file changed despite rejected update")
	}
}

func TestValidate(t *testing.T) {
	path := writeTestManifest(t, "a", "b", "c")
	m, _ := LoadManifest(path)

	if got := m.Validate(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Validate = %v", got)
	}

	if err := m.MarkStepComplete("a", "done"); err != nil {
		t.Fatal(err)
	}
	if err := m.MarkStepFailed("b", "boom"); err != nil {
		t.Fatal(err)
	}
	if got := m.Validate(); !reflect.DeepEqual(got, []string{"c"}) {
		t.Errorf("Validate = %v", got)
	}

	if err := m.MarkStepComplete("c", "done"); err != nil {
		t.Fatal(err)
	}
	if got := m.Validate(); got != nil {
		t.Errorf("Validate = %v, want empty", got)
	}
}

func TestSchemaVersionCarriedThrough(t *testing.T) {
	path := writeTestManifest(t, "a")

	// Simulate an older manifest with a foreign schema version.
	data, _ := os.ReadFile(path)
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	raw["schema_version"] = "0.9"
	data, _ = json.MarshalIndent(raw, "", "  ")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if err := m.MarkStepComplete("a", "done"); err != nil {
		t.Fatal(err)
	}

	reloaded, _ := LoadManifest(path)
	if reloaded.SchemaVersion != "0.9" {
		t.Errorf("SchemaVersion = %q, want preserved 0.9", reloaded.SchemaVersion)
	}
}

func TestMarkCompleteAllPending(t *testing.T) {
	path := writeTestManifest(t, "a", "b")
	m, _ := LoadManifest(path)

	if err := m.MarkComplete("", 1700000000); err != nil {
		t.Fatalf("MarkComplete: %v", err)
	}

	reloaded, _ := LoadManifest(path)
	if got := reloaded.CompletedSteps(); len(got) != 2 {
		t.Errorf("CompletedSteps = %v", got)
	}
	if reloaded.CompletedAt == nil || *reloaded.CompletedAt != 1700000000 {
		t.Errorf("CompletedAt = %v", reloaded.CompletedAt)
	}
}

func TestMarkCompleteSingleStep(t *testing.T) {
	path := writeTestManifest(t, "a", "b")
	m, _ := LoadManifest(path)

	if err := m.MarkComplete("a", 1700000000); err != nil {
		t.Fatalf("MarkComplete: %v", err)
	}
	reloaded, _ := LoadManifest(path)
	if got := reloaded.CompletedSteps(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("CompletedSteps = %v", got)
	}
	if reloaded.CompletedAt != nil {
		t.Error("CompletedAt set with steps still pending")
	}

	if err := m.MarkComplete("ghost", 1700000000); !errors.Is(err, ErrStepNotFound) {
		t.Errorf("MarkComplete(ghost) = %v, want ErrStepNotFound", err)
	}
}
