package commands

import (
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	setupTest(t)

	out, err := execute(t, versionCmd, "version")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "aidev dev") {
		t.Errorf("version output missing binary/version: %s", out)
	}
	if !strings.Contains(out, "Commit: none") {
		t.Errorf("version output missing commit: %s", out)
	}
}
