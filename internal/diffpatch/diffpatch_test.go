package diffpatch

import (
	"strings"
	"testing"
)

func TestUnified(t *testing.T) {
	patch := Unified("Rule", "Rule", "line one\nline two\n", "line one\nline 2\n")
	if !strings.Contains(patch, "--- a/Rule") || !strings.Contains(patch, "+++ b/Rule") {
		t.Fatalf("patch headers missing:\n%s", patch)
	}
	if !strings.Contains(patch, "-line two") || !strings.Contains(patch, "+line 2") {
		t.Fatalf("patch hunks missing:\n%s", patch)
	}
}

func TestUnifiedIdenticalInputs(t *testing.T) {
	if patch := Unified("x", "x", "same\n", "same\n"); patch != "" {
		t.Fatalf("identical inputs produced a patch: %q", patch)
	}
}

func TestUnifiedOversizedInputs(t *testing.T) {
	big := strings.Repeat("x", MaxBytes)
	patch := Unified("big", "big", big, "y")
	if !strings.Contains(patch, "patch omitted") {
		t.Fatalf("oversized input not replaced with placeholder:\n%s", patch)
	}
}
