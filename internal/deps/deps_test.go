package deps

import (
	"os"
	"path/filepath"
	"testing"

	"gaincalc/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Optional", Command: "", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Path != present {
		t.Fatalf("expected resolved path %q, got %q", present, results[0].Path)
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for empty command: %q", results[2].Detail)
	}

	missing := Missing(results)
	if len(missing) != 1 || missing[0].Name != "Missing" {
		t.Fatalf("expected only the required missing binary, got %#v", missing)
	}
}

func TestSolverRequirements(t *testing.T) {
	cfg := config.Default()
	cfg.Solver.SFACBinary = "/opt/fac/bin/sfac"
	cfg.Solver.SCRMBinary = "scrm-custom"

	reqs := SolverRequirements(&cfg)
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requirements, got %d", len(reqs))
	}
	if reqs[0].Command != "/opt/fac/bin/sfac" || reqs[1].Command != "scrm-custom" {
		t.Fatalf("unexpected commands: %#v", reqs)
	}
	for _, r := range reqs {
		if r.Optional {
			t.Fatalf("solver binaries must be required: %#v", r)
		}
	}
}
