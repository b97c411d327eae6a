package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gaincalc/internal/gain"
	"gaincalc/internal/results"
	"gaincalc/internal/services"
	"gaincalc/internal/structcache"
	"gaincalc/internal/tables"
	"gaincalc/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out := env.mustRun(t, "config", "validate")
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	out = env.mustRun(t, "config", "show")
	requireContains(t, out, "scratch_dir")
	requireContains(t, out, env.cfg.Paths.ScratchDir)

	target := filepath.Join(t.TempDir(), "config.toml")
	out = env.mustRun(t, "config", "init", "--path", target)
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := env.run(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
	env.mustRun(t, "config", "init", "--path", target, "--overwrite")
}

func TestGenerateReusesCacheEntry(t *testing.T) {
	env := setupCLITestEnv(t)

	out := env.mustRun(t, withAtom("generate")...)
	requireContains(t, out, "Generated structure Fe 1*2 2*8 up to n=3")

	out = env.mustRun(t, withAtom("generate")...)
	requireContains(t, out, "Reused cached structure")
	if got := env.fake.StructureRuns(); got != 1 {
		t.Fatalf("expected one structure run, got %d", got)
	}

	var entries []tables.LevelEntry
	env.mustRunJSON(t, &entries, withAtom("levels")...)
	if len(entries) != 4 {
		t.Fatalf("expected 4 levels, got %d", len(entries))
	}
	if entries[0].Index != 0 {
		t.Fatalf("levels not ordered by index: %#v", entries)
	}

	var stats structcache.Stats
	env.mustRunJSON(t, &stats, "cache", "stats")
	if stats.Entries != 1 {
		t.Fatalf("expected one cache entry, got %d", stats.Entries)
	}
	key := stats.EntrySummaries[0].Key
	requireContains(t, env.mustRun(t, "cache", "remove", key), "Removed")

	_, _, err := env.run(t, withAtom("levels")...)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found after removal, got %v", err)
	}
	if code := services.ExitCode(err); code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
}

func TestPopulationsCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	var payload struct {
		Total       float64           `json:"total"`
		Populations []levelPopulation `json:"populations"`
	}
	env.mustRunJSON(t, &payload, withAtom("populations",
		"--temperature", "500",
		"--density", "1e21",
		"--level", testsupport.UpperLevel,
	)...)

	if len(payload.Populations) != 1 {
		t.Fatalf("expected one level, got %#v", payload.Populations)
	}
	got := payload.Populations[0]
	if got.Index != testsupport.UpperIndex {
		t.Fatalf("expected upper index %d, got %d", testsupport.UpperIndex, got.Index)
	}
	want := testsupport.PopulationFractions(1, 500)[testsupport.UpperIndex]
	if diff := got.Population - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("population = %g, want %g", got.Population, want)
	}
	if env.fake.CRMRuns() != 1 {
		t.Fatalf("expected one population run, got %d", env.fake.CRMRuns())
	}

	scratch, err := os.ReadDir(env.cfg.Paths.ScratchDir)
	if err != nil {
		t.Fatalf("read scratch dir: %v", err)
	}
	if len(scratch) != 0 {
		t.Fatalf("expected scratch dir to be empty, found %d files", len(scratch))
	}

	out := env.mustRun(t, withAtom("populations", "--temperature", "500", "--density", "1e21")...)
	requireContains(t, out, "Population")
}

func TestRunStoresAndManagesResults(t *testing.T) {
	env := setupCLITestEnv(t)
	studyPath := testsupport.WriteText(t, filepath.Join(env.baseDir, "studies", "fe.hcl"), studyFile)

	var summary runSummary
	env.mustRunJSON(t, &summary, "run", studyPath)
	if summary.Points != 4 || summary.Name != "fe-scan" {
		t.Fatalf("unexpected summary %#v", summary)
	}
	if summary.PeakGain <= 0 {
		t.Fatalf("expected positive peak gain, got %g", summary.PeakGain)
	}

	var listed []results.Summary
	env.mustRunJSON(t, &listed, "results", "list")
	if len(listed) != 1 || listed[0].ID != summary.ID {
		t.Fatalf("unexpected listing %#v", listed)
	}

	prefix := summary.ID[:8]
	out := env.mustRun(t, "results", "show", prefix)
	requireContains(t, out, "fe-scan")
	requireContains(t, out, "Upper")

	exported := filepath.Join(env.baseDir, "out", "fe.json")
	if err := os.MkdirAll(filepath.Dir(exported), 0o755); err != nil {
		t.Fatal(err)
	}
	env.mustRun(t, "results", "export", prefix, exported)
	dataset, err := gain.LoadDataset(exported)
	if err != nil {
		t.Fatalf("load exported dataset: %v", err)
	}
	if dataset.Points() != 4 {
		t.Fatalf("expected 4 exported points, got %d", dataset.Points())
	}

	var all []gainPoint
	env.mustRunJSON(t, &all, "gain", "--result", prefix, "--ionization", "16")
	if len(all) != 4 {
		t.Fatalf("expected a gain per grid point, got %d", len(all))
	}

	var single []gainPoint
	env.mustRunJSON(t, &single, "gain", "--result", prefix, "--ionization", "16",
		"--temperature", "800", "--density", "1e21")
	if len(single) != 1 {
		t.Fatalf("expected one point, got %d", len(single))
	}
	if diff := (single[0].Gain - all[3].Gain) / all[3].Gain; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("single point gain %g does not match grid gain %g", single[0].Gain, all[3].Gain)
	}

	_, _, err = env.run(t, "gain", "--result", prefix, "--ionization", "16", "--temperature", "800")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for a lone --temperature, got %v", err)
	}

	requireContains(t, env.mustRun(t, "results", "delete", prefix), summary.ID)
	_, _, err = env.run(t, "results", "show", prefix)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestInversionCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	var points []gainPoint
	env.mustRunJSON(t, &points, withAtom("inversion",
		"--base-level", testsupport.BaseLevel,
		"--lower", testsupport.LowerLevel,
		"--upper", testsupport.UpperLevel,
		"--temperature", "500",
		"--density", "1e20,1e21",
		"--ionization", "16",
	)...)
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	for _, p := range points {
		if p.Temperature != 500 {
			t.Fatalf("temperature not broadcast: %#v", p)
		}
		if p.Inversion == 0 || p.Gain == 0 {
			t.Fatalf("expected non-zero inversion and gain: %#v", p)
		}
	}
	if env.fake.CRMRuns() != 0 {
		t.Fatalf("three-level model must not run the population solver")
	}

	_, _, err := env.run(t, withAtom("inversion",
		"--base-level", testsupport.BaseLevel,
		"--lower", testsupport.LowerLevel,
		"--upper", testsupport.UpperLevel,
		"--temperature", "500,600",
		"--density", "1e20,1e21,1e22",
	)...)
	if !errors.Is(err, gain.ErrShapeMismatch) {
		t.Fatalf("expected shape mismatch, got %v", err)
	}
}

func TestDoctor(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())

	var checks []doctorCheck
	env.mustRunJSON(t, &checks, "doctor")
	for _, c := range checks {
		if !c.Passed {
			t.Fatalf("check %s failed: %s", c.Name, c.Detail)
		}
	}

	env.cfg.Solver.SCRMBinary = "no-such-scrm-binary"
	writeTestConfig(t, env.configPath, env.cfg)
	out, _, err := env.run(t, "doctor")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	requireContains(t, out, "FAIL")
}

func TestInvalidAtomIsValidationError(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := env.run(t, "generate", "--atom", "Xx", "--base", "1*2 2*8", "--max-n", "3")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if env.fake.StructureRuns() != 0 {
		t.Fatal("solver must not run for an invalid atom")
	}
}
