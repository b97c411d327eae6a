package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"gaincalc/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_CACHE_HOME", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantCache := filepath.Join(tempHome, ".cache", "gaincalc", "atomic_data")
	if cfg.Paths.CacheDir != wantCache {
		t.Fatalf("unexpected cache dir: got %q want %q", cfg.Paths.CacheDir, wantCache)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, ".local", "share", "gaincalc") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Solver.SFACBinary != "sfac" || cfg.Solver.SCRMBinary != "scrm" {
		t.Fatalf("unexpected solver binaries: %q %q", cfg.Solver.SFACBinary, cfg.Solver.SCRMBinary)
	}
	if cfg.Population.PopulationTotal != 1.0 {
		t.Fatalf("expected relative populations by default, got %v", cfg.Population.PopulationTotal)
	}
	if cfg.Population.IterationTolerance != 1e-4 || cfg.Population.MaxIterations != 1500 {
		t.Fatalf("unexpected iteration defaults: %v %d", cfg.Population.IterationTolerance, cfg.Population.MaxIterations)
	}
	if cfg.Grid.Workers < 1 {
		t.Fatalf("expected workers to default to CPU count, got %d", cfg.Grid.Workers)
	}
	if cfg.ResultsDBPath() != filepath.Join(cfg.Paths.DataDir, "results.db") {
		t.Fatalf("unexpected results db path: %q", cfg.ResultsDBPath())
	}
}

func TestLoadCustomConfigOverrides(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(tempHome, "config.toml")
	payload, err := toml.Marshal(map[string]any{
		"paths": map[string]any{
			"cache_dir": "~/atomic",
			"data_dir":  "~/data",
		},
		"solver": map[string]any{
			"sfac_binary":        "/opt/fac/bin/sfac",
			"population_timeout": 30,
		},
		"grid": map[string]any{
			"workers": 3,
		},
		"logging": map[string]any{
			"format": "JSON",
		},
	})
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, payload, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config to be read from %q (exists=%v resolved=%q)", configPath, exists, resolved)
	}
	if cfg.Paths.CacheDir != filepath.Join(tempHome, "atomic") {
		t.Fatalf("unexpected cache dir: %q", cfg.Paths.CacheDir)
	}
	if cfg.Solver.SFACBinary != "/opt/fac/bin/sfac" {
		t.Fatalf("unexpected sfac binary: %q", cfg.Solver.SFACBinary)
	}
	if cfg.Solver.PopulationTimeout != 30 {
		t.Fatalf("unexpected population timeout: %d", cfg.Solver.PopulationTimeout)
	}
	if cfg.Solver.SCRMBinary != "scrm" {
		t.Fatalf("expected scrm default to survive partial override, got %q", cfg.Solver.SCRMBinary)
	}
	if cfg.Grid.Workers != 3 {
		t.Fatalf("unexpected workers: %d", cfg.Grid.Workers)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected log format to be lower-cased, got %q", cfg.Logging.Format)
	}
}

func TestLoadHonoursEnvironmentFallbacks(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("GAINCALC_CACHE_DIR", filepath.Join(tempHome, "env-cache"))
	t.Setenv("GAINCALC_SCRM", "/usr/local/bin/scrm")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.CacheDir != filepath.Join(tempHome, "env-cache") {
		t.Fatalf("unexpected cache dir: %q", cfg.Paths.CacheDir)
	}
	if cfg.Solver.SCRMBinary != "/usr/local/bin/scrm" {
		t.Fatalf("unexpected scrm binary: %q", cfg.Solver.SCRMBinary)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cases := map[string]string{
		"population total": "[population]\npopulation_total = -1.0\n",
		"tolerance":        "[population]\niteration_tolerance = 2.0\n",
		"log format":       "[logging]\nformat = \"xml\"\n",
		"unknown field":    "[paths]\nstaging_dir = \"/tmp\"\n",
	}
	for name, body := range cases {
		path := filepath.Join(tempHome, strings.ReplaceAll(name, " ", "_")+".toml")
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		if _, _, _, err := config.Load(path); err == nil {
			t.Fatalf("%s: expected load to fail", name)
		}
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	target := filepath.Join(tempHome, "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	if _, err := os.Stat(cfg.Paths.CacheDir); err != nil {
		t.Fatalf("expected cache dir to be created: %v", err)
	}
}
