package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"gaincalc/internal/config"
	"gaincalc/internal/fac"
	"gaincalc/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	fake       *testsupport.FakeSolver
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		fake:       testsupport.NewFakeSolver(),
		configPath: configPath,
		baseDir:    base,
	}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand(fac.WithExecutor(e.fake))
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func (e *cliTestEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, stderr, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("gaincalc %s: %v (stderr: %s)", strings.Join(args, " "), err, stderr)
	}
	return out
}

func (e *cliTestEnv) mustRunJSON(t *testing.T, v any, args ...string) {
	t.Helper()
	out := e.mustRun(t, append([]string{"--json"}, args...)...)
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

var atomArgs = []string{"--atom", "Fe", "--base", "1*2 2*8", "--max-n", "3"}

func withAtom(args ...string) []string {
	return append(append([]string{}, args...), atomArgs...)
}

const studyFile = `
atom "Fe" {
  base  = "1*2 2*8"
  max_n = 3
}

transition {
  lower = "1s+2(0)0 2s+2(0)0 2p-1(1)1 2p+4(1)1 3s+1(1)2"
  upper = "1s+2(0)0 2s+2(0)0 2p-1(1)1 2p+4(6)1 3p-1(1)0"
}

grid {
  temperatures = [200, 800]
  densities    = logspace(20, 21, 2)
}

plasma {
  ionization = 16
}

output {
  name = "fe-scan"
}
`
