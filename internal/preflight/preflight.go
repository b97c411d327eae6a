package preflight

import (
	"context"

	"gaincalc/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check for cfg in display order.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var out []Result
	out = append(out, CheckSolverBinaries(cfg)...)
	out = append(out,
		CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir),
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Scratch directory", cfg.Paths.ScratchDir),
	)
	if ctx.Err() != nil {
		return out
	}
	out = append(out, CheckFreeSpace("Cache free space", cfg.Paths.CacheDir))
	out = append(out, CheckResultsStore(cfg))
	return out
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
