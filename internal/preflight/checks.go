package preflight

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"gaincalc/internal/config"
	"gaincalc/internal/deps"
	"gaincalc/internal/results"
)

// minFreeRatio is the free-space fraction below which the cache check warns.
const minFreeRatio = 0.05

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace reports whether the filesystem holding path has at least
// minFreeRatio of its blocks available.
func CheckFreeSpace(name, path string) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	if total == 0 {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (size unknown)", path)}
	}
	ratio := float64(free) / float64(total)
	detail := fmt.Sprintf("%s (%.1f%% free)", path, ratio*100)
	return Result{Name: name, Passed: ratio >= minFreeRatio, Detail: detail}
}

// CheckSolverBinaries converts dependency statuses into results.
func CheckSolverBinaries(cfg *config.Config) []Result {
	statuses := deps.CheckBinaries(deps.SolverRequirements(cfg))
	out := make([]Result, 0, len(statuses))
	for _, s := range statuses {
		r := Result{Name: s.Name, Passed: s.Available, Detail: s.Detail}
		if s.Available {
			r.Detail = s.Path
		}
		out = append(out, r)
	}
	return out
}

// CheckResultsStore opens the result database, which also verifies its
// schema version.
func CheckResultsStore(cfg *config.Config) Result {
	const name = "Results database"
	store, err := results.Open(cfg)
	if err != nil {
		if errors.Is(err, results.ErrSchemaMismatch) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: schema mismatch)", cfg.ResultsDBPath())}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.ResultsDBPath(), err)}
	}
	_ = store.Close()
	return Result{Name: name, Passed: true, Detail: cfg.ResultsDBPath()}
}
