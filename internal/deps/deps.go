package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"gaincalc/internal/config"
)

// Requirement defines an external binary gaincalc relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Path        string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// SolverRequirements lists the solver binaries named in cfg.
func SolverRequirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "sfac",
			Command:     cfg.Solver.SFACBinary,
			Description: "Required for atomic structure generation",
		},
		{
			Name:        "scrm",
			Command:     cfg.Solver.SCRMBinary,
			Description: "Required for level population runs",
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Path = path
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Missing returns the required statuses that are unavailable.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			out = append(out, s)
		}
	}
	return out
}
