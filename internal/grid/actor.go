package grid

import (
	"context"
	"log/slog"
	"sync"

	"gaincalc/internal/logging"
	"gaincalc/internal/notation"
	"gaincalc/internal/population"
	"gaincalc/internal/structcache"
	"gaincalc/internal/tables"
)

// PopulationSolver solves one plasma condition against a cached structure.
type PopulationSolver interface {
	Solve(ctx context.Context, files structcache.Files, electrons int, cond population.Condition) (population.Result, error)
}

// Actor serves population requests for one cached structure. It handles
// one request at a time; callers wanting parallelism use a Pool.
type Actor struct {
	id          int
	atom        notation.Atom
	files       structcache.Files
	levels      tables.LevelIndex
	transitions tables.TransitionTable
	solver      PopulationSolver
	logger      *slog.Logger

	mu sync.Mutex
}

// ID identifies the actor within its pool.
func (a *Actor) ID() int { return a.id }

// Populations solves cond and returns every level population.
func (a *Actor) Populations(ctx context.Context, cond population.Condition) (population.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logger.Debug("solving point",
		logging.Float64("temperature", cond.Temperature),
		logging.Float64("density", cond.Density),
	)
	return a.solver.Solve(ctx, a.files, a.atom.ElectronCount(), cond)
}

// Population solves cond and returns the population of level.
func (a *Actor) Population(ctx context.Context, level notation.EnergyLevel, cond population.Condition) (float64, error) {
	index, err := a.levels.Lookup(level)
	if err != nil {
		return 0, err
	}
	result, err := a.Populations(ctx, cond)
	if err != nil {
		return 0, err
	}
	return result.Level(index)
}

// LevelIndex returns the solver index of level.
func (a *Actor) LevelIndex(level notation.EnergyLevel) (int, error) {
	return a.levels.Lookup(level)
}

// Transition returns the radiative record between lower and upper.
func (a *Actor) Transition(lower, upper notation.EnergyLevel) (tables.Transition, error) {
	return a.transitions.Between(a.levels, lower, upper)
}
