package population

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"gaincalc/internal/config"
	"gaincalc/internal/fac"
	"gaincalc/internal/logging"
	"gaincalc/internal/services"
	"gaincalc/internal/structcache"
	"gaincalc/internal/tables"
)

const (
	defaultTolerance     = 1e-4
	defaultMaxIterations = 1500
	iterationStabilizer  = 0.5
)

// Condition is one plasma state: electron temperature in eV, electron
// density in cm^-3 and the sum all level populations are normalised to.
type Condition struct {
	Temperature     float64 `json:"temperature"`
	Density         float64 `json:"density"`
	PopulationTotal float64 `json:"population_total"`
}

// Validate checks the physical bounds of the condition.
func (c Condition) Validate() error {
	switch {
	case math.IsNaN(c.Temperature) || c.Temperature <= 0:
		return invalid("temperature must be positive, got %g", c.Temperature)
	case math.IsNaN(c.Density) || c.Density < 0:
		return invalid("density must not be negative, got %g", c.Density)
	case math.IsNaN(c.PopulationTotal) || c.PopulationTotal <= 0:
		return invalid("population total must be positive, got %g", c.PopulationTotal)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return services.Wrap(services.ErrValidation, "population", "condition", fmt.Sprintf(format, args...), nil)
}

// Result maps level indices to steady-state populations.
type Result struct {
	Condition   Condition
	populations map[int]float64
}

// NewResult wraps parsed populations.
func NewResult(cond Condition, populations map[int]float64) Result {
	copied := make(map[int]float64, len(populations))
	for k, v := range populations {
		copied[k] = v
	}
	return Result{Condition: cond, populations: copied}
}

// Population returns the population of level index.
func (r Result) Population(index int) (float64, bool) {
	v, ok := r.populations[index]
	return v, ok
}

// Level returns the population of level index and fails when the solver
// table has no row for it.
func (r Result) Level(index int) (float64, error) {
	v, ok := r.populations[index]
	if !ok {
		msg := fmt.Sprintf("no population for level %d at T=%g ne=%g", index, r.Condition.Temperature, r.Condition.Density)
		return 0, services.Wrap(services.ErrNotFound, "population", "level", msg, tables.ErrLevelNotFound)
	}
	return v, nil
}

// Total sums every population.
func (r Result) Total() float64 {
	total := 0.0
	for _, v := range r.populations {
		total += v
	}
	return total
}

// Indices returns the level indices in ascending order.
func (r Result) Indices() []int {
	out := make([]int, 0, len(r.populations))
	for k := range r.populations {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func (r Result) Len() int { return len(r.populations) }

// Runner executes a collisional-radiative session.
type Runner interface {
	RunCRM(ctx context.Context, session *fac.Session, dir, name string) error
}

// Solver computes level populations for one cached structure at a time.
type Solver struct {
	runner        Runner
	scratchDir    string
	defaultTotal  float64
	tolerance     float64
	maxIterations int
	logger        *slog.Logger
}

// NewSolver builds a solver from the population and path settings in cfg.
func NewSolver(cfg *config.Config, runner Runner, logger *slog.Logger) *Solver {
	s := &Solver{
		runner:        runner,
		scratchDir:    os.TempDir(),
		defaultTotal:  1.0,
		tolerance:     defaultTolerance,
		maxIterations: defaultMaxIterations,
		logger:        logging.NewComponentLogger(logger, "population"),
	}
	if cfg != nil {
		if dir := strings.TrimSpace(cfg.Paths.ScratchDir); dir != "" {
			s.scratchDir = dir
		}
		if cfg.Population.PopulationTotal > 0 {
			s.defaultTotal = cfg.Population.PopulationTotal
		}
		if cfg.Population.IterationTolerance > 0 {
			s.tolerance = cfg.Population.IterationTolerance
		}
		if cfg.Population.MaxIterations > 0 {
			s.maxIterations = cfg.Population.MaxIterations
		}
	}
	return s
}

// DefaultTotal is the population total applied when a condition leaves it zero.
func (s *Solver) DefaultTotal() float64 { return s.defaultTotal }

// Session builds the scrm script for one condition. Scratch outputs are
// named <name>.sp and <name>.txt relative to the working directory.
func Session(files structcache.Files, electrons int, cond Condition, tolerance float64, maxIterations int, name string) *fac.Session {
	return fac.NewCRMSession().
		NormalizeMode(1).
		AddIon(electrons, 0, files.BinaryBase).
		SetBlocks(-1).
		SetAbund(electrons, cond.PopulationTotal).
		SetEleDensity(cond.Density*1e-10).
		SetEleDist(0, cond.Temperature, -1, -1).
		SetTRRates(0).
		SetCERates(1).
		InitBlocks().
		SetIteration(tolerance, iterationStabilizer, maxIterations).
		LevelPopulation().
		SpecTable(name+".sp", -1).
		PrintTable(name+".sp", name+".txt", -1)
}

// ScratchName returns a short random upper-case hex name.
func ScratchName() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}

// Solve runs the collisional-radiative solver for cond against the cached
// structure in files. Scratch files are removed before returning.
func (s *Solver) Solve(ctx context.Context, files structcache.Files, electrons int, cond Condition) (Result, error) {
	if cond.PopulationTotal == 0 {
		cond.PopulationTotal = s.defaultTotal
	}
	if err := cond.Validate(); err != nil {
		return Result{}, err
	}
	if electrons <= 0 {
		return Result{}, invalid("electron count must be positive, got %d", electrons)
	}
	if err := os.MkdirAll(s.scratchDir, 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "population", "scratch dir", s.scratchDir, err)
	}

	name := ScratchName()
	defer s.cleanup(name)

	session := Session(files, electrons, cond, s.tolerance, s.maxIterations, name)
	if err := s.runner.RunCRM(ctx, session, s.scratchDir, name); err != nil {
		return Result{}, err
	}

	pops, err := tables.LoadPopulations(filepath.Join(s.scratchDir, name+".txt"))
	if err != nil {
		if errors.Is(err, tables.ErrParse) {
			return Result{}, err
		}
		return Result{}, services.Wrap(services.ErrExternalTool, "population", "read populations", name, err)
	}
	logging.WithContext(ctx, s.logger).Debug("populations solved",
		logging.Float64("temperature", cond.Temperature),
		logging.Float64("density", cond.Density),
		logging.Int("levels", len(pops)),
	)
	return NewResult(cond, pops), nil
}

func (s *Solver) cleanup(name string) {
	for _, ext := range []string{".sf", ".sp", ".txt"} {
		path := filepath.Join(s.scratchDir, name+ext)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("scratch cleanup failed", logging.String("path", path), logging.Error(err))
		}
	}
}
