package study

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gaincalc/internal/gain"
	"gaincalc/internal/grid"
	"gaincalc/internal/logging"
	"gaincalc/internal/notation"
	"gaincalc/internal/services"
	"gaincalc/internal/structcache"
)

// Generator ensures a structure cache entry exists for an atom.
type Generator interface {
	Generate(ctx context.Context, atom notation.Atom) (structcache.Files, error)
}

// Runner turns a study into a dataset.
type Runner struct {
	Cache    Generator
	Solver   grid.PopulationSolver
	Workers  int
	Logger   *slog.Logger
	Progress grid.ProgressFunc
}

// Run generates (or reuses) the structure, evaluates the population grid
// and assembles the dataset for the study's transition.
func (r *Runner) Run(ctx context.Context, s *Study) (gain.Dataset, error) {
	logger := logging.NewComponentLogger(r.Logger, "study")
	ctx = services.WithRequestID(ctx, s.Name)

	workers := r.Workers
	if s.Workers > 0 {
		workers = s.Workers
	}
	if workers <= 0 {
		workers = 1
	}

	files, err := r.Cache.Generate(services.WithStage(ctx, "structure"), s.Atom)
	if err != nil {
		return gain.Dataset{}, err
	}
	pool, err := grid.NewPool(ctx, s.Atom, files, r.Solver, workers, logger)
	if err != nil {
		return gain.Dataset{}, err
	}
	line, err := pool.Transitions().Between(pool.Levels(), s.Lower, s.Upper)
	if err != nil {
		return gain.Dataset{}, err
	}

	var opts []grid.EvaluatorOption
	if r.Progress != nil {
		opts = append(opts, grid.WithProgress(r.Progress))
	}
	table, err := grid.NewEvaluator(pool, logger, opts...).Evaluate(ctx, grid.Request{
		Temperatures:    s.Temperatures,
		Densities:       s.Densities,
		Combine:         s.Combine,
		Levels:          []notation.EnergyLevel{s.Upper, s.Lower},
		PopulationTotal: s.PopulationTotal,
	})
	if err != nil {
		return gain.Dataset{}, err
	}
	upper, err := table.Series(s.Upper)
	if err != nil {
		return gain.Dataset{}, err
	}
	lower, err := table.Series(s.Lower)
	if err != nil {
		return gain.Dataset{}, err
	}

	dataset := gain.Dataset{
		Upper:              gain.Series{Temperature: upper.Temperature, ElectronDensity: upper.Density, Population: upper.Population},
		Lower:              gain.Series{Temperature: lower.Temperature, ElectronDensity: lower.Density, Population: lower.Population},
		OscillatorStrength: line.Strength,
		TransitionEnergy:   line.Energy,
		Temperatures:       append([]float64(nil), s.Temperatures...),
		Densities:          append([]float64(nil), s.Densities...),
		Provenance: gain.Provenance{
			Atom:            s.Atom.String(),
			Symbol:          s.Atom.Symbol(),
			Protons:         s.Atom.Protons(),
			Electrons:       s.Atom.ElectronCount(),
			CacheKey:        s.Atom.CacheKey(),
			LowerLevel:      s.Lower.String(),
			UpperLevel:      s.Upper.String(),
			Combine:         s.Combine.String(),
			PopulationTotal: s.PopulationTotal,
			CreatedAt:       time.Now().UTC(),
		},
	}
	logging.WithContext(ctx, logger).Info("study evaluated",
		logging.String(logging.FieldAtom, s.Atom.String()),
		logging.Int("points", dataset.Points()),
		logging.Float64("gf", line.Strength),
		logging.Float64("transition_energy", line.Energy),
	)
	return dataset, nil
}

// PeakGain evaluates the gain at every dataset point with the study's
// plasma parameters and returns the largest value with its coordinates.
func PeakGain(s *Study, dataset gain.Dataset) (value, temperature, density float64, err error) {
	if s.Plasma == nil {
		return 0, 0, 0, services.Wrap(services.ErrValidation, "study", "peak gain", "study has no plasma block", nil)
	}
	calc, err := gain.NewCalculator(dataset, s.Plasma.Abundance)
	if err != nil {
		return 0, 0, 0, err
	}
	gains, err := gain.GainGrid(calc,
		dataset.Upper.ElectronDensity,
		dataset.Upper.Temperature,
		[]float64{s.Plasma.IonTemperature},
		[]float64{s.Plasma.Ionization},
	)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("gain grid: %w", err)
	}
	if len(gains) == 0 {
		return 0, 0, 0, services.Wrap(services.ErrValidation, "study", "peak gain", "dataset is empty", nil)
	}
	best := -1
	for i, g := range gains {
		if best < 0 || g > gains[best] {
			best = i
		}
	}
	return gains[best], dataset.Upper.Temperature[best], dataset.Upper.ElectronDensity[best], nil
}
