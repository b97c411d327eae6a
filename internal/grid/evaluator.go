package grid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"gaincalc/internal/logging"
	"gaincalc/internal/notation"
	"gaincalc/internal/population"
	"gaincalc/internal/services"
)

// Request describes one grid evaluation.
type Request struct {
	Temperatures    []float64
	Densities       []float64
	Combine         Combine
	Levels          []notation.EnergyLevel
	PopulationTotal float64
}

// Row holds the requested level populations at one grid point, in the
// order of Table.Levels.
type Row struct {
	Temperature float64
	Density     float64
	Populations []float64
}

// Table is the assembled result of an evaluation, rows in request order.
type Table struct {
	Levels []notation.EnergyLevel
	Rows   []Row
}

// Series is one level's populations aligned with the grid coordinates.
type Series struct {
	Temperature []float64 `json:"temperature"`
	Density     []float64 `json:"electron_density"`
	Population  []float64 `json:"population"`
}

func (s Series) Len() int { return len(s.Population) }

// Series extracts the column for level.
func (t Table) Series(level notation.EnergyLevel) (Series, error) {
	col := -1
	for i, l := range t.Levels {
		if l.Equal(level) {
			col = i
			break
		}
	}
	if col < 0 {
		return Series{}, services.Wrap(services.ErrNotFound, "grid", "series", "level not requested: "+level.String(), nil)
	}
	s := Series{
		Temperature: make([]float64, len(t.Rows)),
		Density:     make([]float64, len(t.Rows)),
		Population:  make([]float64, len(t.Rows)),
	}
	for i, row := range t.Rows {
		s.Temperature[i] = row.Temperature
		s.Density[i] = row.Density
		s.Population[i] = row.Populations[col]
	}
	return s, nil
}

// ProgressFunc observes completed points.
type ProgressFunc func(done, total int)

// Evaluator fans grid points out over a pool.
type Evaluator struct {
	pool     *Pool
	logger   *slog.Logger
	progress ProgressFunc
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithProgress registers a callback invoked after each point completes.
// It may be called from several goroutines.
func WithProgress(fn ProgressFunc) EvaluatorOption {
	return func(e *Evaluator) { e.progress = fn }
}

// NewEvaluator builds an evaluator over pool.
func NewEvaluator(pool *Pool, logger *slog.Logger, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{pool: pool, logger: logging.NewComponentLogger(logger, "grid")}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate solves every grid point and returns the populations of the
// requested levels. The first failure cancels outstanding points.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (Table, error) {
	if len(req.Levels) == 0 {
		return Table{}, services.Wrap(services.ErrValidation, "grid", "evaluate", "no levels requested", nil)
	}
	indices := make([]int, len(req.Levels))
	for i, level := range req.Levels {
		index, err := e.pool.Levels().Lookup(level)
		if err != nil {
			return Table{}, err
		}
		indices[i] = index
	}
	points, err := Points(req.Temperatures, req.Densities, req.Combine)
	if err != nil {
		return Table{}, err
	}
	if len(points) == 0 {
		return Table{}, services.Wrap(services.ErrValidation, "grid", "evaluate", "grid has no points", nil)
	}

	ctx = services.WithStage(ctx, "grid")
	logger := logging.WithContext(ctx, e.logger)
	logger.Info("grid evaluation started",
		logging.String(logging.FieldAtom, e.pool.Atom().String()),
		logging.Int("points", len(points)),
		logging.Int("actors", e.pool.Size()),
		logging.String("combine", req.Combine.String()),
		logging.Floats("temperatures", req.Temperatures),
		logging.Floats("densities", req.Densities),
	)
	started := time.Now()

	rows := make([]Row, len(points))
	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.pool.Size())
	for i, pt := range points {
		i, pt := i, pt
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			actor, err := e.pool.Acquire(gctx)
			if err != nil {
				return err
			}
			defer e.pool.Release(actor)

			cond := population.Condition{
				Temperature:     pt.Temperature,
				Density:         pt.Density,
				PopulationTotal: req.PopulationTotal,
			}
			result, err := actor.Populations(gctx, cond)
			if err != nil {
				return fmt.Errorf("point T=%g ne=%g: %w", pt.Temperature, pt.Density, err)
			}
			pops := make([]float64, len(indices))
			for j, index := range indices {
				if pops[j], err = result.Level(index); err != nil {
					return err
				}
			}
			rows[i] = Row{Temperature: pt.Temperature, Density: pt.Density, Populations: pops}
			if e.progress != nil {
				e.progress(int(done.Add(1)), len(points))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return Table{}, services.Wrap(services.ErrTransient, "grid", "evaluate", "cancelled", err)
		}
		logging.ErrorWithContext(logger, "grid evaluation failed", "grid_failed", logging.Error(err))
		return Table{}, err
	}

	logger.Info("grid evaluation finished",
		logging.Int("points", len(points)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return Table{Levels: append([]notation.EnergyLevel(nil), req.Levels...), Rows: rows}, nil
}
