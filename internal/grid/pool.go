package grid

import (
	"context"
	"fmt"
	"log/slog"

	"gaincalc/internal/logging"
	"gaincalc/internal/notation"
	"gaincalc/internal/services"
	"gaincalc/internal/structcache"
	"gaincalc/internal/tables"
)

// Pool owns a fixed set of actors sharing one parsed structure.
type Pool struct {
	atom        notation.Atom
	files       structcache.Files
	levels      tables.LevelIndex
	transitions tables.TransitionTable
	actors      []*Actor
	idle        chan *Actor
	logger      *slog.Logger
}

// NewPool parses the cached tables once and starts size actors.
func NewPool(ctx context.Context, atom notation.Atom, files structcache.Files, solver PopulationSolver, size int, logger *slog.Logger) (*Pool, error) {
	if size <= 0 {
		return nil, services.Wrap(services.ErrValidation, "grid", "new pool", fmt.Sprintf("pool size must be positive, got %d", size), nil)
	}
	if solver == nil {
		return nil, services.Wrap(services.ErrConfiguration, "grid", "new pool", "population solver is required", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, services.Wrap(services.ErrTransient, "grid", "new pool", "cancelled", err)
	}
	levels, err := tables.LoadLevels(files.Levels)
	if err != nil {
		return nil, err
	}
	transitions, err := tables.LoadTransitions(files.Transitions)
	if err != nil {
		return nil, err
	}

	logger = logging.NewComponentLogger(logger, "grid")
	pool := &Pool{
		atom:        atom,
		files:       files,
		levels:      levels,
		transitions: transitions,
		actors:      make([]*Actor, size),
		idle:        make(chan *Actor, size),
		logger:      logger,
	}
	for i := 0; i < size; i++ {
		actor := &Actor{
			id:          i,
			atom:        atom,
			files:       files,
			levels:      levels,
			transitions: transitions,
			solver:      solver,
			logger:      logger.With(logging.Int("actor", i)),
		}
		pool.actors[i] = actor
		pool.idle <- actor
	}
	logger.Debug("actor pool ready",
		logging.String(logging.FieldAtom, atom.String()),
		logging.Int("actors", size),
		logging.Int("levels", levels.Len()),
		logging.Int("transitions", transitions.Len()),
	)
	return pool, nil
}

// Size is the number of actors.
func (p *Pool) Size() int { return len(p.actors) }

func (p *Pool) Atom() notation.Atom                 { return p.atom }
func (p *Pool) Files() structcache.Files            { return p.files }
func (p *Pool) Levels() tables.LevelIndex           { return p.levels }
func (p *Pool) Transitions() tables.TransitionTable { return p.transitions }

// Acquire blocks until an actor is idle or ctx ends.
func (p *Pool) Acquire(ctx context.Context) (*Actor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case actor := <-p.idle:
		return actor, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns an actor obtained from Acquire.
func (p *Pool) Release(actor *Actor) {
	if actor == nil {
		return
	}
	p.idle <- actor
}
