package population_test

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gaincalc/internal/fac"
	"gaincalc/internal/logging"
	"gaincalc/internal/notation"
	"gaincalc/internal/population"
	"gaincalc/internal/services"
	"gaincalc/internal/structcache"
	"gaincalc/internal/tables"
	"gaincalc/internal/testsupport"
)

type fixture struct {
	solver *population.Solver
	fake   *testsupport.FakeSolver
	files  structcache.Files
	atom   notation.Atom
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	fake := testsupport.NewFakeSolver()
	client, err := fac.New("sfac", "scrm", fac.WithExecutor(fake))
	require.NoError(t, err)

	groups, err := notation.NewConfigGroups("1*2 2*8", 3)
	require.NoError(t, err)
	atom, err := notation.NewAtom("Fe", groups, "")
	require.NoError(t, err)
	files, err := structcache.NewManager(cfg, client, logging.NewNop()).Generate(context.Background(), atom)
	require.NoError(t, err)

	return fixture{
		solver: population.NewSolver(cfg, client, logging.NewNop()),
		fake:   fake,
		files:  files,
		atom:   atom,
	}
}

func scratchEntries(t *testing.T, fake *testsupport.FakeSolver) []os.DirEntry {
	t.Helper()
	commands := fake.Commands()
	dir := commands[len(commands)-1].Dir
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return entries
}

func TestSolveReturnsNormalisedPopulations(t *testing.T) {
	f := newFixture(t)
	cond := population.Condition{Temperature: 500, Density: 1e21, PopulationTotal: 2}

	result, err := f.solver.Solve(context.Background(), f.files, f.atom.ElectronCount(), cond)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, result.Indices())
	assert.InDelta(t, 2.0, result.Total(), 1e-6)

	upper, ok := result.Population(testsupport.UpperIndex)
	require.True(t, ok)
	assert.InDelta(t, testsupport.PopulationFractions(2, 500)[testsupport.UpperIndex], upper, 1e-9)

	assert.Empty(t, scratchEntries(t, f.fake), "scratch files must be removed")
}

func TestResultLevelRequiresRow(t *testing.T) {
	cond := population.Condition{Temperature: 300, Density: 1e20, PopulationTotal: 1}
	result := population.NewResult(cond, map[int]float64{0: 0.9, 1: 0.1})

	v, err := result.Level(1)
	require.NoError(t, err)
	assert.Equal(t, 0.1, v)

	_, err = result.Level(3)
	assert.ErrorIs(t, err, tables.ErrLevelNotFound)
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.Contains(t, err.Error(), "level 3 at T=300 ne=1e+20")
}

func TestSolveScript(t *testing.T) {
	f := newFixture(t)
	_, err := f.solver.Solve(context.Background(), f.files, 10, population.Condition{Temperature: 300, Density: 1e20, PopulationTotal: 1})
	require.NoError(t, err)

	scripts := f.fake.Scripts()
	script := scripts[len(scripts)-1]
	lines := strings.Split(strings.TrimSpace(script), "\n")
	require.Len(t, lines, 14)
	assert.Equal(t, "ReinitCRM()", lines[0])
	assert.Equal(t, "NormalizeMode(1)", lines[1])
	assert.Equal(t, "AddIon(10, 0.0, '"+f.files.BinaryBase+"')", lines[2])
	assert.Equal(t, "SetBlocks(-1.0)", lines[3])
	assert.Equal(t, "SetAbund(10, 1.0)", lines[4])
	require.True(t, strings.HasPrefix(lines[5], "SetEleDensity("))
	density, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimPrefix(lines[5], "SetEleDensity("), ")"), 64)
	require.NoError(t, err)
	assert.InEpsilon(t, 1e10, density, 1e-9)
	assert.Equal(t, "SetEleDist(0, 300.0, -1.0, -1.0)", lines[6])
	assert.Equal(t, "SetIteration(0.0001, 0.5, 1500)", lines[10])
	assert.Equal(t, "LevelPopulation()", lines[11])
	assert.Regexp(t, `^SpecTable\('[0-9A-F]{6}\.sp', -1\)$`, lines[12])
	assert.Regexp(t, `^PrintTable\('[0-9A-F]{6}\.sp', '[0-9A-F]{6}\.txt'\)$`, lines[13])
}

func TestSolveAppliesDefaultTotal(t *testing.T) {
	f := newFixture(t, testsupport.WithPopulationTotal(3))
	result, err := f.solver.Solve(context.Background(), f.files, 10, population.Condition{Temperature: 500, Density: 1e21})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, result.Total(), 1e-6)
	assert.Equal(t, 3.0, result.Condition.PopulationTotal)
}

func TestSolveCleansUpOnFailure(t *testing.T) {
	f := newFixture(t)
	f.fake.Err = errors.New("exit status 2")

	_, err := f.solver.Solve(context.Background(), f.files, 10, population.Condition{Temperature: 500, Density: 1e21})
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrExternalTool)
	assert.Empty(t, scratchEntries(t, f.fake))
}

func TestSolveMissingOutput(t *testing.T) {
	f := newFixture(t)
	f.fake.OmitTables = true

	_, err := f.solver.Solve(context.Background(), f.files, 10, population.Condition{Temperature: 500, Density: 1e21})
	assert.ErrorIs(t, err, services.ErrExternalTool)
	assert.Empty(t, scratchEntries(t, f.fake))
}

func TestConditionValidation(t *testing.T) {
	for _, cond := range []population.Condition{
		{Temperature: 0, Density: 1e20, PopulationTotal: 1},
		{Temperature: 100, Density: -1, PopulationTotal: 1},
		{Temperature: 100, Density: 1e20, PopulationTotal: -1},
	} {
		assert.ErrorIs(t, cond.Validate(), services.ErrValidation)
	}
	assert.NoError(t, population.Condition{Temperature: 100, Density: 0, PopulationTotal: 1}.Validate())
}

func TestScratchName(t *testing.T) {
	name := population.ScratchName()
	assert.Regexp(t, `^[0-9A-F]{6}$`, name)
	assert.NotEqual(t, name, population.ScratchName())
}
