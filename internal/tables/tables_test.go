package tables_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gaincalc/internal/notation"
	"gaincalc/internal/services"
	"gaincalc/internal/tables"
	"gaincalc/internal/testsupport"
)

func TestParseLevels(t *testing.T) {
	index, err := tables.ParseLevels(strings.NewReader(testsupport.LevelsTable))
	require.NoError(t, err)
	assert.Equal(t, 4, index.Len())

	for level, want := range map[string]int{
		testsupport.BaseLevel:   testsupport.BaseIndex,
		testsupport.LowerLevel:  testsupport.LowerIndex,
		testsupport.MiddleLevel: testsupport.MiddleIndex,
		testsupport.UpperLevel:  testsupport.UpperIndex,
	} {
		got, err := index.Lookup(notation.MustParseEnergyLevel(level))
		require.NoError(t, err, level)
		assert.Equal(t, want, got, level)
	}

	entries := index.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, "2p+4(0)0", entries[0].Name)
	assert.Equal(t, 3, entries[3].Index)
}

func TestParseLevelsDuplicateNameLastWins(t *testing.T) {
	input := "     0    -1  0.0E+00  0   201   0  a  b  2p+4(0)0\n" +
		"     7    -1  1.0E+00  0   201   0  a  b  2p+4(0)0\n"
	index, err := tables.ParseLevels(strings.NewReader(input))
	require.NoError(t, err)
	got, ok := index.Index("2p+4(0)0")
	require.True(t, ok)
	assert.Equal(t, 7, got)
}

func TestParseLevelsEmpty(t *testing.T) {
	_, err := tables.ParseLevels(strings.NewReader("FAC 1.1.5\nNELE\t= 10\n"))
	assert.ErrorIs(t, err, tables.ErrParse)
	assert.ErrorIs(t, err, services.ErrExternalTool)
}

func TestLookupMissingLevelHintsAtThreshold(t *testing.T) {
	index, err := tables.ParseLevels(strings.NewReader(testsupport.LevelsTable))
	require.NoError(t, err)

	_, err = index.Lookup(notation.MustParseEnergyLevel("1s+2(0)0 2s+2(0)0 2p-1(1)1 2p+4(1)1 5s+1(1)2"))
	require.ErrorIs(t, err, tables.ErrLevelNotFound)
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.Contains(t, err.Error(), "principal number threshold")
}

func TestParseTransitions(t *testing.T) {
	table, err := tables.ParseTransitions(strings.NewReader(testsupport.TransitionsTable))
	require.NoError(t, err)
	assert.Equal(t, 4, table.Len())

	rec, err := table.Find(testsupport.LowerIndex, testsupport.UpperIndex)
	require.NoError(t, err)
	assert.InDelta(t, testsupport.LaserGF, rec.Strength, 1e-12)
	assert.InDelta(t, testsupport.LaserEnergy, rec.Energy, 1e-12)
	assert.True(t, rec.HasRate)
	assert.InDelta(t, testsupport.LaserRate, rec.Rate, 1)

	_, err = table.Find(testsupport.UpperIndex, testsupport.LowerIndex)
	assert.ErrorIs(t, err, tables.ErrTransitionNotFound)
}

func TestParseTransitionsWithoutRate(t *testing.T) {
	table, err := tables.ParseTransitions(strings.NewReader("    1   2     0   0  7.25E+02  1.2E-01\n"))
	require.NoError(t, err)
	rec := table.All()[0]
	assert.Equal(t, 0, rec.Lower)
	assert.Equal(t, 1, rec.Upper)
	assert.False(t, rec.HasRate)
}

func TestParseTransitionsSkipsNonNumericRows(t *testing.T) {
	input := "    1   2     0   0  energy  gf\n    1   2     0   0  7.25E+02  1.2E-01  3.4E+11\n"
	table, err := tables.ParseTransitions(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	_, err = tables.ParseTransitions(strings.NewReader("    1   2     0   0  energy  gf\n"))
	assert.ErrorIs(t, err, tables.ErrParse)
}

func TestOscillatorStrengthByLevel(t *testing.T) {
	index, err := tables.ParseLevels(strings.NewReader(testsupport.LevelsTable))
	require.NoError(t, err)
	table, err := tables.ParseTransitions(strings.NewReader(testsupport.TransitionsTable))
	require.NoError(t, err)

	gf, err := table.OscillatorStrength(index,
		notation.MustParseEnergyLevel(testsupport.LowerLevel),
		notation.MustParseEnergyLevel(testsupport.UpperLevel))
	require.NoError(t, err)
	assert.InDelta(t, testsupport.LaserGF, gf, 1e-12)

	_, err = table.OscillatorStrength(index,
		notation.MustParseEnergyLevel(testsupport.MiddleLevel),
		notation.MustParseEnergyLevel(testsupport.UpperLevel))
	assert.ErrorIs(t, err, tables.ErrTransitionNotFound)
}

func TestParsePopulations(t *testing.T) {
	pops, err := tables.ParsePopulations(strings.NewReader(testsupport.PopulationsTable(2.0, 500)))
	require.NoError(t, err)
	require.Len(t, pops, 4)

	sum := 0.0
	for _, v := range pops {
		sum += v
	}
	assert.InDelta(t, 2.0, sum, 1e-6)
	assert.InDelta(t, 2.0*0.0075, pops[testsupport.UpperIndex], 1e-9)

	_, err = tables.ParsePopulations(strings.NewReader("NELE\t= 10\n"))
	assert.ErrorIs(t, err, tables.ErrParse)
}

func TestParseCollisionStrengths(t *testing.T) {
	cs, err := tables.ParseCollisionStrengths(strings.NewReader(testsupport.ExcitationTable), testsupport.LowerIndex, testsupport.UpperIndex)
	require.NoError(t, err)
	assert.InDelta(t, testsupport.LaserEnergy, cs.TransitionEnergy, 1e-12)
	require.Len(t, cs.Points, 4)
	assert.Equal(t, []float64{3.5, 7, 14, 28}, cs.Energies())
	assert.InDelta(t, 2.5, cs.Points[0].Strength, 1e-12)
	assert.InDelta(t, 1.7e-17, cs.Points[3].CrossSection, 1e-30)

	base, err := tables.ParseCollisionStrengths(strings.NewReader(testsupport.ExcitationTable), testsupport.BaseIndex, testsupport.UpperIndex)
	require.NoError(t, err)
	assert.InDelta(t, 728.5, base.TransitionEnergy, 1e-9)
	assert.InDelta(t, 4e-3, base.Points[0].Strength, 1e-12)
}

func TestParseCollisionStrengthsMissing(t *testing.T) {
	_, err := tables.ParseCollisionStrengths(strings.NewReader(testsupport.ExcitationTable), testsupport.MiddleIndex, testsupport.UpperIndex)
	assert.ErrorIs(t, err, tables.ErrTransitionNotFound)
}

func TestParseCollisionStrengthsTruncatedBlock(t *testing.T) {
	input := "NUSR\t= 3\n    0  0    1  2  7.2500E+02  1\n  1.0 0.5\n  7.25E+02  1.2E-02  3.1E-21\n"
	_, err := tables.ParseCollisionStrengths(strings.NewReader(input), 0, 1)
	assert.ErrorIs(t, err, tables.ErrParse)
}

func TestLoadHelpersReadFiles(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteText(t, filepath.Join(dir, "levels.txt"), testsupport.LevelsTable)
	testsupport.WriteText(t, filepath.Join(dir, "transitions.txt"), testsupport.TransitionsTable)
	testsupport.WriteText(t, filepath.Join(dir, "excitation.txt"), testsupport.ExcitationTable)

	index, err := tables.LoadLevels(filepath.Join(dir, "levels.txt"))
	require.NoError(t, err)
	assert.Equal(t, 4, index.Len())

	table, err := tables.LoadTransitions(filepath.Join(dir, "transitions.txt"))
	require.NoError(t, err)
	assert.Equal(t, 4, table.Len())

	_, err = tables.LoadCollisionStrengths(filepath.Join(dir, "excitation.txt"), 0, 1)
	require.NoError(t, err)

	_, err = tables.LoadLevels(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
