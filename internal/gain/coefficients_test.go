package gain_test

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gaincalc/internal/gain"
	"gaincalc/internal/notation"
	"gaincalc/internal/services"
	"gaincalc/internal/tables"
	"gaincalc/internal/testsupport"
)

// cubicStrengths tabulates a collision strength whose Maxwellian integrand
// Omega(u)·exp(-u) is the cubic u^3 - 2u + 1, which a not-a-knot spline
// reproduces exactly.
func cubicStrengths(lower, upper int) tables.CollisionStrengths {
	cs := tables.CollisionStrengths{Lower: lower, Upper: upper, TransitionEnergy: 1}
	for _, u := range []float64{1, 2, 3, 4, 5} {
		cs.Points = append(cs.Points, tables.CollisionPoint{
			Energy:   u,
			Strength: (u*u*u - 2*u + 1) * math.Exp(u),
		})
	}
	return cs
}

func TestEffectiveCollisionStrengthIntegratesSplineExactly(t *testing.T) {
	eff, err := gain.EffectiveCollisionStrength(cubicStrengths(0, 1), 1)
	require.NoError(t, err)
	// Integral of u^3 - 2u + 1 from 1 to 5.
	assert.InEpsilon(t, 136.0, eff, 1e-9)
}

func TestEffectiveCollisionStrengthExtendsFirstSegmentBelowGrid(t *testing.T) {
	cs := cubicStrengths(0, 1)
	cs.TransitionEnergy = 0
	eff, err := gain.EffectiveCollisionStrength(cs, 1)
	require.NoError(t, err)
	// Integral of u^3 - 2u + 1 from 0 to 5.
	assert.InEpsilon(t, 136.25, eff, 1e-9)

	cs.TransitionEnergy = 0.5
	eff, err = gain.EffectiveCollisionStrength(cs, 1)
	require.NoError(t, err)
	assert.InEpsilon(t, 135.984375, eff, 1e-9)
}

func TestEffectiveCollisionStrengthLinearBelowGrid(t *testing.T) {
	cs := tables.CollisionStrengths{Lower: 0, Upper: 1}
	for _, u := range []float64{1, 2, 3} {
		cs.Points = append(cs.Points, tables.CollisionPoint{Energy: u, Strength: (2*u + 1) * math.Exp(u)})
	}
	eff, err := gain.EffectiveCollisionStrength(cs, 1)
	require.NoError(t, err)
	// Integral of 2u + 1 from 0 to 3.
	assert.InEpsilon(t, 12.0, eff, 1e-9)
}

func TestEffectiveCollisionStrengthRejectsBadTables(t *testing.T) {
	_, err := gain.EffectiveCollisionStrength(tables.CollisionStrengths{TransitionEnergy: 1}, 1)
	assert.ErrorIs(t, err, services.ErrValidation)

	cs := cubicStrengths(0, 1)
	cs.Points[2].Energy = cs.Points[1].Energy
	_, err = gain.EffectiveCollisionStrength(cs, 1)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestExcitationAndDeexcitationRates(t *testing.T) {
	cs := cubicStrengths(0, 1)
	exc, err := gain.ExcitationRate(cs, 1, 2)
	require.NoError(t, err)
	assert.InEpsilon(t, 8.010e-8/2*136.0, exc, 1e-9)

	deexc, err := gain.DeexcitationRate(cs, 1, 5)
	require.NoError(t, err)
	assert.InEpsilon(t, 8.010e-8*136.0/5*math.E, deexc, 1e-9)
}

func TestRatesRequireRecalculate(t *testing.T) {
	c := gain.NewCoefficientsFromData(2, 1, 0.5, cubicStrengths(0, 1), cubicStrengths(0, 2), cubicStrengths(1, 2))
	_, err := c.Rates()
	assert.ErrorIs(t, err, gain.ErrNotRecalculated)

	require.NoError(t, c.Recalculate(1, 1, 5))
	rates, err := c.Rates()
	require.NoError(t, err)
	assert.InEpsilon(t, 8.010e-8*136.0, rates.C12, 1e-9)
	assert.InEpsilon(t, rates.C12, rates.C13, 1e-12)
	assert.InEpsilon(t, rates.C31, rates.C32, 1e-12)
	assert.Equal(t, 1.0, c.Temperature())

	assert.ErrorIs(t, c.Recalculate(0, 1, 5), services.ErrValidation)
	assert.ErrorIs(t, c.Recalculate(1, 0, 5), services.ErrValidation)
}

func TestRelativePopulations(t *testing.T) {
	pops := gain.RelativePopulations(gain.Rates{A21: 2, A32: 1, C12: 0.5, C13: 1, C31: 0.25, C32: 0.25}, 2)
	assert.InEpsilon(t, 1/3.25, pops.Base, 1e-12)
	assert.InEpsilon(t, 1.25/3.25, pops.Lower, 1e-12)
	assert.InEpsilon(t, 1/3.25, pops.Upper, 1e-12)
	assert.InDelta(t, 1.0, pops.Base+pops.Lower+pops.Upper, 1e-12)
}

func fixtureSource(t *testing.T) gain.CoefficientSource {
	t.Helper()
	dir := t.TempDir()
	levelsPath := testsupport.WriteText(t, filepath.Join(dir, "levels.txt"), testsupport.LevelsTable)
	transitionsPath := testsupport.WriteText(t, filepath.Join(dir, "transitions.txt"), testsupport.TransitionsTable)
	excitationPath := testsupport.WriteText(t, filepath.Join(dir, "excitation.txt"), testsupport.ExcitationTable)

	levels, err := tables.LoadLevels(levelsPath)
	require.NoError(t, err)
	transitions, err := tables.LoadTransitions(transitionsPath)
	require.NoError(t, err)
	return gain.CoefficientSource{Levels: levels, Transitions: transitions, Excitation: excitationPath}
}

func fixtureLevels() (base, lower, upper notation.EnergyLevel) {
	return notation.MustParseEnergyLevel(testsupport.BaseLevel),
		notation.MustParseEnergyLevel(testsupport.LowerLevel),
		notation.MustParseEnergyLevel(testsupport.UpperLevel)
}

func TestNewCoefficientsFromTables(t *testing.T) {
	base, lower, upper := fixtureLevels()
	c, err := gain.NewCoefficients(fixtureSource(t), base, lower, upper)
	require.NoError(t, err)
	assert.InEpsilon(t, testsupport.PumpRate, c.A21, 1e-12)
	assert.InEpsilon(t, testsupport.LaserRate, c.A32, 1e-12)
	assert.InEpsilon(t, testsupport.LaserGF, c.GF, 1e-12)
	assert.InEpsilon(t, testsupport.LaserEnergy, c.TransitionEnergy, 1e-12)

	require.NoError(t, c.Recalculate(500, base.Degeneracy(), upper.Degeneracy()))
	rates, err := c.Rates()
	require.NoError(t, err)
	for name, v := range map[string]float64{"C12": rates.C12, "C13": rates.C13, "C31": rates.C31, "C32": rates.C32} {
		assert.Greater(t, v, 0.0, name)
	}
	assert.Contains(t, c.String(), "C31 = ")
}

func TestNewCoefficientsMissingCollisionBlock(t *testing.T) {
	base, _, upper := fixtureLevels()
	middle := notation.MustParseEnergyLevel(testsupport.MiddleLevel)
	// The fixture has no middle to upper line.
	_, err := gain.NewCoefficients(fixtureSource(t), base, middle, upper)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestThreeLevelGainAndInversionGrid(t *testing.T) {
	base, lower, upper := fixtureLevels()
	c, err := gain.NewCoefficients(fixtureSource(t), base, lower, upper)
	require.NoError(t, err)
	g := gain.Degeneracies{Base: base.Degeneracy(), Lower: lower.Degeneracy(), Upper: upper.Degeneracy()}

	inversions, err := gain.InversionGrid(c, []float64{1e20, 1e21}, []float64{500}, g)
	require.NoError(t, err)
	require.Len(t, inversions, 2)

	single, err := gain.RelativeInversion(c, 1e21, 500, g)
	require.NoError(t, err)
	assert.Equal(t, single, inversions[1])

	model := &gain.ThreeLevel{Coefficients: c, Degeneracies: g, Abundance: gain.ConstantAbundance(0.5), Electrons: 10, Protons: 26}
	got, err := model.Gain(gain.GainInput{ElectronDensity: 1e21, Temperature: 500, Ionization: 16})
	require.NoError(t, err)
	want := gain.Coefficient(single, gain.IonDensity(1e21, 16, 0.5), gain.DopplerFWHM(c.TransitionEnergy, 500),
		gain.LorentzWidth(500, 1e21), c.GF)
	assert.InEpsilon(t, want, got, 1e-12)

	grid, err := gain.ThreeLevelGainGrid(model, []float64{1e21}, []float64{500}, []float64{0}, []float64{16})
	require.NoError(t, err)
	assert.InEpsilon(t, got, grid[0], 1e-12)

	_, err = gain.RelativeInversion(c, 1e21, 500, gain.Degeneracies{Base: 1, Lower: 0, Upper: 1})
	assert.ErrorIs(t, err, services.ErrValidation)
}
