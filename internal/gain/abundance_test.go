package gain_test

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gaincalc/internal/gain"
	"gaincalc/internal/services"
	"gaincalc/internal/testsupport"
)

const feTable = `
symbol       = "Fe"
electrons    = 10
protons      = 26
temperatures = [10.0, 100.0, 1000.0]
fractions    = [0.1, 0.5, 0.3]
`

func TestAbundanceTableInterpolatesInLogTemperature(t *testing.T) {
	path := testsupport.WriteText(t, filepath.Join(t.TempDir(), "fe.toml"), feTable)
	table, err := gain.LoadAbundanceTable(path)
	require.NoError(t, err)
	assert.Equal(t, "Fe", table.Symbol)

	f, err := table.Fraction(math.Sqrt(10*100), 10, 26)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, f, 1e-12)

	f, err = table.Fraction(100, 10, 26)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, f, 1e-12)

	low, err := table.Fraction(1, 10, 26)
	require.NoError(t, err)
	assert.Equal(t, 0.1, low)

	high, err := table.Fraction(1e5, 10, 26)
	require.NoError(t, err)
	assert.Equal(t, 0.3, high)

	_, err = table.Fraction(100, 11, 26)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestParseAbundanceTableErrors(t *testing.T) {
	for name, body := range map[string]string{
		"mismatch":   "temperatures = [1.0, 2.0]\nfractions = [0.1]",
		"too short":  "temperatures = [1.0]\nfractions = [0.1]",
		"decreasing": "temperatures = [2.0, 1.0]\nfractions = [0.1, 0.2]",
		"fraction":   "temperatures = [1.0, 2.0]\nfractions = [0.1, 1.2]",
		"toml":       "temperatures = [",
	} {
		_, err := gain.ParseAbundanceTable([]byte(body))
		assert.ErrorIs(t, err, services.ErrValidation, name)
	}

	_, err := gain.LoadAbundanceTable(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestConstantAbundance(t *testing.T) {
	f, err := gain.ConstantAbundance(0.4).Fraction(123, 10, 26)
	require.NoError(t, err)
	assert.Equal(t, 0.4, f)
}
