package gain_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gaincalc/internal/gain"
	"gaincalc/internal/services"
)

func sampleDataset() gain.Dataset {
	temps := []float64{300, 300, 500, 500}
	dens := []float64{1e20, 1e21, 1e20, 1e21}
	return gain.Dataset{
		Upper:              gain.Series{Temperature: temps, ElectronDensity: dens, Population: []float64{0.010, 0.012, 0.014, 0.016}},
		Lower:              gain.Series{Temperature: temps, ElectronDensity: dens, Population: []float64{0.008, 0.009, 0.010, 0.011}},
		OscillatorStrength: 0.521,
		TransitionEnergy:   3.5,
		Temperatures:       []float64{300, 500},
		Densities:          []float64{1e20, 1e21},
		Provenance:         gain.Provenance{Symbol: "Fe", Protons: 26, Electrons: 10},
	}
}

func TestPopulationAt(t *testing.T) {
	calc, err := gain.NewCalculator(sampleDataset(), nil)
	require.NoError(t, err)

	pop, err := calc.PopulationAt(gain.Upper, 1e21, 500)
	require.NoError(t, err)
	assert.Equal(t, 0.016, pop)

	pop, err = calc.PopulationAt(gain.Lower, 1e20, 300+5e-7)
	require.NoError(t, err)
	assert.Equal(t, 0.008, pop)

	// Densities round-tripped through text match relative to their size.
	pop, err = calc.PopulationAt(gain.Upper, 1.0000000000000002e21, 500)
	require.NoError(t, err)
	assert.Equal(t, 0.016, pop)

	_, err = calc.PopulationAt(gain.Upper, 1e21, 400)
	assert.ErrorIs(t, err, gain.ErrPointNotFound)
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = calc.PopulationAt("middle", 1e21, 500)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestCalculatorGain(t *testing.T) {
	calc, err := gain.NewCalculator(sampleDataset(), gain.ConstantAbundance(0.25))
	require.NoError(t, err)

	got, err := calc.Gain(gain.GainInput{ElectronDensity: 1e21, Temperature: 500, IonTemperature: 400, Ionization: 16})
	require.NoError(t, err)
	want := gain.Coefficient(0.016-0.011, gain.IonDensity(1e21, 16, 0.25), gain.DopplerFWHM(3.5, 400), gain.LorentzWidth(500, 1e21), 0.521)
	assert.InEpsilon(t, want, got, 1e-12)

	sameT, err := calc.Gain(gain.GainInput{ElectronDensity: 1e21, Temperature: 500, Ionization: 16})
	require.NoError(t, err)
	wantSameT := gain.Coefficient(0.005, gain.IonDensity(1e21, 16, 0.25), gain.DopplerFWHM(3.5, 500), gain.LorentzWidth(500, 1e21), 0.521)
	assert.InEpsilon(t, wantSameT, sameT, 1e-12)

	_, err = calc.Gain(gain.GainInput{ElectronDensity: 1e21, Temperature: 500, Ionization: 0})
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestGainGrid(t *testing.T) {
	calc, err := gain.NewCalculator(sampleDataset(), nil)
	require.NoError(t, err)

	out, err := gain.GainGrid(calc, []float64{1e20, 1e21}, []float64{500}, []float64{0}, []float64{16})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Greater(t, out[1], 0.0)

	_, err = gain.GainGrid(calc, []float64{1e20, 1e21}, []float64{300, 400, 500}, []float64{0}, []float64{16})
	assert.ErrorIs(t, err, gain.ErrShapeMismatch)

	_, err = gain.GainGrid(calc, []float64{1e20}, []float64{400}, []float64{0}, []float64{16})
	assert.ErrorIs(t, err, gain.ErrPointNotFound)
}

func TestNewCalculatorRejectsMisalignedDataset(t *testing.T) {
	d := sampleDataset()
	d.Lower.Population = d.Lower.Population[:3]
	_, err := gain.NewCalculator(d, nil)
	assert.ErrorIs(t, err, gain.ErrShapeMismatch)
}

func TestDatasetEncodeDecode(t *testing.T) {
	d := sampleDataset()
	var buf bytes.Buffer
	require.NoError(t, d.Encode(&buf))
	assert.Contains(t, buf.String(), `"electron_density"`)
	assert.Contains(t, buf.String(), `"oscillator_strength": 0.521`)

	path := filepath.Join(t.TempDir(), "fe.json")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	loaded, err := gain.LoadDataset(path)
	require.NoError(t, err)
	assert.Equal(t, d.Upper, loaded.Upper)
	assert.Equal(t, d.Provenance.Protons, loaded.Provenance.Protons)

	_, err = gain.DecodeDataset(bytes.NewBufferString("{"))
	assert.ErrorIs(t, err, services.ErrValidation)
}
