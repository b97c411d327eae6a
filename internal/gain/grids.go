package gain

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"gaincalc/internal/services"
)

// broadcastLen returns the common length of inputs, where length-one
// inputs stretch to match the rest.
func broadcastLen(inputs ...[]float64) (int, error) {
	n := 1
	for _, in := range inputs {
		switch {
		case len(in) == 0:
			return 0, services.Wrap(services.ErrValidation, "gain", "broadcast", "empty input", ErrShapeMismatch)
		case len(in) == 1:
		case n == 1:
			n = len(in)
		case len(in) != n:
			return 0, services.Wrap(services.ErrValidation, "gain", "broadcast",
				fmt.Sprintf("lengths %d and %d", n, len(in)), ErrShapeMismatch)
		}
	}
	return n, nil
}

func at(s []float64, i int) float64 {
	if len(s) == 1 {
		return s[0]
	}
	return s[i]
}

// CoefficientGrid applies Coefficient element-wise.
func CoefficientGrid(inversion, ionDensity, doppler, lorentz, gf []float64) ([]float64, error) {
	n, err := broadcastLen(inversion, ionDensity, doppler, lorentz, gf)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = Coefficient(at(inversion, i), at(ionDensity, i), at(doppler, i), at(lorentz, i), at(gf, i))
	}
	return out, nil
}

// GainGrid evaluates c.Gain element-wise over the plasma parameters.
func GainGrid(c *Calculator, densities, temperatures, ionTemperatures, ionization []float64) ([]float64, error) {
	n, err := broadcastLen(densities, temperatures, ionTemperatures, ionization)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		out[i], err = c.Gain(GainInput{
			ElectronDensity: at(densities, i),
			Temperature:     at(temperatures, i),
			IonTemperature:  at(ionTemperatures, i),
			Ionization:      at(ionization, i),
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// InversionGrid evaluates the three-level inversion element-wise.
func InversionGrid(c *Coefficients, densities, temperatures []float64, g Degeneracies) ([]float64, error) {
	n, err := broadcastLen(densities, temperatures)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		out[i], err = RelativeInversion(c, at(densities, i), at(temperatures, i), g)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ThreeLevelGainGrid evaluates m.Gain element-wise.
func ThreeLevelGainGrid(m *ThreeLevel, densities, temperatures, ionTemperatures, ionization []float64) ([]float64, error) {
	n, err := broadcastLen(densities, temperatures, ionTemperatures, ionization)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		out[i], err = m.Gain(GainInput{
			ElectronDensity: at(densities, i),
			Temperature:     at(temperatures, i),
			IonTemperature:  at(ionTemperatures, i),
			Ionization:      at(ionization, i),
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Linspace returns n evenly spaced values from start to stop inclusive.
func Linspace(start, stop float64, n int) ([]float64, error) {
	switch {
	case n < 1:
		return nil, invalid("linspace", "count must be positive, got %d", n)
	case n == 1:
		return []float64{start}, nil
	}
	return floats.Span(make([]float64, n), start, stop), nil
}

// Logspace returns n values spaced evenly in log10 from 10^start to 10^stop.
func Logspace(start, stop float64, n int) ([]float64, error) {
	switch {
	case n < 1:
		return nil, invalid("logspace", "count must be positive, got %d", n)
	case n == 1:
		return []float64{pow10(start)}, nil
	}
	return floats.LogSpan(make([]float64, n), pow10(start), pow10(stop)), nil
}
