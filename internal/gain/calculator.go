package gain

import (
	"fmt"
	"math"

	"gaincalc/internal/services"
)

// pointTolerance is the tolerance when matching grid coordinates. It is
// absolute below one and relative above.
const pointTolerance = 1e-6

func near(a, b float64) bool {
	return math.Abs(a-b) <= pointTolerance*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

// GainInput is one plasma state for a gain evaluation.
type GainInput struct {
	ElectronDensity float64
	Temperature     float64
	// IonTemperature defaults to Temperature when zero.
	IonTemperature float64
	Ionization     float64
}

func (in GainInput) validate() error {
	switch {
	case in.Temperature <= 0 || math.IsNaN(in.Temperature):
		return invalid("gain", "temperature must be positive, got %g", in.Temperature)
	case in.ElectronDensity < 0 || math.IsNaN(in.ElectronDensity):
		return invalid("gain", "electron density must not be negative, got %g", in.ElectronDensity)
	case in.IonTemperature < 0:
		return invalid("gain", "ion temperature must not be negative, got %g", in.IonTemperature)
	case in.Ionization <= 0:
		return invalid("gain", "ionization must be positive, got %g", in.Ionization)
	}
	return nil
}

func (in GainInput) ionTemperature() float64 {
	if in.IonTemperature == 0 {
		return in.Temperature
	}
	return in.IonTemperature
}

// Calculator evaluates gain from the populations stored in a Dataset.
type Calculator struct {
	data      Dataset
	abundance Abundance
}

// NewCalculator validates data and binds an abundance source. A nil
// abundance means the whole element is in the lasing charge state.
func NewCalculator(data Dataset, abundance Abundance) (*Calculator, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{data: data, abundance: abundance}, nil
}

func (c *Calculator) Dataset() Dataset { return c.data }

// Temperatures and Densities return the axes the dataset was built from.
func (c *Calculator) Temperatures() []float64 { return c.data.Temperatures }
func (c *Calculator) Densities() []float64    { return c.data.Densities }

// PopulationAt returns the stored population of endpoint at the first grid
// point matching density and temperature.
func (c *Calculator) PopulationAt(endpoint Endpoint, density, temperature float64) (float64, error) {
	s, err := c.data.Series(endpoint)
	if err != nil {
		return 0, err
	}
	for i := range s.Population {
		if near(s.Temperature[i], temperature) && near(s.ElectronDensity[i], density) {
			return s.Population[i], nil
		}
	}
	return 0, services.Wrap(services.ErrNotFound, "gain", "population at",
		fmt.Sprintf("%s level has no point at T=%g ne=%g", endpoint, temperature, density), ErrPointNotFound)
}

// Inversion is the upper minus lower population at one grid point.
func (c *Calculator) Inversion(density, temperature float64) (float64, error) {
	upper, err := c.PopulationAt(Upper, density, temperature)
	if err != nil {
		return 0, err
	}
	lower, err := c.PopulationAt(Lower, density, temperature)
	if err != nil {
		return 0, err
	}
	return upper - lower, nil
}

// Gain returns the gain coefficient in cm^-1 at a stored grid point.
func (c *Calculator) Gain(in GainInput) (float64, error) {
	if err := in.validate(); err != nil {
		return 0, err
	}
	inversion, err := c.Inversion(in.ElectronDensity, in.Temperature)
	if err != nil {
		return 0, err
	}
	prov := c.data.Provenance
	f, err := fraction(c.abundance, in.Temperature, prov.Electrons, prov.Protons)
	if err != nil {
		return 0, err
	}
	return Coefficient(
		inversion,
		IonDensity(in.ElectronDensity, in.Ionization, f),
		DopplerFWHM(c.data.TransitionEnergy, in.ionTemperature()),
		LorentzWidth(in.Temperature, in.ElectronDensity),
		c.data.OscillatorStrength,
	), nil
}
