package gain

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"gaincalc/internal/services"
)

// Endpoint names one of the two laser levels in a dataset.
type Endpoint string

const (
	Upper Endpoint = "upper"
	Lower Endpoint = "lower"
)

// Series is one level's population on a grid, aligned element-wise.
type Series struct {
	Temperature     []float64 `json:"temperature"`
	ElectronDensity []float64 `json:"electron_density"`
	Population      []float64 `json:"population"`
}

func (s Series) validate(name string) error {
	if len(s.Temperature) != len(s.ElectronDensity) || len(s.Temperature) != len(s.Population) {
		return services.Wrap(services.ErrValidation, "gain", "dataset",
			fmt.Sprintf("%s series lengths %d/%d/%d differ", name, len(s.Temperature), len(s.ElectronDensity), len(s.Population)),
			ErrShapeMismatch)
	}
	return nil
}

// Provenance records where a dataset came from.
type Provenance struct {
	Atom            string    `json:"atom"`
	Symbol          string    `json:"symbol"`
	Protons         int       `json:"protons"`
	Electrons       int       `json:"electrons"`
	CacheKey        string    `json:"cache_key"`
	LowerLevel      string    `json:"lower_level"`
	UpperLevel      string    `json:"upper_level"`
	Combine         string    `json:"combine"`
	PopulationTotal float64   `json:"population_total"`
	CreatedAt       time.Time `json:"created_at"`
}

// Dataset is the persisted result of a grid run for one laser transition.
type Dataset struct {
	Upper              Series     `json:"upper"`
	Lower              Series     `json:"lower"`
	OscillatorStrength float64    `json:"oscillator_strength"`
	TransitionEnergy   float64    `json:"transition_energy"`
	Temperatures       []float64  `json:"temperatures"`
	Densities          []float64  `json:"densities"`
	Provenance         Provenance `json:"provenance"`
}

// Validate checks that both series are internally aligned and equal length.
func (d Dataset) Validate() error {
	if err := d.Upper.validate("upper"); err != nil {
		return err
	}
	if err := d.Lower.validate("lower"); err != nil {
		return err
	}
	if len(d.Upper.Population) != len(d.Lower.Population) {
		return services.Wrap(services.ErrValidation, "gain", "dataset",
			fmt.Sprintf("upper has %d points, lower %d", len(d.Upper.Population), len(d.Lower.Population)), ErrShapeMismatch)
	}
	return nil
}

// Series returns the series for endpoint.
func (d Dataset) Series(endpoint Endpoint) (Series, error) {
	switch endpoint {
	case Upper:
		return d.Upper, nil
	case Lower:
		return d.Lower, nil
	default:
		return Series{}, invalid("series", "unknown endpoint %q", endpoint)
	}
}

// Points is the number of grid points in the dataset.
func (d Dataset) Points() int { return len(d.Upper.Population) }

// Encode writes d as indented JSON.
func (d Dataset) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// DecodeDataset reads a JSON dataset.
func DecodeDataset(r io.Reader) (Dataset, error) {
	var d Dataset
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return Dataset{}, services.Wrap(services.ErrValidation, "gain", "decode dataset", "invalid JSON", err)
	}
	if err := d.Validate(); err != nil {
		return Dataset{}, err
	}
	return d, nil
}

// LoadDataset reads a dataset previously exported to path.
func LoadDataset(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, services.Wrap(services.ErrNotFound, "gain", "load dataset", path, err)
	}
	defer f.Close()
	return DecodeDataset(f)
}
