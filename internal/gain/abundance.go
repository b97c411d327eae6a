package gain

import (
	"fmt"
	"math"
	"os"

	"github.com/pelletier/go-toml/v2"
	"gonum.org/v1/gonum/interp"

	"gaincalc/internal/services"
)

// Abundance yields the fraction of an element in the charge state with the
// given electron count.
type Abundance interface {
	Fraction(temperature float64, electrons, protons int) (float64, error)
}

// ConstantAbundance ignores temperature and charge state.
type ConstantAbundance float64

func (a ConstantAbundance) Fraction(float64, int, int) (float64, error) {
	return float64(a), nil
}

func fraction(a Abundance, temperature float64, electrons, protons int) (float64, error) {
	if a == nil {
		return 1, nil
	}
	f, err := a.Fraction(temperature, electrons, protons)
	if err != nil {
		return 0, err
	}
	if f < 0 || f > 1 || math.IsNaN(f) {
		return 0, invalid("abundance", "fraction %g outside [0, 1]", f)
	}
	return f, nil
}

type abundanceFile struct {
	Symbol       string    `toml:"symbol"`
	Electrons    int       `toml:"electrons"`
	Protons      int       `toml:"protons"`
	Temperatures []float64 `toml:"temperatures"`
	Fractions    []float64 `toml:"fractions"`
}

// AbundanceTable interpolates tabulated fractional abundances linearly in
// log10 temperature, holding the end values outside the table.
type AbundanceTable struct {
	Symbol    string
	Electrons int
	Protons   int

	curve interp.PiecewiseLinear
}

// ParseAbundanceTable decodes a TOML abundance table:
//
//	electrons    = 10
//	protons      = 26
//	temperatures = [100.0, 500.0, 1000.0]
//	fractions    = [0.05, 0.3, 0.1]
func ParseAbundanceTable(data []byte) (*AbundanceTable, error) {
	var file abundanceFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, services.Wrap(services.ErrValidation, "gain", "parse abundance table", "invalid TOML", err)
	}
	if len(file.Temperatures) != len(file.Fractions) {
		return nil, services.Wrap(services.ErrValidation, "gain", "parse abundance table",
			fmt.Sprintf("%d temperatures vs %d fractions", len(file.Temperatures), len(file.Fractions)), ErrShapeMismatch)
	}
	if len(file.Temperatures) < 2 {
		return nil, invalid("parse abundance table", "need at least 2 points, got %d", len(file.Temperatures))
	}
	logT := make([]float64, len(file.Temperatures))
	for i, t := range file.Temperatures {
		if t <= 0 {
			return nil, invalid("parse abundance table", "temperature %g must be positive", t)
		}
		logT[i] = math.Log10(t)
		if i > 0 && logT[i] <= logT[i-1] {
			return nil, invalid("parse abundance table", "temperatures must be strictly increasing")
		}
		if f := file.Fractions[i]; f < 0 || f > 1 {
			return nil, invalid("parse abundance table", "fraction %g outside [0, 1]", f)
		}
	}
	table := &AbundanceTable{Symbol: file.Symbol, Electrons: file.Electrons, Protons: file.Protons}
	if err := table.curve.Fit(logT, file.Fractions); err != nil {
		return nil, invalid("parse abundance table", "%v", err)
	}
	return table, nil
}

// LoadAbundanceTable reads and parses the table at path.
func LoadAbundanceTable(path string) (*AbundanceTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "gain", "load abundance table", path, err)
	}
	return ParseAbundanceTable(data)
}

// Fraction implements Abundance. A table bound to a charge state rejects
// requests for a different one.
func (a *AbundanceTable) Fraction(temperature float64, electrons, protons int) (float64, error) {
	if temperature <= 0 {
		return 0, invalid("abundance", "temperature must be positive, got %g", temperature)
	}
	if a.Electrons != 0 && electrons != 0 && a.Electrons != electrons {
		return 0, invalid("abundance", "table is for %d electrons, asked for %d", a.Electrons, electrons)
	}
	if a.Protons != 0 && protons != 0 && a.Protons != protons {
		return 0, invalid("abundance", "table is for Z=%d, asked for Z=%d", a.Protons, protons)
	}
	return a.curve.Predict(math.Log10(temperature)), nil
}
