package grid

import (
	"fmt"
	"strings"

	"gaincalc/internal/services"
)

// ErrLengthMismatch reports zip inputs of different lengths.
var ErrLengthMismatch = fmt.Errorf("grid length mismatch")

// Combine selects how temperature and density axes form grid points.
type Combine int

const (
	// Product pairs every temperature with every density, temperature-major.
	Product Combine = iota
	// Zip pairs the i-th temperature with the i-th density.
	Zip
)

func (c Combine) String() string {
	switch c {
	case Product:
		return "product"
	case Zip:
		return "zip"
	default:
		return fmt.Sprintf("combine(%d)", int(c))
	}
}

// ParseCombine accepts "product" or "zip", case-insensitively. Empty input
// selects Product.
func ParseCombine(value string) (Combine, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "product":
		return Product, nil
	case "zip":
		return Zip, nil
	default:
		return Product, services.Wrap(services.ErrValidation, "grid", "parse combine",
			fmt.Sprintf("unknown combine %q (want product or zip)", value), nil)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Combine) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Combine) UnmarshalText(text []byte) error {
	parsed, err := ParseCombine(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Point is one (temperature, density) grid position.
type Point struct {
	Temperature float64
	Density     float64
}

// Points expands the two axes into grid points.
func Points(temperatures, densities []float64, combine Combine) ([]Point, error) {
	switch combine {
	case Product:
		points := make([]Point, 0, len(temperatures)*len(densities))
		for _, t := range temperatures {
			for _, d := range densities {
				points = append(points, Point{Temperature: t, Density: d})
			}
		}
		return points, nil
	case Zip:
		if len(temperatures) != len(densities) {
			return nil, services.Wrap(services.ErrValidation, "grid", "zip",
				fmt.Sprintf("%d temperatures vs %d densities", len(temperatures), len(densities)), ErrLengthMismatch)
		}
		points := make([]Point, len(temperatures))
		for i := range temperatures {
			points[i] = Point{Temperature: temperatures[i], Density: densities[i]}
		}
		return points, nil
	default:
		return nil, services.Wrap(services.ErrValidation, "grid", "points", combine.String(), nil)
	}
}
