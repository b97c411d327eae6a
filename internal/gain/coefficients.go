package gain

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/interp"

	"gaincalc/internal/notation"
	"gaincalc/internal/services"
	"gaincalc/internal/tables"
)

// legendrePoints integrates a cubic segment exactly.
const legendrePoints = 3

// Rates are the radiative (A) and collisional (C) rates of the three-level
// model. Index 1 is the base level, 2 the lower and 3 the upper laser level.
type Rates struct {
	A21 float64 `json:"a21"`
	A32 float64 `json:"a32"`
	C12 float64 `json:"c12"`
	C13 float64 `json:"c13"`
	C31 float64 `json:"c31"`
	C32 float64 `json:"c32"`
}

// CoefficientSource holds the parsed tables of one structure cache entry.
type CoefficientSource struct {
	Levels      tables.LevelIndex
	Transitions tables.TransitionTable
	// Excitation is the path of the printed collision strength table.
	Excitation string
}

// Coefficients carries the atomic data of one base/lower/upper triple.
// The collisional rates depend on temperature and are only valid after
// Recalculate. A Coefficients is not safe for concurrent use.
type Coefficients struct {
	A21              float64
	A32              float64
	GF               float64
	TransitionEnergy float64

	baseLower  tables.CollisionStrengths
	baseUpper  tables.CollisionStrengths
	lowerUpper tables.CollisionStrengths

	c12, c13, c31, c32 float64
	temperature        float64
	recalculated       bool
}

// NewCoefficients resolves the three levels in src and reads the radiative
// data and collision strengths connecting them.
func NewCoefficients(src CoefficientSource, base, lower, upper notation.EnergyLevel) (*Coefficients, error) {
	baseIdx, err := src.Levels.Lookup(base)
	if err != nil {
		return nil, err
	}
	lowerIdx, err := src.Levels.Lookup(lower)
	if err != nil {
		return nil, err
	}
	upperIdx, err := src.Levels.Lookup(upper)
	if err != nil {
		return nil, err
	}

	pump, err := src.Transitions.Find(baseIdx, lowerIdx)
	if err != nil {
		return nil, err
	}
	laser, err := src.Transitions.Find(lowerIdx, upperIdx)
	if err != nil {
		return nil, err
	}
	for _, tr := range []tables.Transition{pump, laser} {
		if !tr.HasRate {
			return nil, services.Wrap(services.ErrExternalTool, "gain", "coefficients",
				fmt.Sprintf("transition %d-%d has no radiative rate", tr.Lower, tr.Upper), tables.ErrParse)
		}
	}

	c := &Coefficients{
		A21: pump.Rate,
		A32: laser.Rate,
		GF:  laser.Strength,
	}
	if c.baseLower, err = tables.LoadCollisionStrengths(src.Excitation, baseIdx, lowerIdx); err != nil {
		return nil, err
	}
	if c.baseUpper, err = tables.LoadCollisionStrengths(src.Excitation, baseIdx, upperIdx); err != nil {
		return nil, err
	}
	if c.lowerUpper, err = tables.LoadCollisionStrengths(src.Excitation, lowerIdx, upperIdx); err != nil {
		return nil, err
	}
	c.TransitionEnergy = c.lowerUpper.TransitionEnergy
	return c, nil
}

// NewCoefficientsFromData builds coefficients from already extracted data.
func NewCoefficientsFromData(a21, a32, gf float64, baseLower, baseUpper, lowerUpper tables.CollisionStrengths) *Coefficients {
	return &Coefficients{
		A21:              a21,
		A32:              a32,
		GF:               gf,
		TransitionEnergy: lowerUpper.TransitionEnergy,
		baseLower:        baseLower,
		baseUpper:        baseUpper,
		lowerUpper:       lowerUpper,
	}
}

// Recalculate evaluates the collisional rates at electron temperature t (eV).
func (c *Coefficients) Recalculate(t float64, gBase, gUpper int) error {
	if t <= 0 || math.IsNaN(t) {
		return invalid("recalculate", "temperature must be positive, got %g", t)
	}
	if gBase <= 0 || gUpper <= 0 {
		return invalid("recalculate", "degeneracies must be positive, got %d and %d", gBase, gUpper)
	}
	c13, err := ExcitationRate(c.baseUpper, t, gBase)
	if err != nil {
		return err
	}
	c12, err := ExcitationRate(c.baseLower, t, gBase)
	if err != nil {
		return err
	}
	c31, err := DeexcitationRate(c.baseUpper, t, gUpper)
	if err != nil {
		return err
	}
	c32, err := DeexcitationRate(c.lowerUpper, t, gUpper)
	if err != nil {
		return err
	}
	c.c12, c.c13, c.c31, c.c32 = c12, c13, c31, c32
	c.temperature = t
	c.recalculated = true
	return nil
}

// Temperature is the temperature of the last Recalculate.
func (c *Coefficients) Temperature() float64 { return c.temperature }

// Rates returns the full rate set.
func (c *Coefficients) Rates() (Rates, error) {
	if !c.recalculated {
		return Rates{}, services.Wrap(services.ErrValidation, "gain", "rates", "call Recalculate first", ErrNotRecalculated)
	}
	return Rates{A21: c.A21, A32: c.A32, C12: c.c12, C13: c.c13, C31: c.c31, C32: c.c32}, nil
}

func (c *Coefficients) String() string {
	if !c.recalculated {
		return fmt.Sprintf("A32 = %.3e\nA21 = %.3e\ngf = %.3g", c.A32, c.A21, c.GF)
	}
	return fmt.Sprintf("A32 = %.3e\nA21 = %.3e\nC31 = %.3e\nC32 = %.3e\nC13 = %.3e\nC12 = %.3e\ngf = %.3g",
		c.A32, c.A21, c.c31, c.c32, c.c13, c.c12, c.GF)
}

// ExcitationRate is the Maxwellian-averaged excitation rate coefficient in
// cm^3/s for a lower level of degeneracy gLower.
func ExcitationRate(cs tables.CollisionStrengths, t float64, gLower int) (float64, error) {
	effective, err := EffectiveCollisionStrength(cs, t)
	if err != nil {
		return 0, err
	}
	return collisionRateScale / float64(gLower) / math.Sqrt(t) * effective, nil
}

// DeexcitationRate follows from ExcitationRate by detailed balance.
func DeexcitationRate(cs tables.CollisionStrengths, t float64, gUpper int) (float64, error) {
	exc, err := ExcitationRate(cs, t, 1)
	if err != nil {
		return 0, err
	}
	return exc / float64(gUpper) * math.Exp(cs.TransitionEnergy/t), nil
}

// EffectiveCollisionStrength integrates Omega(u)·exp(-u) over u = E/t from
// the threshold to the last tabulated energy, using a not-a-knot cubic
// spline through the tabulated points.
func EffectiveCollisionStrength(cs tables.CollisionStrengths, t float64) (float64, error) {
	n := len(cs.Points)
	if n < 2 {
		return 0, invalid("effective collision strength", "need at least 2 points for %d-%d, got %d", cs.Lower, cs.Upper, n)
	}
	us := make([]float64, n)
	ys := make([]float64, n)
	for i, p := range cs.Points {
		us[i] = p.Energy / t
		ys[i] = p.Strength * math.Exp(-us[i])
		if i > 0 && us[i] <= us[i-1] {
			return 0, invalid("effective collision strength", "energies of %d-%d are not strictly increasing", cs.Lower, cs.Upper)
		}
	}

	var spline interp.FittablePredictor
	degree := 1
	if n >= 4 {
		spline = &interp.NotAKnotCubic{}
		degree = 3
	} else {
		spline = &interp.PiecewiseLinear{}
	}
	if err := spline.Fit(us, ys); err != nil {
		return 0, services.Wrap(services.ErrValidation, "gain", "fit collision strengths", fmt.Sprintf("%d-%d", cs.Lower, cs.Upper), err)
	}

	lo, hi := cs.TransitionEnergy/t, us[n-1]
	if lo >= hi {
		return 0, nil
	}
	f := spline.Predict
	if lo < us[0] {
		// Predict clamps below the first knot; continue the first piece instead.
		first := segmentPolynomial(spline.Predict, us[0], us[1], degree)
		f = func(u float64) float64 {
			if u < us[0] {
				return first(u)
			}
			return spline.Predict(u)
		}
	}
	return integrate(f, us, lo, hi), nil
}

// segmentPolynomial recovers the polynomial of the given degree that f
// follows on [x0, x1] by interpolating degree+1 equally spaced samples.
func segmentPolynomial(f func(float64) float64, x0, x1 float64, degree int) func(float64) float64 {
	xs := make([]float64, degree+1)
	ys := make([]float64, degree+1)
	for i := range xs {
		xs[i] = x0 + (x1-x0)*float64(i)/float64(degree)
		ys[i] = f(xs[i])
	}
	return func(x float64) float64 {
		sum := 0.0
		for i := range xs {
			term := ys[i]
			for j := range xs {
				if j != i {
					term *= (x - xs[j]) / (xs[i] - xs[j])
				}
			}
			sum += term
		}
		return sum
	}
}

// integrate applies Gauss-Legendre quadrature on every knot interval
// overlapping [lo, hi].
func integrate(f func(float64) float64, knots []float64, lo, hi float64) float64 {
	bounds := []float64{lo}
	start := sort.SearchFloat64s(knots, lo)
	for _, k := range knots[start:] {
		if k >= hi {
			break
		}
		if k > lo {
			bounds = append(bounds, k)
		}
	}
	bounds = append(bounds, hi)

	total := 0.0
	for i := 1; i < len(bounds); i++ {
		total += quad.Fixed(f, bounds[i-1], bounds[i], legendrePoints, quad.Legendre{}, 0)
	}
	return total
}
