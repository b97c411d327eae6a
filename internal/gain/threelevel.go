package gain

// Degeneracies are the statistical weights 2J+1 of the three model levels.
type Degeneracies struct {
	Base  int `json:"base"`
	Lower int `json:"lower"`
	Upper int `json:"upper"`
}

func (d Degeneracies) validate() error {
	if d.Base <= 0 || d.Lower <= 0 || d.Upper <= 0 {
		return invalid("degeneracies", "degeneracies must be positive, got %+v", d)
	}
	return nil
}

// LevelPopulations are three-level populations normalised to one.
type LevelPopulations struct {
	Base  float64 `json:"base"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// RelativePopulations solves the steady state of the three-level model at
// electron density ne, holding the base level at one before normalising.
func RelativePopulations(r Rates, ne float64) LevelPopulations {
	n1 := 1.0
	n3 := r.C13 * ne / (r.A32 + r.C31*ne + r.C32*ne)
	n2 := (r.C12*ne + n3*(r.A32+r.C32*ne)) / r.A21
	total := n1 + n2 + n3
	return LevelPopulations{Base: n1 / total, Lower: n2 / total, Upper: n3 / total}
}

// RelativeInversion recalculates c at temperature t and returns the
// degeneracy-weighted inversion n3/g3 - n2/g2.
func RelativeInversion(c *Coefficients, ne, t float64, g Degeneracies) (float64, error) {
	if err := g.validate(); err != nil {
		return 0, err
	}
	if err := c.Recalculate(t, g.Base, g.Upper); err != nil {
		return 0, err
	}
	rates, err := c.Rates()
	if err != nil {
		return 0, err
	}
	pops := RelativePopulations(rates, ne)
	return pops.Upper/float64(g.Upper) - pops.Lower/float64(g.Lower), nil
}

// ThreeLevel computes inversion and gain from collision strengths alone,
// without a population solver run.
type ThreeLevel struct {
	Coefficients *Coefficients
	Degeneracies Degeneracies
	Abundance    Abundance
	Electrons    int
	Protons      int
}

// Inversion is RelativeInversion for the model's coefficients.
func (m *ThreeLevel) Inversion(ne, t float64) (float64, error) {
	return RelativeInversion(m.Coefficients, ne, t, m.Degeneracies)
}

// Gain returns the gain coefficient of the lower to upper line.
func (m *ThreeLevel) Gain(in GainInput) (float64, error) {
	if err := in.validate(); err != nil {
		return 0, err
	}
	inversion, err := m.Inversion(in.ElectronDensity, in.Temperature)
	if err != nil {
		return 0, err
	}
	fraction, err := fraction(m.Abundance, in.Temperature, m.Electrons, m.Protons)
	if err != nil {
		return 0, err
	}
	return Coefficient(
		inversion,
		IonDensity(in.ElectronDensity, in.Ionization, fraction),
		DopplerFWHM(m.Coefficients.TransitionEnergy, in.ionTemperature()),
		LorentzWidth(in.Temperature, in.ElectronDensity),
		m.Coefficients.GF,
	), nil
}
