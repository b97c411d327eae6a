// Package gain turns level populations into small-signal gain
// coefficients.
//
// Two models are available. The M-level model reads populations of the
// upper and lower laser levels from a Dataset produced by a grid run and is
// evaluated with a Calculator. The three-level model (ThreeLevel) needs no
// population run: it solves a base/lower/upper balance built from radiative
// rates and Maxwellian-averaged collision strengths. Both share the line
// broadening and Coefficient.
//
// Units are CGS with temperatures in eV.
package gain
