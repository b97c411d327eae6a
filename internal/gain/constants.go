package gain

import "math"

// Physical constants in CGS units with temperatures in eV.
const (
	SpeedOfLight   = 2.99792458e10   // cm/s
	Planck         = 6.626068760e-27 // erg s
	ElectronCharge = 4.8032068e-10   // statC
	ElectronMass   = 9.1093897e-28   // g
	Boltzmann      = 1.602115e-12    // erg/eV
	AtomicMass     = 1.6605e-24      // g

	ergPerEV           = 1.6021773e-12
	lorentzCoefficient = 4.6746988e-29
	dopplerFWHMFactor  = 0.6
	collisionRateScale = 8.010e-8
)

// vacuumPermittivity is epsilon_0 in Gaussian units.
var vacuumPermittivity = 1 / (4 * math.Pi)

func pow10(x float64) float64 { return math.Pow(10, x) }
