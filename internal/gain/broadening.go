package gain

import "math"

// DopplerWidth is the thermal Doppler width in Hz of a line of energyEV
// emitted by ions at ionTemperature eV.
func DopplerWidth(energyEV, ionTemperature float64) float64 {
	nu := energyEV * ergPerEV / Planck
	return nu * math.Sqrt(2*Boltzmann*ionTemperature/(AtomicMass*SpeedOfLight*SpeedOfLight))
}

// DopplerFWHM scales DopplerWidth to the full width at half maximum.
func DopplerFWHM(energyEV, ionTemperature float64) float64 {
	return dopplerFWHMFactor * DopplerWidth(energyEV, ionTemperature)
}

// LorentzWidth is the collisional width for electron temperature t (eV)
// and electron density ne (cm^-3).
func LorentzWidth(t, ne float64) float64 {
	return lorentzCoefficient * ne * ne / math.Sqrt(t)
}

// IonDensity converts electron density to the density of the lasing ion.
func IonDensity(ne, ionization, fraction float64) float64 {
	return ne / ionization * fraction
}

// Coefficient is the small-signal gain coefficient in cm^-1.
func Coefficient(inversion, ionDensity, doppler, lorentz, gf float64) float64 {
	deltaN := inversion * ionDensity
	profile := 1 / (doppler + lorentz)
	return ElectronCharge * ElectronCharge / (4 * SpeedOfLight * vacuumPermittivity * ElectronMass) * gf * deltaN * profile
}
