package testsupport

import (
	"context"
	"testing"

	"gaincalc/internal/config"
	"gaincalc/internal/gain"
	"gaincalc/internal/results"
)

// MustOpenStore opens a results.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *results.Store {
	t.Helper()

	store, err := results.Open(cfg)
	if err != nil {
		t.Fatalf("results.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewDataset builds a small fixture dataset over the given axes using the
// fixture population fractions.
func NewDataset(temperatures, densities []float64) gain.Dataset {
	var upper, lower gain.Series
	for _, temp := range temperatures {
		pops := PopulationFractions(1, temp)
		for _, dens := range densities {
			upper.Temperature = append(upper.Temperature, temp)
			upper.ElectronDensity = append(upper.ElectronDensity, dens)
			upper.Population = append(upper.Population, pops[UpperIndex])
			lower.Temperature = append(lower.Temperature, temp)
			lower.ElectronDensity = append(lower.ElectronDensity, dens)
			lower.Population = append(lower.Population, pops[LowerIndex])
		}
	}
	return gain.Dataset{
		Upper:              upper,
		Lower:              lower,
		OscillatorStrength: LaserGF,
		TransitionEnergy:   LaserEnergy,
		Temperatures:       append([]float64(nil), temperatures...),
		Densities:          append([]float64(nil), densities...),
		Provenance: gain.Provenance{
			Atom:            "Fe 1*2 2*8",
			Symbol:          "Fe",
			Protons:         26,
			Electrons:       10,
			CacheKey:        "Fe 1*2 2*8 up to n=3",
			LowerLevel:      LowerLevel,
			UpperLevel:      UpperLevel,
			Combine:         "product",
			PopulationTotal: 1,
		},
	}
}

// SaveDataset stores a fixture dataset under name and returns its record.
func SaveDataset(t testing.TB, store *results.Store, name string, dataset gain.Dataset) results.Record {
	t.Helper()

	rec := results.Record{Summary: results.Summary{Name: name}, Dataset: dataset}
	if err := store.Save(context.Background(), &rec); err != nil {
		t.Fatalf("store.Save: %v", err)
	}
	return rec
}
