package study

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"gaincalc/internal/gain"
	"gaincalc/internal/grid"
	"gaincalc/internal/notation"
	"gaincalc/internal/services"
)

type fileRoot struct {
	Atom       atomBlock       `hcl:"atom,block"`
	Transition transitionBlock `hcl:"transition,block"`
	Grid       gridBlock       `hcl:"grid,block"`
	Plasma     *plasmaBlock    `hcl:"plasma,block"`
	Output     *outputBlock    `hcl:"output,block"`
}

type atomBlock struct {
	Symbol    string  `hcl:"symbol,label"`
	Base      string  `hcl:"base"`
	MaxN      int     `hcl:"max_n"`
	CacheRoot *string `hcl:"cache_root,optional"`
}

type transitionBlock struct {
	Lower string  `hcl:"lower"`
	Upper string  `hcl:"upper"`
	Base  *string `hcl:"base,optional"`
}

type gridBlock struct {
	Temperatures    []float64 `hcl:"temperatures"`
	Densities       []float64 `hcl:"densities"`
	Combine         *string   `hcl:"combine,optional"`
	PopulationTotal *float64  `hcl:"population_total,optional"`
	Workers         *int      `hcl:"workers,optional"`
}

type plasmaBlock struct {
	Ionization     float64  `hcl:"ionization"`
	IonTemperature *float64 `hcl:"ion_temperature,optional"`
	Abundance      *float64 `hcl:"abundance,optional"`
	AbundanceTable *string  `hcl:"abundance_table,optional"`
}

type outputBlock struct {
	Name string `hcl:"name"`
}

// Plasma holds the parameters needed to turn populations into gain.
type Plasma struct {
	Ionization float64
	// IonTemperature is zero when ions share the electron temperature.
	IonTemperature float64
	Abundance      gain.Abundance
}

// Study is a validated job description.
type Study struct {
	Path  string
	Name  string
	Atom  notation.Atom
	Lower notation.EnergyLevel
	Upper notation.EnergyLevel
	// Base is set when the study also names the ground level for the
	// three-level model.
	Base notation.EnergyLevel

	Temperatures    []float64
	Densities       []float64
	Combine         grid.Combine
	PopulationTotal float64
	// Workers overrides the configured worker count when positive.
	Workers int

	Plasma *Plasma
}

// Points is the number of grid points the study evaluates.
func (s *Study) Points() int {
	if s.Combine == grid.Zip {
		return len(s.Temperatures)
	}
	return len(s.Temperatures) * len(s.Densities)
}

// Load parses and validates the study file at path. Relative paths inside
// the file resolve against its directory.
func Load(path string) (*Study, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "study", "load", path, err)
	}
	return Parse(src, path)
}

// Parse decodes study source; filename is used for diagnostics and to
// resolve relative paths.
func Parse(src []byte, filename string) (*Study, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diagnosticsError("parse", filename, diags)
	}
	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &root); diags.HasErrors() {
		return nil, diagnosticsError("decode", filename, diags)
	}
	return build(root, filename)
}

func diagnosticsError(operation, filename string, diags hcl.Diagnostics) error {
	return services.Wrap(services.ErrValidation, "study", operation, filename, diags)
}

func invalid(filename, format string, args ...any) error {
	return services.Wrap(services.ErrValidation, "study", "validate", filename+": "+fmt.Sprintf(format, args...), nil)
}

func build(root fileRoot, filename string) (*Study, error) {
	dir := filepath.Dir(filename)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}

	groups, err := notation.NewConfigGroups(root.Atom.Base, root.Atom.MaxN)
	if err != nil {
		return nil, err
	}
	cacheRoot := ""
	if root.Atom.CacheRoot != nil {
		cacheRoot = resolve(*root.Atom.CacheRoot)
	}
	atom, err := notation.NewAtom(root.Atom.Symbol, groups, cacheRoot)
	if err != nil {
		return nil, err
	}

	s := &Study{
		Path:            filename,
		Atom:            atom,
		Temperatures:    root.Grid.Temperatures,
		Densities:       root.Grid.Densities,
		PopulationTotal: 1.0,
	}
	if s.Lower, err = notation.ParseEnergyLevel(root.Transition.Lower); err != nil {
		return nil, err
	}
	if s.Upper, err = notation.ParseEnergyLevel(root.Transition.Upper); err != nil {
		return nil, err
	}
	if s.Lower.Equal(s.Upper) {
		return nil, invalid(filename, "lower and upper levels are the same")
	}
	if root.Transition.Base != nil {
		if s.Base, err = notation.ParseEnergyLevel(*root.Transition.Base); err != nil {
			return nil, err
		}
	}

	if root.Grid.Combine != nil {
		if s.Combine, err = grid.ParseCombine(*root.Grid.Combine); err != nil {
			return nil, err
		}
	}
	if root.Grid.PopulationTotal != nil {
		s.PopulationTotal = *root.Grid.PopulationTotal
	}
	if root.Grid.Workers != nil {
		s.Workers = *root.Grid.Workers
	}
	if err := s.validateGrid(filename); err != nil {
		return nil, err
	}

	if root.Plasma != nil {
		plasma, err := buildPlasma(*root.Plasma, resolve, filename)
		if err != nil {
			return nil, err
		}
		s.Plasma = plasma
	}

	if root.Output != nil && strings.TrimSpace(root.Output.Name) != "" {
		s.Name = strings.TrimSpace(root.Output.Name)
	} else {
		stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
		s.Name = atom.Symbol() + "_" + stem
	}
	return s, nil
}

func (s *Study) validateGrid(filename string) error {
	switch {
	case len(s.Temperatures) == 0:
		return invalid(filename, "grid.temperatures is empty")
	case len(s.Densities) == 0:
		return invalid(filename, "grid.densities is empty")
	case s.PopulationTotal <= 0:
		return invalid(filename, "grid.population_total must be positive")
	case s.Workers < 0:
		return invalid(filename, "grid.workers must not be negative")
	}
	for _, t := range s.Temperatures {
		if t <= 0 {
			return invalid(filename, "temperature %g must be positive", t)
		}
	}
	for _, d := range s.Densities {
		if d < 0 {
			return invalid(filename, "density %g must not be negative", d)
		}
	}
	if _, err := grid.Points(s.Temperatures, s.Densities, s.Combine); err != nil {
		return err
	}
	return nil
}

func buildPlasma(block plasmaBlock, resolve func(string) string, filename string) (*Plasma, error) {
	if block.Ionization <= 0 {
		return nil, invalid(filename, "plasma.ionization must be positive")
	}
	p := &Plasma{Ionization: block.Ionization}
	if block.IonTemperature != nil {
		if *block.IonTemperature < 0 {
			return nil, invalid(filename, "plasma.ion_temperature must not be negative")
		}
		p.IonTemperature = *block.IonTemperature
	}
	switch {
	case block.Abundance != nil && block.AbundanceTable != nil:
		return nil, invalid(filename, "set either plasma.abundance or plasma.abundance_table, not both")
	case block.AbundanceTable != nil:
		table, err := gain.LoadAbundanceTable(resolve(*block.AbundanceTable))
		if err != nil {
			return nil, err
		}
		p.Abundance = table
	case block.Abundance != nil:
		if *block.Abundance < 0 || *block.Abundance > 1 {
			return nil, invalid(filename, "plasma.abundance must be within [0, 1]")
		}
		p.Abundance = gain.ConstantAbundance(*block.Abundance)
	default:
		p.Abundance = gain.ConstantAbundance(1)
	}
	return p, nil
}
