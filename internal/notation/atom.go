package notation

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var symbolCaser = cases.Title(language.Und)

// Atom is an element with the configuration groups used to describe the ion,
// and the directory that holds its structure cache entries.
type Atom struct {
	symbol    string
	protons   int
	groups    ConfigGroups
	cacheRoot string
}

// NewAtom normalises symbol ("fe", "FE" become "Fe") and validates it
// against the periodic table.
func NewAtom(symbol string, groups ConfigGroups, cacheRoot string) (Atom, error) {
	normalised := NormaliseSymbol(symbol)
	z, ok := AtomicNumber(normalised)
	if !ok {
		return Atom{}, invalid("atom", "unknown element symbol %q", symbol)
	}
	if len(groups.groups) == 0 {
		return Atom{}, invalid("atom", "%s has no configuration groups", normalised)
	}
	electrons := groups.Base().ElectronCount()
	if electrons > z {
		return Atom{}, invalid("atom", "%s has %d protons but the base configuration holds %d electrons", normalised, z, electrons)
	}
	return Atom{symbol: normalised, protons: z, groups: groups, cacheRoot: cacheRoot}, nil
}

// NormaliseSymbol trims and title-cases an element symbol.
func NormaliseSymbol(symbol string) string {
	return symbolCaser.String(strings.ToLower(strings.TrimSpace(symbol)))
}

func (a Atom) Symbol() string       { return a.symbol }
func (a Atom) Protons() int         { return a.protons }
func (a Atom) Groups() ConfigGroups { return a.groups }
func (a Atom) CacheRoot() string    { return a.cacheRoot }
func (a Atom) ElectronCount() int   { return a.groups.Base().ElectronCount() }
func (a Atom) BaseConfig() string   { return a.groups.Base().Config() }
func (a Atom) MaxN() int            { return a.groups.MaxN() }
func (a Atom) IonizationStage() int { return a.protons - a.ElectronCount() }

func (a Atom) String() string {
	return a.symbol + " " + a.BaseConfig()
}

// CacheKey names the structure cache entry for this atom.
func (a Atom) CacheKey() string {
	return a.String() + " up to n=" + strconv.Itoa(a.MaxN())
}
