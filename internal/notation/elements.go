package notation

import "strings"

// elementSymbols is indexed by atomic number minus one.
var elementSymbols = strings.Fields(`
H He
Li Be B C N O F Ne
Na Mg Al Si P S Cl Ar
K Ca Sc Ti V Cr Mn Fe Co Ni Cu Zn Ga Ge As Se Br Kr
Rb Sr Y Zr Nb Mo Tc Ru Rh Pd Ag Cd In Sn Sb Te I Xe
Cs Ba La Ce Pr Nd Pm Sm Eu Gd Tb Dy Ho Er Tm Yb Lu Hf Ta W Re Os Ir Pt Au Hg Tl Pb Bi Po At Rn
Fr Ra Ac Th Pa U Np Pu Am Cm Bk Cf Es Fm Md No Lr Rf Db Sg Bh Hs Mt Ds Rg Cn Nh Fl Mc Lv Ts Og
`)

var atomicNumbers = func() map[string]int {
	m := make(map[string]int, len(elementSymbols))
	for i, symbol := range elementSymbols {
		m[symbol] = i + 1
	}
	return m
}()

// AtomicNumber returns Z for a normalised element symbol.
func AtomicNumber(symbol string) (int, bool) {
	z, ok := atomicNumbers[symbol]
	return z, ok
}

// ElementSymbol returns the symbol for Z.
func ElementSymbol(z int) (string, bool) {
	if z < 1 || z > len(elementSymbols) {
		return "", false
	}
	return elementSymbols[z-1], true
}
