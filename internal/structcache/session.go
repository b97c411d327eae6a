package structcache

import (
	"path/filepath"

	"gaincalc/internal/fac"
	"gaincalc/internal/notation"
)

// StructureSession builds the sfac script that produces every table of a
// cache entry. File names are relative to the working directory.
func StructureSession(atom notation.Atom) *fac.Session {
	files := NewFiles("")
	en := filepath.Base(files.LevelsBinary)
	ham := filepath.Base(files.Hamiltonian)
	tr := filepath.Base(files.TransitionsBinary)
	ce := filepath.Base(files.ExcitationBinary)

	groups := atom.Groups()
	session := fac.NewStructureSession().SetAtom(atom.Symbol())
	for _, g := range groups.All() {
		session.Config(g.Config(), g.Name())
	}
	session.
		ConfigEnergy(0).
		OptimizeRadial([]string{notation.BaseGroupName}).
		ConfigEnergy(1).
		Structure(en, ham, groups.Names()).
		MemENTable(en).
		PrintTable(en, levelsText, 1)

	pairs := groups.Pairs()
	for _, p := range pairs {
		session.TransitionTable(tr, []string{p.Lower.Name()}, []string{p.Upper.Name()})
	}
	session.PrintTable(tr, transitionsText, 1)
	for _, p := range pairs {
		session.CETable(ce, []string{p.Lower.Name()}, []string{p.Upper.Name()})
	}
	session.PrintTable(ce, excitationText, 1)
	return session
}
