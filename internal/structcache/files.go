package structcache

import "path/filepath"

const (
	binaryBaseName  = "fac_binary_temp"
	levelsText      = "levels.txt"
	transitionsText = "transitions.txt"
	excitationText  = "excitation.txt"
)

// Files locates the solver outputs of one cache entry.
type Files struct {
	Dir               string `json:"dir"`
	BinaryBase        string `json:"binary_base"`
	Hamiltonian       string `json:"hamiltonian"`
	LevelsBinary      string `json:"levels_binary"`
	TransitionsBinary string `json:"transitions_binary"`
	ExcitationBinary  string `json:"excitation_binary"`
	Levels            string `json:"levels"`
	Transitions       string `json:"transitions"`
	Excitation        string `json:"excitation"`
}

// NewFiles returns the bundle rooted at dir.
func NewFiles(dir string) Files {
	base := filepath.Join(dir, binaryBaseName)
	return Files{
		Dir:               dir,
		BinaryBase:        base,
		Hamiltonian:       base + ".ham",
		LevelsBinary:      base + ".en",
		TransitionsBinary: base + ".tr",
		ExcitationBinary:  base + ".ce",
		Levels:            filepath.Join(dir, levelsText),
		Transitions:       filepath.Join(dir, transitionsText),
		Excitation:        filepath.Join(dir, excitationText),
	}
}

// textTables lists the printed tables checksummed by the manifest.
func (f Files) textTables() []string {
	return []string{f.Levels, f.Transitions, f.Excitation}
}
