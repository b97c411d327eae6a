package notation

import (
	"strconv"
	"strings"
)

// LevelTerm is a shell plus the cumulative 2J after coupling it,
// e.g. 2p+3(3)3.
type LevelTerm struct {
	shell Shell
	j2    int
}

// NewLevelTerm pairs a shell with a non-negative cumulative 2J.
func NewLevelTerm(shell Shell, j2 int) (LevelTerm, error) {
	if j2 < 0 {
		return LevelTerm{}, invalid("level term", "total angular momentum in %s%d is negative", shell, j2)
	}
	return LevelTerm{shell: shell, j2: j2}, nil
}

func parseLevelTerm(token string) (LevelTerm, error) {
	closing := strings.LastIndex(token, ")")
	if closing < 0 || closing == len(token)-1 {
		return LevelTerm{}, invalid("parse level", "term %q has no total angular momentum", token)
	}
	shell, err := ParseShell(token[:closing+1])
	if err != nil {
		return LevelTerm{}, err
	}
	j2, err := strconv.Atoi(token[closing+1:])
	if err != nil {
		return LevelTerm{}, invalid("parse level", "term %q: total angular momentum is not an integer", token)
	}
	return NewLevelTerm(shell, j2)
}

func (t LevelTerm) Shell() Shell { return t.shell }
func (t LevelTerm) J2() int      { return t.j2 }

func (t LevelTerm) String() string {
	return t.shell.String() + strconv.Itoa(t.j2)
}

func (t LevelTerm) Equal(other LevelTerm) bool { return t == other }

func (t LevelTerm) Compare(other LevelTerm) int { return strings.Compare(t.String(), other.String()) }

// EnergyLevel is an ordered list of coupled terms describing one level,
// e.g. "1s+2(0)0 2s+2(0)0 2p-2(0)0 2p+3(3)3 3s+1(1)4".
type EnergyLevel struct {
	terms []LevelTerm
}

// ParseEnergyLevel splits value on whitespace and parses every term.
func ParseEnergyLevel(value string) (EnergyLevel, error) {
	tokens := strings.Fields(value)
	if len(tokens) == 0 {
		return EnergyLevel{}, invalid("parse level", "empty energy level")
	}
	terms := make([]LevelTerm, 0, len(tokens))
	for _, token := range tokens {
		term, err := parseLevelTerm(token)
		if err != nil {
			return EnergyLevel{}, err
		}
		terms = append(terms, term)
	}
	return EnergyLevel{terms: terms}, nil
}

// MustParseEnergyLevel is ParseEnergyLevel for literals known to be valid.
func MustParseEnergyLevel(value string) EnergyLevel {
	level, err := ParseEnergyLevel(value)
	if err != nil {
		panic(err)
	}
	return level
}

// Terms returns a copy of the level terms.
func (e EnergyLevel) Terms() []LevelTerm {
	return append([]LevelTerm(nil), e.terms...)
}

// IsZero reports whether the level has no terms.
func (e EnergyLevel) IsZero() bool { return len(e.terms) == 0 }

// Degeneracy is 2J+1 of the final coupling.
func (e EnergyLevel) Degeneracy() int {
	if len(e.terms) == 0 {
		return 0
	}
	return e.terms[len(e.terms)-1].j2 + 1
}

func (e EnergyLevel) String() string {
	parts := make([]string, len(e.terms))
	for i, term := range e.terms {
		parts[i] = term.String()
	}
	return strings.Join(parts, " ")
}

// SolverForm is the level name printed by the structure solver: the open
// shells joined with ".", or the last term when every shell is closed.
func (e EnergyLevel) SolverForm() string {
	if len(e.terms) == 0 {
		return ""
	}
	open := make([]string, 0, len(e.terms))
	for _, term := range e.terms {
		if !term.shell.Full() {
			open = append(open, term.String())
		}
	}
	if len(open) == 0 {
		return e.terms[len(e.terms)-1].String()
	}
	return strings.Join(open, ".")
}

func (e EnergyLevel) Equal(other EnergyLevel) bool { return e.String() == other.String() }

func (e EnergyLevel) Compare(other EnergyLevel) int {
	return strings.Compare(e.String(), other.String())
}

// MarshalText encodes the level in full notation.
func (e EnergyLevel) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText parses full notation.
func (e *EnergyLevel) UnmarshalText(text []byte) error {
	level, err := ParseEnergyLevel(string(text))
	if err != nil {
		return err
	}
	*e = level
	return nil
}
