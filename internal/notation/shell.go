package notation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Spin is the direction of the coupled spin in a relativistic sub-shell.
type Spin int8

const (
	SpinDown Spin = -1
	SpinUp   Spin = 1
)

func (s Spin) String() string {
	if s == SpinDown {
		return "-"
	}
	return "+"
}

func parseSpin(value string) (Spin, bool) {
	switch value {
	case "+":
		return SpinUp, true
	case "-":
		return SpinDown, true
	default:
		return 0, false
	}
}

const orbitalLetters = "spdfghi"

var shellPattern = regexp.MustCompile(`^(\d+)([spdfghi])([+-])(\d+)\((\d+)\)$`)

// Shell is a relativistic sub-shell such as 3d+4(2): principal number 3,
// orbital d, spin up, four electrons and a sub-shell 2J of 2.
type Shell struct {
	n         int
	l         int
	spin      Spin
	j2        int
	electrons int
}

// NewShell validates the quantum numbers and returns the shell.
func NewShell(n, l int, spin Spin, j2, electrons int) (Shell, error) {
	s := Shell{n: n, l: l, spin: spin, j2: j2, electrons: electrons}
	if err := s.validate(); err != nil {
		return Shell{}, err
	}
	return s, nil
}

// ParseShell reads the canonical form, e.g. "2p+4(0)".
func ParseShell(value string) (Shell, error) {
	m := shellPattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return Shell{}, invalid("parse shell", "%q does not match <n><orbital><spin><count>(<2j>)", value)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Shell{}, invalid("parse shell", "principal number in %q: %v", value, err)
	}
	electrons, err := strconv.Atoi(m[4])
	if err != nil {
		return Shell{}, invalid("parse shell", "electron count in %q: %v", value, err)
	}
	j2, err := strconv.Atoi(m[5])
	if err != nil {
		return Shell{}, invalid("parse shell", "angular momentum in %q: %v", value, err)
	}
	spin, _ := parseSpin(m[3])
	return NewShell(n, strings.Index(orbitalLetters, m[2]), spin, j2, electrons)
}

func (s Shell) validate() error {
	switch {
	case s.n <= 0:
		return invalid("shell", "principal number must be positive in %s", s)
	case s.l < 0 || s.l >= len(orbitalLetters):
		return invalid("shell", "orbital number %d out of range", s.l)
	case s.l >= s.n:
		return invalid("shell", "orbital number must be smaller than principal number in %s", s)
	case s.spin != SpinUp && s.spin != SpinDown:
		return invalid("shell", "spin must be + or -")
	case s.electrons < 0 || s.electrons > s.MaxElectrons():
		return invalid("shell", "electron count must be at most %d in %s", s.MaxElectrons(), s)
	case s.j2 < 0 || s.j2 > s.MaxJ2():
		return invalid("shell", "angular momentum must be at most %d in %s", s.MaxJ2(), s)
	}
	return nil
}

func (s Shell) N() int          { return s.n }
func (s Shell) L() int          { return s.l }
func (s Shell) Spin() Spin      { return s.spin }
func (s Shell) J2() int         { return s.j2 }
func (s Shell) Electrons() int  { return s.electrons }
func (s Shell) Orbital() string { return orbitalLetters[s.l : s.l+1] }

// MaxElectrons is 2j+1 for the sub-shell, where 2j = 2l ± 1.
func (s Shell) MaxElectrons() int {
	return 2*s.l + int(s.spin) + 1
}

// MaxJ2 bounds the sub-shell angular momentum.
func (s Shell) MaxJ2() int {
	return 2*s.l + s.MaxElectrons()
}

// Full reports whether the sub-shell is closed.
func (s Shell) Full() bool {
	return s.electrons == s.MaxElectrons()
}

func (s Shell) String() string {
	orbital := "?"
	if s.l >= 0 && s.l < len(orbitalLetters) {
		orbital = s.Orbital()
	}
	return fmt.Sprintf("%d%s%s%d(%d)", s.n, orbital, s.spin, s.electrons, s.j2)
}

// LaTeX renders the shell as $[2p+]^4_0$.
func (s Shell) LaTeX() string {
	return fmt.Sprintf("$[%d%s%s]^%d_%d$", s.n, s.Orbital(), s.spin, s.electrons, s.j2)
}

func (s Shell) Equal(other Shell) bool { return s == other }

func (s Shell) Compare(other Shell) int { return strings.Compare(s.String(), other.String()) }
