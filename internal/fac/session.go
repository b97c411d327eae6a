package fac

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind selects the solver program a session is written for.
type Kind int

const (
	// Structure sessions run under sfac.
	Structure Kind = iota
	// CRM sessions run under scrm.
	CRM
)

func (k Kind) String() string {
	if k == CRM {
		return "crm"
	}
	return "structure"
}

// Kwarg is a keyword argument rendered as name=value.
type Kwarg struct {
	Name  string
	Value any
}

// Call is one recorded solver statement.
type Call struct {
	Name   string
	Args   []any
	Kwargs []Kwarg
}

// String renders the call in solver script syntax.
func (c Call) String() string {
	parts := make([]string, 0, len(c.Args)+len(c.Kwargs))
	for _, arg := range c.Args {
		parts = append(parts, formatArg(arg))
	}
	for _, kw := range c.Kwargs {
		parts = append(parts, kw.Name+"="+formatArg(kw.Value))
	}
	return c.Name + "(" + strings.Join(parts, ", ") + ")"
}

// Session records solver calls in order. The solver keeps global state
// between statements, so every session opens with a reset call and is
// executed as one script by one process.
type Session struct {
	kind  Kind
	calls []Call
}

// NewStructureSession starts an sfac script with Reinit(0).
func NewStructureSession() *Session {
	s := &Session{kind: Structure}
	return s.add("Reinit", 0)
}

// NewCRMSession starts an scrm script with ReinitCRM().
func NewCRMSession() *Session {
	s := &Session{kind: CRM}
	return s.add("ReinitCRM")
}

func (s *Session) Kind() Kind { return s.kind }

// Calls returns a copy of the recorded calls.
func (s *Session) Calls() []Call {
	return append([]Call(nil), s.calls...)
}

// Script renders the whole session, one statement per line.
func (s *Session) Script() string {
	var b strings.Builder
	for _, call := range s.calls {
		b.WriteString(call.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func (s *Session) add(name string, args ...any) *Session {
	s.calls = append(s.calls, Call{Name: name, Args: args})
	return s
}

func (s *Session) SetAtom(symbol string) *Session { return s.add("SetAtom", symbol) }

// Config declares a configuration group.
func (s *Session) Config(config, group string) *Session {
	s.calls = append(s.calls, Call{
		Name:   "Config",
		Args:   []any{config},
		Kwargs: []Kwarg{{Name: "group", Value: group}},
	})
	return s
}

func (s *Session) ConfigEnergy(mode int) *Session { return s.add("ConfigEnergy", mode) }

func (s *Session) OptimizeRadial(groups []string) *Session {
	return s.add("OptimizeRadial", groups)
}

func (s *Session) Structure(levels, hamiltonian string, groups []string) *Session {
	return s.add("Structure", levels, hamiltonian, groups)
}

func (s *Session) MemENTable(levels string) *Session { return s.add("MemENTable", levels) }

// PrintTable converts a binary table to text. v is the verbosity flag and
// is omitted when negative.
func (s *Session) PrintTable(binary, text string, v int) *Session {
	if v < 0 {
		return s.add("PrintTable", binary, text)
	}
	return s.add("PrintTable", binary, text, v)
}

func (s *Session) TransitionTable(file string, lower, upper []string) *Session {
	return s.add("TransitionTable", file, lower, upper)
}

func (s *Session) CETable(file string, lower, upper []string) *Session {
	return s.add("CETable", file, lower, upper)
}

func (s *Session) NormalizeMode(mode int) *Session { return s.add("NormalizeMode", mode) }

func (s *Session) AddIon(electrons int, density float64, base string) *Session {
	return s.add("AddIon", electrons, density, base)
}

func (s *Session) SetBlocks(density float64) *Session { return s.add("SetBlocks", density) }

func (s *Session) SetAbund(electrons int, abundance float64) *Session {
	return s.add("SetAbund", electrons, abundance)
}

// SetEleDensity takes the density in units of 1e10 cm^-3.
func (s *Session) SetEleDensity(density float64) *Session {
	return s.add("SetEleDensity", density)
}

func (s *Session) SetEleDist(mode int, temperature, p1, p2 float64) *Session {
	return s.add("SetEleDist", mode, temperature, p1, p2)
}

func (s *Session) SetTRRates(mode int) *Session { return s.add("SetTRRates", mode) }
func (s *Session) SetCERates(mode int) *Session { return s.add("SetCERates", mode) }
func (s *Session) InitBlocks() *Session         { return s.add("InitBlocks") }
func (s *Session) LevelPopulation() *Session    { return s.add("LevelPopulation") }

func (s *Session) SetIteration(tolerance, stabilizer float64, maxIterations int) *Session {
	return s.add("SetIteration", tolerance, stabilizer, maxIterations)
}

func (s *Session) SpecTable(file string, rrc int) *Session { return s.add("SpecTable", file, rrc) }

func formatArg(v any) string {
	switch value := v.(type) {
	case string:
		return quote(value)
	case []string:
		quoted := make([]string, len(value))
		for i, item := range value {
			quoted[i] = quote(item)
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	case int:
		return strconv.Itoa(value)
	case float64:
		return formatFloat(value)
	case bool:
		if value {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprint(value)
	}
}

// formatFloat always yields a literal the solver parses as a float.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "") + "'"
}
