package tables

import (
	"fmt"
	"io"
	"regexp"
	"strconv"

	"gaincalc/internal/notation"
)

// Printed transition rows: upper, 2J, lower, 2J, energy, gf, rate.
var transitionLine = regexp.MustCompile(`\s*(\d+)\s+\d+\s+(\d+)\s+\d+\s+(\S+)\s+(\S+)(?:\s+(\S+))?`)

// Transition is one radiative transition record.
type Transition struct {
	Lower    int     `json:"lower"`
	Upper    int     `json:"upper"`
	Strength float64 `json:"gf"`
	Energy   float64 `json:"energy_ev"`
	Rate     float64 `json:"rate,omitempty"`
	HasRate  bool    `json:"-"`
}

// TransitionTable holds transitions in file order.
type TransitionTable struct {
	records []Transition
}

// NewTransitionTable wraps already parsed records.
func NewTransitionTable(records []Transition) TransitionTable {
	return TransitionTable{records: append([]Transition(nil), records...)}
}

// ParseTransitions reads a printed transition table.
func ParseTransitions(r io.Reader) (TransitionTable, error) {
	var records []Transition
	_, err := scanMatches(r, transitionLine, func(m []string) bool {
		upper, err1 := strconv.Atoi(m[1])
		lower, err2 := strconv.Atoi(m[2])
		energy, err3 := strconv.ParseFloat(m[3], 64)
		strength, err4 := strconv.ParseFloat(m[4], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			return false
		}
		rec := Transition{Lower: lower, Upper: upper, Strength: strength, Energy: energy}
		if m[5] != "" {
			if rate, err := strconv.ParseFloat(m[5], 64); err == nil {
				rec.Rate = rate
				rec.HasRate = true
			}
		}
		records = append(records, rec)
		return true
	})
	if err != nil {
		return TransitionTable{}, err
	}
	if len(records) == 0 {
		return TransitionTable{}, parseFailure("transitions", "no transitions parsed")
	}
	return TransitionTable{records: records}, nil
}

// LoadTransitions parses the transition table at path.
func LoadTransitions(path string) (TransitionTable, error) {
	f, err := openTable(path)
	if err != nil {
		return TransitionTable{}, err
	}
	defer f.Close()
	return ParseTransitions(f)
}

// All returns a copy of the records.
func (t TransitionTable) All() []Transition {
	return append([]Transition(nil), t.records...)
}

func (t TransitionTable) Len() int { return len(t.records) }

// Find returns the first record for the index pair.
func (t TransitionTable) Find(lower, upper int) (Transition, error) {
	for _, rec := range t.records {
		if rec.Lower == lower && rec.Upper == upper {
			return rec, nil
		}
	}
	return Transition{}, notFound(ErrTransitionNotFound, "find transition", fmt.Sprintf("no transition %d -> %d", lower, upper))
}

// Between resolves both levels through index and returns their record.
func (t TransitionTable) Between(index LevelIndex, lower, upper notation.EnergyLevel) (Transition, error) {
	lowerIdx, err := index.Lookup(lower)
	if err != nil {
		return Transition{}, err
	}
	upperIdx, err := index.Lookup(upper)
	if err != nil {
		return Transition{}, err
	}
	return t.Find(lowerIdx, upperIdx)
}

// OscillatorStrength returns the weighted oscillator strength gf of the
// lower to upper transition.
func (t TransitionTable) OscillatorStrength(index LevelIndex, lower, upper notation.EnergyLevel) (float64, error) {
	rec, err := t.Between(index, lower, upper)
	if err != nil {
		return 0, err
	}
	return rec.Strength, nil
}
