package tables

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"

	"gaincalc/internal/notation"
)

var levelLine = regexp.MustCompile(`\s+(\d+)\s+\S+\s+\S+\s+\d+\s+\d+\s+\d+\s+\S+\s+\S+\s+(\S+)`)

// LevelIndex maps solver-form level names to level indices.
type LevelIndex struct {
	byName map[string]int
}

// ParseLevels reads a printed energy table. Duplicate names keep the last
// index seen.
func ParseLevels(r io.Reader) (LevelIndex, error) {
	byName := make(map[string]int)
	_, err := scanMatches(r, levelLine, func(m []string) bool {
		index, err := strconv.Atoi(m[1])
		if err != nil {
			return false
		}
		byName[m[2]] = index
		return true
	})
	if err != nil {
		return LevelIndex{}, err
	}
	if len(byName) == 0 {
		return LevelIndex{}, parseFailure("levels", "no levels parsed")
	}
	return LevelIndex{byName: byName}, nil
}

// LoadLevels parses the level table at path.
func LoadLevels(path string) (LevelIndex, error) {
	f, err := openTable(path)
	if err != nil {
		return LevelIndex{}, err
	}
	defer f.Close()
	return ParseLevels(f)
}

// Lookup returns the index of level by its solver form.
func (l LevelIndex) Lookup(level notation.EnergyLevel) (int, error) {
	name := level.SolverForm()
	if index, ok := l.byName[name]; ok {
		return index, nil
	}
	return 0, notFound(ErrLevelNotFound, "lookup level",
		fmt.Sprintf("%q (%s) is not in the level table; the principal number threshold may be too low", level.String(), name))
}

// Index returns the index stored for a solver-form name.
func (l LevelIndex) Index(name string) (int, bool) {
	index, ok := l.byName[name]
	return index, ok
}

func (l LevelIndex) Len() int { return len(l.byName) }

// LevelEntry is one row of the level index.
type LevelEntry struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// Entries returns every level ordered by index.
func (l LevelIndex) Entries() []LevelEntry {
	entries := make([]LevelEntry, 0, len(l.byName))
	for name, index := range l.byName {
		entries = append(entries, LevelEntry{Index: index, Name: name})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Index != entries[j].Index {
			return entries[i].Index < entries[j].Index
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}
