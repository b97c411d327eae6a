package tables

import (
	"io"
	"regexp"
	"strconv"
)

var populationLine = regexp.MustCompile(`\s+(\d+)\s+\d+\s+\S+\s+(\S+)`)

// ParsePopulations reads a printed spectral table into level index to
// population. Later rows for the same index overwrite earlier ones.
func ParsePopulations(r io.Reader) (map[int]float64, error) {
	populations := make(map[int]float64)
	_, err := scanMatches(r, populationLine, func(m []string) bool {
		index, err := strconv.Atoi(m[1])
		if err != nil {
			return false
		}
		value, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return false
		}
		populations[index] = value
		return true
	})
	if err != nil {
		return nil, err
	}
	if len(populations) == 0 {
		return nil, parseFailure("populations", "no populations parsed")
	}
	return populations, nil
}

// LoadPopulations parses the population table at path.
func LoadPopulations(path string) (map[int]float64, error) {
	f, err := openTable(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParsePopulations(f)
}
