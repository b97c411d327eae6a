package tables

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var (
	gridSizeLine = regexp.MustCompile(`NUSR\s*=\s*(\d+)`)
	ceHeaderLine = regexp.MustCompile(`^\s*(\d+)\s+\d+\s+(\d+)\s+\d+\s+(\S+)`)
)

// CollisionPoint is one row of a collision strength block.
type CollisionPoint struct {
	Energy       float64 `json:"energy_ev"`
	Strength     float64 `json:"collision_strength"`
	CrossSection float64 `json:"cross_section"`
}

// CollisionStrengths is the electron-impact excitation data of one
// transition.
type CollisionStrengths struct {
	Lower            int              `json:"lower"`
	Upper            int              `json:"upper"`
	TransitionEnergy float64          `json:"transition_energy_ev"`
	Points           []CollisionPoint `json:"points"`
}

// Energies returns the collision energies of every point.
func (c CollisionStrengths) Energies() []float64 {
	out := make([]float64, len(c.Points))
	for i, p := range c.Points {
		out[i] = p.Energy
	}
	return out
}

// ParseCollisionStrengths finds the block for lower -> upper in a printed
// excitation table. The block grid size comes from the last "NUSR = n"
// line before the transition header; the header is followed by one line
// that is skipped and then n rows of energy, strength and cross section.
func ParseCollisionStrengths(r io.Reader, lower, upper int) (CollisionStrengths, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	gridSize := 0
	found := false
	skip := 0
	result := CollisionStrengths{Lower: lower, Upper: upper}

	for scanner.Scan() {
		line := scanner.Text()
		if !found {
			if m := gridSizeLine.FindStringSubmatch(line); m != nil {
				gridSize, _ = strconv.Atoi(m[1])
				continue
			}
			m := ceHeaderLine.FindStringSubmatch(line)
			if m == nil || m[1] != strconv.Itoa(lower) || m[2] != strconv.Itoa(upper) {
				continue
			}
			energy, err := strconv.ParseFloat(m[3], 64)
			if err != nil {
				continue
			}
			result.TransitionEnergy = energy
			found = true
			skip = 1
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		if len(result.Points) >= gridSize {
			break
		}
		point, ok := parseCollisionRow(line)
		if !ok {
			return CollisionStrengths{}, parseFailure("excitation",
				fmt.Sprintf("transition %d -> %d: malformed row %q", lower, upper, strings.TrimSpace(line)))
		}
		result.Points = append(result.Points, point)
	}
	if err := scanner.Err(); err != nil {
		return CollisionStrengths{}, fmt.Errorf("read table: %w", err)
	}
	if !found {
		return CollisionStrengths{}, notFound(ErrTransitionNotFound, "collision strengths",
			fmt.Sprintf("no collision strengths for %d -> %d", lower, upper))
	}
	if gridSize == 0 || len(result.Points) < gridSize {
		return CollisionStrengths{}, parseFailure("excitation",
			fmt.Sprintf("transition %d -> %d: expected %d rows, read %d", lower, upper, gridSize, len(result.Points)))
	}
	return result, nil
}

// LoadCollisionStrengths parses the excitation table at path.
func LoadCollisionStrengths(path string, lower, upper int) (CollisionStrengths, error) {
	f, err := openTable(path)
	if err != nil {
		return CollisionStrengths{}, err
	}
	defer f.Close()
	return ParseCollisionStrengths(f, lower, upper)
}

func parseCollisionRow(line string) (CollisionPoint, bool) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return CollisionPoint{}, false
	}
	var values [3]float64
	for i := range values {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return CollisionPoint{}, false
		}
		values[i] = v
	}
	return CollisionPoint{Energy: values[0], Strength: values[1], CrossSection: values[2]}, true
}
