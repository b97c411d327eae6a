package tables

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
)

// scanMatches calls fn with the submatches of every line that matches
// pattern anywhere in the line. fn reports whether the match was usable.
func scanMatches(r io.Reader, pattern *regexp.Regexp, fn func(m []string) bool) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	accepted := 0
	for scanner.Scan() {
		m := pattern.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		if fn(m) {
			accepted++
		}
	}
	if err := scanner.Err(); err != nil {
		return accepted, fmt.Errorf("read table: %w", err)
	}
	return accepted, nil
}

func openTable(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table %s: %w", path, err)
	}
	return f, nil
}
