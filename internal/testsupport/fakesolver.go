package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"gaincalc/internal/fac"
)

var (
	printTableCall = regexp.MustCompile(`^PrintTable\('([^']+)', '([^']+)'`)
	structureCall  = regexp.MustCompile(`^Structure\('([^']+)', '([^']+)'`)
	binaryCall     = regexp.MustCompile(`^(?:TransitionTable|CETable|SpecTable)\('([^']+)'`)
	setAbundCall   = regexp.MustCompile(`^SetAbund\(\d+, ([^)]+)\)`)
	setEleDistCall = regexp.MustCompile(`^SetEleDist\(\d+, ([^,]+),`)
)

// FakeSolver is a fac.Executor that interprets solver scripts just enough
// to materialise the fixture tables.
type FakeSolver struct {
	// Delay holds every run open, for exercising concurrent callers.
	Delay time.Duration
	// Err, when set, is returned before any output is written.
	Err error
	// OmitTables skips PrintTable outputs, simulating a solver that exits
	// cleanly without producing its tables.
	OmitTables bool

	mu        sync.Mutex
	structure int
	crm       int
	scripts   []string
	commands  []fac.Command
}

// NewFakeSolver returns a FakeSolver with no delay.
func NewFakeSolver() *FakeSolver { return &FakeSolver{} }

// Run implements fac.Executor.
func (f *FakeSolver) Run(ctx context.Context, cmd fac.Command, onOutput func(string)) error {
	data, err := os.ReadFile(filepath.Join(cmd.Dir, cmd.Args[0]))
	if err != nil {
		return err
	}
	script := string(data)

	f.mu.Lock()
	if strings.HasPrefix(script, "ReinitCRM") {
		f.crm++
	} else {
		f.structure++
	}
	f.scripts = append(f.scripts, script)
	f.commands = append(f.commands, cmd)
	f.mu.Unlock()

	if f.Delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.Delay):
		}
	}
	if f.Err != nil {
		return f.Err
	}

	total, temperature := 1.0, 500.0
	for _, line := range strings.Split(script, "\n") {
		line = strings.TrimSpace(line)
		if onOutput != nil && line != "" {
			onOutput("fake: " + line)
		}
		if m := setAbundCall.FindStringSubmatch(line); m != nil {
			total, _ = strconv.ParseFloat(m[1], 64)
		}
		if m := setEleDistCall.FindStringSubmatch(line); m != nil {
			temperature, _ = strconv.ParseFloat(m[1], 64)
		}
		if m := structureCall.FindStringSubmatch(line); m != nil {
			if err := touch(cmd.Dir, m[1], m[2]); err != nil {
				return err
			}
			continue
		}
		if m := binaryCall.FindStringSubmatch(line); m != nil {
			if err := touch(cmd.Dir, m[1]); err != nil {
				return err
			}
			continue
		}
		if m := printTableCall.FindStringSubmatch(line); m != nil && !f.OmitTables {
			var content string
			switch filepath.Ext(m[1]) {
			case ".en":
				content = LevelsTable
			case ".tr":
				content = TransitionsTable
			case ".ce":
				content = ExcitationTable
			case ".sp":
				content = PopulationsTable(total, temperature)
			}
			if err := os.WriteFile(resolve(cmd.Dir, m[2]), []byte(content), 0o644); err != nil {
				return err
			}
		}
	}
	return nil
}

// StructureRuns counts sfac invocations.
func (f *FakeSolver) StructureRuns() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.structure
}

// CRMRuns counts scrm invocations.
func (f *FakeSolver) CRMRuns() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.crm
}

// Scripts returns every script seen, in execution order.
func (f *FakeSolver) Scripts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.scripts...)
}

// Commands returns every command seen, in execution order.
func (f *FakeSolver) Commands() []fac.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fac.Command(nil), f.commands...)
}

func resolve(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

func touch(dir string, names ...string) error {
	for _, name := range names {
		f, err := os.OpenFile(resolve(dir, name), os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		_ = f.Close()
	}
	return nil
}
