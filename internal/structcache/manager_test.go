package structcache_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gaincalc/internal/config"
	"gaincalc/internal/fac"
	"gaincalc/internal/logging"
	"gaincalc/internal/notation"
	"gaincalc/internal/services"
	"gaincalc/internal/structcache"
	"gaincalc/internal/testsupport"
)

func newAtom(t *testing.T, maxN int) notation.Atom {
	t.Helper()
	groups, err := notation.NewConfigGroups("1*2 2*8", maxN)
	require.NoError(t, err)
	atom, err := notation.NewAtom("Fe", groups, "")
	require.NoError(t, err)
	return atom
}

func newManager(t *testing.T, cfg *config.Config, solver *testsupport.FakeSolver) *structcache.Manager {
	t.Helper()
	client, err := fac.New("sfac", "scrm", fac.WithExecutor(solver))
	require.NoError(t, err)
	return structcache.NewManager(cfg, client, logging.NewNop())
}

func TestStructureSessionOrder(t *testing.T) {
	script := structcache.StructureSession(newAtom(t, 5)).Script()
	lines := strings.Split(strings.TrimSpace(script), "\n")

	assert.Equal(t, []string{
		"Reinit(0)",
		"SetAtom('Fe')",
		"Config('1*2 2*8', group='base_group')",
		"Config('1*2 2*7 3*1', group='group3')",
		"Config('1*2 2*7 4*1', group='group4')",
		"Config('1*2 2*7 5*1', group='group5')",
		"ConfigEnergy(0)",
		"OptimizeRadial(['base_group'])",
		"ConfigEnergy(1)",
		"Structure('fac_binary_temp.en', 'fac_binary_temp.ham', ['base_group', 'group3', 'group4', 'group5'])",
		"MemENTable('fac_binary_temp.en')",
		"PrintTable('fac_binary_temp.en', 'levels.txt', 1)",
		"TransitionTable('fac_binary_temp.tr', ['base_group'], ['base_group'])",
		"TransitionTable('fac_binary_temp.tr', ['base_group'], ['group3'])",
	}, lines[:14])

	transitions := 0
	excitations := 0
	for _, line := range lines {
		if strings.HasPrefix(line, "TransitionTable(") {
			transitions++
		}
		if strings.HasPrefix(line, "CETable(") {
			excitations++
		}
	}
	assert.Equal(t, 10, transitions)
	assert.Equal(t, 10, excitations)
	assert.Equal(t, "TransitionTable('fac_binary_temp.tr', ['group5'], ['group5'])", lines[21])
	assert.Equal(t, "PrintTable('fac_binary_temp.tr', 'transitions.txt', 1)", lines[22])
	assert.Equal(t, "CETable('fac_binary_temp.ce', ['base_group'], ['base_group'])", lines[23])
	assert.Equal(t, "PrintTable('fac_binary_temp.ce', 'excitation.txt', 1)", lines[len(lines)-1])
}

func TestGenerateCachesEntry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	solver := testsupport.NewFakeSolver()
	manager := newManager(t, cfg, solver)
	atom := newAtom(t, 3)

	cached, err := manager.IsCached(atom)
	require.NoError(t, err)
	assert.False(t, cached)

	files, err := manager.Generate(context.Background(), atom)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Paths.CacheDir, "Fe 1*2 2*8 up to n=3"), files.Dir)
	assert.FileExists(t, files.Levels)
	assert.FileExists(t, files.Transitions)
	assert.FileExists(t, files.Excitation)
	assert.FileExists(t, files.LevelsBinary)
	assert.Equal(t, 1, solver.StructureRuns())

	cached, err = manager.IsCached(atom)
	require.NoError(t, err)
	assert.True(t, cached)

	manifest, ok, err := structcache.LoadManifest(files.Dir)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Fe 1*2 2*8 up to n=3", manifest.Key)
	assert.Equal(t, map[string]string{"base_group": "1*2 2*8", "group3": "1*2 2*7 3*1"}, manifest.Groups)
	assert.Len(t, manifest.Checksums, 3)

	before, err := os.ReadFile(files.Levels)
	require.NoError(t, err)

	again, err := manager.Generate(context.Background(), atom)
	require.NoError(t, err)
	assert.Equal(t, files, again)
	assert.Equal(t, 1, solver.StructureRuns(), "cached entry must not rerun the solver")

	after, err := os.ReadFile(again.Levels)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	require.NoError(t, manifest.Verify(again))

	leftovers, err := filepath.Glob(filepath.Join(cfg.Paths.CacheDir, ".staging-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestGenerateConcurrentCallersRunSolverOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	solver := testsupport.NewFakeSolver()
	solver.Delay = 100 * time.Millisecond
	manager := newManager(t, cfg, solver)
	atom := newAtom(t, 4)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = manager.Generate(context.Background(), atom)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, solver.StructureRuns())
}

func TestGenerateSolverFailureLeavesNoEntry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	solver := testsupport.NewFakeSolver()
	solver.Err = errors.New("exit status 1")
	manager := newManager(t, cfg, solver)
	atom := newAtom(t, 3)

	_, err := manager.Generate(context.Background(), atom)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrExternalTool)

	cached, err := manager.IsCached(atom)
	require.NoError(t, err)
	assert.False(t, cached)

	entries, err := os.ReadDir(cfg.Paths.CacheDir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, entry.IsDir(), "unexpected directory %s", entry.Name())
	}
}

func TestGenerateMissingTables(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	solver := testsupport.NewFakeSolver()
	solver.OmitTables = true
	manager := newManager(t, cfg, solver)

	_, err := manager.Generate(context.Background(), newAtom(t, 3))
	assert.ErrorIs(t, err, services.ErrExternalTool)
}

func TestGenerateRejectsIncompleteDirectory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	manager := newManager(t, cfg, testsupport.NewFakeSolver())
	atom := newAtom(t, 3)
	require.NoError(t, os.MkdirAll(manager.Path(atom), 0o755))

	_, err := manager.Generate(context.Background(), atom)
	assert.ErrorIs(t, err, structcache.ErrCacheWrite)
	assert.ErrorIs(t, err, services.ErrConfiguration)
}

func TestGenerateUsesAtomCacheRoot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	manager := newManager(t, cfg, testsupport.NewFakeSolver())
	root := filepath.Join(t.TempDir(), "elsewhere")

	groups, err := notation.NewConfigGroups("1*2 2*8", 3)
	require.NoError(t, err)
	atom, err := notation.NewAtom("Ge", groups, root)
	require.NoError(t, err)

	files, err := manager.Generate(context.Background(), atom)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Ge 1*2 2*8 up to n=3"), files.Dir)
}

func TestGenerateLockTimeout(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Solver.LockTimeout = 1
	manager := newManager(t, cfg, testsupport.NewFakeSolver())
	atom := newAtom(t, 3)

	held := flock.New(filepath.Join(cfg.Paths.CacheDir, ".Fe_1x2_2x8_up_to_n3.lock"))
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	t.Cleanup(func() { _ = held.Unlock() })

	_, err = manager.Generate(context.Background(), atom)
	assert.ErrorIs(t, err, services.ErrTimeout)
}

func TestStatsAndRemove(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	manager := newManager(t, cfg, testsupport.NewFakeSolver())
	atom := newAtom(t, 3)

	_, err := manager.Generate(context.Background(), atom)
	require.NoError(t, err)

	stats, err := manager.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stats.Entries)
	summary := stats.EntrySummaries[0]
	assert.Equal(t, atom.CacheKey(), summary.Key)
	assert.True(t, summary.Complete)
	assert.Equal(t, "Fe", summary.Symbol)
	assert.Equal(t, 2, summary.Groups)
	assert.Positive(t, summary.SizeBytes)
	assert.Equal(t, stats.TotalBytes, summary.SizeBytes)

	require.NoError(t, manager.Remove(context.Background(), atom.CacheKey()))
	cached, err := manager.IsCached(atom)
	require.NoError(t, err)
	assert.False(t, cached)

	err = manager.Remove(context.Background(), atom.CacheKey())
	assert.ErrorIs(t, err, services.ErrNotFound)

	err = manager.Remove(context.Background(), "../etc")
	assert.ErrorIs(t, err, services.ErrValidation)
}
