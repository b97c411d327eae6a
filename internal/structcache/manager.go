package structcache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"gaincalc/internal/config"
	"gaincalc/internal/fac"
	"gaincalc/internal/logging"
	"gaincalc/internal/notation"
	"gaincalc/internal/services"
)

// ErrCacheWrite reports a cache directory that could not be created or
// populated.
var ErrCacheWrite = errors.New("structure cache write failed")

const defaultLockRetry = 250 * time.Millisecond

// Runner executes a structure session in a working directory.
type Runner interface {
	RunStructure(ctx context.Context, session *fac.Session, dir string) error
}

// Manager owns the on-disk structure cache. Entries are created once and
// never modified; removal is manual.
type Manager struct {
	root        string
	solver      string
	runner      Runner
	logger      *slog.Logger
	lockTimeout time.Duration
	lockRetry   time.Duration
	statfs      statfsFunc
}

// NewManager builds a cache manager rooted at the configured cache dir.
func NewManager(cfg *config.Config, runner Runner, logger *slog.Logger) *Manager {
	manager := &Manager{
		runner:    runner,
		lockRetry: defaultLockRetry,
		statfs:    realStatfs,
	}
	if cfg != nil {
		manager.root = strings.TrimSpace(cfg.Paths.CacheDir)
		manager.solver = cfg.Solver.SFACBinary
		manager.lockTimeout = time.Duration(cfg.Solver.LockTimeout) * time.Second
	}
	manager.SetLogger(logger)
	return manager
}

// SetLogger refreshes the manager's logging destination.
func (m *Manager) SetLogger(logger *slog.Logger) {
	m.logger = logging.NewComponentLogger(logger, "structcache")
}

// Root returns the default cache root.
func (m *Manager) Root() string { return m.root }

// Key names the cache entry of atom.
func Key(atom notation.Atom) string {
	return atom.CacheKey()
}

func (m *Manager) rootFor(atom notation.Atom) string {
	if root := strings.TrimSpace(atom.CacheRoot()); root != "" {
		return root
	}
	return m.root
}

// Path returns the entry directory for atom whether or not it exists.
func (m *Manager) Path(atom notation.Atom) string {
	return filepath.Join(m.rootFor(atom), Key(atom))
}

// IsCached reports whether a complete entry exists for atom.
func (m *Manager) IsCached(atom notation.Atom) (bool, error) {
	root := m.rootFor(atom)
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, services.Wrap(services.ErrConfiguration, "structcache", "list cache", root, err)
	}
	key := Key(atom)
	for _, entry := range entries {
		if entry.IsDir() && entry.Name() == key {
			return entryComplete(filepath.Join(root, key)), nil
		}
	}
	return false, nil
}

func entryComplete(dir string) bool {
	_, ok, err := LoadManifest(dir)
	return ok && err == nil
}

// Generate returns the solver outputs for atom, running the structure
// solver only when no complete entry exists. Concurrent callers for one key
// serialise on a lock file so the solver runs once.
func (m *Manager) Generate(ctx context.Context, atom notation.Atom) (Files, error) {
	key := Key(atom)
	root := m.rootFor(atom)
	dir := filepath.Join(root, key)
	ctx = services.WithCacheKey(services.WithStage(ctx, "structure"), key)
	logger := logging.WithContext(ctx, m.logger).With(logging.String(logging.FieldAtom, atom.String()))

	if entryComplete(dir) {
		logger.Debug("structure cache hit", logging.String("dir", dir))
		return NewFiles(dir), nil
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return Files{}, cacheWrite("create cache root", root, err)
	}

	release, err := m.lock(ctx, root, key)
	if err != nil {
		return Files{}, err
	}
	defer release()

	if entryComplete(dir) {
		logger.Info("structure generated by another process", logging.String("dir", dir))
		return NewFiles(dir), nil
	}
	if _, err := os.Stat(dir); err == nil {
		return Files{}, cacheWrite("inspect entry", dir, errors.New("directory exists without a valid manifest; remove it and retry"))
	}

	staging := filepath.Join(root, ".staging-"+uuid.NewString())
	if err := os.Mkdir(staging, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		return Files{}, cacheWrite("create staging dir", staging, err)
	}
	defer func() {
		_ = os.RemoveAll(staging)
	}()

	started := time.Now()
	logger.Info("generating atomic structure",
		logging.Int("groups", len(atom.Groups().All())),
		logging.Int("max_n", atom.MaxN()),
	)

	stagedFiles := NewFiles(staging)
	if err := m.runner.RunStructure(ctx, StructureSession(atom), staging); err != nil {
		logging.ErrorWithContext(logger, "structure solver failed", "structure_"+services.Kind(err),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the solver output in the debug log"),
		)
		return Files{}, err
	}
	for _, path := range stagedFiles.textTables() {
		if _, err := os.Stat(path); err != nil {
			return Files{}, services.Wrap(services.ErrExternalTool, "structcache", "generate",
				fmt.Sprintf("solver did not produce %s", filepath.Base(path)), err)
		}
	}

	manifest, err := newManifest(atom, stagedFiles, m.solver)
	if err != nil {
		return Files{}, cacheWrite("checksum tables", staging, err)
	}
	if err := writeManifest(staging, manifest); err != nil {
		return Files{}, cacheWrite("write manifest", staging, err)
	}
	if err := os.Rename(staging, dir); err != nil {
		return Files{}, cacheWrite("publish entry", dir, err)
	}

	logger.Info("structure cached",
		logging.String("dir", dir),
		logging.Duration("elapsed", time.Since(started)),
	)
	return NewFiles(dir), nil
}

// Remove deletes the entry named key from the default root.
func (m *Manager) Remove(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return services.Wrap(services.ErrValidation, "structcache", "remove", fmt.Sprintf("invalid key %q", key), nil)
	}
	dir := filepath.Join(m.root, key)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return services.Wrap(services.ErrNotFound, "structcache", "remove", key, err)
		}
		return cacheWrite("inspect entry", dir, err)
	}

	release, err := m.lock(ctx, m.root, key)
	if err != nil {
		return err
	}
	defer release()

	if err := os.RemoveAll(dir); err != nil {
		return cacheWrite("remove entry", dir, err)
	}
	m.logger.InfoContext(ctx, "removed structure cache entry", logging.String(logging.FieldCacheKey, key))
	return nil
}

func (m *Manager) lock(ctx context.Context, root, key string) (func(), error) {
	path := filepath.Join(root, "."+sanitize(key)+".lock")
	lock := flock.New(path)

	lockCtx := ctx
	if m.lockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, m.lockTimeout)
		defer cancel()
	}

	locked, err := lock.TryLock()
	if err == nil && !locked {
		logging.WarnWithContext(logging.WithContext(ctx, m.logger), "waiting for structure cache lock", "cache_lock_wait",
			logging.String("lock", path),
			logging.String(logging.FieldErrorHint, "another process is generating this entry"),
			logging.String(logging.FieldImpact, "generation resumes once the other process finishes"),
		)
		locked, err = lock.TryLockContext(lockCtx, m.lockRetry)
	}
	if err != nil || !locked {
		if errors.Is(lockCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, services.Wrap(services.ErrTimeout, "structcache", "lock", fmt.Sprintf("waited %s for %s", m.lockTimeout, path), lockCtx.Err())
		}
		if err == nil {
			err = ctx.Err()
		}
		return nil, cacheWrite("lock", path, err)
	}
	return func() {
		_ = lock.Unlock()
	}, nil
}

func cacheWrite(operation, path string, err error) error {
	return services.Wrap(services.ErrConfiguration, "structcache", operation, path, errors.Join(ErrCacheWrite, err))
}

func sanitize(value string) string {
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		" ", "_",
		":", "-",
		"*", "x",
		"=", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
	)
	value = strings.Trim(replacer.Replace(strings.TrimSpace(value)), "-_.")
	if value == "" {
		return "entry"
	}
	return value
}
