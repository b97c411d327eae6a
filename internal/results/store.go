package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"gaincalc/internal/config"
	"gaincalc/internal/gain"
	"gaincalc/internal/services"
)

// Summary describes a stored result without its payload.
type Summary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Atom       string    `json:"atom"`
	CacheKey   string    `json:"cache_key"`
	LowerLevel string    `json:"lower_level"`
	UpperLevel string    `json:"upper_level"`
	Points     int       `json:"points"`
	CreatedAt  time.Time `json:"created_at"`
}

// Record is a stored dataset.
type Record struct {
	Summary
	Dataset gain.Dataset `json:"dataset"`
}

// Store persists datasets in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens <data_dir>/results.db.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.ResultsDBPath())
}

// OpenPath opens the database at dbPath.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path is the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save stores rec. An empty ID is replaced by a fresh UUID and a zero
// CreatedAt by the current time; derived summary fields are filled from
// the dataset.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if rec == nil {
		return errors.New("record is nil")
	}
	if err := rec.Dataset.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(rec.Name) == "" {
		return services.Wrap(services.ErrValidation, "results", "save", "result name is required", nil)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	prov := rec.Dataset.Provenance
	if rec.Atom == "" {
		rec.Atom = prov.Atom
	}
	if rec.CacheKey == "" {
		rec.CacheKey = prov.CacheKey
	}
	if rec.LowerLevel == "" {
		rec.LowerLevel = prov.LowerLevel
	}
	if rec.UpperLevel == "" {
		rec.UpperLevel = prov.UpperLevel
	}
	rec.Points = rec.Dataset.Points()

	payload, err := json.Marshal(rec.Dataset)
	if err != nil {
		return fmt.Errorf("marshal dataset: %w", err)
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO results (id, name, atom, cache_key, lower_level, upper_level, points, created_at, payload)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.Name, rec.Atom, rec.CacheKey, rec.LowerLevel, rec.UpperLevel,
			rec.Points, rec.CreatedAt.UTC().Format(time.RFC3339Nano), string(payload),
		)
		if err != nil {
			return fmt.Errorf("insert result: %w", err)
		}
		return nil
	})
}

const summaryColumns = "id, name, atom, cache_key, lower_level, upper_level, points, created_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner, extra ...any) (Summary, error) {
	var (
		sum     Summary
		created string
	)
	dest := append([]any{&sum.ID, &sum.Name, &sum.Atom, &sum.CacheKey, &sum.LowerLevel, &sum.UpperLevel, &sum.Points, &created}, extra...)
	if err := row.Scan(dest...); err != nil {
		return Summary{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Summary{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	sum.CreatedAt = t
	return sum, nil
}

// List returns every stored result, newest first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+summaryColumns+` FROM results ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return out, nil
}

// Resolve expands an ID or unique ID prefix to the full ID.
func (s *Store) Resolve(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", services.Wrap(services.ErrValidation, "results", "resolve", "result id is required", nil)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM results WHERE substr(id, 1, length(?)) = ? ORDER BY id LIMIT 3`,
		ref, ref)
	if err != nil {
		return "", fmt.Errorf("resolve result: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scan result id: %w", err)
		}
		if id == ref {
			return id, nil
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate result ids: %w", err)
	}
	switch len(ids) {
	case 0:
		return "", services.Wrap(services.ErrNotFound, "results", "resolve", "no result "+ref, nil)
	case 1:
		return ids[0], nil
	default:
		return "", services.Wrap(services.ErrValidation, "results", "resolve", "ambiguous result prefix "+ref, nil)
	}
}

// Get loads a result by ID or unique prefix.
func (s *Store) Get(ctx context.Context, ref string) (Record, error) {
	id, err := s.Resolve(ctx, ref)
	if err != nil {
		return Record{}, err
	}
	var payload string
	row := s.db.QueryRowContext(ctx, `SELECT `+summaryColumns+`, payload FROM results WHERE id = ?`, id)
	sum, err := scanSummary(row, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, services.Wrap(services.ErrNotFound, "results", "get", "no result "+ref, nil)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get result: %w", err)
	}
	dataset, err := gain.DecodeDataset(strings.NewReader(payload))
	if err != nil {
		return Record{}, err
	}
	return Record{Summary: sum, Dataset: dataset}, nil
}

// Delete removes a result by ID or unique prefix.
func (s *Store) Delete(ctx context.Context, ref string) error {
	id, err := s.Resolve(ctx, ref)
	if err != nil {
		return err
	}
	return retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM results WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete result: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return services.Wrap(services.ErrNotFound, "results", "delete", "no result "+ref, nil)
		}
		return nil
	})
}

// Export writes the dataset of a result to path as JSON.
func (s *Store) Export(ctx context.Context, ref, path string) error {
	rec, err := s.Get(ctx, ref)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*.json")
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if err := rec.Dataset.Encode(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename export file: %w", err)
	}
	return nil
}
