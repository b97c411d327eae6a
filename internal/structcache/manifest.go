package structcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gaincalc/internal/notation"
)

const (
	manifestVersion  = 1
	manifestFileName = "manifest.json"
)

// Manifest records what produced a cache entry. Its presence marks the
// entry as complete.
type Manifest struct {
	Version    int               `json:"version"`
	Key        string            `json:"key"`
	Symbol     string            `json:"symbol"`
	BaseConfig string            `json:"base_config"`
	MaxN       int               `json:"max_n"`
	Groups     map[string]string `json:"groups"`
	Solver     string            `json:"solver"`
	CreatedAt  time.Time         `json:"created_at"`
	Checksums  map[string]string `json:"checksums"`
}

func newManifest(atom notation.Atom, files Files, solver string) (Manifest, error) {
	groups := make(map[string]string)
	for _, g := range atom.Groups().All() {
		groups[g.Name()] = g.Config()
	}
	sums, err := checksums(files)
	if err != nil {
		return Manifest{}, err
	}
	return Manifest{
		Version:    manifestVersion,
		Key:        Key(atom),
		Symbol:     atom.Symbol(),
		BaseConfig: atom.BaseConfig(),
		MaxN:       atom.MaxN(),
		Groups:     groups,
		Solver:     solver,
		CreatedAt:  time.Now().UTC(),
		Checksums:  sums,
	}, nil
}

func checksums(files Files) (map[string]string, error) {
	sums := make(map[string]string, 3)
	for _, path := range files.textTables() {
		sum, err := fileSHA256(path)
		if err != nil {
			return nil, err
		}
		sums[filepath.Base(path)] = sum
	}
	return sums, nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("structcache: open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("structcache: hash %s: %w", filepath.Base(path), err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func writeManifest(dir string, manifest Manifest) error {
	payload, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("structcache: encode manifest: %w", err)
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".manifest-%d.tmp", time.Now().UnixNano()))
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("structcache: write manifest temp: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, manifestFileName)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("structcache: rename manifest: %w", err)
	}
	return nil
}

// LoadManifest reads the manifest of the entry in dir. The boolean reports
// whether a manifest file exists at all.
func LoadManifest(dir string) (Manifest, bool, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return Manifest{}, false, errors.New("structcache: manifest dir is empty")
	}
	payload, err := os.ReadFile(filepath.Join(dir, manifestFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{}, false, nil
		}
		return Manifest{}, false, fmt.Errorf("structcache: read manifest: %w", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(payload, &manifest); err != nil {
		return Manifest{}, true, fmt.Errorf("structcache: decode manifest: %w", err)
	}
	if manifest.Version != manifestVersion {
		return Manifest{}, true, fmt.Errorf("structcache: unsupported manifest version %d", manifest.Version)
	}
	return manifest, true, nil
}

// Verify recomputes the text table checksums of files against the manifest.
func (m Manifest) Verify(files Files) error {
	sums, err := checksums(files)
	if err != nil {
		return err
	}
	for name, want := range m.Checksums {
		if got := sums[name]; got != want {
			return fmt.Errorf("structcache: %s checksum mismatch", name)
		}
	}
	return nil
}
