package structcache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"gaincalc/internal/logging"
)

// statfsFunc allows tests to stub filesystem stats.
type statfsFunc func(path string) (total uint64, free uint64, err error)

// Stats describes current cache usage.
type Stats struct {
	Root           string         `json:"root"`
	Entries        int            `json:"entries"`
	TotalBytes     int64          `json:"total_bytes"`
	FreeBytes      uint64         `json:"free_bytes"`
	TotalFSBytes   uint64         `json:"total_fs_bytes"`
	FreeRatio      float64        `json:"free_ratio"`
	EntrySummaries []EntrySummary `json:"entry_summaries"`
}

// EntrySummary describes one cache entry for the CLI.
type EntrySummary struct {
	Key        string    `json:"key"`
	Directory  string    `json:"directory"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
	Symbol     string    `json:"symbol,omitempty"`
	MaxN       int       `json:"max_n,omitempty"`
	Groups     int       `json:"groups,omitempty"`
	Complete   bool      `json:"complete"`
}

// Stats returns entry sizes and filesystem free space for the default root.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	s := Stats{Root: m.root}
	entries, total, err := m.scan()
	if err != nil {
		return s, err
	}
	totalFS, freeFS, err := m.statfs(m.root)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return s, fmt.Errorf("structcache: statfs: %w", err)
	}
	ratio := 1.0
	if totalFS > 0 {
		ratio = float64(freeFS) / float64(totalFS)
	}
	s.Entries = len(entries)
	s.TotalBytes = total
	s.FreeBytes = freeFS
	s.TotalFSBytes = totalFS
	s.FreeRatio = ratio
	s.EntrySummaries = entries
	if len(entries) == 0 {
		m.logger.InfoContext(ctx, "structure cache empty", logging.String("root", m.root))
	}
	return s, nil
}

func (m *Manager) scan() ([]EntrySummary, int64, error) {
	entries := make([]EntrySummary, 0)
	var total int64
	rootEntries, err := os.ReadDir(m.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entries, 0, nil
		}
		return nil, 0, fmt.Errorf("structcache: list root: %w", err)
	}
	for _, entry := range rootEntries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(m.root, entry.Name())
		size, mtime, err := dirSizeAndTime(path)
		if err != nil {
			m.logger.Warn("structcache: skip entry; excluded from stats",
				logging.String("dir", path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "structcache_entry_skipped"),
				logging.String(logging.FieldErrorHint, "inspect cache directory permissions or remove the corrupted entry"),
			)
			continue
		}
		summary := EntrySummary{Key: entry.Name(), Directory: path, SizeBytes: size, ModifiedAt: mtime}
		if manifest, ok, err := LoadManifest(path); ok && err == nil {
			summary.Complete = true
			summary.Symbol = manifest.Symbol
			summary.MaxN = manifest.MaxN
			summary.Groups = len(manifest.Groups)
		}
		total += size
		entries = append(entries, summary)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries, total, nil
}

func dirSizeAndTime(path string) (int64, time.Time, error) {
	var (
		size   int64
		latest time.Time
	)
	err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
		return nil
	})
	if err != nil {
		return 0, time.Time{}, err
	}
	return size, latest, nil
}

func realStatfs(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	return total, free, nil
}
