package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSolver()
	c.normalizePopulation()
	c.normalizeGrid()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("GAINCALC_CACHE_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.CacheDir = value
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		c.Paths.ScratchDir = defaultScratchDir()
	}

	var err error
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSolver() {
	if value, ok := os.LookupEnv("GAINCALC_SFAC"); ok && strings.TrimSpace(value) != "" {
		c.Solver.SFACBinary = value
	}
	if value, ok := os.LookupEnv("GAINCALC_SCRM"); ok && strings.TrimSpace(value) != "" {
		c.Solver.SCRMBinary = value
	}
	c.Solver.SFACBinary = strings.TrimSpace(c.Solver.SFACBinary)
	if c.Solver.SFACBinary == "" {
		c.Solver.SFACBinary = defaultSFACBinary
	}
	c.Solver.SCRMBinary = strings.TrimSpace(c.Solver.SCRMBinary)
	if c.Solver.SCRMBinary == "" {
		c.Solver.SCRMBinary = defaultSCRMBinary
	}
	if c.Solver.LockTimeout == 0 {
		c.Solver.LockTimeout = defaultLockTimeout
	}
}

func (c *Config) normalizePopulation() {
	if c.Population.PopulationTotal == 0 {
		c.Population.PopulationTotal = defaultPopulationTotal
	}
	if c.Population.IterationTolerance == 0 {
		c.Population.IterationTolerance = defaultIterationTolerance
	}
	if c.Population.MaxIterations == 0 {
		c.Population.MaxIterations = defaultMaxIterations
	}
}

func (c *Config) normalizeGrid() {
	if c.Grid.Workers == 0 {
		c.Grid.Workers = runtime.NumCPU()
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
