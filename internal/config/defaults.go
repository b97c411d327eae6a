package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultConfigPath         = "~/.config/gaincalc/config.toml"
	defaultDataDir            = "~/.local/share/gaincalc"
	defaultLogDir             = "~/.local/share/gaincalc/logs"
	defaultSFACBinary         = "sfac"
	defaultSCRMBinary         = "scrm"
	defaultLockTimeout        = 3600
	defaultPopulationTotal    = 1.0
	defaultIterationTolerance = 1e-4
	defaultMaxIterations      = 1500
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir:   defaultCacheDir(),
			DataDir:    defaultDataDir,
			ScratchDir: defaultScratchDir(),
			LogDir:     defaultLogDir,
		},
		Solver: Solver{
			SFACBinary:  defaultSFACBinary,
			SCRMBinary:  defaultSCRMBinary,
			LockTimeout: defaultLockTimeout,
		},
		Population: Population{
			PopulationTotal:    defaultPopulationTotal,
			IterationTolerance: defaultIterationTolerance,
			MaxIterations:      defaultMaxIterations,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "gaincalc", "atomic_data")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/gaincalc/atomic_data"
	}
	return filepath.Join(home, ".cache", "gaincalc", "atomic_data")
}

func defaultScratchDir() string {
	return filepath.Join(os.TempDir(), "gaincalc")
}
