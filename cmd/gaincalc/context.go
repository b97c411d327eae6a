package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"gaincalc/internal/config"
	"gaincalc/internal/fac"
	"gaincalc/internal/logging"
	"gaincalc/internal/population"
	"gaincalc/internal/results"
	"gaincalc/internal/services"
	"gaincalc/internal/structcache"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool
	solverOpts []fac.Option

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	store *results.Store
}

func newCommandContext(configFlag *string, jsonFlag *bool, solverOpts []fac.Option) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
		solverOpts: solverOpts,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "cli", "load config", path, err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "cli", "ensure directories", "", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// log returns the configured logger, falling back to a no-op logger when
// the log file cannot be opened.
func (c *commandContext) log() *slog.Logger {
	c.loggerOnce.Do(func() {
		c.logger = logging.NewNop()
		cfg, err := c.ensureConfig()
		if err != nil {
			return
		}
		if logger, err := logging.NewFromConfig(cfg); err == nil {
			c.logger = logger
		}
	})
	return c.logger
}

func (c *commandContext) solverClient() (*fac.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	opts := []fac.Option{
		fac.WithStructureTimeout(time.Duration(cfg.Solver.StructureTimeout) * time.Second),
		fac.WithPopulationTimeout(time.Duration(cfg.Solver.PopulationTimeout) * time.Second),
		fac.WithLogger(c.log()),
	}
	opts = append(opts, c.solverOpts...)
	return fac.New(cfg.Solver.SFACBinary, cfg.Solver.SCRMBinary, opts...)
}

func (c *commandContext) cacheManager() (*structcache.Manager, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	client, err := c.solverClient()
	if err != nil {
		return nil, err
	}
	return structcache.NewManager(cfg, client, c.log()), nil
}

func (c *commandContext) populationSolver() (*population.Solver, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	client, err := c.solverClient()
	if err != nil {
		return nil, err
	}
	return population.NewSolver(cfg, client, c.log()), nil
}

func (c *commandContext) resultsStore() (*results.Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := results.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open results store: %w", err)
	}
	c.store = store
	return store, nil
}

func (c *commandContext) close() {
	if c.store != nil {
		_ = c.store.Close()
		c.store = nil
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
