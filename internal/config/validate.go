package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSolver(); err != nil {
		return err
	}
	if err := c.validatePopulation(); err != nil {
		return err
	}
	if err := c.validateGrid(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSolver() error {
	if c.Solver.StructureTimeout < 0 {
		return errors.New("solver.structure_timeout must be zero (no timeout) or positive")
	}
	if c.Solver.PopulationTimeout < 0 {
		return errors.New("solver.population_timeout must be zero (no timeout) or positive")
	}
	if c.Solver.LockTimeout < 0 {
		return errors.New("solver.lock_timeout must be positive")
	}
	return nil
}

func (c *Config) validatePopulation() error {
	if c.Population.PopulationTotal <= 0 {
		return errors.New("population.population_total must be positive")
	}
	if c.Population.IterationTolerance <= 0 || c.Population.IterationTolerance >= 1 {
		return errors.New("population.iteration_tolerance must be between 0 and 1")
	}
	if c.Population.MaxIterations < 1 {
		return errors.New("population.max_iterations must be at least 1")
	}
	return nil
}

func (c *Config) validateGrid() error {
	if c.Grid.Workers < 1 {
		return fmt.Errorf("grid.workers must be at least 1 (got %d)", c.Grid.Workers)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
