package main

import (
	"github.com/spf13/cobra"

	"gaincalc/internal/config"
	"gaincalc/internal/notation"
	"gaincalc/internal/services"
)

// atomFlags are the flags that identify one structure cache entry.
type atomFlags struct {
	symbol    string
	base      string
	maxN      int
	cacheRoot string
}

func (f *atomFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.symbol, "atom", "", "Element symbol, e.g. Fe")
	cmd.Flags().StringVar(&f.base, "base", "", "Base configuration, e.g. \"1*2 2*8\"")
	cmd.Flags().IntVar(&f.maxN, "max-n", 0, "Highest principal quantum number for excited groups")
	cmd.Flags().StringVar(&f.cacheRoot, "cache-root", "", "Override the configured cache directory")
	_ = cmd.MarkFlagRequired("atom")
	_ = cmd.MarkFlagRequired("base")
	_ = cmd.MarkFlagRequired("max-n")
}

func (f *atomFlags) atom() (notation.Atom, error) {
	groups, err := notation.NewConfigGroups(f.base, f.maxN)
	if err != nil {
		return notation.Atom{}, err
	}
	root := ""
	if f.cacheRoot != "" {
		expanded, err := config.ExpandPath(f.cacheRoot)
		if err != nil {
			return notation.Atom{}, services.Wrap(services.ErrValidation, "cli", "cache root", f.cacheRoot, err)
		}
		root = expanded
	}
	return notation.NewAtom(f.symbol, groups, root)
}

func parseLevels(values []string) ([]notation.EnergyLevel, error) {
	levels := make([]notation.EnergyLevel, 0, len(values))
	for _, v := range values {
		level, err := notation.ParseEnergyLevel(v)
		if err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}
	return levels, nil
}
