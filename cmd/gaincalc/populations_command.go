package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"gaincalc/internal/population"
	"gaincalc/internal/services"
	"gaincalc/internal/tables"
)

type levelPopulation struct {
	Level      string  `json:"level"`
	Index      int     `json:"index"`
	Population float64 `json:"population"`
}

func newPopulationsCommand(ctx *commandContext) *cobra.Command {
	var flags atomFlags
	var temperature, density, total float64
	var levelArgs []string

	cmd := &cobra.Command{
		Use:   "populations",
		Short: "Solve level populations for one temperature and density",
		RunE: func(cmd *cobra.Command, args []string) error {
			atom, err := flags.atom()
			if err != nil {
				return err
			}
			levels, err := parseLevels(levelArgs)
			if err != nil {
				return err
			}
			manager, err := ctx.cacheManager()
			if err != nil {
				return err
			}
			solver, err := ctx.populationSolver()
			if err != nil {
				return err
			}

			runCtx := services.WithCacheKey(cmd.Context(), atom.CacheKey())
			files, err := manager.Generate(services.WithStage(runCtx, "structure"), atom)
			if err != nil {
				return err
			}
			index, err := tables.LoadLevels(files.Levels)
			if err != nil {
				return err
			}
			cond := population.Condition{Temperature: temperature, Density: density, PopulationTotal: total}
			result, err := solver.Solve(services.WithStage(runCtx, "population"), files, atom.ElectronCount(), cond)
			if err != nil {
				return err
			}

			var rows []levelPopulation
			if len(levels) == 0 {
				for _, e := range index.Entries() {
					value, err := result.Level(e.Index)
					if err != nil {
						return err
					}
					rows = append(rows, levelPopulation{Level: e.Name, Index: e.Index, Population: value})
				}
			} else {
				for _, level := range levels {
					i, err := index.Lookup(level)
					if err != nil {
						return err
					}
					value, err := result.Level(i)
					if err != nil {
						return err
					}
					rows = append(rows, levelPopulation{Level: level.String(), Index: i, Population: value})
				}
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"condition":   result.Condition,
					"total":       result.Total(),
					"populations": rows,
				})
			}
			cells := make([][]string, 0, len(rows))
			for _, r := range rows {
				cells = append(cells, []string{strconv.Itoa(r.Index), r.Level, sci(r.Population)})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "T = %s eV, ne = %s cm^-3\n", sci(temperature), sci(density))
			fmt.Fprintln(out, renderTable([]string{"Index", "Level", "Population"}, cells,
				[]columnAlignment{alignRight, alignLeft, alignRight}))
			return nil
		},
	}
	flags.bind(cmd)
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "Electron temperature in eV")
	cmd.Flags().Float64Var(&density, "density", 0, "Electron density in cm^-3")
	cmd.Flags().Float64Var(&total, "total", 0, "Population normalisation (default from config)")
	cmd.Flags().StringArrayVar(&levelArgs, "level", nil, "Level to report (repeatable; default all)")
	_ = cmd.MarkFlagRequired("temperature")
	_ = cmd.MarkFlagRequired("density")
	return cmd
}
