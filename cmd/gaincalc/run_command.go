package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"gaincalc/internal/config"
	"gaincalc/internal/results"
	"gaincalc/internal/study"
)

type runSummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Atom        string  `json:"atom"`
	Points      int     `json:"points"`
	GF          float64 `json:"gf"`
	EnergyEV    float64 `json:"transition_energy_ev"`
	PeakGain    float64 `json:"peak_gain,omitempty"`
	PeakT       float64 `json:"peak_temperature,omitempty"`
	PeakDensity float64 `json:"peak_density,omitempty"`
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "run <study.hcl>",
		Short: "Evaluate a study file and store the resulting dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			s, err := study.Load(path)
			if err != nil {
				return err
			}
			if name != "" {
				s.Name = name
			}

			cfg, err := ctx.ensureConfig()
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
			store, err := ctx.resultsStore()
			if err != nil {
				return err
			}

			runner := &study.Runner{
				Cache:   manager,
				Solver:  solver,
				Workers: cfg.Grid.Workers,
				Logger:  ctx.log(),
			}
			if errOut := cmd.ErrOrStderr(); !ctx.jsonOutput() && isTerminal(errOut) {
				runner.Progress = progressPrinter(errOut)
			}

			dataset, err := runner.Run(cmd.Context(), s)
			if err != nil {
				return err
			}
			rec := &results.Record{Summary: results.Summary{Name: s.Name}, Dataset: dataset}
			if err := store.Save(cmd.Context(), rec); err != nil {
				return err
			}

			summary := runSummary{
				ID:       rec.ID,
				Name:     rec.Name,
				Atom:     rec.Atom,
				Points:   rec.Points,
				GF:       dataset.OscillatorStrength,
				EnergyEV: dataset.TransitionEnergy,
			}
			if s.Plasma != nil {
				summary.PeakGain, summary.PeakT, summary.PeakDensity, err = study.PeakGain(s, dataset)
				if err != nil {
					return err
				}
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, summary)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Stored %s as %s\n", summary.Name, summary.ID)
			fmt.Fprintf(out, "Atom:       %s\n", summary.Atom)
			fmt.Fprintf(out, "Points:     %d\n", summary.Points)
			fmt.Fprintf(out, "gf:         %s\n", sci(summary.GF))
			fmt.Fprintf(out, "Energy:     %s eV\n", sci(summary.EnergyEV))
			if s.Plasma != nil {
				fmt.Fprintf(out, "Peak gain:  %s cm^-1 at T = %s eV, ne = %s cm^-3\n",
					sci(summary.PeakGain), sci(summary.PeakT), sci(summary.PeakDensity))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Override the stored result name")
	return cmd
}

func progressPrinter(w io.Writer) func(done, total int) {
	var mu sync.Mutex
	return func(done, n int) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "\rSolved %d/%d points", done, n)
		if done == n {
			fmt.Fprintln(w)
		}
	}
}
