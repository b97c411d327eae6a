package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gaincalc/internal/config"
	"gaincalc/internal/gain"
	"gaincalc/internal/services"
	"gaincalc/internal/tables"
)

// plasmaFlags are the parameters that turn an inversion into a gain.
type plasmaFlags struct {
	ionTemperature float64
	ionization     float64
	abundance      float64
	abundanceTable string
}

func (f *plasmaFlags) bind(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.ionTemperature, "ion-temperature", 0, "Ion temperature in eV (default: electron temperature)")
	cmd.Flags().Float64Var(&f.ionization, "ionization", 0, "Mean ionization Z*")
	cmd.Flags().Float64Var(&f.abundance, "abundance", 1, "Constant fraction of the lasing ion")
	cmd.Flags().StringVar(&f.abundanceTable, "abundance-table", "", "TOML abundance table (overrides --abundance)")
	cmd.MarkFlagsMutuallyExclusive("abundance", "abundance-table")
}

func (f *plasmaFlags) source() (gain.Abundance, error) {
	if f.abundanceTable == "" {
		return gain.ConstantAbundance(f.abundance), nil
	}
	path, err := config.ExpandPath(f.abundanceTable)
	if err != nil {
		return nil, err
	}
	return gain.LoadAbundanceTable(path)
}

type gainPoint struct {
	Temperature     float64 `json:"temperature"`
	ElectronDensity float64 `json:"electron_density"`
	Inversion       float64 `json:"inversion"`
	Gain            float64 `json:"gain"`
}

func newGainCommand(ctx *commandContext) *cobra.Command {
	var ref string
	var temperature, density float64
	var plasma plasmaFlags

	cmd := &cobra.Command{
		Use:   "gain",
		Short: "Compute gain from a stored dataset",
		Long: "Compute the gain coefficient from a stored dataset. With --temperature and\n" +
			"--density the value at that grid point is printed, otherwise every point.",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.resultsStore()
			if err != nil {
				return err
			}
			rec, err := store.Get(cmd.Context(), ref)
			if err != nil {
				return err
			}
			abundance, err := plasma.source()
			if err != nil {
				return err
			}
			calc, err := gain.NewCalculator(rec.Dataset, abundance)
			if err != nil {
				return err
			}

			var temps, dens []float64
			single := cmd.Flags().Changed("temperature") || cmd.Flags().Changed("density")
			if single {
				if !cmd.Flags().Changed("temperature") || !cmd.Flags().Changed("density") {
					return services.Wrap(services.ErrValidation, "cli", "gain", "--temperature and --density must be given together", nil)
				}
				temps, dens = []float64{temperature}, []float64{density}
			} else {
				temps, dens = rec.Dataset.Upper.Temperature, rec.Dataset.Upper.ElectronDensity
			}

			points := make([]gainPoint, 0, len(temps))
			for i := range temps {
				in := gain.GainInput{
					ElectronDensity: dens[i],
					Temperature:     temps[i],
					IonTemperature:  plasma.ionTemperature,
					Ionization:      plasma.ionization,
				}
				inversion, err := calc.Inversion(in.ElectronDensity, in.Temperature)
				if err != nil {
					return err
				}
				g, err := calc.Gain(in)
				if err != nil {
					return err
				}
				points = append(points, gainPoint{Temperature: temps[i], ElectronDensity: dens[i], Inversion: inversion, Gain: g})
			}
			return printGainPoints(cmd, ctx, points)
		},
	}
	cmd.Flags().StringVar(&ref, "result", "", "Stored result ID or unique prefix")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "Electron temperature in eV")
	cmd.Flags().Float64Var(&density, "density", 0, "Electron density in cm^-3")
	plasma.bind(cmd)
	_ = cmd.MarkFlagRequired("result")
	_ = cmd.MarkFlagRequired("ionization")
	return cmd
}

func newInversionCommand(ctx *commandContext) *cobra.Command {
	var flags atomFlags
	var baseArg, lowerArg, upperArg string
	var temps, dens []float64
	var plasma plasmaFlags

	cmd := &cobra.Command{
		Use:   "inversion",
		Short: "Three-level inversion and gain from cached collision strengths",
		Long: "Evaluate the three-level model (base, lower and upper level) from the\n" +
			"cached radiative rates and collision strengths, without a population run.\n" +
			"Temperature and density lists broadcast against each other.",
		RunE: func(cmd *cobra.Command, args []string) error {
			atom, err := flags.atom()
			if err != nil {
				return err
			}
			levels, err := parseLevels([]string{baseArg, lowerArg, upperArg})
			if err != nil {
				return err
			}
			base, lower, upper := levels[0], levels[1], levels[2]

			manager, err := ctx.cacheManager()
			if err != nil {
				return err
			}
			files, err := manager.Generate(services.WithCacheKey(cmd.Context(), atom.CacheKey()), atom)
			if err != nil {
				return err
			}
			index, err := tables.LoadLevels(files.Levels)
			if err != nil {
				return err
			}
			transitions, err := tables.LoadTransitions(files.Transitions)
			if err != nil {
				return err
			}
			coeffs, err := gain.NewCoefficients(gain.CoefficientSource{
				Levels:      index,
				Transitions: transitions,
				Excitation:  files.Excitation,
			}, base, lower, upper)
			if err != nil {
				return err
			}
			degeneracies := gain.Degeneracies{Base: base.Degeneracy(), Lower: lower.Degeneracy(), Upper: upper.Degeneracy()}

			inversions, err := gain.InversionGrid(coeffs, dens, temps, degeneracies)
			if err != nil {
				return err
			}
			gains := make([]float64, len(inversions))
			if cmd.Flags().Changed("ionization") {
				abundance, err := plasma.source()
				if err != nil {
					return err
				}
				model := &gain.ThreeLevel{
					Coefficients: coeffs,
					Degeneracies: degeneracies,
					Abundance:    abundance,
					Electrons:    atom.ElectronCount(),
					Protons:      atom.Protons(),
				}
				gains, err = gain.ThreeLevelGainGrid(model, dens, temps,
					[]float64{plasma.ionTemperature}, []float64{plasma.ionization})
				if err != nil {
					return err
				}
			}

			points := make([]gainPoint, len(inversions))
			for i := range inversions {
				points[i] = gainPoint{
					Temperature:     broadcast(temps, i),
					ElectronDensity: broadcast(dens, i),
					Inversion:       inversions[i],
					Gain:            gains[i],
				}
			}
			return printGainPoints(cmd, ctx, points)
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVar(&baseArg, "base-level", "", "Base (ground) level")
	cmd.Flags().StringVar(&lowerArg, "lower", "", "Lower laser level")
	cmd.Flags().StringVar(&upperArg, "upper", "", "Upper laser level")
	cmd.Flags().Float64SliceVar(&temps, "temperature", nil, "Electron temperatures in eV")
	cmd.Flags().Float64SliceVar(&dens, "density", nil, "Electron densities in cm^-3")
	plasma.bind(cmd)
	for _, name := range []string{"base-level", "lower", "upper", "temperature", "density"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func broadcast(values []float64, i int) float64 {
	if len(values) == 1 {
		return values[0]
	}
	return values[i]
}

func printGainPoints(cmd *cobra.Command, ctx *commandContext, points []gainPoint) error {
	if ctx.jsonOutput() {
		return writeJSON(cmd, points)
	}
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{sci(p.Temperature), sci(p.ElectronDensity), sci(p.Inversion), sci(p.Gain)})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"T (eV)", "ne (cm^-3)", "Inversion", "Gain (cm^-1)"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
	))
	return nil
}
