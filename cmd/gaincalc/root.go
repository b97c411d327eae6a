package main

import (
	"github.com/spf13/cobra"

	"gaincalc/internal/fac"
)

// newRootCommand builds the command graph. solverOpts are applied to every
// solver client the commands construct.
func newRootCommand(solverOpts ...fac.Option) *cobra.Command {
	var configFlag string
	var jsonFlag bool

	ctx := newCommandContext(&configFlag, &jsonFlag, solverOpts)

	rootCmd := &cobra.Command{
		Use:           "gaincalc",
		Short:         "Population and gain calculations on top of the FAC solver",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Print machine-readable JSON instead of tables")

	rootCmd.AddCommand(newGenerateCommand(ctx))
	rootCmd.AddCommand(newLevelsCommand(ctx))
	rootCmd.AddCommand(newPopulationsCommand(ctx))
	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newResultsCommand(ctx))
	rootCmd.AddCommand(newGainCommand(ctx))
	rootCmd.AddCommand(newInversionCommand(ctx))
	rootCmd.AddCommand(newCacheCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))

	return rootCmd
}
