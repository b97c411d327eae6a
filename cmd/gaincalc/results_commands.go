package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"gaincalc/internal/config"
)

const stampLayout = "2006-01-02 15:04"

func newResultsCommand(ctx *commandContext) *cobra.Command {
	resultsCmd := &cobra.Command{
		Use:   "results",
		Short: "Inspect and manage stored datasets",
	}
	resultsCmd.AddCommand(newResultsListCommand(ctx))
	resultsCmd.AddCommand(newResultsShowCommand(ctx))
	resultsCmd.AddCommand(newResultsExportCommand(ctx))
	resultsCmd.AddCommand(newResultsDeleteCommand(ctx))
	return resultsCmd
}

func newResultsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored datasets, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.resultsStore()
			if err != nil {
				return err
			}
			summaries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, summaries)
			}
			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintln(out, "No stored results")
				return nil
			}
			rows := make([][]string, 0, len(summaries))
			for _, s := range summaries {
				rows = append(rows, []string{
					shortID(s.ID),
					s.Name,
					s.Atom,
					s.UpperLevel + " -> " + s.LowerLevel,
					strconv.Itoa(s.Points),
					s.CreatedAt.Local().Format(stampLayout),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Name", "Atom", "Transition", "Points", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}

func newResultsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the populations of a stored dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.resultsStore()
			if err != nil {
				return err
			}
			rec, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, rec)
			}
			d := rec.Dataset
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:         %s\n", rec.ID)
			fmt.Fprintf(out, "Name:       %s\n", rec.Name)
			fmt.Fprintf(out, "Atom:       %s\n", rec.Atom)
			fmt.Fprintf(out, "Upper:      %s\n", rec.UpperLevel)
			fmt.Fprintf(out, "Lower:      %s\n", rec.LowerLevel)
			fmt.Fprintf(out, "gf:         %s\n", sci(d.OscillatorStrength))
			fmt.Fprintf(out, "Energy:     %s eV\n", sci(d.TransitionEnergy))
			fmt.Fprintf(out, "Created:    %s\n", rec.CreatedAt.Local().Format(stampLayout))

			rows := make([][]string, 0, d.Points())
			for i := 0; i < d.Points(); i++ {
				rows = append(rows, []string{
					sci(d.Upper.Temperature[i]),
					sci(d.Upper.ElectronDensity[i]),
					sci(d.Upper.Population[i]),
					sci(d.Lower.Population[i]),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"T (eV)", "ne (cm^-3)", "Upper", "Lower"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
}

func newResultsExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <id> <path>",
		Short: "Write a stored dataset to a JSON file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.resultsStore()
			if err != nil {
				return err
			}
			target, err := config.ExpandPath(args[1])
			if err != nil {
				return err
			}
			if err := store.Export(cmd.Context(), args[0], target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", args[0], target)
			return nil
		},
	}
}

func newResultsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.resultsStore()
			if err != nil {
				return err
			}
			id, err := store.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := store.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			return nil
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
