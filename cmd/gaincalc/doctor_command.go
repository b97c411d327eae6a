package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gaincalc/internal/preflight"
	"gaincalc/internal/services"
)

type doctorCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check solver binaries and working directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)

			if ctx.jsonOutput() {
				checks := make([]doctorCheck, 0, len(results))
				for _, r := range results {
					checks = append(checks, doctorCheck(r))
				}
				if err := writeJSON(cmd, checks); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					status := "ok"
					if !r.Passed {
						status = "FAIL"
					}
					rows = append(rows, []string{r.Name, status, r.Detail})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
			}
			if !preflight.AllPassed(results) {
				return services.Wrap(services.ErrConfiguration, "cli", "doctor", "one or more checks failed", nil)
			}
			return nil
		},
	}
}
