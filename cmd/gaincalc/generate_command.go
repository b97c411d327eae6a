package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"gaincalc/internal/services"
	"gaincalc/internal/structcache"
	"gaincalc/internal/tables"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var flags atomFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate (or reuse) the atomic structure for an ion",
		RunE: func(cmd *cobra.Command, args []string) error {
			atom, err := flags.atom()
			if err != nil {
				return err
			}
			manager, err := ctx.cacheManager()
			if err != nil {
				return err
			}
			cached, err := manager.IsCached(atom)
			if err != nil {
				return err
			}
			files, err := manager.Generate(services.WithCacheKey(cmd.Context(), atom.CacheKey()), atom)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"cache_key": atom.CacheKey(),
					"reused":    cached,
					"files":     files,
				})
			}
			out := cmd.OutOrStdout()
			if cached {
				fmt.Fprintf(out, "Reused cached structure %s\n", atom.CacheKey())
			} else {
				fmt.Fprintf(out, "Generated structure %s\n", atom.CacheKey())
			}
			fmt.Fprintf(out, "Directory: %s\n", files.Dir)
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func newLevelsCommand(ctx *commandContext) *cobra.Command {
	var flags atomFlags
	cmd := &cobra.Command{
		Use:   "levels",
		Short: "List the energy levels of a cached structure",
		RunE: func(cmd *cobra.Command, args []string) error {
			atom, err := flags.atom()
			if err != nil {
				return err
			}
			manager, err := ctx.cacheManager()
			if err != nil {
				return err
			}
			cached, err := manager.IsCached(atom)
			if err != nil {
				return err
			}
			if !cached {
				return services.Wrap(services.ErrNotFound, "cli", "levels",
					fmt.Sprintf("%s is not cached; run `gaincalc generate` first", atom.CacheKey()), nil)
			}
			files := structcache.NewFiles(manager.Path(atom))
			index, err := tables.LoadLevels(files.Levels)
			if err != nil {
				return err
			}
			entries := index.Entries()
			if ctx.jsonOutput() {
				return writeJSON(cmd, entries)
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{strconv.Itoa(e.Index), e.Name})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Index", "Level"}, rows, []columnAlignment{alignRight, alignLeft}))
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}
