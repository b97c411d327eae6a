package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"gaincalc/internal/structcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the structure cache",
	}
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheRemoveCommand(ctx))
	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show structure cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := ctx.cacheManager()
			if err != nil {
				return err
			}
			stats, err := manager.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, stats)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Root:    %s\n", stats.Root)
			fmt.Fprintf(out, "Entries: %d\n", stats.Entries)
			fmt.Fprintf(out, "Size:    %s\n", humanBytes(stats.TotalBytes))
			fmt.Fprintf(out, "Disk:    %s free (%.1f%%)\n", humanBytes(int64(stats.FreeBytes)), stats.FreeRatio*100)
			printCacheEntries(cmd, stats.EntrySummaries)
			return nil
		},
	}
}

func printCacheEntries(cmd *cobra.Command, entries []structcache.EntrySummary) {
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "Cached structures: none")
		return
	}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		updated := "unknown"
		if !entry.ModifiedAt.IsZero() {
			updated = entry.ModifiedAt.Local().Format(stampLayout)
		}
		groups := ""
		if entry.Groups > 0 {
			groups = strconv.Itoa(entry.Groups)
		}
		rows = append(rows, []string{entry.Key, groups, yesNo(entry.Complete), humanBytes(entry.SizeBytes), updated})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Key", "Groups", "Complete", "Size", "Updated"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignLeft},
	))
}

func newCacheRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <key>",
		Short: "Remove one structure cache entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := ctx.cacheManager()
			if err != nil {
				return err
			}
			if err := manager.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}

func humanBytes(v int64) string {
	const unit = 1024
	if v < unit {
		return fmt.Sprintf("%d B", v)
	}
	div := int64(unit)
	exp := 0
	for n := v / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	value := float64(v) / float64(div)
	return fmt.Sprintf("%.1f %ciB", value, "KMGTPEZY"[exp])
}
