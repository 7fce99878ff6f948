package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"turntable/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Render attempt history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(ctx, cmd, 20)
		},
	}

	var limitFlag int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent render attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(ctx, cmd, limitFlag)
		},
	}
	listCmd.Flags().IntVarP(&limitFlag, "limit", "n", 20, "Maximum attempts to show")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Count render attempts per status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := journal.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(stats))
			for _, status := range []journal.Status{
				journal.StatusPlanning, journal.StatusSplitting, journal.StatusEncoding,
				journal.StatusMerging, journal.StatusSucceeded, journal.StatusFailed,
			} {
				if count, ok := stats[status]; ok {
					rows = append(rows, []string{string(status), fmt.Sprintf("%d", count)})
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Status", "Count"}, rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded render attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := journal.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d attempt(s)\n", removed)
			return nil
		},
	}

	historyCmd.AddCommand(listCmd)
	historyCmd.AddCommand(statsCmd)
	historyCmd.AddCommand(clearCmd)
	return historyCmd
}

func runHistoryList(ctx *commandContext, cmd *cobra.Command, limit int) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := journal.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No render attempts recorded")
		return nil
	}

	rows := make([][]string, 0, len(records))
	for _, record := range records {
		failure := record.FailureKind
		if failure == "" {
			failure = "-"
		}
		rows = append(rows, []string{
			record.CreatedAt.Local().Format(time.DateTime),
			record.Profile,
			string(record.Status),
			failure,
			fmt.Sprintf("%d", record.ChunkCount),
			record.OutputPath,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Started", "Profile", "Status", "Failure", "Chunks", "Output"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
	return nil
}
