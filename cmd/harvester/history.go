// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/harvester/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List documents fed by earlier runs",
	Long: `History prints the most recent entries of the history database that
run maintains when history.db (or --history-db) is set.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"history.db": "history-db",
		})
	},
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("history-db", "", "SQLite history file")
	historyCmd.Flags().Int("limit", 20, "number of entries to list")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := viper.GetString("history.db")
	if path == "" {
		return fmt.Errorf("no history database: set history.db or --history-db")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("history database %s: %w", path, err)
	}

	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	return printHistory(cmd.Context(), store, limit)
}

func printHistory(ctx context.Context, store *history.Store, limit int) error {
	entries, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	total, err := store.Count(ctx)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No documents fed yet.")
		return nil
	}
	fmt.Printf("%-20s  %-24s  %-16s  %6s  %s\n", "Fed", "Topic", "Source", "Chunks", "Document")
	for _, e := range entries {
		fmt.Printf("%-20s  %-24s  %-16s  %6d  %s\n",
			e.FedAt.Local().Format("2006-01-02 15:04:05"), clip(e.Topic, 24), e.Source, e.Chunks, e.Ref)
	}
	fmt.Printf("\n%d of %d documents\n", len(entries), total)
	return nil
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
