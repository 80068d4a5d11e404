// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/harvester/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search <topic>",
	Short: "Find candidate documents for a topic",
	Long: `Search runs the configured strategies for a topic and prints the
candidates the harvest loop would process, without downloading or feeding
anything. Results can be saved to a YAML file for review.`,
	Args: cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"search.strategies": "strategies",
			"search.mode":       "mode",
			"search.limit":      "limit",
		})
	},
	RunE: runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.StringSlice("strategies", nil, "search strategies in order (web, arxiv, openalex, semantic_scholar, wikipedia)")
	f.String("mode", "", "search mode: fallback or merge")
	f.Int("limit", 0, "maximum number of candidates (default 50)")
	f.Bool("json", false, "output results as JSON")
	f.String("save", "", "save results to a YAML file")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")
	cfg := loadConfig(viper.GetViper())

	finder, err := newFinder(newHTTPClient(), cfg.Search)
	if err != nil {
		return err
	}
	cands := finder.Find(cmd.Context(), topic, cfg.Search.Limit)

	if path, _ := cmd.Flags().GetString("save"); path != "" {
		if err := search.WriteResultsFile(path, topic, cfg.Search, cands); err != nil {
			return fmt.Errorf("saving results: %w", err)
		}
		logger.Info("results saved", "path", path, "candidates", len(cands))
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return search.FormatJSON(cands, os.Stdout)
	}
	search.FormatTable(cands, os.Stdout)
	return nil
}
