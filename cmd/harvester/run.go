// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/harvester/internal/acquire"
	"github.com/pdiddy/harvester/internal/feed"
	"github.com/pdiddy/harvester/internal/history"
	"github.com/pdiddy/harvester/internal/logging"
	"github.com/pdiddy/harvester/internal/metrics"
	"github.com/pdiddy/harvester/internal/mission"
	"github.com/pdiddy/harvester/internal/topics"
	"github.com/pdiddy/harvester/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Harvest documents for a random topic and feed them to the endpoint",
	Long: `Run loads the topic file, then repeatedly samples a topic, searches for
documents, extracts their text, and posts it to the ingestion endpoint. The
run stops after the first attempt that feeds at least one document.

Exit codes: 0 when a document was fed, 1 when every attempt came up empty,
2 when the topic file is missing or empty, 3 on invalid configuration, 4 on
any other error.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"topics_file":            "topics",
			"ingest.url":             "ingest-url",
			"mission.attempts":       "attempts",
			"mission.max_documents":  "max-documents",
			"mission.min_text_chars": "min-chars",
			"mission.delay":          "delay",
			"search.strategies":      "strategies",
			"search.mode":            "mode",
			"history.db":             "history-db",
		})
	},
	RunE: runHarvest,
}

func init() {
	f := runCmd.Flags()
	f.String("topics", "", "topic file, one topic per line (default topics.txt)")
	f.String("ingest-url", "", "ingestion endpoint URL")
	f.Int("attempts", 0, "topics to try before giving up (default 3)")
	f.Int("max-documents", 0, "documents to feed per attempt (default 5)")
	f.Int("min-chars", 0, "minimum extracted text length (default 1000)")
	f.Duration("delay", 0, "pause after each fed document (default 1s)")
	f.StringSlice("strategies", nil, "search strategies in order (web, arxiv, openalex, semantic_scholar, wikipedia)")
	f.String("mode", "", "search mode: fallback or merge")
	f.String("history-db", "", "SQLite file recording fed documents; empty disables history")
	f.String("report", "", "write the run report to this YAML file")
	f.String("metrics-file", "", "write run metrics in Prometheus textfile format to this path")
	f.Int64("seed", 0, "random seed for topic selection (0 picks one)")

	rootCmd.AddCommand(runCmd)
}

func runHarvest(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(viper.GetViper())

	topicList, err := topics.Load(cfg.TopicsFile)
	if err != nil {
		if errors.Is(err, topics.ErrMissing) || errors.Is(err, topics.ErrEmpty) {
			return &exitError{code: types.ExitMissingTopics, err: err}
		}
		return err
	}
	if cfg.Feed.URL == "" {
		return configError(fmt.Errorf("no ingestion endpoint: set ingest.url or --ingest-url"))
	}

	client := newHTTPClient()
	finder, err := newFinder(client, cfg.Search)
	if err != nil {
		return err
	}

	ctx := logging.WithRunID(cmd.Context(), logging.NewRunID())
	c := &mission.Controller{
		Finder:  finder,
		Fetcher: &acquire.Fetcher{Client: client, Config: cfg.Fetch, Logger: logger},
		Feeder:  &feed.Feeder{Client: client, Config: cfg.Feed, Logger: logger},
		Config:  cfg.Mission,
		Limit:   cfg.Search.Limit,
		Rand:    newRand(cmd),
		Logger:  logger,
	}

	if cfg.HistoryDB != "" {
		store, err := history.Open(cfg.HistoryDB)
		if err != nil {
			return err
		}
		defer store.Close()
		c.Ledger = store
	}

	metricsPath, _ := cmd.Flags().GetString("metrics-file")
	if metricsPath != "" {
		c.Metrics = metrics.New()
	}

	logger.InfoContext(ctx, "harvest starting", "topics", len(topicList), "strategies", cfg.Search.Strategies)
	report := c.Run(ctx, topicList)
	mission.PrintSummary(os.Stdout, report)

	if path, _ := cmd.Flags().GetString("report"); path != "" {
		if err := mission.WriteReport(path, report); err != nil {
			return err
		}
	}
	if metricsPath != "" {
		if err := c.Metrics.WriteFile(metricsPath); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}

	if !report.Success {
		return &exitError{
			code: report.ExitCode(),
			err:  fmt.Errorf("exhausted %d topic attempts without feeding a document", len(report.Attempts)),
		}
	}
	return nil
}

func newRand(cmd *cobra.Command) *rand.Rand {
	seed, _ := cmd.Flags().GetInt64("seed")
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}
