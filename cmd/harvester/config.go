// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/harvester/internal/feed"
	"github.com/pdiddy/harvester/internal/mission"
	"github.com/pdiddy/harvester/internal/search"
	"github.com/pdiddy/harvester/internal/secrets"
	"github.com/pdiddy/harvester/pkg/types"
)

const defaultUserAgent = "harvester/1.0"

// setDefaults registers the default value of every configuration key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("topics_file", "topics.txt")

	v.SetDefault("ingest.url", "")
	v.SetDefault("ingest.timeout", 30*time.Second)
	v.SetDefault("ingest.max_chunk_chars", feed.DefaultMaxChunkChars)

	v.SetDefault("fetch.timeout", 15*time.Second)
	v.SetDefault("fetch.max_pages", 30)
	v.SetDefault("fetch.max_bytes", 50<<20)

	v.SetDefault("search.strategies", []string{types.SourceWeb, types.SourceArxiv, types.SourceWikipedia})
	v.SetDefault("search.mode", string(types.SearchFallback))
	v.SetDefault("search.limit", search.DefaultLimit)
	v.SetDefault("search.max_results", 10)
	v.SetDefault("search.strict_minimum", 3)
	v.SetDefault("search.max_raw_results", 100)
	v.SetDefault("search.extension", ".pdf")
	v.SetDefault("search.timeout", 20*time.Second)

	v.SetDefault("mission.attempts", mission.DefaultAttempts)
	v.SetDefault("mission.max_documents", mission.DefaultMaxDocuments)
	v.SetDefault("mission.min_text_chars", mission.DefaultMinTextChars)
	v.SetDefault("mission.delay", mission.DefaultDelay)

	v.SetDefault("history.db", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("secrets_dir", secrets.DefaultDir)
}

// bindFlags binds the executing command's flags to configuration keys, so
// a flag set on the command line overrides the file and the environment.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for key, name := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return nil
}

// loadConfig assembles the harvest configuration from viper and fills
// credentials from the secrets directory.
func loadConfig(v *viper.Viper) types.HarvestConfig {
	cfg := types.HarvestConfig{
		TopicsFile: v.GetString("topics_file"),
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   v.GetDuration("search.timeout"),
				UserAgent: defaultUserAgent,
			},
			Strategies:            v.GetStringSlice("search.strategies"),
			Mode:                  types.SearchMode(v.GetString("search.mode")),
			Limit:                 v.GetInt("search.limit"),
			MaxResults:            v.GetInt("search.max_results"),
			StrictMinimum:         v.GetInt("search.strict_minimum"),
			MaxRawResults:         v.GetInt("search.max_raw_results"),
			Extension:             v.GetString("search.extension"),
			SemanticScholarAPIKey: v.GetString("search.semantic_scholar_api_key"),
			OpenAlexEmail:         v.GetString("search.openalex_email"),
		},
		Fetch: types.FetchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   v.GetDuration("fetch.timeout"),
				UserAgent: types.BrowserUserAgent,
			},
			MaxPages: v.GetInt("fetch.max_pages"),
			MaxBytes: v.GetInt64("fetch.max_bytes"),
		},
		Feed: types.FeedConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   v.GetDuration("ingest.timeout"),
				UserAgent: defaultUserAgent,
			},
			URL:           v.GetString("ingest.url"),
			MaxChunkChars: v.GetInt("ingest.max_chunk_chars"),
			Token:         v.GetString("ingest.token"),
		},
		Mission: types.MissionConfig{
			Attempts:     v.GetInt("mission.attempts"),
			MaxDocuments: v.GetInt("mission.max_documents"),
			MinTextChars: v.GetInt("mission.min_text_chars"),
			Delay:        v.GetDuration("mission.delay"),
		},
		HistoryDB: v.GetString("history.db"),
	}
	loadedSecrets.Apply(&cfg)
	return cfg
}

// newHTTPClient returns the shared client. Per-request deadlines come from
// each stage's configured timeout.
func newHTTPClient() *http.Client {
	return &http.Client{}
}

// newFinder builds the document finder for cfg. Errors are configuration
// errors.
func newFinder(client *http.Client, cfg types.SearchConfig) (*search.Finder, error) {
	switch cfg.Mode {
	case types.SearchFallback, types.SearchMerge:
	default:
		return nil, configError(fmt.Errorf("unknown search mode %q: use fallback or merge", cfg.Mode))
	}
	strategies, err := search.NewStrategies(cfg.Strategies, client, cfg, logger)
	if err != nil {
		return nil, configError(err)
	}
	return &search.Finder{Strategies: strategies, Mode: cfg.Mode, Logger: logger}, nil
}
