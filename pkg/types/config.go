// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// BrowserUserAgent is sent when downloading documents. Many document hosts
// reject requests that do not look like they come from a browser.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the per-request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchMode controls how the finder combines strategies.
type SearchMode string

const (
	// SearchFallback returns the first strategy that yields candidates.
	SearchFallback SearchMode = "fallback"
	// SearchMerge concatenates the candidates of every strategy.
	SearchMerge SearchMode = "merge"
)

// SearchConfig holds settings for the document finder.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Strategies lists the search strategies in the order they are tried
	// (web, arxiv, openalex, semantic_scholar, wikipedia).
	Strategies []string `json:"strategies" yaml:"strategies"`

	// Mode selects fallback or merge behaviour.
	Mode SearchMode `json:"mode" yaml:"mode"`

	// Limit caps the number of candidates returned per topic (default 50).
	Limit int `json:"limit" yaml:"limit"`

	// MaxResults caps the results requested from academic indices (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// StrictMinimum is the number of strict web results below which the
	// broad queries are issued (default 3).
	StrictMinimum int `json:"strict_minimum" yaml:"strict_minimum"`

	// MaxRawResults caps the unfiltered links the web strategy collects per
	// query, paging through results as needed (default 100).
	MaxRawResults int `json:"max_raw_results" yaml:"max_raw_results"`

	// Extension is the document extension kept by the web strategy (default ".pdf").
	Extension string `json:"extension" yaml:"extension"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// OpenAlexEmail is sent as mailto for the OpenAlex polite pool.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`
}

// FetchConfig holds settings for document download and text extraction.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxPages caps the number of PDF pages read per document (default 30).
	MaxPages int `json:"max_pages" yaml:"max_pages"`

	// MaxBytes caps the size of a downloaded document (default 50 MiB).
	MaxBytes int64 `json:"max_bytes" yaml:"max_bytes"`
}

// FeedConfig holds settings for the ingestion endpoint.
type FeedConfig struct {
	HTTPConfig `yaml:",inline"`

	// URL is the ingestion endpoint that accepts {"title","content"} posts.
	URL string `json:"url" yaml:"url"`

	// MaxChunkChars is the maximum number of characters per chunk (default 50000).
	MaxChunkChars int `json:"max_chunk_chars" yaml:"max_chunk_chars"`

	// Token is an optional bearer token for the ingestion endpoint.
	Token string `json:"-" yaml:"-"`
}

// MissionConfig holds settings for the topic attempt loop.
type MissionConfig struct {
	// Attempts is the number of topics tried before giving up (default 3).
	Attempts int `json:"attempts" yaml:"attempts"`

	// MaxDocuments stops an attempt once this many documents are fed (default 5).
	MaxDocuments int `json:"max_documents" yaml:"max_documents"`

	// MinTextChars rejects extracted texts shorter than this (default 1000).
	MinTextChars int `json:"min_text_chars" yaml:"min_text_chars"`

	// Delay is the pause after each fed document (default 1s).
	Delay time.Duration `json:"delay" yaml:"delay"`
}

// HarvestConfig groups all stage configurations for a run.
type HarvestConfig struct {
	TopicsFile string        `json:"topics_file" yaml:"topics_file"`
	Search     SearchConfig  `json:"search" yaml:"search"`
	Fetch      FetchConfig   `json:"fetch" yaml:"fetch"`
	Feed       FeedConfig    `json:"feed" yaml:"feed"`
	Mission    MissionConfig `json:"mission" yaml:"mission"`
	HistoryDB  string        `json:"history_db,omitempty" yaml:"history_db,omitempty"`
}
