// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/harvester/internal/httputil"
	"github.com/pdiddy/harvester/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,openAccessPdf"

// SemanticScholarStrategy queries Semantic Scholar for papers with an open
// access PDF. Rate-limited responses are retried with back-off.
type SemanticScholarStrategy struct {
	Client *http.Client
	Config types.SearchConfig
	Logger *slog.Logger
}

// Name returns the strategy identifier.
func (s *SemanticScholarStrategy) Name() string { return types.SourceSemanticScholar }

// Find searches Semantic Scholar for topic.
func (s *SemanticScholarStrategy) Find(ctx context.Context, topic string, limit int) ([]types.Candidate, error) {
	if topic == "" {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}

	params := url.Values{
		"query":         {topic},
		"limit":         {strconv.Itoa(maxResults(s.Config, limit))},
		"fields":        {semanticFields},
		"openAccessPdf": {""},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent(s.Config))
	if s.Config.SemanticScholarAPIKey != "" {
		req.Header.Set("x-api-key", s.Config.SemanticScholarAPIKey)
	}

	// The timeout applies per attempt so back-off waits are not cut short.
	client := s.Client
	if s.Config.Timeout > 0 {
		c := *s.Client
		c.Timeout = s.Config.Timeout
		client = &c
	}
	resp, err := httputil.Retry{Logger: s.Logger}.Do(ctx, client, req)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	var out []types.Candidate
	for _, paper := range sr.Data {
		if paper.OpenAccessPDF == nil || paper.OpenAccessPDF.URL == "" {
			continue
		}
		out = append(out, types.Candidate{
			URL:    paper.OpenAccessPDF.URL,
			Title:  paper.Title,
			Source: types.SourceSemanticScholar,
		})
	}
	return out, nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total int             `json:"total"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID       string       `json:"paperId"`
	Title         string       `json:"title"`
	OpenAccessPDF *semanticPDF `json:"openAccessPdf"`
}

type semanticPDF struct {
	URL    string `json:"url"`
	Status string `json:"status"`
}
