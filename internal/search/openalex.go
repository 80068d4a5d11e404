// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/harvester/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// OpenAlexStrategy queries OpenAlex for open-access works with a PDF.
type OpenAlexStrategy struct {
	Client *http.Client
	Config types.SearchConfig
}

// Name returns the strategy identifier.
func (s *OpenAlexStrategy) Name() string { return types.SourceOpenAlex }

// Find searches OpenAlex works for topic. Works without an open-access PDF
// location are skipped.
func (s *OpenAlexStrategy) Find(ctx context.Context, topic string, limit int) ([]types.Candidate, error) {
	if topic == "" {
		return nil, fmt.Errorf("empty OpenAlex query")
	}
	ctx, cancel := withTimeout(ctx, s.Config.Timeout)
	defer cancel()

	n := maxResults(s.Config, limit)
	if n > 200 {
		n = 200
	}
	params := url.Values{
		"search":   {topic},
		"filter":   {"open_access.is_oa:true"},
		"per_page": {strconv.Itoa(n)},
		"page":     {"1"},
	}
	if s.Config.OpenAlexEmail != "" {
		params.Set("mailto", s.Config.OpenAlexEmail)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent(s.Config))

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	var out []types.Candidate
	for _, work := range oar.Results {
		pdfURL := work.pdfURL()
		if pdfURL == "" {
			continue
		}
		out = append(out, types.Candidate{
			URL:    pdfURL,
			Title:  work.Title,
			Source: types.SourceOpenAlex,
		})
	}
	return out, nil
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	BestOALocation  *openAlexLocation `json:"best_oa_location"`
	PrimaryLocation *openAlexLocation `json:"primary_location"`
}

type openAlexLocation struct {
	PDFURL string `json:"pdf_url"`
}

func (w openAlexWork) pdfURL() string {
	if w.BestOALocation != nil && w.BestOALocation.PDFURL != "" {
		return w.BestOALocation.PDFURL
	}
	if w.PrimaryLocation != nil {
		return w.PrimaryLocation.PDFURL
	}
	return ""
}
