// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/harvester/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// arxivPDFBase prefixes an arXiv ID to form a PDF URL when an entry carries
// no explicit PDF link.
var arxivPDFBase = "https://arxiv.org/pdf/"

// ArxivStrategy queries the arXiv API and returns PDF links.
type ArxivStrategy struct {
	Client *http.Client
	Config types.SearchConfig
}

// Name returns the strategy identifier.
func (s *ArxivStrategy) Name() string { return types.SourceArxiv }

// Find queries arXiv by relevance for topic.
func (s *ArxivStrategy) Find(ctx context.Context, topic string, limit int) ([]types.Candidate, error) {
	q := buildArxivQuery(topic)
	if q == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}
	ctx, cancel := withTimeout(ctx, s.Config.Timeout)
	defer cancel()

	params := url.Values{
		"search_query": {q},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(maxResults(s.Config, limit))},
		"sortBy":       {"relevance"},
		"sortOrder":    {"descending"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent(s.Config))

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	var out []types.Candidate
	for _, entry := range feed.Entries {
		pdfURL := entry.pdfLink()
		if pdfURL == "" {
			id := extractArxivID(entry.ID)
			if id == "" {
				continue
			}
			pdfURL = arxivPDFBase + id
		}
		out = append(out, types.Candidate{
			URL:    pdfURL,
			Title:  strings.Join(strings.Fields(entry.Title), " "),
			Source: types.SourceArxiv,
		})
	}
	return out, nil
}

// buildArxivQuery turns a topic into an all-fields search_query value.
func buildArxivQuery(topic string) string {
	terms := strings.Fields(topic)
	if len(terms) == 0 {
		return ""
	}
	return "all:" + strings.Join(terms, " AND all:")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID    string      `xml:"id"`
	Title string      `xml:"title"`
	Links []arxivLink `xml:"link"`
}

type arxivLink struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

func (e arxivEntry) pdfLink() string {
	for _, l := range e.Links {
		if l.Title == "pdf" || l.Type == "application/pdf" {
			return l.Href
		}
	}
	return ""
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" yields "2301.07041v1").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	return idURL[idx+len(prefix):]
}
