// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/harvester/pkg/types"
)

// wikipediaAPIBase is the MediaWiki action API endpoint. Declared as a var
// so tests can substitute an httptest server.
var wikipediaAPIBase = "https://en.wikipedia.org/w/api.php"

var (
	// ErrNoArticle is returned when no article matches the topic or the
	// resolved article has no text.
	ErrNoArticle = errors.New("no wikipedia article")

	// ErrAmbiguous is returned when the followed alternative of a
	// disambiguation page is itself a disambiguation page.
	ErrAmbiguous = errors.New("wikipedia title is ambiguous")
)

// WikipediaStrategy resolves a topic to a single encyclopedia article and
// returns its plain-text extract as a direct handle.
type WikipediaStrategy struct {
	Client *http.Client
	Config types.SearchConfig
	Logger *slog.Logger
}

// Name returns the strategy identifier.
func (s *WikipediaStrategy) Name() string { return types.SourceWikipedia }

// Find resolves topic through the search suggestion, then fetches the
// article. A disambiguation page is resolved by following its first listed
// alternative exactly once.
func (s *WikipediaStrategy) Find(ctx context.Context, topic string, _ int) ([]types.Candidate, error) {
	ctx, cancel := withTimeout(ctx, s.Config.Timeout)
	defer cancel()

	title, err := s.suggest(ctx, topic)
	if err != nil {
		return nil, err
	}

	page, err := s.page(ctx, title)
	if err != nil {
		return nil, err
	}
	if page.isDisambiguation() {
		options, err := s.alternatives(ctx, page.Title)
		if err != nil {
			return nil, err
		}
		if len(options) == 0 {
			return nil, fmt.Errorf("%w: %q lists no alternatives", ErrAmbiguous, page.Title)
		}
		s.Logger.InfoContext(ctx, "wikipedia disambiguation", "title", page.Title, "following", options[0])
		if page, err = s.page(ctx, options[0]); err != nil {
			return nil, err
		}
		if page.isDisambiguation() {
			return nil, fmt.Errorf("%w: %q", ErrAmbiguous, page.Title)
		}
	}

	text := strings.TrimSpace(page.Extract)
	if page.Missing || text == "" {
		return nil, fmt.Errorf("%w: %q has no text", ErrNoArticle, page.Title)
	}
	return []types.Candidate{{
		Title:  page.Title,
		Text:   text,
		Source: types.SourceWikipedia,
	}}, nil
}

// suggest returns the search engine's spelling suggestion for topic, or the
// title of the best hit when there is none.
func (s *WikipediaStrategy) suggest(ctx context.Context, topic string) (string, error) {
	var resp wikiResponse
	err := s.get(ctx, url.Values{
		"list":     {"search"},
		"srsearch": {topic},
		"srinfo":   {"suggestion"},
		"srprop":   {""},
		"srlimit":  {"1"},
	}, &resp)
	if err != nil {
		return "", err
	}
	if sug := resp.Query.SearchInfo.Suggestion; sug != "" {
		return sug, nil
	}
	if len(resp.Query.Search) == 0 {
		return "", fmt.Errorf("%w: %q", ErrNoArticle, topic)
	}
	return resp.Query.Search[0].Title, nil
}

// page fetches the plain-text extract and page properties for title.
func (s *WikipediaStrategy) page(ctx context.Context, title string) (wikiPage, error) {
	var resp wikiResponse
	err := s.get(ctx, url.Values{
		"prop":        {"extracts|pageprops"},
		"explaintext": {"1"},
		"redirects":   {"1"},
		"titles":      {title},
	}, &resp)
	if err != nil {
		return wikiPage{}, err
	}
	if len(resp.Query.Pages) == 0 {
		return wikiPage{}, fmt.Errorf("%w: %q", ErrNoArticle, title)
	}
	return resp.Query.Pages[0], nil
}

// alternatives returns the article titles a disambiguation page lists, in
// page order. Each list item contributes the first article link it holds.
func (s *WikipediaStrategy) alternatives(ctx context.Context, title string) ([]string, error) {
	var resp wikiResponse
	err := s.get(ctx, url.Values{
		"action":    {"parse"},
		"page":      {title},
		"prop":      {"text"},
		"redirects": {"1"},
	}, &resp)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(strings.NewReader(resp.Parse.Text))
	if err != nil {
		return nil, fmt.Errorf("parsing disambiguation page: %w", err)
	}
	return listedArticles(doc), nil
}

// nonArticlePrefixes are the namespaces skipped when reading list links.
var nonArticlePrefixes = []string{
	"Category:", "File:", "Help:", "Portal:", "Special:", "Talk:", "Template:", "Wikipedia:",
}

// listedArticles returns the first article link of every list item in doc,
// skipping table-of-contents entries.
func listedArticles(doc *html.Node) []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "li" && !strings.Contains(attr(n, "class"), "toc") {
			if t := firstArticleLink(n); t != "" && !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

func firstArticleLink(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "a" {
		href, title := attr(n, "href"), attr(n, "title")
		if strings.HasPrefix(href, "/wiki/") && title != "" && !hasPrefixAny(title, nonArticlePrefixes) {
			return title
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		// Nested lists are visited as their own items.
		if c.Type == html.ElementNode && (c.Data == "ul" || c.Data == "ol") {
			continue
		}
		if t := firstArticleLink(c); t != "" {
			return t
		}
	}
	return ""
}

func hasPrefixAny(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// get calls the action API. The action defaults to query.
func (s *WikipediaStrategy) get(ctx context.Context, params url.Values, dst *wikiResponse) error {
	if params.Get("action") == "" {
		params.Set("action", "query")
	}
	params.Set("format", "json")
	params.Set("formatversion", "2")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wikipediaAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent(s.Config))

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("Wikipedia API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Wikipedia API returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("parsing Wikipedia response: %w", err)
	}
	return nil
}

// MediaWiki API JSON structures (formatversion=2).
type wikiResponse struct {
	Query struct {
		SearchInfo struct {
			Suggestion string `json:"suggestion"`
		} `json:"searchinfo"`
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
		Pages []wikiPage `json:"pages"`
	} `json:"query"`
	Parse struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	} `json:"parse"`
}

type wikiPage struct {
	Title     string            `json:"title"`
	Missing   bool              `json:"missing"`
	Extract   string            `json:"extract"`
	PageProps map[string]string `json:"pageprops"`
}

func (p wikiPage) isDisambiguation() bool {
	_, ok := p.PageProps["disambiguation"]
	return ok
}
