// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/harvester/internal/httputil"
	"github.com/pdiddy/harvester/pkg/types"
)

// webSearchBase is the DuckDuckGo HTML endpoint. Declared as a var so tests
// can substitute an httptest server.
var webSearchBase = "https://html.duckduckgo.com/html/"

const (
	defaultExtension     = ".pdf"
	defaultStrictMinimum = 3
	defaultMaxRawResults = 100

	// maxWebPages bounds paging when result pages keep offering a next page.
	maxWebPages = 10
)

// WebStrategy searches the general web for files with a document extension.
// A strict filetype query runs first; when it finds fewer than StrictMinimum
// files, broader keyword queries follow. Each query pages through up to
// MaxRawResults raw links, which are filtered on the client side.
type WebStrategy struct {
	Client *http.Client
	Config types.SearchConfig
	Logger *slog.Logger
}

// Name returns the strategy identifier.
func (s *WebStrategy) Name() string { return types.SourceWeb }

// Find runs the strict query and, if needed, the broad queries for topic.
// A failing query is logged and skipped; Find only returns an error when
// every query failed.
func (s *WebStrategy) Find(ctx context.Context, topic string, limit int) ([]types.Candidate, error) {
	ext := s.extension()
	col := newCollector(ext, limit)

	var failed, total int
	var lastErr error
	run := func(q string) {
		total++
		s.Logger.DebugContext(ctx, "web query", "query", q)
		links, err := s.query(ctx, q)
		if err != nil {
			failed++
			lastErr = err
			s.Logger.WarnContext(ctx, "web query failed", "query", q, "error", httputil.Snippet(err, 200))
			return
		}
		col.add(links)
	}

	run(StrictQuery(topic, ext))

	minimum := s.Config.StrictMinimum
	if minimum <= 0 {
		minimum = defaultStrictMinimum
	}
	if col.len() < minimum {
		for _, q := range BroadQueries(topic, ext) {
			if col.full() || ctx.Err() != nil {
				break
			}
			run(q)
		}
	}

	if col.len() == 0 && failed == total && lastErr != nil {
		return nil, fmt.Errorf("all %d web queries failed: %w", total, lastErr)
	}
	return col.candidates(), nil
}

// StrictQuery returns the filetype-qualified query for topic.
func StrictQuery(topic, ext string) string {
	return fmt.Sprintf("%s filetype:%s", topic, strings.TrimPrefix(ext, "."))
}

// BroadQueries returns the keyword queries used when the strict query finds
// too little.
func BroadQueries(topic, ext string) []string {
	kw := strings.TrimPrefix(ext, ".")
	return []string{
		fmt.Sprintf("%s %s", topic, kw),
		fmt.Sprintf("%s documentation %s", topic, kw),
		fmt.Sprintf("%s whitepaper %s", topic, kw),
	}
}

func (s *WebStrategy) extension() string {
	ext := strings.ToLower(strings.TrimSpace(s.Config.Extension))
	if ext == "" {
		return defaultExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// query collects result links for q in page order. The first page is
// requested with GET; later pages resubmit the page's "Next" form until
// MaxRawResults links are collected or the results run out. A failing
// later page ends paging with the links so far.
func (s *WebStrategy) query(ctx context.Context, q string) ([]string, error) {
	maxRaw := s.Config.MaxRawResults
	if maxRaw <= 0 {
		maxRaw = defaultMaxRawResults
	}

	links, next, err := s.page(ctx, http.MethodGet, url.Values{"q": {q}})
	if err != nil {
		return nil, err
	}
	for pages := 1; len(links) < maxRaw && next != nil && pages < maxWebPages; pages++ {
		more, nextForm, err := s.page(ctx, http.MethodPost, next)
		if err != nil {
			s.Logger.DebugContext(ctx, "web paging stopped", "query", q, "error", httputil.Snippet(err, 200))
			break
		}
		if len(more) == 0 {
			break
		}
		links = append(links, more...)
		next = nextForm
	}
	if len(links) > maxRaw {
		links = links[:maxRaw]
	}
	return links, nil
}

// page fetches one result page. GET sends form as the query string, POST
// as a form body. It returns the page's result links and the fields of its
// next-page form, or nil when there is none.
func (s *WebStrategy) page(ctx context.Context, method string, form url.Values) ([]string, url.Values, error) {
	ctx, cancel := withTimeout(ctx, s.Config.Timeout)
	defer cancel()

	reqURL := webSearchBase
	var body io.Reader
	if method == http.MethodGet {
		reqURL += "?" + form.Encode()
	} else {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("User-Agent", types.BrowserUserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("web search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("web search returned HTTP %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing web search results: %w", err)
	}
	return resultLinks(doc), nextPageForm(doc), nil
}

// nextPageForm returns the hidden fields of the form whose submit button
// reads "Next". DuckDuckGo carries the offset (s, dc) and the session
// token (vqd) in these fields.
func nextPageForm(doc *html.Node) url.Values {
	var next url.Values
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if next != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "form" {
			fields := url.Values{}
			isNext := false
			var inputs func(*html.Node)
			inputs = func(c *html.Node) {
				if c.Type == html.ElementNode && c.Data == "input" {
					switch strings.ToLower(attr(c, "type")) {
					case "hidden":
						fields.Add(attr(c, "name"), attr(c, "value"))
					case "submit":
						isNext = isNext || strings.EqualFold(strings.TrimSpace(attr(c, "value")), "next")
					}
				}
				for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
					inputs(cc)
				}
			}
			inputs(n)
			if isNext && fields.Get("s") != "" {
				next = fields
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return next
}

// resultLinks walks the result page and returns the target of every
// result anchor, unwrapping DuckDuckGo redirect links.
func resultLinks(doc *html.Node) []string {
	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" && hasClass(n, "result__a") {
			if href, err := unwrapLink(attr(n, "href")); err == nil {
				links = append(links, href)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links
}

var errNotHTTP = errors.New("not an http link")

// unwrapLink returns the destination of a result href. DuckDuckGo wraps
// destinations as //duckduckgo.com/l/?uddg=<escaped url>.
func unwrapLink(href string) (string, error) {
	if href == "" {
		return "", errNotHTTP
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	if target := u.Query().Get("uddg"); target != "" {
		if u, err = url.Parse(target); err != nil {
			return "", err
		}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", errNotHTTP
	}
	return u.String(), nil
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// collector keeps unique document links in discovery order.
type collector struct {
	ext   string
	limit int
	seen  map[string]bool
	urls  []string
}

func newCollector(ext string, limit int) *collector {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &collector{ext: ext, limit: limit, seen: make(map[string]bool)}
}

func (c *collector) add(links []string) {
	for _, l := range links {
		if c.full() {
			return
		}
		if !HasExtension(l, c.ext) || c.seen[l] {
			continue
		}
		c.seen[l] = true
		c.urls = append(c.urls, l)
	}
}

func (c *collector) len() int   { return len(c.urls) }
func (c *collector) full() bool { return len(c.urls) >= c.limit }

func (c *collector) candidates() []types.Candidate {
	out := make([]types.Candidate, 0, len(c.urls))
	for _, u := range c.urls {
		out = append(out, types.Candidate{URL: u, Source: types.SourceWeb})
	}
	return out
}

// HasExtension reports whether the path of rawURL ends in ext, ignoring case
// and any query string.
func HasExtension(rawURL, ext string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), strings.ToLower(ext))
}
