// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/harvester/internal/logging"
	"github.com/pdiddy/harvester/pkg/types"
)

// --- mock strategy ---

type mockStrategy struct {
	name    string
	results []types.Candidate
	err     error
	calls   int
}

func (m *mockStrategy) Name() string { return m.name }

func (m *mockStrategy) Find(_ context.Context, _ string, _ int) ([]types.Candidate, error) {
	m.calls++
	return m.results, m.err
}

func testCfg() types.SearchConfig {
	return types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "test/0.1",
		},
		MaxResults: 20,
	}
}

func urls(cands []types.Candidate) []string {
	var out []string
	for _, c := range cands {
		out = append(out, c.Ref())
	}
	return out
}

func webCand(u string) types.Candidate {
	return types.Candidate{URL: u, Source: types.SourceWeb}
}

// --- Finder ---

func TestFinderFallbackStopsAtFirstNonEmpty(t *testing.T) {
	empty := &mockStrategy{name: "empty"}
	first := &mockStrategy{name: "first", results: []types.Candidate{webCand("https://a/1.pdf")}}
	second := &mockStrategy{name: "second", results: []types.Candidate{webCand("https://b/2.pdf")}}

	f := &Finder{Strategies: []Strategy{empty, first, second}, Logger: logging.Discard()}
	got := f.Find(context.Background(), "topic", 10)

	assert.Equal(t, []string{"https://a/1.pdf"}, urls(got))
	assert.Equal(t, 1, empty.calls)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls, "fallback mode must not query later strategies")
}

func TestFinderMergeConcatenatesAll(t *testing.T) {
	a := &mockStrategy{name: "a", results: []types.Candidate{webCand("https://a/1.pdf"), webCand("https://a/2.pdf")}}
	b := &mockStrategy{name: "b", results: []types.Candidate{webCand("https://a/2.pdf"), webCand("https://b/3.pdf")}}

	f := &Finder{Strategies: []Strategy{a, b}, Mode: types.SearchMerge, Logger: logging.Discard()}
	got := f.Find(context.Background(), "topic", 10)

	assert.Equal(t, []string{"https://a/1.pdf", "https://a/2.pdf", "https://b/3.pdf"}, urls(got))
}

func TestFinderSwallowsErrors(t *testing.T) {
	broken := &mockStrategy{name: "broken", err: errors.New("connection refused")}
	ok := &mockStrategy{name: "ok", results: []types.Candidate{webCand("https://a/1.pdf")}}

	f := &Finder{Strategies: []Strategy{broken, ok}, Logger: logging.Discard()}
	got := f.Find(context.Background(), "topic", 10)
	assert.Len(t, got, 1)

	f = &Finder{Strategies: []Strategy{broken}, Logger: logging.Discard()}
	assert.Empty(t, f.Find(context.Background(), "topic", 10))
}

func TestFinderTruncatesToLimit(t *testing.T) {
	var many []types.Candidate
	for i := range 20 {
		many = append(many, webCand(fmt.Sprintf("https://a/%d.pdf", i)))
	}
	f := &Finder{Strategies: []Strategy{&mockStrategy{name: "a", results: many}}, Logger: logging.Discard()}

	got := f.Find(context.Background(), "topic", 5)
	require.Len(t, got, 5)
	assert.Equal(t, "https://a/0.pdf", got[0].URL)
	assert.Equal(t, "https://a/4.pdf", got[4].URL)
}

func TestDedupe(t *testing.T) {
	cands := []types.Candidate{
		webCand("https://a/1.pdf"),
		{URL: "https://a/1.pdf", Source: types.SourceArxiv},
		{Title: "Graph Theory", Text: "x", Source: types.SourceWikipedia},
		{Title: "graph  theory!", Text: "y", Source: types.SourceWikipedia},
		{Source: types.SourceWeb},
	}
	got := dedupe(cands)
	require.Len(t, got, 2)
	assert.Equal(t, types.SourceWeb, got[0].Source, "first occurrence wins")
	assert.Equal(t, "x", got[1].Text)
}

// An academic backend that exceeds its timeout yields nothing, so the
// encyclopedia strategy decides the outcome.
func TestFinderAcademicTimeoutFallsBackToWikipedia(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()
	wiki := wikiServer(t, &wikiFixture{
		hits:  []string{"Graph theory"},
		pages: map[string]string{"Graph theory": `{"title":"Graph theory","extract":"Graph theory is the study of graphs."}`},
	})
	defer wiki.Close()

	oldArxiv, oldWiki := arxivAPIBase, wikipediaAPIBase
	arxivAPIBase, wikipediaAPIBase = slow.URL, wiki.URL
	defer func() { arxivAPIBase, wikipediaAPIBase = oldArxiv, oldWiki }()

	cfg := testCfg()
	cfg.Timeout = 50 * time.Millisecond
	f := &Finder{
		Strategies: []Strategy{
			&ArxivStrategy{Client: http.DefaultClient, Config: cfg},
			&WikipediaStrategy{Client: http.DefaultClient, Config: testCfg(), Logger: logging.Discard()},
		},
		Logger: logging.Discard(),
	}

	got := f.Find(context.Background(), "graph theory", 10)
	require.Len(t, got, 1)
	assert.Equal(t, types.SourceWikipedia, got[0].Source)
	assert.True(t, got[0].IsHandle())
}

// --- NewStrategies ---

func TestNewStrategies(t *testing.T) {
	got, err := NewStrategies([]string{"web", "arxiv", "openalex", "semantic_scholar", "wikipedia"},
		http.DefaultClient, testCfg(), logging.Discard())
	require.NoError(t, err)

	var names []string
	for _, s := range got {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"web", "arxiv", "openalex", "semantic_scholar", "wikipedia"}, names)

	_, err = NewStrategies([]string{"web", "bing"}, http.DefaultClient, testCfg(), logging.Discard())
	assert.ErrorContains(t, err, "bing")

	_, err = NewStrategies(nil, http.DefaultClient, testCfg(), logging.Discard())
	assert.Error(t, err)
}

func TestMaxResults(t *testing.T) {
	assert.Equal(t, 10, maxResults(types.SearchConfig{}, 50))
	assert.Equal(t, 20, maxResults(types.SearchConfig{MaxResults: 20}, 50))
	assert.Equal(t, 5, maxResults(types.SearchConfig{MaxResults: 20}, 5))
}

// --- Formatting ---

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	FormatTable([]types.Candidate{
		webCand("https://a/1.pdf"),
		{Title: "Graph theory", Text: "abc", Source: types.SourceWikipedia},
	}, &buf)

	out := buf.String()
	assert.Contains(t, out, "https://a/1.pdf")
	assert.Contains(t, out, "(3 chars inline)")
	assert.Contains(t, out, "2 documents")
}

func TestFormatTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(nil, &buf)
	assert.Equal(t, "No documents found.\n", buf.String())
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSON([]types.Candidate{
		{URL: "https://a/1.pdf", Title: "One", Source: types.SourceArxiv},
	}, &buf))

	var decoded []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "https://a/1.pdf", decoded[0]["url"])
	assert.Equal(t, "arxiv", decoded[0]["source"])
	assert.NotContains(t, buf.String(), "Text")
}

// --- Results file ---

func TestResultsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.yaml")
	cfg := testCfg()
	cfg.Strategies = []string{"web", "wikipedia"}
	cfg.Mode = types.SearchFallback

	cands := []types.Candidate{
		webCand("https://a/1.pdf"),
		webCand("https://a/2.pdf"),
		{Title: "Graph theory", Text: "not persisted", Source: types.SourceWikipedia},
	}
	require.NoError(t, WriteResultsFile(path, "graph theory", cfg, cands))

	rf, err := ReadResultsFile(path)
	require.NoError(t, err)
	assert.Equal(t, "graph theory", rf.Topic)
	assert.Equal(t, []string{"web", "wikipedia"}, rf.Strategies)
	assert.Equal(t, 3, rf.Summary.Total)
	assert.Equal(t, 2, rf.Summary.BySource["web"])
	require.Len(t, rf.Candidates, 3)
	assert.Equal(t, "Graph theory", rf.Candidates[2].Title)
	assert.Empty(t, rf.Candidates[2].Text)
}

func TestReadResultsFileMissing(t *testing.T) {
	_, err := ReadResultsFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "reading results file")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	got := truncate(strings.Repeat("a", 20), 10)
	assert.Equal(t, "aaaaaaa...", got)

	title := "Éléments de théorie: " + strings.Repeat("é", 40)
	got = truncate(title, 50)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 50, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "é..."))
}
