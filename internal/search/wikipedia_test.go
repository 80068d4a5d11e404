// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/pdiddy/harvester/internal/logging"
)

// wikiFixture describes the MediaWiki responses served by wikiServer.
type wikiFixture struct {
	suggestion string
	hits       []string
	pages      map[string]string   // title -> page object JSON
	links      map[string][]string // disambiguation title -> listed titles, in page order

	mu      sync.Mutex
	fetched []string // titles requested with prop=extracts
}

func wikiServer(t *testing.T, fx *wikiFixture) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("formatversion"))
		w.Header().Set("Content-Type", "application/json")

		if q.Get("action") == "parse" {
			title := q.Get("page")
			body, _ := json.Marshal(map[string]any{
				"parse": map[string]any{"title": title, "text": disambigHTML(fx.links[title])},
			})
			w.Write(body)
			return
		}
		assert.Equal(t, "query", q.Get("action"))

		switch {
		case q.Get("list") == "search":
			var hits []string
			for _, h := range fx.hits {
				hits = append(hits, fmt.Sprintf(`{"title":%q}`, h))
			}
			fmt.Fprintf(w, `{"query":{"searchinfo":{"suggestion":%q},"search":[%s]}}`,
				fx.suggestion, strings.Join(hits, ","))

		case strings.Contains(q.Get("prop"), "extracts"):
			title := q.Get("titles")
			fx.mu.Lock()
			fx.fetched = append(fx.fetched, title)
			fx.mu.Unlock()
			page, ok := fx.pages[title]
			if !ok {
				page = fmt.Sprintf(`{"title":%q,"missing":true}`, title)
			}
			fmt.Fprintf(w, `{"query":{"pages":[%s]}}`, page)

		default:
			t.Errorf("unexpected request: %s", r.URL.RawQuery)
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
}

// disambigHTML renders a disambiguation page body listing titles in order,
// with the table of contents, help links and red links a real page carries.
func disambigHTML(titles []string) string {
	var b strings.Builder
	b.WriteString(`<div class="mw-parser-output"><p><b>Mercury</b> may refer to:</p>`)
	b.WriteString(`<div id="toc"><ul><li class="toclevel-1 tocsection-1"><a href="#Science"><span>Science</span></a></li></ul></div>`)
	b.WriteString(`<ul>`)
	b.WriteString(`<li><a href="/w/index.php?title=Mercury_(band)&amp;action=edit&amp;redlink=1" class="new" title="Mercury (band) (page does not exist)">Mercury (band)</a></li>`)
	for _, t := range titles {
		fmt.Fprintf(&b, `<li><a href="/wiki/%s" title="%s">%s</a>, see also <a href="/wiki/Zzz" title="Zzz">Zzz</a></li>`,
			url.PathEscape(strings.ReplaceAll(t, " ", "_")), html.EscapeString(t), html.EscapeString(t))
	}
	b.WriteString(`</ul><ul><li><a href="/wiki/Help:Disambiguation" title="Help:Disambiguation">help</a></li></ul></div>`)
	return b.String()
}

func newWikipedia(t *testing.T, fx *wikiFixture) *WikipediaStrategy {
	t.Helper()
	ts := wikiServer(t, fx)
	t.Cleanup(ts.Close)

	old := wikipediaAPIBase
	wikipediaAPIBase = ts.URL
	t.Cleanup(func() { wikipediaAPIBase = old })

	return &WikipediaStrategy{Client: ts.Client(), Config: testCfg(), Logger: logging.Discard()}
}

const disambigPage = `{"title":"Mercury","extract":"Mercury may refer to:","pageprops":{"disambiguation":""}}`

func TestWikipediaDirectArticle(t *testing.T) {
	fx := &wikiFixture{
		hits:  []string{"Graph theory"},
		pages: map[string]string{"Graph theory": `{"title":"Graph theory","extract":"  Graph theory is the study of graphs.  "}`},
	}
	s := newWikipedia(t, fx)

	got, err := s.Find(context.Background(), "graph theory", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Graph theory", got[0].Title)
	assert.Equal(t, "Graph theory is the study of graphs.", got[0].Text)
	assert.Equal(t, "wikipedia", got[0].Source)
	assert.Empty(t, got[0].URL)
	assert.True(t, got[0].IsHandle())
}

func TestWikipediaPrefersSuggestion(t *testing.T) {
	fx := &wikiFixture{
		suggestion: "Graph theory",
		hits:       []string{"Graph (abstract data type)"},
		pages:      map[string]string{"Graph theory": `{"title":"Graph theory","extract":"text"}`},
	}
	s := newWikipedia(t, fx)

	got, err := s.Find(context.Background(), "grpah theory", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"Graph theory"}, fx.fetched)
}

func TestWikipediaFollowsFirstAlternativeOnce(t *testing.T) {
	fx := &wikiFixture{
		hits: []string{"Mercury"},
		pages: map[string]string{
			"Mercury":           disambigPage,
			"Mercury (element)": `{"title":"Mercury (element)","extract":"Mercury is a chemical element."}`,
			"Mercury (planet)":  `{"title":"Mercury (planet)","extract":"Mercury is a planet."}`,
		},
		links: map[string][]string{"Mercury": {"Mercury (element)", "Mercury (planet)"}},
	}
	s := newWikipedia(t, fx)

	got, err := s.Find(context.Background(), "mercury", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Mercury (element)", got[0].Title)
	assert.Equal(t, "Mercury is a chemical element.", got[0].Text)
	assert.Equal(t, []string{"Mercury", "Mercury (element)"}, fx.fetched)
}

func TestWikipediaFollowsListOrderNotAlphabetical(t *testing.T) {
	fx := &wikiFixture{
		hits: []string{"Mercury"},
		pages: map[string]string{
			"Mercury":           disambigPage,
			"Mercury (element)": `{"title":"Mercury (element)","extract":"Mercury is a chemical element."}`,
			"Mercury (planet)":  `{"title":"Mercury (planet)","extract":"Mercury is a planet."}`,
		},
		links: map[string][]string{"Mercury": {"Mercury (planet)", "Mercury (element)"}},
	}
	s := newWikipedia(t, fx)

	got, err := s.Find(context.Background(), "mercury", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Mercury (planet)", got[0].Title)
}

func TestListedArticles(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(disambigHTML([]string{"Mercury (planet)", "Freddie Mercury", "Mercury (planet)"})))
	require.NoError(t, err)
	assert.Equal(t, []string{"Mercury (planet)", "Freddie Mercury"}, listedArticles(doc))
}

func TestWikipediaSecondDisambiguationFails(t *testing.T) {
	fx := &wikiFixture{
		hits: []string{"Mercury"},
		pages: map[string]string{
			"Mercury":       disambigPage,
			"Mercury (god)": `{"title":"Mercury (god)","extract":"Mercury may refer to:","pageprops":{"disambiguation":""}}`,
		},
		links: map[string][]string{"Mercury": {"Mercury (god)", "Mercury (planet)"}},
	}
	s := newWikipedia(t, fx)

	got, err := s.Find(context.Background(), "mercury", 10)
	assert.True(t, errors.Is(err, ErrAmbiguous), "err = %v", err)
	assert.Empty(t, got)
	assert.Equal(t, []string{"Mercury", "Mercury (god)"}, fx.fetched, "only one alternative is followed")
}

func TestWikipediaDisambiguationWithoutLinks(t *testing.T) {
	fx := &wikiFixture{
		hits:  []string{"Mercury"},
		pages: map[string]string{"Mercury": disambigPage},
	}
	s := newWikipedia(t, fx)

	_, err := s.Find(context.Background(), "mercury", 10)
	assert.True(t, errors.Is(err, ErrAmbiguous), "err = %v", err)
}

func TestWikipediaNoArticle(t *testing.T) {
	tests := []struct {
		name string
		fx   *wikiFixture
	}{
		{"no search hits", &wikiFixture{}},
		{"missing page", &wikiFixture{hits: []string{"Nothing"}}},
		{"empty extract", &wikiFixture{
			hits:  []string{"Stub"},
			pages: map[string]string{"Stub": `{"title":"Stub","extract":"   "}`},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newWikipedia(t, tt.fx)
			got, err := s.Find(context.Background(), "topic", 10)
			assert.True(t, errors.Is(err, ErrNoArticle), "err = %v", err)
			assert.Empty(t, got)
		})
	}
}

func TestWikipediaHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	old := wikipediaAPIBase
	wikipediaAPIBase = ts.URL
	defer func() { wikipediaAPIBase = old }()

	s := &WikipediaStrategy{Client: ts.Client(), Config: testCfg(), Logger: logging.Discard()}
	_, err := s.Find(context.Background(), "topic", 10)
	assert.ErrorContains(t, err, "HTTP 503")
}
