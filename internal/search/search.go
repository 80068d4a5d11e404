// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search finds candidate documents for a topic. Each backend is a
// Strategy; the Finder runs the configured strategies in order, swallows
// their failures, and returns a deduplicated candidate list.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/harvester/internal/httputil"
	"github.com/pdiddy/harvester/pkg/types"
)

// DefaultLimit is the candidate cap used when none is configured.
const DefaultLimit = 50

// Strategy searches a single backend for documents about a topic.
type Strategy interface {
	Name() string
	Find(ctx context.Context, topic string, limit int) ([]types.Candidate, error)
}

// Finder runs strategies for a topic.
type Finder struct {
	Strategies []Strategy
	Mode       types.SearchMode
	Logger     *slog.Logger
}

// Find returns up to limit unique candidates for topic. In fallback mode the
// first strategy with results wins; in merge mode every strategy runs. A
// strategy error counts as zero results and never aborts the search.
func (f *Finder) Find(ctx context.Context, topic string, limit int) []types.Candidate {
	if limit <= 0 {
		limit = DefaultLimit
	}
	f.Logger.InfoContext(ctx, "hunting documents", "topic", topic)

	var all []types.Candidate
	for _, s := range f.Strategies {
		if ctx.Err() != nil {
			break
		}
		found, err := s.Find(ctx, topic, limit)
		if err != nil {
			f.Logger.WarnContext(ctx, "search strategy failed",
				"strategy", s.Name(), "error", httputil.Snippet(err, 200))
			continue
		}
		f.Logger.InfoContext(ctx, "search strategy finished", "strategy", s.Name(), "found", len(found))
		all = append(all, found...)

		if f.Mode != types.SearchMerge && len(dedupe(all)) > 0 {
			break
		}
	}

	out := dedupe(all)
	if len(out) > limit {
		out = out[:limit]
	}
	f.Logger.InfoContext(ctx, "unique documents found", "topic", topic, "count", len(out))
	return out
}

// dedupe keeps the first candidate for each identity and drops candidates
// without one.
func dedupe(cands []types.Candidate) []types.Candidate {
	seen := make(map[string]bool, len(cands))
	var out []types.Candidate
	for _, c := range cands {
		key := c.Key()
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

// NewStrategies builds the named strategies in order. Unknown names are an
// error so that configuration typos surface before a run starts.
func NewStrategies(names []string, client *http.Client, cfg types.SearchConfig, log *slog.Logger) ([]Strategy, error) {
	var out []Strategy
	for _, name := range names {
		switch strings.TrimSpace(name) {
		case types.SourceWeb:
			out = append(out, &WebStrategy{Client: client, Config: cfg, Logger: log})
		case types.SourceArxiv:
			out = append(out, &ArxivStrategy{Client: client, Config: cfg})
		case types.SourceOpenAlex:
			out = append(out, &OpenAlexStrategy{Client: client, Config: cfg})
		case types.SourceSemanticScholar:
			out = append(out, &SemanticScholarStrategy{Client: client, Config: cfg, Logger: log})
		case types.SourceWikipedia:
			out = append(out, &WikipediaStrategy{Client: client, Config: cfg, Logger: log})
		default:
			return nil, fmt.Errorf("unknown search strategy %q", name)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no search strategies configured")
	}
	return out, nil
}

// maxResults returns the academic result cap.
func maxResults(cfg types.SearchConfig, limit int) int {
	n := cfg.MaxResults
	if n <= 0 {
		n = 10
	}
	if limit > 0 && n > limit {
		n = limit
	}
	return n
}

// withTimeout bounds ctx by d when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func userAgent(cfg types.SearchConfig) string {
	if cfg.UserAgent != "" {
		return cfg.UserAgent
	}
	return "harvester/1.0"
}

// FormatTable writes candidates as a human-readable table to w.
func FormatTable(cands []types.Candidate, w io.Writer) {
	if len(cands) == 0 {
		fmt.Fprintln(w, "No documents found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-18s  %-50s  %s\n", "Rank", "Source", "Title", "Location")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, c := range cands {
		loc := c.URL
		if loc == "" {
			loc = fmt.Sprintf("(%d chars inline)", len(c.Text))
		}
		fmt.Fprintf(w, "%-4d  %-18s  %-50s  %s\n", i+1, c.Source, truncate(c.Title, 50), loc)
	}
	fmt.Fprintf(w, "\n%d documents\n", len(cands))
}

// FormatJSON writes candidates as indented JSON to w.
func FormatJSON(cands []types.Candidate, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(cands)
}

// truncate cuts s to max runes.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
