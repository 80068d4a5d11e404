// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the harvester pipeline:
// candidates produced by the finder, stage configuration, and the run report.
package types

import (
	"strings"
	"unicode"
)

// Source names used by the search strategies.
const (
	SourceWeb             = "web"
	SourceArxiv           = "arxiv"
	SourceOpenAlex        = "openalex"
	SourceSemanticScholar = "semantic_scholar"
	SourceWikipedia       = "wikipedia"
)

// Candidate is a discovered document reference that has not been fetched yet.
// Exactly one of URL or Text is set: search strategies that locate files
// return a URL, structured sources that already resolved the content
// (Wikipedia) return the text directly.
type Candidate struct {
	// URL is the document location for downloadable candidates.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Title is the document title when the source reports one.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Text is the resolved content of a direct handle.
	Text string `json:"-" yaml:"-"`

	// Source names the strategy that found the candidate (e.g. "web", "arxiv").
	Source string `json:"source" yaml:"source"`
}

// Label returns the source label used in ingestion titles. Web results are
// unlabelled.
func (c Candidate) Label() string {
	if c.Source == SourceWeb {
		return ""
	}
	return c.Source
}

// Ref returns the URL, or the title for direct handles.
func (c Candidate) Ref() string {
	if c.URL != "" {
		return c.URL
	}
	return c.Title
}

// IsHandle reports whether the candidate carries its content directly.
func (c Candidate) IsHandle() bool {
	return c.URL == "" && c.Text != ""
}

// Key returns the identity used for deduplication: the URL when present,
// otherwise the normalized title.
func (c Candidate) Key() string {
	if c.URL != "" {
		return "url:" + c.URL
	}
	if t := NormalizeTitle(c.Title); t != "" {
		return "title:" + t
	}
	return ""
}

// NormalizeTitle returns a lowercased, punctuation-stripped version of the title.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
