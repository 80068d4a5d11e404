// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/pdiddy/harvester/pkg/types"
)

// IdentifierType classifies a document identifier given on the command line.
type IdentifierType int

const (
	TypeUnknown IdentifierType = iota
	TypeArxiv
	TypeDOI
	TypeURL
)

func (t IdentifierType) String() string {
	switch t {
	case TypeArxiv:
		return "arxiv"
	case TypeDOI:
		return "doi"
	case TypeURL:
		return "url"
	default:
		return "unknown"
	}
}

// Base URLs for identifier resolution. Declared as vars so tests can
// substitute httptest servers.
var (
	arxivPDFBase = "https://arxiv.org/pdf/"
	doiBase      = "https://doi.org/"
)

// arxivPattern matches arXiv IDs: "2301.07041", "arXiv:2301.07041", "2301.07041v2".
var arxivPattern = regexp.MustCompile(`^(?:arXiv:)?(\d{4}\.\d{4,5}(?:v\d+)?)$`)

// doiPattern matches DOIs: "10.1145/1234567.1234568".
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/[^\s]+$`)

// Classify determines the identifier type and returns the normalized form.
func Classify(identifier string) (IdentifierType, string) {
	identifier = strings.TrimSpace(identifier)

	if m := arxivPattern.FindStringSubmatch(identifier); m != nil {
		return TypeArxiv, m[1]
	}
	if doiPattern.MatchString(identifier) {
		return TypeDOI, identifier
	}
	if u, err := url.Parse(identifier); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return TypeURL, identifier
	}
	return TypeUnknown, identifier
}

// Resolve turns an arXiv ID, DOI or URL into a candidate with a download URL.
// DOIs are looked up in OpenAlex for an open-access PDF first and fall back
// to the doi.org resolver.
func Resolve(ctx context.Context, client *http.Client, identifier string, cfg types.SearchConfig) (types.Candidate, error) {
	idType, normalized := Classify(identifier)
	switch idType {
	case TypeArxiv:
		return types.Candidate{URL: arxivPDFBase + normalized, Source: idType.String()}, nil
	case TypeDOI:
		if oaURL, err := resolveOpenAlex(ctx, client, normalized, cfg); err == nil && oaURL != "" {
			return types.Candidate{URL: oaURL, Source: "openalex"}, nil
		}
		return types.Candidate{URL: doiBase + normalized, Source: idType.String()}, nil
	case TypeURL:
		return types.Candidate{URL: normalized, Source: idType.String()}, nil
	default:
		return types.Candidate{}, fmt.Errorf("unrecognized identifier format: %q", identifier)
	}
}
