// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire downloads candidate documents and extracts their text.
// Every failure (network, HTTP status, oversize body, malformed PDF) is
// logged and collapses to an empty result, so callers can iterate
// candidates without error handling.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/pdiddy/harvester/internal/httputil"
	"github.com/pdiddy/harvester/pkg/types"
)

const (
	// DefaultMaxPages is the page cap used when none is configured.
	DefaultMaxPages = 30

	// DefaultMaxBytes is the download cap used when none is configured.
	DefaultMaxBytes int64 = 50 << 20

	errSnippetLen = 160
)

// ErrTooLarge is returned when a download exceeds the configured byte cap.
var ErrTooLarge = errors.New("document exceeds size limit")

// Fetcher downloads URL candidates and extracts their text.
type Fetcher struct {
	Client *http.Client
	Config types.FetchConfig
	Logger *slog.Logger
}

// Fetch returns the text of c and true, or "" and false when the candidate
// could not be downloaded or parsed. Direct handles pass through unchanged.
func (f *Fetcher) Fetch(ctx context.Context, c types.Candidate) (string, bool) {
	if c.IsHandle() {
		return c.Text, true
	}
	if c.URL == "" {
		return "", false
	}

	f.Logger.InfoContext(ctx, "downloading", "url", c.URL, "source", c.Source)
	data, err := f.download(ctx, c.URL)
	if err != nil {
		f.Logger.WarnContext(ctx, "download failed", "url", c.URL, "error", httputil.Snippet(err, errSnippetLen))
		return "", false
	}

	text, err := ExtractPDF(data, f.maxPages())
	if err != nil {
		f.Logger.WarnContext(ctx, "extraction failed", "url", c.URL, "error", httputil.Snippet(err, errSnippetLen))
		return "", false
	}
	if text == "" {
		f.Logger.InfoContext(ctx, "no text extracted", "url", c.URL)
		return "", false
	}
	return text, true
}

// download fetches url with browser headers and returns the body. Non-200
// responses and bodies larger than MaxBytes are errors.
func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	if f.Config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Config.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	ua := f.Config.UserAgent
	if ua == "" {
		ua = types.BrowserUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/pdf")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	limit := f.Config.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, limit)
	}
	return data, nil
}

func (f *Fetcher) maxPages() int {
	if f.Config.MaxPages > 0 {
		return f.Config.MaxPages
	}
	return DefaultMaxPages
}
