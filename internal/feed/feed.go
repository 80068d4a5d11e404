// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package feed splits extracted text into bounded chunks and posts each
// chunk to the ingestion endpoint.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/pdiddy/harvester/internal/httputil"
	"github.com/pdiddy/harvester/pkg/types"
)

const (
	// DefaultMaxChunkChars is the chunk size used when none is configured.
	DefaultMaxChunkChars = 50000

	titlePrefix = "Auto-Harvest: "
)

// Payload is the JSON body accepted by the ingestion endpoint.
type Payload struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Chunk splits text into consecutive, non-overlapping slices of size
// characters. Every slice except the last has exactly size characters and
// the slices concatenate back to text. Characters are runes, so multi-byte
// text is never cut inside a code point.
func Chunk(text string, size int) []string {
	if size <= 0 {
		size = DefaultMaxChunkChars
	}
	var chunks []string
	count, start := 0, 0
	for i := range text {
		if count == size {
			chunks = append(chunks, text[start:i])
			start, count = i, 0
		}
		count++
	}
	if start < len(text) {
		chunks = append(chunks, text[start:])
	}
	return chunks
}

// Title derives the ingestion title for a chunk of topic. Documents found by
// a labelled source carry the label; the rest use the auto-harvest prefix.
func Title(topic, label string) string {
	if label == "" {
		return titlePrefix + topic
	}
	return fmt.Sprintf("%s (%s)", topic, label)
}

// Feeder posts chunks to the ingestion endpoint.
type Feeder struct {
	Client *http.Client
	Config types.FeedConfig
	Logger *slog.Logger
}

// Feed chunks text and posts every chunk independently. It returns the
// number of chunks the endpoint accepted with HTTP 200; failures are logged
// and never stop the remaining chunks.
func (f *Feeder) Feed(ctx context.Context, topic, text, label string) int {
	chunks := Chunk(text, f.Config.MaxChunkChars)
	title := Title(topic, label)

	fed := 0
	for i, chunk := range chunks {
		if err := f.post(ctx, Payload{Title: title, Content: chunk}); err != nil {
			f.Logger.WarnContext(ctx, "chunk rejected",
				"chunk", i+1, "of", len(chunks), "error", httputil.Snippet(err, 200))
			continue
		}
		fed++
		f.Logger.InfoContext(ctx, "chunk digested", "chunk", i+1, "of", len(chunks))
	}
	return fed
}

func (f *Feeder) post(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	if f.Config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Config.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.Config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if f.Config.UserAgent != "" {
		req.Header.Set("User-Agent", f.Config.UserAgent)
	}
	if f.Config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+f.Config.Token)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("ingestion request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ingestion endpoint returned HTTP %d", resp.StatusCode)
	}
	return nil
}
