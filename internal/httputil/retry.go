// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the search, acquire and
// feed stages.
package httputil

import (
	"context"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// HTTP 429 responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 5 * time.Second

const defaultMaxRetries = 3

// Retry re-issues a request that was answered with HTTP 429 (Too Many
// Requests). Search APIs rate limit anonymous callers aggressively; every
// other status, and every transport error, is returned to the caller as is.
type Retry struct {
	// MaxRetries is the number of re-issued requests (default 3).
	MaxRetries int

	// Logger receives one record per backoff. Nil disables logging.
	Logger *slog.Logger
}

// Do executes req with exponential backoff on 429. The delay starts at
// RetryBaseDelay and doubles each attempt. On each 429 the response body is
// drained and closed before sleeping. If the context is cancelled during a
// backoff wait Do returns ctx.Err(). After exhausting retries the last 429
// response is returned so the caller can inspect it.
func (r Retry) Do(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	maxRetries := r.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		if r.Logger != nil {
			r.Logger.Debug("rate limited", "host", req.URL.Host, "backoff", backoff, "attempt", attempt+1, "max", maxRetries)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// Snippet shortens an error message to max runes for log output. Parser and network
// errors can carry whole response bodies; logs only need the first line.
func Snippet(err error, max int) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for i, r := range msg {
		if r == '\n' {
			msg = msg[:i]
			break
		}
	}
	if r := []rune(msg); max > 3 && len(r) > max {
		return string(r[:max-3]) + "..."
	}
	return msg
}
