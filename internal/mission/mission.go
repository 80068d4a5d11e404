// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mission runs the harvest loop: sample a topic, find candidates,
// fetch and feed them, and retry with a new topic until one attempt feeds
// at least one document or the attempt budget is spent.
package mission

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/pdiddy/harvester/internal/history"
	"github.com/pdiddy/harvester/internal/logging"
	"github.com/pdiddy/harvester/internal/metrics"
	"github.com/pdiddy/harvester/pkg/types"
)

// Defaults applied when MissionConfig fields are zero.
const (
	DefaultAttempts     = 3
	DefaultMaxDocuments = 5
	DefaultMinTextChars = 1000
	DefaultDelay        = time.Second
)

// Finder returns candidates for a topic. It never fails; an empty result
// means nothing was found.
type Finder interface {
	Find(ctx context.Context, topic string, limit int) []types.Candidate
}

// Fetcher turns a candidate into text. ok is false when no text could be
// obtained.
type Fetcher interface {
	Fetch(ctx context.Context, c types.Candidate) (text string, ok bool)
}

// Feeder sends text to the ingestion endpoint and returns the number of
// accepted chunks.
type Feeder interface {
	Feed(ctx context.Context, topic, text, label string) int
}

// Ledger remembers fed documents across runs.
type Ledger interface {
	Seen(ctx context.Context, key string) (bool, error)
	Record(ctx context.Context, e history.Entry) error
}

// Controller drives one run. Finder, Fetcher, Feeder, Rand and Logger are
// required; Ledger, Metrics and Sleep are optional.
type Controller struct {
	Finder  Finder
	Fetcher Fetcher
	Feeder  Feeder
	Ledger  Ledger
	Metrics *metrics.Recorder

	Config types.MissionConfig

	// Limit is passed to the finder as the candidate cap.
	Limit int

	// Rand picks topics. Tests pass a seeded source.
	Rand *rand.Rand

	// Sleep waits between fed documents. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error

	Logger *slog.Logger
}

// Run executes the topic loop over topics and returns the outcome. Topics
// are sampled uniformly with replacement, so one topic may be tried more
// than once. Run stops early when ctx is cancelled.
func (c *Controller) Run(ctx context.Context, topics []string) (report types.RunReport) {
	report = types.RunReport{
		RunID:     logging.RunID(ctx),
		StartedAt: time.Now().UTC(),
	}
	defer func() {
		report.Duration = time.Since(report.StartedAt)
		c.Metrics.Finish(report.Success, report.StartedAt.Add(report.Duration))
	}()

	if len(topics) == 0 {
		c.Logger.ErrorContext(ctx, "no topics to harvest")
		return report
	}

	attempts := orDefault(c.Config.Attempts, DefaultAttempts)
	for n := 1; n <= attempts; n++ {
		if ctx.Err() != nil {
			c.Logger.WarnContext(ctx, "run cancelled", "error", ctx.Err())
			break
		}
		topic := topics[c.Rand.IntN(len(topics))]
		c.Logger.InfoContext(ctx, "starting attempt", "attempt", n, "of", attempts, "topic", topic)

		c.Metrics.Attempt()
		a := c.attempt(ctx, n, topic)
		report.Attempts = append(report.Attempts, a)
		if a.Processed > 0 {
			report.Success = true
			c.Logger.InfoContext(ctx, "mission accomplished",
				"topic", topic, "documents", a.Processed, "chunks", a.Chunks)
			return report
		}
		c.Logger.WarnContext(ctx, "attempt produced nothing, switching topic", "attempt", n, "topic", topic)
	}

	c.Logger.ErrorContext(ctx, "mission failed: exhausted all topic attempts", "attempts", len(report.Attempts))
	return report
}

// attempt processes one topic. Candidates are handled in order until
// MaxDocuments have been fed or the list is exhausted.
func (c *Controller) attempt(ctx context.Context, n int, topic string) types.AttemptReport {
	a := types.AttemptReport{Number: n, Topic: topic}

	cands := c.Finder.Find(ctx, topic, c.Limit)
	a.Candidates = len(cands)
	for _, cand := range cands {
		c.Metrics.Found(cand.Source)
	}
	if len(cands) == 0 {
		c.Logger.InfoContext(ctx, "no documents found", "topic", topic)
		return a
	}

	maxDocs := orDefault(c.Config.MaxDocuments, DefaultMaxDocuments)
	minChars := orDefault(c.Config.MinTextChars, DefaultMinTextChars)

	for _, cand := range cands {
		if a.Processed >= maxDocs || ctx.Err() != nil {
			break
		}
		if c.seen(ctx, cand) {
			c.Logger.DebugContext(ctx, "skipping already fed document", "ref", cand.Ref())
			c.Metrics.Rejected(metrics.ReasonSeen)
			continue
		}

		c.Logger.InfoContext(ctx, "processing document", "ref", cand.Ref(), "source", cand.Source)
		text, ok := c.Fetcher.Fetch(ctx, cand)
		if !ok {
			c.Metrics.Rejected(metrics.ReasonFetch)
			continue
		}
		if chars := len([]rune(text)); chars < minChars {
			c.Logger.InfoContext(ctx, "document too short", "ref", cand.Ref(), "chars", chars, "min", minChars)
			c.Metrics.Rejected(metrics.ReasonShort)
			continue
		}

		chunks := c.Feeder.Feed(ctx, topic, text, cand.Label())
		if chunks == 0 {
			c.Metrics.Rejected(metrics.ReasonFeed)
			continue
		}
		a.Processed++
		a.Chunks += chunks
		a.Fed = append(a.Fed, cand.Ref())
		c.Metrics.Fed(cand.Source, chunks)
		c.record(ctx, topic, cand, chunks)

		if a.Processed < maxDocs {
			if err := c.sleep(ctx, orDefaultDuration(c.Config.Delay, DefaultDelay)); err != nil {
				break
			}
		}
	}
	return a
}

func (c *Controller) seen(ctx context.Context, cand types.Candidate) bool {
	if c.Ledger == nil || cand.Key() == "" {
		return false
	}
	seen, err := c.Ledger.Seen(ctx, cand.Key())
	if err != nil {
		c.Logger.WarnContext(ctx, "history lookup failed", "error", err)
		return false
	}
	return seen
}

func (c *Controller) record(ctx context.Context, topic string, cand types.Candidate, chunks int) {
	if c.Ledger == nil || cand.Key() == "" {
		return
	}
	err := c.Ledger.Record(ctx, history.Entry{
		Key:    cand.Key(),
		RunID:  logging.RunID(ctx),
		Topic:  topic,
		Source: cand.Source,
		Ref:    cand.Ref(),
		Chunks: chunks,
	})
	if err != nil {
		c.Logger.WarnContext(ctx, "history record failed", "error", err)
	}
}

func (c *Controller) sleep(ctx context.Context, d time.Duration) error {
	if c.Sleep != nil {
		return c.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func orDefaultDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}
