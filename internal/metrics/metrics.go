// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics counts harvest activity in a private Prometheus registry.
// A run is a one-shot process, so the registry is written to a file in the
// node exporter textfile format instead of being scraped.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "harvester"

// Rejection reasons.
const (
	ReasonFetch = "fetch"
	ReasonShort = "short"
	ReasonFeed  = "feed"
	ReasonSeen  = "seen"
)

// Recorder holds the run counters. A nil *Recorder ignores every call.
type Recorder struct {
	reg *prometheus.Registry

	attempts   prometheus.Counter
	candidates *prometheus.CounterVec
	documents  *prometheus.CounterVec
	chunks     prometheus.Counter
	rejected   *prometheus.CounterVec
	success    prometheus.Gauge
	finished   prometheus.Gauge
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_total",
			Help:      "Topic attempts started.",
		}),
		candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Candidates returned by the finder, by source.",
		}, []string{"source"}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_fed_total",
			Help:      "Documents with at least one accepted chunk, by source.",
		}, []string{"source"}),
		chunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_fed_total",
			Help:      "Chunks accepted by the ingestion endpoint.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_rejected_total",
			Help:      "Candidates skipped, by reason.",
		}, []string{"reason"}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the last run fed a document, 0 otherwise.",
		}),
		finished: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}
	r.reg.MustRegister(r.attempts, r.candidates, r.documents, r.chunks, r.rejected, r.success, r.finished)
	return r
}

// Attempt counts a started topic attempt.
func (r *Recorder) Attempt() {
	if r == nil {
		return
	}
	r.attempts.Inc()
}

// Found counts one candidate from source.
func (r *Recorder) Found(source string) {
	if r == nil {
		return
	}
	r.candidates.WithLabelValues(source).Inc()
}

// Fed counts a processed document and its accepted chunks.
func (r *Recorder) Fed(source string, chunks int) {
	if r == nil {
		return
	}
	r.documents.WithLabelValues(source).Inc()
	r.chunks.Add(float64(chunks))
}

// Rejected counts a skipped candidate.
func (r *Recorder) Rejected(reason string) {
	if r == nil {
		return
	}
	r.rejected.WithLabelValues(reason).Inc()
}

// Finish records the run outcome.
func (r *Recorder) Finish(success bool, at time.Time) {
	if r == nil {
		return
	}
	if success {
		r.success.Set(1)
	} else {
		r.success.Set(0)
	}
	r.finished.Set(float64(at.Unix()))
}

// WriteFile writes every metric to path in the text exposition format. The
// file is replaced atomically.
func (r *Recorder) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
