// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Process exit codes. ExitExhausted is reserved for a run that spent its
// attempt budget without feeding a document.
const (
	ExitSuccess       = 0
	ExitExhausted     = 1
	ExitMissingTopics = 2
	ExitConfig        = 3
	ExitFailure       = 4
)

// AttemptReport records one iteration of the topic loop.
type AttemptReport struct {
	// Number is the 1-based attempt index.
	Number int `json:"number" yaml:"number"`

	// Topic is the sampled topic.
	Topic string `json:"topic" yaml:"topic"`

	// Candidates is the number of candidates the finder returned.
	Candidates int `json:"candidates" yaml:"candidates"`

	// Processed is the number of documents with at least one fed chunk.
	Processed int `json:"processed" yaml:"processed"`

	// Chunks is the total number of chunks accepted by the endpoint.
	Chunks int `json:"chunks" yaml:"chunks"`

	// Fed lists the URL or title of every processed document.
	Fed []string `json:"fed,omitempty" yaml:"fed,omitempty"`
}

// RunReport is the outcome of one harvester invocation.
type RunReport struct {
	RunID     string          `json:"run_id" yaml:"run_id"`
	StartedAt time.Time       `json:"started_at" yaml:"started_at"`
	Duration  time.Duration   `json:"duration" yaml:"duration"`
	Attempts  []AttemptReport `json:"attempts" yaml:"attempts"`
	Success   bool            `json:"success" yaml:"success"`
}

// Processed returns the number of documents fed across all attempts.
func (r RunReport) Processed() int {
	n := 0
	for _, a := range r.Attempts {
		n += a.Processed
	}
	return n
}

// ExitCode maps the outcome to the process exit code.
func (r RunReport) ExitCode() int {
	if r.Success {
		return ExitSuccess
	}
	return ExitExhausted
}
