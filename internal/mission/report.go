// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mission

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/harvester/pkg/types"
)

// WriteReport saves the run report as YAML.
func WriteReport(path string, r types.RunReport) error {
	data, err := yaml.Marshal(&r)
	if err != nil {
		return fmt.Errorf("marshaling run report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadReport loads a run report written by WriteReport.
func ReadReport(path string) (types.RunReport, error) {
	var r types.RunReport
	data, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("reading run report: %w", err)
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("parsing run report: %w", err)
	}
	return r, nil
}

// PrintSummary writes a short human-readable outcome to w.
func PrintSummary(w io.Writer, r types.RunReport) {
	for _, a := range r.Attempts {
		fmt.Fprintf(w, "attempt %d  %-40s  candidates=%d  documents=%d  chunks=%d\n",
			a.Number, a.Topic, a.Candidates, a.Processed, a.Chunks)
	}
	if r.Success {
		fmt.Fprintf(w, "success: %d documents fed in %s\n", r.Processed(), r.Duration.Round(time.Millisecond))
		return
	}
	fmt.Fprintf(w, "exhausted: no documents fed after %d attempts\n", len(r.Attempts))
}
