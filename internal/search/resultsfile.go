// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/harvester/pkg/types"
)

// ResultsFile is the on-disk representation of a topic search. Saved
// results can be reviewed before a run without re-querying the backends.
// Direct handles are stored by title only; their text is not persisted.
type ResultsFile struct {
	Topic      string            `yaml:"topic"`
	Strategies []string          `yaml:"strategies"`
	Mode       types.SearchMode  `yaml:"mode"`
	Candidates []types.Candidate `yaml:"candidates"`
	Summary    ResultsSummary    `yaml:"summary"`
}

// ResultsSummary stores result statistics and a timestamp.
type ResultsSummary struct {
	Total     int            `yaml:"total"`
	BySource  map[string]int `yaml:"by_source,omitempty"`
	Timestamp time.Time      `yaml:"timestamp"`
}

// WriteResultsFile saves the candidates found for topic to a YAML file.
func WriteResultsFile(path, topic string, cfg types.SearchConfig, cands []types.Candidate) error {
	rf := ResultsFile{
		Topic:      topic,
		Strategies: cfg.Strategies,
		Mode:       cfg.Mode,
		Candidates: cands,
		Summary: ResultsSummary{
			Total:     len(cands),
			BySource:  make(map[string]int),
			Timestamp: time.Now().UTC(),
		},
	}
	for _, c := range cands {
		rf.Summary.BySource[c.Source]++
	}

	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling results file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadResultsFile loads a previously saved results file from disk.
func ReadResultsFile(path string) (*ResultsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading results file: %w", err)
	}
	var rf ResultsFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing results file: %w", err)
	}
	return &rf, nil
}
