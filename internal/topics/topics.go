// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package topics loads the list of harvest topics from a line-delimited file.
package topics

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrMissing is returned when the topic file cannot be opened.
	ErrMissing = errors.New("topic file not found")

	// ErrEmpty is returned when the topic file holds no topics.
	ErrEmpty = errors.New("topic file has no topics")
)

// Load reads path and returns every non-blank line, trimmed, in file order.
// Duplicate lines are kept as they are.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissing, path, err)
	}
	defer f.Close()

	var topics []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		topics = append(topics, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading topic file %s: %w", path, err)
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, path)
	}
	return topics, nil
}
