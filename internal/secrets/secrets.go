// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// The filename is the key and the trimmed file contents are the value.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/harvester/pkg/types"
)

// DefaultDir is the secrets directory relative to the working directory.
const DefaultDir = ".secrets"

// Recognised key files.
const (
	IngestToken           = "ingest-token"
	SemanticScholarAPIKey = "semantic-scholar-api-key"
	OpenAlexEmail         = "openalex-email"
)

// Keys lists the recognised key files.
var Keys = []string{IngestToken, SemanticScholarAPIKey, OpenAlexEmail}

// Secrets maps key names to values.
type Secrets map[string]string

// Load reads every regular, non-hidden file in dir. A missing directory is
// not an error and yields no secrets. Unreadable or empty files are
// skipped; unreadable ones are logged when log is non-nil.
func Load(dir string, log *slog.Logger) (Secrets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	s := make(Secrets)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if log != nil {
				log.Warn("could not read secret", "key", name, "error", err)
			}
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			s[name] = value
		}
	}
	return s, nil
}

// Apply copies known secrets into cfg. Values already set in cfg, from a
// flag or the environment, take precedence.
func (s Secrets) Apply(cfg *types.HarvestConfig) {
	setIfEmpty(&cfg.Feed.Token, s[IngestToken])
	setIfEmpty(&cfg.Search.SemanticScholarAPIKey, s[SemanticScholarAPIKey])
	setIfEmpty(&cfg.Search.OpenAlexEmail, s[OpenAlexEmail])
}

// Missing returns the recognised keys that have no value.
func (s Secrets) Missing() []string {
	var out []string
	for _, k := range Keys {
		if s[k] == "" {
			out = append(out, k)
		}
	}
	return out
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
