// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/harvester/pkg/types"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  Secrets
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, IngestToken, "  tok_abc123  \n")
				writeFile(t, dir, SemanticScholarAPIKey, "sk_xyz789")
				writeFile(t, dir, OpenAlexEmail, "bot@example.com\n")
				return dir
			},
			want: Secrets{
				IngestToken:           "tok_abc123",
				SemanticScholarAPIKey: "sk_xyz789",
				OpenAlexEmail:         "bot@example.com",
			},
		},
		{
			name: "returns empty set for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: Secrets{},
		},
		{
			name: "skips empty files, dotfiles and directories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, IngestToken, "valid")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
				return dir
			},
			want: Secrets{IngestToken: "valid"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadNotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	writeFile(t, filepath.Dir(path), "file", "x")

	_, err := Load(path, nil)
	assert.ErrorContains(t, err, "reading secrets directory")
}

func TestApply(t *testing.T) {
	s := Secrets{
		IngestToken:           "tok",
		SemanticScholarAPIKey: "sk",
		OpenAlexEmail:         "bot@example.com",
	}

	var cfg types.HarvestConfig
	cfg.Search.OpenAlexEmail = "flag@example.com"
	s.Apply(&cfg)

	assert.Equal(t, "tok", cfg.Feed.Token)
	assert.Equal(t, "sk", cfg.Search.SemanticScholarAPIKey)
	assert.Equal(t, "flag@example.com", cfg.Search.OpenAlexEmail, "explicit values win")
}

func TestMissing(t *testing.T) {
	assert.Equal(t, Keys, Secrets{}.Missing())
	assert.Equal(t, []string{OpenAlexEmail}, Secrets{IngestToken: "t", SemanticScholarAPIKey: "k"}.Missing())
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
