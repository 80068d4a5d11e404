// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/harvester/pkg/types"
)

const sampleOpenAlexOA = `{
  "id": "https://openalex.org/W1234567890",
  "doi": "https://doi.org/10.1145/1234567.1234568",
  "best_oa_location": {
    "pdf_url": "https://example.com/oa-paper.pdf",
    "landing_page_url": "https://example.com/paper-landing"
  }
}`

func TestResolveOpenAlex(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		statusCode int
		wantURL    string
		wantErr    bool
	}{
		{"OA PDF available", sampleOpenAlexOA, http.StatusOK, "https://example.com/oa-paper.pdf", false},
		{"no OA location", `{"best_oa_location": null}`, http.StatusOK, "", false},
		{"OA location without PDF", `{"best_oa_location": {"pdf_url": "", "landing_page_url": "https://example.com/l"}}`, http.StatusOK, "", false},
		{"API returns 404", `{"error": "not found"}`, http.StatusNotFound, "", true},
		{"malformed JSON", `{"best_oa_location":`, http.StatusOK, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotQuery string
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.RawQuery
				w.WriteHeader(tt.statusCode)
				fmt.Fprint(w, tt.response)
			}))
			defer ts.Close()

			old := openAlexAPIBase
			openAlexAPIBase = ts.URL + "/"
			defer func() { openAlexAPIBase = old }()

			cfg := types.SearchConfig{OpenAlexEmail: "bot@example.com"}
			got, err := resolveOpenAlex(context.Background(), ts.Client(), "10.1145/1234567.1234568", cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, got)
			assert.Equal(t, "mailto=bot%40example.com", gotQuery)
		})
	}
}
