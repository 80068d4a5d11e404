// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/harvester/internal/acquire"
	"github.com/pdiddy/harvester/internal/feed"
)

var extractCmd = &cobra.Command{
	Use:   "extract <url|doi|arxiv-id>",
	Short: "Download one document and report its extracted text",
	Long: `Extract resolves an identifier (a PDF URL, a DOI, or an arXiv ID) to a
document URL, downloads it with the same limits as a harvest run, and reports
how much text was extracted and how many chunks it would be fed as.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"fetch.max_pages": "max-pages",
		})
	},
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().Int("max-pages", 0, "maximum PDF pages to read (default 30)")
	extractCmd.Flags().Bool("print", false, "print the extracted text")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(viper.GetViper())
	client := newHTTPClient()

	cand, err := acquire.Resolve(cmd.Context(), client, args[0], cfg.Search)
	if err != nil {
		return err
	}

	f := &acquire.Fetcher{Client: client, Config: cfg.Fetch, Logger: logger}
	text, ok := f.Fetch(cmd.Context(), cand)
	if !ok {
		return fmt.Errorf("no text extracted from %s", cand.URL)
	}

	if show, _ := cmd.Flags().GetBool("print"); show {
		fmt.Fprintln(os.Stdout, text)
		return nil
	}
	chars := utf8.RuneCountInString(text)
	chunks := len(feed.Chunk(text, cfg.Feed.MaxChunkChars))
	fmt.Fprintf(os.Stdout, "%s\n  characters: %d\n  chunks:     %d\n", cand.URL, chars, chunks)
	if chars < cfg.Mission.MinTextChars {
		fmt.Fprintf(os.Stdout, "  below the %d character minimum; a run would skip it\n", cfg.Mission.MinTextChars)
	}
	return nil
}
