package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"msupdates/internal/batch"
	"msupdates/internal/extractor"
	"msupdates/internal/models"
	"msupdates/internal/output"
	"msupdates/internal/pipeline"
)

func init() {
	rootCmd.AddCommand(parseCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse [flags] file ...",
	Short: "extract records from local CVRF documents",
	Long: `
The parse command runs the extraction chain on CVRF documents stored on disk
(JSON or XML) and prints the assembled records. The document id is the file
name without its extension; the publication date is the file modification time.
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		feed, err := newFileFeed(args)
		if err != nil {
			return err
		}

		log := newLogger(cmd, cfg)
		processor := pipeline.NewProcessor(nil, feed,
			extractor.NewExtractorWithConfig(cfg.Extraction.SummaryWidth), log)

		records, degraded, docErr := processor.Process(cmd.Context(), feed.refs)
		if docErr != nil {
			log.Warn("some documents were degraded", "degraded", degraded, "error", docErr)
		}

		return output.Encode(cmd.OutOrStdout(), cfg.Output.Format, cfg.Output.PrettyPrint, batch.Assemble(records))
	},
}

// fileFeed serves CVRF documents from local files, keyed by file name without
// extension.
type fileFeed struct {
	paths map[string]string
	refs  []models.DocumentReference
}

func newFileFeed(paths []string) (*fileFeed, error) {
	feed := &fileFeed{paths: make(map[string]string, len(paths))}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}

		id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if _, dup := feed.paths[id]; dup {
			return nil, fmt.Errorf("duplicate document id %q: %s", id, path)
		}

		feed.paths[id] = path
		feed.refs = append(feed.refs, models.DocumentReference{
			ID:          id,
			PublishedAt: info.ModTime(),
		})
	}

	return feed, nil
}

func (f *fileFeed) FetchDocumentBody(_ context.Context, id string) ([]byte, error) {
	path, ok := f.paths[id]
	if !ok {
		return nil, fmt.Errorf("no file for document %q", id)
	}

	return os.ReadFile(path)
}
