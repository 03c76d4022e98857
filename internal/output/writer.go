// Package output persists record batches and loads hand-maintained record lists.
package output

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"msupdates/internal/config"
	"msupdates/internal/logger"
	"msupdates/internal/models"
)

// ErrUnknownFormat is returned for an output format other than json, jsonl or csv.
var ErrUnknownFormat = errors.New("unknown output format")

// Writer writes record batches to a file.
type Writer struct {
	log          *logger.Logger
	format       string
	prettyPrint  bool
	createBackup bool
}

// NewWriter creates a writer from the output configuration.
func NewWriter(cfg config.OutputConfig, log *logger.Logger) *Writer {
	return &Writer{
		log:          log,
		format:       cfg.Format,
		prettyPrint:  cfg.PrettyPrint,
		createBackup: cfg.CreateBackup,
	}
}

// Encode serializes records to w in the given format. An empty batch encodes
// as an empty JSON list.
func Encode(w io.Writer, format string, pretty bool, records []models.Record) error {
	if records == nil {
		records = []models.Record{}
	}

	switch format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)

		if pretty {
			enc.SetIndent("", "  ")
		}

		return enc.Encode(records)
	case config.FormatJSONL:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)

		for i := range records {
			if err := enc.Encode(&records[i]); err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
		}

		return nil
	case config.FormatCSV:
		return gocsv.Marshal(&records, w)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Write replaces the file at path with records. The previous file is kept as
// path + ".bak" when backups are enabled. The new content is written to a
// temporary file first so a failed write never leaves a truncated output.
func (w *Writer) Write(path string, records []models.Record) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	buf := bufio.NewWriter(tmp)
	if err := Encode(buf, w.format, w.prettyPrint, records); err != nil {
		tmp.Close()

		return fmt.Errorf("failed to encode %s: %w", w.format, err)
	}

	if err := buf.Flush(); err != nil {
		tmp.Close()

		return fmt.Errorf("failed to write file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}

	if w.createBackup {
		if _, statErr := os.Stat(path); statErr == nil {
			backupPath := path + ".bak"
			if renameErr := os.Rename(path, backupPath); renameErr != nil {
				w.log.Warn("could not create backup", "path", path, "error", renameErr)
			} else {
				w.log.Info("backed up existing file", "backup", backupPath)
			}
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	w.log.Info("wrote records", "path", path, "format", w.format, "count", len(records))

	return nil
}
