// Package store writes harvest results to disk.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/use-agent/docharvest/models"
)

// WriteDocuments writes docs to path as an indented JSON array, replacing any
// existing file. A nil slice is written as [].
func WriteDocuments(path string, docs []models.Document) error {
	if docs == nil {
		docs = []models.Document{}
	}
	if err := writeJSON(path, docs); err != nil {
		return models.NewScrapeError(models.ErrCodeOutput, "write documents to "+path, err)
	}
	return nil
}

// WriteSkipReport writes the skipped sections of a run to path.
func WriteSkipReport(path string, skipped []models.Skipped) error {
	if skipped == nil {
		skipped = []models.Skipped{}
	}
	if err := writeJSON(path, skipped); err != nil {
		return models.NewScrapeError(models.ErrCodeOutput, "write skip report to "+path, err)
	}
	return nil
}

// writeJSON encodes v next to path and renames it into place, so readers
// never see a half-written file.
func writeJSON(path string, v any) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode: %w", err)
	}
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("chmod: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
