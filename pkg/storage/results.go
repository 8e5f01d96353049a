package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"adlibscraper/pkg/models"
)

// ResultsWriter persists the collected ad records as a human-readable
// JSON array. Writes are atomic so a crash mid-save never corrupts the
// previous snapshot.
type ResultsWriter struct {
	path string
}

// NewResultsWriter creates a writer targeting the given file
func NewResultsWriter(path string) *ResultsWriter {
	return &ResultsWriter{path: path}
}

// Write saves the full record collection to disk
func (w *ResultsWriter) Write(records []models.AdRecord) error {
	if dir := filepath.Dir(w.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	content, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}

	tempFile := w.path + ".tmp"
	if err := os.WriteFile(tempFile, content, 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}

	if err := os.Rename(tempFile, w.path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename results file: %w", err)
	}

	return nil
}

// Path returns the target file path
func (w *ResultsWriter) Path() string {
	return w.path
}

// Load reads a previously written results file
func (w *ResultsWriter) Load() ([]models.AdRecord, error) {
	content, err := os.ReadFile(w.path)
	if err != nil {
		return nil, err
	}

	var records []models.AdRecord
	if err := json.Unmarshal(content, &records); err != nil {
		return nil, fmt.Errorf("failed to parse results file: %w", err)
	}
	return records, nil
}
