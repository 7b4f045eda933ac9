// Package exporter writes analysis results to CSV and JSON files for
// spreadsheet and downstream consumption.
package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// CSVWriter writes CSV files under a base directory.
type CSVWriter struct {
	dir       string
	bomPrefix bool
	logger    *slog.Logger
}

// NewCSVWriter creates a writer rooted at dir. bomPrefix prepends a
// UTF-8 BOM so Excel recognizes the encoding.
func NewCSVWriter(dir string, bomPrefix bool, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{
		dir:       dir,
		bomPrefix: bomPrefix,
		logger:    logger.With(slog.String("component", "csv_exporter")),
	}
}

// WriteCSV writes headers and records to a file under the base
// directory, creating parent directories as needed.
func (w *CSVWriter) WriteCSV(name string, headers []string, records [][]string) error {
	fullPath := w.resolvePath(name)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer file.Close()

	if w.bomPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			return fmt.Errorf("write headers: %w", err)
		}
	}
	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	if err := writer.Error(); err != nil {
		return err
	}

	w.logger.Info("csv exported",
		slog.String("path", fullPath),
		slog.Int("records", len(records)))
	return nil
}

// WriteJSON marshals v with indentation to a file under the base
// directory.
func (w *CSVWriter) WriteJSON(name string, v interface{}) error {
	fullPath := w.resolvePath(name)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json export: %w", err)
	}
	if err := os.WriteFile(fullPath, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write json export: %w", err)
	}

	w.logger.Info("json exported", slog.String("path", fullPath))
	return nil
}

func (w *CSVWriter) resolvePath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(w.dir, name)
}
