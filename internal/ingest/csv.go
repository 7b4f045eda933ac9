package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	apperrors "marklens/internal/errors"
	"marklens/pkg/contracts/domain"
)

// CSVReader parses one subject sheet per CSV document.
type CSVReader struct {
	logger *slog.Logger
}

// NewCSVReader creates a CSV sheet reader.
func NewCSVReader(logger *slog.Logger) *CSVReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVReader{logger: logger.With(slog.String("component", "csv_reader"))}
}

// Read parses the CSV stream into a subject table. The subject comes
// from the caller, typically the file name.
func (r *CSVReader) Read(subject string, in io.Reader) (domain.SubjectTable, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return domain.SubjectTable{}, apperrors.NewParsingError(
			fmt.Sprintf("read csv sheet %s", subject), err)
	}
	// strip a UTF-8 BOM so the first header cell still matches
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\uFEFF")
	}

	table, err := tableFromRows(subject, rows)
	if err != nil {
		return domain.SubjectTable{}, err
	}

	r.logger.Debug("csv sheet parsed",
		slog.String("subject", subject),
		slog.Int("rows", len(table.Rows)))
	return table, nil
}

// SubjectFromPath derives a subject name from a sheet file path:
// "sheets/Math.csv" becomes "Math".
func SubjectFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
