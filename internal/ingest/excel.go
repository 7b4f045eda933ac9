package ingest

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	apperrors "marklens/internal/errors"
	"marklens/pkg/contracts/domain"
)

// ExcelReader parses a workbook where each sheet is one subject.
type ExcelReader struct {
	logger *slog.Logger
}

// NewExcelReader creates an Excel workbook reader.
func NewExcelReader(logger *slog.Logger) *ExcelReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelReader{logger: logger.With(slog.String("component", "excel_reader"))}
}

// ReadFile opens a workbook from disk and parses every sheet. Sheet
// names become subject names; sheets with no usable rows are skipped
// with a warning rather than failing the whole workbook.
func (r *ExcelReader) ReadFile(path string) ([]domain.SubjectTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("open workbook %s", path), err)
	}
	defer f.Close()
	return r.readWorkbook(f)
}

// Read parses a workbook from a stream, for upload handlers.
func (r *ExcelReader) Read(in io.Reader) ([]domain.SubjectTable, error) {
	f, err := excelize.OpenReader(in)
	if err != nil {
		return nil, apperrors.NewParsingError("open workbook stream", err)
	}
	defer f.Close()
	return r.readWorkbook(f)
}

func (r *ExcelReader) readWorkbook(f *excelize.File) ([]domain.SubjectTable, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewParsingError("workbook has no sheets", apperrors.ErrEmptyInput)
	}

	tables := make([]domain.SubjectTable, 0, len(sheets))
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("read sheet %s", sheet), err)
		}

		table, err := tableFromRows(sheet, rows)
		if err != nil {
			r.logger.Warn("sheet skipped",
				slog.String("sheet", sheet),
				slog.String("reason", err.Error()))
			continue
		}
		tables = append(tables, table)
	}

	if len(tables) == 0 {
		return nil, apperrors.NewParsingError("workbook has no usable sheets", apperrors.ErrEmptyInput)
	}

	r.logger.Debug("workbook parsed", slog.Int("sheets", len(tables)))
	return tables, nil
}
