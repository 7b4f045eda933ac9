// Package ingest turns raw score sheets (CSV and Excel) into subject
// tables. Ingestion is deliberately forgiving about cell content: any
// cell that does not parse as a number becomes a missing mark, never a
// zero, and the row keeps its student so identity resolution still sees
// them. Structural problems (no name column, empty sheet) are errors.
package ingest

import (
	"strconv"
	"strings"

	apperrors "marklens/internal/errors"
	"marklens/pkg/contracts/domain"
)

// Header names recognized for the student and mark columns, compared
// case-insensitively after trimming.
var (
	nameHeaders = []string{"name", "student", "student name", "candidate", "candidate name"}
	markHeaders = []string{"mark", "marks", "score", "scores", "grade", "points", "total"}
)

// coerceMark parses a raw cell into a mark. Blanks, dashes, "absent"
// and anything else non-numeric come back nil.
func coerceMark(cell string) *float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" || cell == "-" || cell == "--" {
		return nil
	}
	// tolerate "85%", "85.0 ", "1,085"
	cell = strings.TrimSuffix(cell, "%")
	cell = strings.ReplaceAll(cell, ",", "")
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return nil
	}
	return &v
}

// findColumns locates the name and mark columns in a header row.
// The second return is the mark column, -1 when no header matched.
func findColumns(header []string) (nameCol, markCol int) {
	nameCol, markCol = -1, -1
	for i, cell := range header {
		h := strings.ToLower(strings.TrimSpace(cell))
		if nameCol == -1 && matchesHeader(h, nameHeaders) {
			nameCol = i
			continue
		}
		if markCol == -1 && matchesHeader(h, markHeaders) {
			markCol = i
		}
	}
	return nameCol, markCol
}

func matchesHeader(cell string, candidates []string) bool {
	for _, c := range candidates {
		if cell == c || strings.HasPrefix(cell, c+" ") {
			return true
		}
	}
	return false
}

// tableFromRows builds a subject table from raw rows, the first row
// being the header. Rows with a blank name are skipped.
func tableFromRows(subject string, rows [][]string) (domain.SubjectTable, error) {
	if len(rows) == 0 {
		return domain.SubjectTable{}, apperrors.NewParsingError(
			"sheet "+subject+" is empty", apperrors.ErrEmptyInput)
	}

	nameCol, markCol := findColumns(rows[0])
	if nameCol == -1 || markCol == -1 {
		// headerless two-column sheets are common enough to accept
		if len(rows[0]) >= 2 && coerceMark(rows[0][1]) != nil {
			nameCol, markCol = 0, 1
		} else {
			return domain.SubjectTable{}, apperrors.NewParsingError(
				"sheet "+subject+" has no recognizable name and mark columns", nil)
		}
	} else {
		rows = rows[1:]
	}

	table := domain.SubjectTable{Subject: subject, Rows: make([]domain.MarkRow, 0, len(rows))}
	for _, row := range rows {
		if nameCol >= len(row) {
			continue
		}
		name := strings.TrimSpace(row[nameCol])
		if name == "" {
			continue
		}
		var mark *float64
		if markCol < len(row) {
			mark = coerceMark(row[markCol])
		}
		table.Rows = append(table.Rows, domain.MarkRow{RawName: name, Mark: mark})
	}

	if len(table.Rows) == 0 {
		return domain.SubjectTable{}, apperrors.NewParsingError(
			"sheet "+subject+" has no data rows", apperrors.ErrEmptyInput)
	}
	return table, nil
}
