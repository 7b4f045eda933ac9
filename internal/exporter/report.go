package exporter

import (
	"marklens/pkg/contracts/domain"
)

// ExportRecords writes the consolidated mark sheet: one row per
// student in consolidation order, one column per subject, then total
// and average. Missing marks export as empty cells, never zero.
func (w *CSVWriter) ExportRecords(name string, set *domain.ConsolidatedSet) error {
	headers := append([]string{"Student"}, set.Subjects...)
	headers = append(headers, "Total", "Average")

	records := make([][]string, 0, set.Len())
	for _, student := range set.Students {
		record := set.Records[student]
		row := make([]string, 0, len(headers))
		row = append(row, student)
		for _, subject := range set.Subjects {
			if m, ok := record.Mark(subject); ok {
				row = append(row, formatFloat(m))
			} else {
				row = append(row, "")
			}
		}
		row = append(row, formatFloat(record.Total()), formatFloat(record.Average()))
		records = append(records, row)
	}

	return w.WriteCSV(name, headers, records)
}

// ExportRanking writes a ranking with positions, values and grades.
func (w *CSVWriter) ExportRanking(name string, ranking domain.Ranking) error {
	headers := []string{"Rank", "Student", ranking.Metric, "Grade", "Tied"}

	records := make([][]string, 0, len(ranking.Entries))
	for _, entry := range ranking.Entries {
		tied := ""
		if entry.Tied {
			tied = "yes"
		}
		records = append(records, []string{
			formatInt(entry.Rank),
			entry.Student,
			formatFloat(entry.Value),
			entry.Grade,
			tied,
		})
	}

	return w.WriteCSV(name, headers, records)
}

// ExportStatistics writes per-metric summaries as labelled rows, one
// summary per column block.
func (w *CSVWriter) ExportStatistics(name string, summaries []domain.Statistics) error {
	headers := []string{"Metric", "Count", "Mean", "Median", "Mode", "StdDev",
		"Min", "Max", "Range", "Q1", "Q3", "IQR", "Skewness", "Kurtosis"}

	records := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		label := s.Metric
		if label == "" {
			label = s.Subject
		}
		row := []string{
			label,
			formatInt(s.Count),
			formatFloat(s.Mean),
			formatFloat(s.Median),
			formatOptionalFloat(s.Mode),
			formatFloat(s.StdDev),
			formatFloat(s.Min),
			formatFloat(s.Max),
			formatFloat(s.Range),
		}
		if s.Quartiles.Defined {
			row = append(row, formatFloat(s.Quartiles.Q1), formatFloat(s.Quartiles.Q3), formatFloat(s.Quartiles.IQR))
		} else {
			row = append(row, "", "", "")
		}
		if s.Skewness.Defined {
			row = append(row, formatFloat(s.Skewness.Value))
		} else {
			row = append(row, "")
		}
		if s.Kurtosis.Defined {
			row = append(row, formatFloat(s.Kurtosis.Value))
		} else {
			row = append(row, "")
		}
		records = append(records, row)
	}

	return w.WriteCSV(name, headers, records)
}

// ExportComparison writes per-student deltas between two snapshots.
func (w *CSVWriter) ExportComparison(name string, comparison domain.Comparison) error {
	headers := []string{"Student", "Previous", "Current", "Change", "Status"}

	records := make([][]string, 0, len(comparison.Deltas))
	for _, d := range comparison.Deltas {
		change := ""
		if d.Status != domain.DeltaNew && d.Status != domain.DeltaLeft {
			change = formatFloat(d.Change)
		}
		records = append(records, []string{
			d.Student,
			formatOptionalFloat(d.Previous),
			formatOptionalFloat(d.Current),
			change,
			string(d.Status),
		})
	}

	return w.WriteCSV(name, headers, records)
}
