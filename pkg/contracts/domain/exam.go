package domain

import (
	"math"
	"sort"
)

// MarkRow is a single row of a subject sheet after ingestion has coerced
// the raw cells. Mark is nil when the sheet had no usable numeric value
// for the student; a missing mark is never represented as zero.
type MarkRow struct {
	RawName string   `json:"raw_name" validate:"required"`
	Mark    *float64 `json:"mark"`
}

// SubjectTable is one subject's sheet: an ordered sequence of rows as
// they appeared in the source document. Row order matters because the
// first sheet's spellings become canonical during consolidation.
type SubjectTable struct {
	Subject string    `json:"subject" validate:"required"`
	Rows    []MarkRow `json:"rows" validate:"required,dive"`
}

// ConsolidatedRecord holds one student's marks across all subjects,
// keyed by subject name. Subjects the student has no matched row for are
// absent from the map, not zero. Total and average are always derived
// from the mark map so they can never drift from it.
type ConsolidatedRecord struct {
	Student string             `json:"student"`
	Marks   map[string]float64 `json:"marks"`
}

// Mark returns the student's mark for a subject and whether one exists.
func (r ConsolidatedRecord) Mark(subject string) (float64, bool) {
	m, ok := r.Marks[subject]
	return m, ok
}

// Total is the sum of the marks present in the record.
func (r ConsolidatedRecord) Total() float64 {
	var total float64
	for _, m := range r.Marks {
		total += m
	}
	return total
}

// Average is the total divided by the number of present marks, or NaN
// when the record holds no marks at all.
func (r ConsolidatedRecord) Average() float64 {
	if len(r.Marks) == 0 {
		return math.NaN()
	}
	return r.Total() / float64(len(r.Marks))
}

// MetricValue resolves a ranking/comparison metric against the record.
// The metric is "total", "average", or a subject name; the boolean is
// false when the student has no value for that metric.
func (r ConsolidatedRecord) MetricValue(metric string) (float64, bool) {
	switch metric {
	case MetricTotal:
		if len(r.Marks) == 0 {
			return 0, false
		}
		return r.Total(), true
	case MetricAverage:
		if len(r.Marks) == 0 {
			return 0, false
		}
		return r.Average(), true
	default:
		return r.Mark(metric)
	}
}

// Clone returns a deep copy of the record.
func (r ConsolidatedRecord) Clone() ConsolidatedRecord {
	marks := make(map[string]float64, len(r.Marks))
	for k, v := range r.Marks {
		marks[k] = v
	}
	return ConsolidatedRecord{Student: r.Student, Marks: marks}
}

// Metric names understood by MetricValue, the ranking engine, and
// historical comparison.
const (
	MetricTotal   = "total"
	MetricAverage = "average"
)

// ConsolidatedSet is the output of one consolidation run. Students are
// listed in the order their identities were created, which is the
// deterministic tie-break order for subject leaders. The set is treated
// as immutable by every consumer.
type ConsolidatedSet struct {
	Students []string                      `json:"students"`
	Subjects []string                      `json:"subjects"`
	Records  map[string]ConsolidatedRecord `json:"records"`
}

// Record returns the record for a canonical student name.
func (s *ConsolidatedSet) Record(student string) (ConsolidatedRecord, bool) {
	r, ok := s.Records[student]
	return r, ok
}

// Len is the number of distinct students in the set.
func (s *ConsolidatedSet) Len() int {
	return len(s.Students)
}

// SubjectMarks returns the present marks for one subject in
// consolidation order.
func (s *ConsolidatedSet) SubjectMarks(subject string) []float64 {
	marks := make([]float64, 0, len(s.Students))
	for _, student := range s.Students {
		if m, ok := s.Records[student].Mark(subject); ok {
			marks = append(marks, m)
		}
	}
	return marks
}

// MetricValues returns every student's value for the metric in
// consolidation order, skipping students without one.
func (s *ConsolidatedSet) MetricValues(metric string) []float64 {
	values := make([]float64, 0, len(s.Students))
	for _, student := range s.Students {
		if v, ok := s.Records[student].MetricValue(metric); ok {
			values = append(values, v)
		}
	}
	return values
}

// Clone returns a deep copy of the set.
func (s *ConsolidatedSet) Clone() *ConsolidatedSet {
	out := &ConsolidatedSet{
		Students: append([]string(nil), s.Students...),
		Subjects: append([]string(nil), s.Subjects...),
		Records:  make(map[string]ConsolidatedRecord, len(s.Records)),
	}
	for k, v := range s.Records {
		out.Records[k] = v.Clone()
	}
	return out
}

// SortedStudents returns the student names sorted alphabetically,
// leaving the consolidation order untouched.
func (s *ConsolidatedSet) SortedStudents() []string {
	names := append([]string(nil), s.Students...)
	sort.Strings(names)
	return names
}
