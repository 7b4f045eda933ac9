package domain

import "time"

// ExamSnapshot is an immutable, fully consolidated result set for one
// exam sitting. Once stored it is never modified; comparisons always
// recompute deltas from snapshots rather than persisting them.
type ExamSnapshot struct {
	ID        string           `json:"id"`
	Label     string           `json:"label" validate:"required"`
	ExamDate  time.Time        `json:"exam_date"`
	Class     string           `json:"class,omitempty"`
	Stream    string           `json:"stream,omitempty"`
	Records   *ConsolidatedSet `json:"records"`
	Summary   Statistics       `json:"summary"`
	CreatedAt time.Time        `json:"created_at"`
}

// Clone returns a deep copy of the snapshot.
func (s ExamSnapshot) Clone() ExamSnapshot {
	out := s
	if s.Records != nil {
		out.Records = s.Records.Clone()
	}
	return out
}

// DeltaStatus classifies one student's movement between two snapshots.
type DeltaStatus string

const (
	DeltaImproved  DeltaStatus = "improved"
	DeltaDeclined  DeltaStatus = "declined"
	DeltaUnchanged DeltaStatus = "unchanged"
	// DeltaNew marks a student present only in the current snapshot,
	// DeltaLeft one present only in the previous. Neither carries a
	// numeric change.
	DeltaNew  DeltaStatus = "new"
	DeltaLeft DeltaStatus = "left"
)

// HistoricalDelta is one student's change in the chosen metric between
// two snapshots. Previous/Current are nil for new/left students.
type HistoricalDelta struct {
	Student  string      `json:"student"`
	Previous *float64    `json:"previous"`
	Current  *float64    `json:"current"`
	Change   float64     `json:"change"`
	Status   DeltaStatus `json:"status"`
}

// ClassDelta aggregates per-student deltas. MeanChange averages the
// signed changes of students present in both snapshots only.
type ClassDelta struct {
	Metric     string  `json:"metric"`
	MeanChange float64 `json:"mean_change"`
	Compared   int     `json:"compared"`
	Improved   int     `json:"improved"`
	Declined   int     `json:"declined"`
	Unchanged  int     `json:"unchanged"`
	New        int     `json:"new"`
	Left       int     `json:"left"`
}

// SubjectAverageDelta compares one subject's class average between two
// snapshots.
type SubjectAverageDelta struct {
	Subject         string  `json:"subject"`
	PreviousAverage float64 `json:"previous_average"`
	CurrentAverage  float64 `json:"current_average"`
	Change          float64 `json:"change"`
	PercentChange   float64 `json:"percent_change"`
	Trend           string  `json:"trend"`
}

// ComparisonInsights highlights the extremes of a comparison.
type ComparisonInsights struct {
	MostImproved *HistoricalDelta `json:"most_improved,omitempty"`
	MostDeclined *HistoricalDelta `json:"most_declined,omitempty"`
	ClassTrend   string           `json:"class_trend"`
}

// Comparison is the full result of comparing two snapshots. It is
// computed on demand and never persisted.
type Comparison struct {
	PreviousLabel   string                `json:"previous_label"`
	CurrentLabel    string                `json:"current_label"`
	Metric          string                `json:"metric"`
	Deltas          []HistoricalDelta     `json:"deltas"`
	Class           ClassDelta            `json:"class"`
	SubjectAverages []SubjectAverageDelta `json:"subject_averages"`
	Insights        ComparisonInsights    `json:"insights"`
}
