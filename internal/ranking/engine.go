// Package ranking orders consolidated exam records by a metric and
// extracts subject leaders. Competition ranking is the fixed tie-break
// policy: tied students share a rank and the next distinct value
// resumes at position + count of tied students, so ranks read 1,1,3,4.
package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"marklens/pkg/contracts/domain"
)

// Engine produces rankings and leader boards from a consolidated set.
type Engine struct {
	maxMark float64
	logger  *slog.Logger
}

// NewEngine creates a ranking engine. maxMark is used for letter
// grades on rank entries; a non-positive value disables grading.
func NewEngine(maxMark float64, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		maxMark: maxMark,
		logger:  logger.With(slog.String("component", "ranking_engine")),
	}
}

// Rank orders students descending by the metric ("total", "average",
// or a subject name). Students with no value for the metric are left
// out of the ranking entirely rather than ranked last with zero.
// Ordering is deterministic: equal values keep consolidation order.
func (e *Engine) Rank(ctx context.Context, set *domain.ConsolidatedSet, metric string) domain.Ranking {
	type scored struct {
		student string
		value   float64
	}

	entries := make([]scored, 0, set.Len())
	for _, student := range set.Students {
		if v, ok := set.Records[student].MetricValue(metric); ok {
			entries = append(entries, scored{student: student, value: v})
		}
	}

	// stable sort preserves consolidation order within equal values
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].value > entries[j].value
	})

	ranking := domain.Ranking{Metric: metric, Entries: make([]domain.RankEntry, 0, len(entries))}
	for i, s := range entries {
		rank := i + 1
		if i > 0 && entries[i-1].value == s.value {
			rank = ranking.Entries[i-1].Rank
		}
		entry := domain.RankEntry{
			Student: s.student,
			Value:   s.value,
			Rank:    rank,
		}
		if e.maxMark > 0 {
			entry.Grade = e.gradeFor(metric, s.value, set)
		}
		ranking.Entries = append(ranking.Entries, entry)
	}

	markTies(ranking.Entries)

	e.logger.InfoContext(ctx, "ranking computed",
		slog.String("metric", metric),
		slog.Int("ranked", len(ranking.Entries)),
		slog.Int("excluded", set.Len()-len(ranking.Entries)))

	return ranking
}

// gradeFor letters a metric value. Totals are graded against the
// maximum across however many subjects the set carries; averages and
// single subjects against the per-subject maximum.
func (e *Engine) gradeFor(metric string, value float64, set *domain.ConsolidatedSet) string {
	max := e.maxMark
	if metric == domain.MetricTotal {
		max = e.maxMark * float64(len(set.Subjects))
	}
	return domain.LetterGrade(value, max)
}

// markTies sets the Tied flag on every entry that shares its rank.
func markTies(entries []domain.RankEntry) {
	for i := range entries {
		if i > 0 && entries[i].Rank == entries[i-1].Rank {
			entries[i].Tied = true
			entries[i-1].Tied = true
		}
	}
}

// SubjectLeaders returns, per subject, the single student holding the
// maximum mark. Ties resolve to the first-encountered identity in
// consolidation order, independent of any name matching.
func (e *Engine) SubjectLeaders(ctx context.Context, set *domain.ConsolidatedSet) map[string]string {
	leaders := make(map[string]string, len(set.Subjects))

	for _, subject := range set.Subjects {
		var leader string
		var best float64
		found := false
		for _, student := range set.Students {
			m, ok := set.Records[student].Mark(subject)
			if !ok {
				continue
			}
			// strictly greater keeps the first-encountered student on ties
			if !found || m > best {
				leader, best, found = student, m, true
			}
		}
		if found {
			leaders[subject] = leader
		}
	}

	e.logger.DebugContext(ctx, "subject leaders extracted",
		slog.Int("subjects", len(leaders)))

	return leaders
}

// TopN returns the first n entries of a ranking, truncating when fewer
// students exist. n must be positive; zero or negative is a caller
// error.
func TopN(ranking domain.Ranking, n int) ([]domain.RankEntry, error) {
	if n <= 0 {
		return nil, fmt.Errorf("top-n requires a positive n, got %d", n)
	}
	if n > len(ranking.Entries) {
		n = len(ranking.Entries)
	}
	return append([]domain.RankEntry(nil), ranking.Entries[:n]...), nil
}

// ClassSummary condenses a ranking into class-level performance
// figures for presentation.
func (e *Engine) ClassSummary(ranking domain.Ranking) domain.ClassSummary {
	summary := domain.ClassSummary{
		Metric:      ranking.Metric,
		GradeCounts: make(map[string]int),
	}
	if len(ranking.Entries) == 0 {
		return summary
	}

	var sum float64
	summary.HighestScore = ranking.Entries[0].Value
	summary.LowestScore = ranking.Entries[0].Value
	for _, entry := range ranking.Entries {
		sum += entry.Value
		if entry.Value > summary.HighestScore {
			summary.HighestScore = entry.Value
		}
		if entry.Value < summary.LowestScore {
			summary.LowestScore = entry.Value
		}
		if entry.Grade != "" {
			summary.GradeCounts[entry.Grade]++
		}
	}

	summary.TotalStudents = len(ranking.Entries)
	summary.ClassAverage = sum / float64(len(ranking.Entries))
	summary.TopPerformer = ranking.Entries[0].Student
	return summary
}
