package history

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"marklens/internal/stats"
	"marklens/pkg/contracts/domain"
)

// Comparator computes deltas between two stored snapshots.
type Comparator struct {
	store  Store
	logger *slog.Logger
}

// NewComparator creates a comparator over a snapshot store.
func NewComparator(store Store, logger *slog.Logger) *Comparator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Comparator{
		store:  store,
		logger: logger.With(slog.String("component", "history_comparator")),
	}
}

// Compare loads both snapshots and computes per-student deltas on the
// metric, class-level aggregates, subject-average movement, and
// insight highlights. Students are matched across snapshots by their
// canonical name. Swapping previous and current negates every signed
// change.
func (c *Comparator) Compare(ctx context.Context, previousLabel, currentLabel, metric string) (domain.Comparison, error) {
	if previousLabel == currentLabel {
		return domain.Comparison{}, fmt.Errorf("cannot compare snapshot %q with itself", currentLabel)
	}

	previous, err := c.store.Snapshot(ctx, previousLabel)
	if err != nil {
		return domain.Comparison{}, err
	}
	current, err := c.store.Snapshot(ctx, currentLabel)
	if err != nil {
		return domain.Comparison{}, err
	}

	comparison := CompareSnapshots(previous, current, metric)

	c.logger.InfoContext(ctx, "snapshots compared",
		slog.String("previous", previousLabel),
		slog.String("current", currentLabel),
		slog.String("metric", metric),
		slog.Int("compared", comparison.Class.Compared),
		slog.Int("new", comparison.Class.New),
		slog.Int("left", comparison.Class.Left))

	return comparison, nil
}

// CompareSnapshots is the pure comparison over two already loaded
// snapshots.
func CompareSnapshots(previous, current domain.ExamSnapshot, metric string) domain.Comparison {
	comparison := domain.Comparison{
		PreviousLabel: previous.Label,
		CurrentLabel:  current.Label,
		Metric:        metric,
		Class:         domain.ClassDelta{Metric: metric},
	}

	deltas := studentDeltas(previous.Records, current.Records, metric)
	comparison.Deltas = deltas
	comparison.Class = classDelta(deltas, metric)
	comparison.SubjectAverages = subjectAverageDeltas(previous.Records, current.Records)
	comparison.Insights = insights(deltas, comparison.Class)
	return comparison
}

// studentDeltas walks the current snapshot in consolidation order, then
// appends students who left, so the delta order is deterministic.
func studentDeltas(previous, current *domain.ConsolidatedSet, metric string) []domain.HistoricalDelta {
	var deltas []domain.HistoricalDelta

	for _, student := range current.Students {
		cur, ok := current.Records[student].MetricValue(metric)
		if !ok {
			continue
		}
		curCopy := cur

		delta := domain.HistoricalDelta{Student: student, Current: &curCopy}
		if prevRecord, present := previous.Record(student); present {
			if prev, ok := prevRecord.MetricValue(metric); ok {
				prevCopy := prev
				delta.Previous = &prevCopy
				delta.Change = cur - prev
				delta.Status = changeStatus(delta.Change)
				deltas = append(deltas, delta)
				continue
			}
		}
		delta.Status = domain.DeltaNew
		deltas = append(deltas, delta)
	}

	for _, student := range previous.Students {
		if _, present := current.Record(student); present {
			continue
		}
		prev, ok := previous.Records[student].MetricValue(metric)
		if !ok {
			continue
		}
		prevCopy := prev
		deltas = append(deltas, domain.HistoricalDelta{
			Student:  student,
			Previous: &prevCopy,
			Status:   domain.DeltaLeft,
		})
	}

	return deltas
}

func changeStatus(change float64) domain.DeltaStatus {
	switch {
	case change > 0:
		return domain.DeltaImproved
	case change < 0:
		return domain.DeltaDeclined
	default:
		return domain.DeltaUnchanged
	}
}

// classDelta averages the signed changes of students present in both
// snapshots; new and left students are counted but never contribute to
// the mean.
func classDelta(deltas []domain.HistoricalDelta, metric string) domain.ClassDelta {
	class := domain.ClassDelta{Metric: metric}

	var sum float64
	for _, d := range deltas {
		switch d.Status {
		case domain.DeltaNew:
			class.New++
		case domain.DeltaLeft:
			class.Left++
		default:
			class.Compared++
			sum += d.Change
			switch d.Status {
			case domain.DeltaImproved:
				class.Improved++
			case domain.DeltaDeclined:
				class.Declined++
			case domain.DeltaUnchanged:
				class.Unchanged++
			}
		}
	}
	if class.Compared > 0 {
		class.MeanChange = sum / float64(class.Compared)
	}
	return class
}

// subjectAverageDeltas compares per-subject class averages across the
// subjects present in both snapshots, in the current snapshot's subject
// order.
func subjectAverageDeltas(previous, current *domain.ConsolidatedSet) []domain.SubjectAverageDelta {
	prevSubjects := make(map[string]bool, len(previous.Subjects))
	for _, s := range previous.Subjects {
		prevSubjects[s] = true
	}

	var out []domain.SubjectAverageDelta
	for _, subject := range current.Subjects {
		if !prevSubjects[subject] {
			continue
		}
		prevMarks := previous.SubjectMarks(subject)
		curMarks := current.SubjectMarks(subject)
		if len(prevMarks) == 0 || len(curMarks) == 0 {
			continue
		}

		prevAvg := stats.Describe(prevMarks).Mean
		curAvg := stats.Describe(curMarks).Mean
		delta := domain.SubjectAverageDelta{
			Subject:         subject,
			PreviousAverage: prevAvg,
			CurrentAverage:  curAvg,
			Change:          curAvg - prevAvg,
		}
		if prevAvg != 0 {
			delta.PercentChange = delta.Change / math.Abs(prevAvg) * 100
		}
		delta.Trend = string(changeStatus(delta.Change))
		out = append(out, delta)
	}
	return out
}

// insights picks the single most improved and most declined students.
// Ties resolve to the earlier delta, which follows the current
// snapshot's consolidation order.
func insights(deltas []domain.HistoricalDelta, class domain.ClassDelta) domain.ComparisonInsights {
	result := domain.ComparisonInsights{ClassTrend: string(changeStatus(class.MeanChange))}
	if class.Compared == 0 {
		result.ClassTrend = string(domain.DeltaUnchanged)
	}

	for i := range deltas {
		d := deltas[i]
		if d.Status == domain.DeltaNew || d.Status == domain.DeltaLeft {
			continue
		}
		if d.Change > 0 && (result.MostImproved == nil || d.Change > result.MostImproved.Change) {
			result.MostImproved = &deltas[i]
		}
		if d.Change < 0 && (result.MostDeclined == nil || d.Change < result.MostDeclined.Change) {
			result.MostDeclined = &deltas[i]
		}
	}
	return result
}
