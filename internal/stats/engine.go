// Package stats computes descriptive and distribution statistics over
// consolidated exam records. After consolidation has succeeded the
// engine never fails on legitimate edge cases: small or empty samples
// produce partial results with explicit undefined markers instead of
// errors, and input records are never mutated.
package stats

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"marklens/pkg/contracts/domain"
)

// MinMomentSamples is the sample size below which skewness and excess
// kurtosis are reported as undefined.
const MinMomentSamples = 4

// Engine computes statistics over one metric series at a time.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a statistics engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger.With(slog.String("component", "stats_engine"))}
}

// Summarize computes the descriptive summary for a metric over the
// consolidated set. The metric is a subject name, or "total"/"average"
// to summarize across all subjects. An empty series yields a zero-count
// summary with every distribution figure undefined, not an error.
func (e *Engine) Summarize(ctx context.Context, set *domain.ConsolidatedSet, metric string) domain.Statistics {
	values := set.MetricValues(metric)

	e.logger.InfoContext(ctx, "summarizing metric",
		slog.String("metric", metric),
		slog.Int("sample_size", len(values)))

	stats := Describe(values)
	switch metric {
	case domain.MetricTotal, domain.MetricAverage:
		stats.Metric = metric
	default:
		stats.Subject = metric
		stats.Metric = metric
	}
	return stats
}

// Describe computes the full descriptive summary of a value series.
// The input slice is left untouched.
func Describe(values []float64) domain.Statistics {
	stats := domain.Statistics{Count: len(values)}
	if len(values) == 0 {
		return stats
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	stats.Min = sorted[0]
	stats.Max = sorted[len(sorted)-1]
	stats.Range = stats.Max - stats.Min
	stats.Mean = mean(values)
	stats.Median = interpolatedPercentile(sorted, 50)
	stats.Mode = mode(values)

	stats.Variance = populationVariance(values, stats.Mean)
	stats.StdDev = math.Sqrt(stats.Variance)

	stats.Skewness, stats.Kurtosis = moments(values, stats.Mean, stats.Variance)
	stats.Quartiles = quartiles(sorted)
	stats.Outliers = outliers(sorted, stats.Quartiles)

	return stats
}

// PercentileRank returns the percentile rank of a mark within the
// series: the percentage of values below it, counting half of any
// exactly equal values. The boolean is false for an empty series.
func PercentileRank(values []float64, mark float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	below, equal := 0, 0
	for _, v := range values {
		switch {
		case v < mark:
			below++
		case v == mark:
			equal++
		}
	}
	rank := (float64(below) + 0.5*float64(equal)) / float64(len(values)) * 100
	return rank, true
}

// PassFail splits the series around a pass threshold expressed as a
// percentage of the maximum mark.
func PassFail(values []float64, passThresholdPct, maxMark float64) domain.PassFail {
	passMark := passThresholdPct / 100 * maxMark
	result := domain.PassFail{PassMark: passMark}
	if len(values) == 0 {
		return result
	}

	for _, v := range values {
		if v >= passMark {
			result.Passed++
		} else {
			result.Failed++
		}
	}
	result.PassRate = float64(result.Passed) / float64(len(values)) * 100
	result.FailRate = 100 - result.PassRate
	return result
}

// GradeDistribution buckets the series into letter grades.
func GradeDistribution(values []float64, maxMark float64) domain.GradeDistribution {
	dist := domain.GradeDistribution{
		Counts:      make(map[string]int, len(domain.GradeLetters)),
		Percentages: make(map[string]float64, len(domain.GradeLetters)),
	}
	for _, g := range domain.GradeLetters {
		dist.Counts[g] = 0
	}
	for _, v := range values {
		dist.Counts[domain.LetterGrade(v, maxMark)]++
	}
	if len(values) > 0 {
		for g, n := range dist.Counts {
			dist.Percentages[g] = float64(n) / float64(len(values)) * 100
		}
	}
	return dist
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func populationVariance(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return sumSq / float64(len(values))
}

// mode returns the first-encountered value with the highest frequency,
// or nil when no value repeats.
func mode(values []float64) *float64 {
	counts := make(map[float64]int, len(values))
	for _, v := range values {
		counts[v]++
	}

	best, bestCount := 0.0, 1
	for _, v := range values {
		// strict comparison keeps the first-encountered modal value on ties
		if c := counts[v]; c > bestCount {
			best, bestCount = v, c
		}
	}
	if bestCount < 2 {
		return nil
	}
	return &best
}

// moments computes population skewness and excess kurtosis. Both are
// undefined below MinMomentSamples or when the series has no spread.
func moments(values []float64, mean, variance float64) (domain.Moment, domain.Moment) {
	if len(values) < MinMomentSamples || variance == 0 {
		return domain.Moment{}, domain.Moment{}
	}

	n := float64(len(values))
	var m3, m4 float64
	for _, v := range values {
		d := v - mean
		m3 += d * d * d
		m4 += d * d * d * d
	}
	m3 /= n
	m4 /= n

	skew := m3 / math.Pow(variance, 1.5)
	kurt := m4/(variance*variance) - 3

	return domain.Moment{Value: skew, Defined: true},
		domain.Moment{Value: kurt, Defined: true}
}

// quartiles computes Q1/Q2/Q3 with linear interpolation over the sorted
// series. Undefined below two samples.
func quartiles(sorted []float64) domain.Quartiles {
	if len(sorted) < 2 {
		return domain.Quartiles{}
	}
	q := domain.Quartiles{
		Q1:      interpolatedPercentile(sorted, 25),
		Q2:      interpolatedPercentile(sorted, 50),
		Q3:      interpolatedPercentile(sorted, 75),
		Defined: true,
	}
	q.IQR = q.Q3 - q.Q1
	return q
}

// interpolatedPercentile is the linear-interpolation percentile over an
// already sorted series: index = (n-1) * p / 100.
func interpolatedPercentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := float64(len(sorted)-1) * p / 100
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// outliers flags values beyond the 1.5*IQR fences.
func outliers(sorted []float64, q domain.Quartiles) domain.Outliers {
	if !q.Defined {
		return domain.Outliers{}
	}
	out := domain.Outliers{
		LowerBound: q.Q1 - 1.5*q.IQR,
		UpperBound: q.Q3 + 1.5*q.IQR,
		Defined:    true,
	}
	for _, v := range sorted {
		if v < out.LowerBound || v > out.UpperBound {
			out.Values = append(out.Values, v)
		}
	}
	return out
}
