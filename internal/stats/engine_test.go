package stats

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marklens/pkg/contracts/domain"
)

const tolerance = 1e-9

func TestDescribe(t *testing.T) {
	t.Run("basic series", func(t *testing.T) {
		s := Describe([]float64{70, 80, 90, 60, 100})

		assert.Equal(t, 5, s.Count)
		assert.InDelta(t, 80, s.Mean, tolerance)
		assert.InDelta(t, 80, s.Median, tolerance)
		assert.InDelta(t, 60, s.Min, tolerance)
		assert.InDelta(t, 100, s.Max, tolerance)
		assert.InDelta(t, 40, s.Range, tolerance)
		assert.Nil(t, s.Mode, "no repeated value means no mode")
	})

	t.Run("single value mean equals that value", func(t *testing.T) {
		s := Describe([]float64{73})

		assert.Equal(t, 1, s.Count)
		assert.InDelta(t, 73, s.Mean, tolerance)
		assert.InDelta(t, 73, s.Median, tolerance)
		assert.InDelta(t, 0, s.StdDev, tolerance)
		assert.False(t, s.Skewness.Defined)
		assert.False(t, s.Quartiles.Defined)
	})

	t.Run("constant series has zero std dev", func(t *testing.T) {
		s := Describe([]float64{50, 50, 50, 50, 50})

		assert.InDelta(t, 0, s.StdDev, tolerance)
		assert.InDelta(t, 0, s.Variance, tolerance)
		assert.False(t, s.Skewness.Defined, "no spread, no shape")
	})

	t.Run("population standard deviation", func(t *testing.T) {
		// population variance of {2,4,4,4,5,5,7,9} is 4
		s := Describe([]float64{2, 4, 4, 4, 5, 5, 7, 9})

		assert.InDelta(t, 4, s.Variance, tolerance)
		assert.InDelta(t, 2, s.StdDev, tolerance)
	})

	t.Run("symmetric series has zero skewness", func(t *testing.T) {
		s := Describe([]float64{10, 20, 30, 40, 50})

		require.True(t, s.Skewness.Defined)
		assert.InDelta(t, 0, s.Skewness.Value, 1e-9)
	})

	t.Run("right skewed series has positive skewness", func(t *testing.T) {
		s := Describe([]float64{1, 2, 2, 3, 3, 3, 40})

		require.True(t, s.Skewness.Defined)
		assert.Greater(t, s.Skewness.Value, 0.0)
	})

	t.Run("mode is first encountered modal value", func(t *testing.T) {
		s := Describe([]float64{80, 70, 80, 70, 60})

		require.NotNil(t, s.Mode)
		assert.Equal(t, 80.0, *s.Mode)
	})

	t.Run("quartiles use linear interpolation", func(t *testing.T) {
		// numpy.percentile([1,2,3,4], [25,50,75]) -> 1.75, 2.5, 3.25
		s := Describe([]float64{1, 2, 3, 4})

		require.True(t, s.Quartiles.Defined)
		assert.InDelta(t, 1.75, s.Quartiles.Q1, tolerance)
		assert.InDelta(t, 2.5, s.Quartiles.Q2, tolerance)
		assert.InDelta(t, 3.25, s.Quartiles.Q3, tolerance)
		assert.InDelta(t, 1.5, s.Quartiles.IQR, tolerance)
	})

	t.Run("outliers flagged beyond IQR fences", func(t *testing.T) {
		values := []float64{50, 52, 54, 56, 58, 60, 150}
		s := Describe(values)

		require.True(t, s.Outliers.Defined)
		assert.Equal(t, []float64{150}, s.Outliers.Values)
	})

	t.Run("fewer than four samples leaves moments undefined", func(t *testing.T) {
		s := Describe([]float64{10, 20, 30})

		assert.False(t, s.Skewness.Defined)
		assert.False(t, s.Kurtosis.Defined)
		assert.True(t, s.Quartiles.Defined, "quartiles only need two samples")
	})

	t.Run("empty series", func(t *testing.T) {
		s := Describe(nil)

		assert.Equal(t, 0, s.Count)
		assert.False(t, s.Quartiles.Defined)
		assert.False(t, s.Outliers.Defined)
	})

	t.Run("input is not mutated", func(t *testing.T) {
		values := []float64{9, 1, 5, 3, 7}
		Describe(values)
		assert.Equal(t, []float64{9, 1, 5, 3, 7}, values)
	})
}

func TestSummarize(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(nil)

	set := &domain.ConsolidatedSet{
		Students: []string{"Alice", "Bob", "Carol"},
		Subjects: []string{"Math", "Science"},
		Records: map[string]domain.ConsolidatedRecord{
			"Alice": {Student: "Alice", Marks: map[string]float64{"Math": 80, "Science": 85}},
			"Bob":   {Student: "Bob", Marks: map[string]float64{"Math": 70, "Science": 60}},
			"Carol": {Student: "Carol", Marks: map[string]float64{"Science": 90}},
		},
	}

	t.Run("per subject uses present marks only", func(t *testing.T) {
		s := engine.Summarize(ctx, set, "Math")

		assert.Equal(t, 2, s.Count)
		assert.InDelta(t, 75, s.Mean, tolerance)
		assert.Equal(t, "Math", s.Subject)
	})

	t.Run("totals across all students", func(t *testing.T) {
		s := engine.Summarize(ctx, set, domain.MetricTotal)

		assert.Equal(t, 3, s.Count)
		// totals: 165, 130, 90
		assert.InDelta(t, (165.0+130+90)/3, s.Mean, tolerance)
		assert.Equal(t, domain.MetricTotal, s.Metric)
	})

	t.Run("unknown subject yields empty summary not error", func(t *testing.T) {
		s := engine.Summarize(ctx, set, "History")
		assert.Equal(t, 0, s.Count)
	})
}

func TestPercentileRank(t *testing.T) {
	values := []float64{60, 70, 80, 90, 100}

	t.Run("midpoint value", func(t *testing.T) {
		rank, ok := PercentileRank(values, 80)
		require.True(t, ok)
		// two below, one equal counted as half
		assert.InDelta(t, (2+0.5)/5*100, rank, tolerance)
	})

	t.Run("above all values", func(t *testing.T) {
		rank, ok := PercentileRank(values, 150)
		require.True(t, ok)
		assert.InDelta(t, 100, rank, tolerance)
	})

	t.Run("below all values", func(t *testing.T) {
		rank, ok := PercentileRank(values, 10)
		require.True(t, ok)
		assert.InDelta(t, 0, rank, tolerance)
	})

	t.Run("empty series", func(t *testing.T) {
		_, ok := PercentileRank(nil, 50)
		assert.False(t, ok)
	})
}

func TestPassFail(t *testing.T) {
	values := []float64{30, 45, 50, 72, 88}

	pf := PassFail(values, 50, 100)

	assert.InDelta(t, 50, pf.PassMark, tolerance)
	assert.Equal(t, 3, pf.Passed)
	assert.Equal(t, 2, pf.Failed)
	assert.InDelta(t, 60, pf.PassRate, tolerance)
	assert.InDelta(t, 40, pf.FailRate, tolerance)
}

func TestGradeDistribution(t *testing.T) {
	values := []float64{96, 88, 76, 40, 20}

	dist := GradeDistribution(values, 100)

	assert.Equal(t, 1, dist.Counts["A+"])
	assert.Equal(t, 1, dist.Counts["A"])
	assert.Equal(t, 1, dist.Counts["B+"])
	assert.Equal(t, 1, dist.Counts["D"])
	assert.Equal(t, 1, dist.Counts["F"])
	assert.InDelta(t, 20, dist.Percentages["A+"], tolerance)
}

func TestLetterGrade(t *testing.T) {
	tests := []struct {
		mark float64
		want string
	}{
		{95, "A+"}, {94.9, "A"}, {85, "A"}, {75, "B+"}, {65, "B"},
		{55, "C+"}, {45, "C"}, {35, "D"}, {34.9, "F"}, {0, "F"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.LetterGrade(tt.mark, 100), "mark %.1f", tt.mark)
	}
}

func TestMomentsAgainstKnownValues(t *testing.T) {
	// uniform {10,20,30,40,50}: population kurtosis of a discrete
	// uniform distribution with n=5 is 1.7, excess -1.3
	s := Describe([]float64{10, 20, 30, 40, 50})

	require.True(t, s.Kurtosis.Defined)
	assert.InDelta(t, -1.3, s.Kurtosis.Value, 1e-9)
	assert.False(t, math.IsNaN(s.Skewness.Value))
}
