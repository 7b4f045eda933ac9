package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(marks map[string]float64) ConsolidatedRecord {
	return ConsolidatedRecord{Student: "Alice", Marks: marks}
}

func TestConsolidatedRecord(t *testing.T) {
	t.Run("total and average", func(t *testing.T) {
		r := record(map[string]float64{"Math": 80, "Science": 85})
		assert.Equal(t, 165.0, r.Total())
		assert.Equal(t, 82.5, r.Average())
	})

	t.Run("empty record averages to NaN", func(t *testing.T) {
		r := record(map[string]float64{})
		assert.Equal(t, 0.0, r.Total())
		assert.True(t, math.IsNaN(r.Average()), "a missing average is NaN, never zero")
	})

	t.Run("missing subject is absent not zero", func(t *testing.T) {
		r := record(map[string]float64{"Math": 80})
		_, ok := r.Mark("Science")
		assert.False(t, ok)
	})

	t.Run("metric resolution", func(t *testing.T) {
		r := record(map[string]float64{"Math": 80, "Science": 85})

		total, ok := r.MetricValue(MetricTotal)
		require.True(t, ok)
		assert.Equal(t, 165.0, total)

		avg, ok := r.MetricValue(MetricAverage)
		require.True(t, ok)
		assert.Equal(t, 82.5, avg)

		math80, ok := r.MetricValue("Math")
		require.True(t, ok)
		assert.Equal(t, 80.0, math80)

		_, ok = r.MetricValue("History")
		assert.False(t, ok)
	})

	t.Run("empty record has no metrics", func(t *testing.T) {
		r := record(map[string]float64{})
		_, ok := r.MetricValue(MetricTotal)
		assert.False(t, ok)
		_, ok = r.MetricValue(MetricAverage)
		assert.False(t, ok)
	})

	t.Run("clone is independent", func(t *testing.T) {
		r := record(map[string]float64{"Math": 80})
		clone := r.Clone()
		clone.Marks["Math"] = 1

		assert.Equal(t, 80.0, r.Marks["Math"])
	})
}

func testConsolidatedSet() *ConsolidatedSet {
	return &ConsolidatedSet{
		Students: []string{"Carol", "Alice", "Bob"},
		Subjects: []string{"Math"},
		Records: map[string]ConsolidatedRecord{
			"Carol": {Student: "Carol", Marks: map[string]float64{"Math": 60}},
			"Alice": {Student: "Alice", Marks: map[string]float64{"Math": 80}},
			"Bob":   {Student: "Bob", Marks: map[string]float64{}},
		},
	}
}

func TestConsolidatedSet(t *testing.T) {
	set := testConsolidatedSet()

	t.Run("subject marks follow consolidation order", func(t *testing.T) {
		assert.Equal(t, []float64{60, 80}, set.SubjectMarks("Math"))
	})

	t.Run("metric values skip students without a value", func(t *testing.T) {
		assert.Equal(t, []float64{60, 80}, set.MetricValues(MetricTotal))
	})

	t.Run("sorted students leaves order untouched", func(t *testing.T) {
		sorted := set.SortedStudents()
		assert.Equal(t, []string{"Alice", "Bob", "Carol"}, sorted)
		assert.Equal(t, []string{"Carol", "Alice", "Bob"}, set.Students)
	})

	t.Run("clone is deep", func(t *testing.T) {
		clone := set.Clone()
		clone.Records["Alice"].Marks["Math"] = 1
		clone.Students[0] = "mutated"

		assert.Equal(t, 80.0, set.Records["Alice"].Marks["Math"])
		assert.Equal(t, "Carol", set.Students[0])
	})
}

func TestSnapshotClone(t *testing.T) {
	snap := ExamSnapshot{Label: "term1", Records: testConsolidatedSet()}
	clone := snap.Clone()
	clone.Records.Records["Alice"].Marks["Math"] = 1

	assert.Equal(t, 80.0, snap.Records.Records["Alice"].Marks["Math"])
}
