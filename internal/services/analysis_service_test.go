package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marklens/internal/config"
	"marklens/internal/consolidate"
	"marklens/internal/history"
	"marklens/internal/match"
	"marklens/internal/ranking"
	"marklens/internal/stats"
	"marklens/pkg/contracts/domain"
)

func mark(v float64) *float64 { return &v }

func newService() *AnalysisService {
	cfg := config.Default().Analysis
	matcher := match.NewMatcher(nil, cfg.MatchThreshold)
	consolidator := consolidate.New(matcher, consolidate.Options{
		MinMark: cfg.MinMark,
		MaxMark: cfg.MaxMark,
		MaxRows: cfg.MaxRows,
	}, nil)
	return NewAnalysisService(
		consolidator,
		stats.NewEngine(nil),
		ranking.NewEngine(cfg.MaxMark, nil),
		cfg,
		nil,
	)
}

func sheetTables() []domain.SubjectTable {
	return []domain.SubjectTable{
		{Subject: "Math", Rows: []domain.MarkRow{
			{RawName: "Alice", Mark: mark(80)},
			{RawName: "Bob", Mark: mark(70)},
			{RawName: "Carol", Mark: mark(60)},
		}},
		{Subject: "Science", Rows: []domain.MarkRow{
			{RawName: "Alise", Mark: mark(85)},
			{RawName: "Bob", Mark: mark(75)},
			{RawName: "Carol", Mark: mark(65)},
		}},
	}
}

func TestAnalyze(t *testing.T) {
	ctx := context.Background()
	service := newService()

	result, err := service.Analyze(ctx, sheetTables())
	require.NoError(t, err)

	t.Run("run identity", func(t *testing.T) {
		assert.NotEmpty(t, result.ID)
		assert.False(t, result.CreatedAt.IsZero())
	})

	t.Run("consolidation resolved name variants", func(t *testing.T) {
		assert.Equal(t, 3, result.Records.Len())
		alice, ok := result.Records.Record("Alice")
		require.True(t, ok)
		assert.Equal(t, 165.0, alice.Total())
	})

	t.Run("statistics per metric and subject", func(t *testing.T) {
		require.Contains(t, result.Statistics, domain.MetricTotal)
		require.Contains(t, result.Statistics, "Math")

		total := result.Statistics[domain.MetricTotal]
		assert.Equal(t, 3, total.Count)
		// totals: 165, 145, 125
		assert.InDelta(t, 145, total.Mean, 1e-9)
	})

	t.Run("rankings per metric", func(t *testing.T) {
		rank := result.Rankings[domain.MetricTotal]
		require.Len(t, rank.Entries, 3)
		assert.Equal(t, "Alice", rank.Entries[0].Student)
		assert.Equal(t, 1, rank.Entries[0].Rank)
	})

	t.Run("subject leaders", func(t *testing.T) {
		assert.Equal(t, "Alice", result.SubjectLeaders["Math"])
		assert.Equal(t, "Alice", result.SubjectLeaders["Science"])
	})

	t.Run("class summary and pass fail", func(t *testing.T) {
		assert.Equal(t, 3, result.ClassSummary.TotalStudents)
		assert.Equal(t, 3, result.PassFail.Passed, "averages 82.5, 72.5, 62.5 all above 50%")
		assert.Equal(t, 0, result.PassFail.Failed)
		assert.NotEmpty(t, result.Grades.Counts)
	})

	t.Run("validation failure surfaces", func(t *testing.T) {
		_, err := service.Analyze(ctx, []domain.SubjectTable{
			{Subject: "Math", Rows: []domain.MarkRow{{RawName: "Alice", Mark: mark(500)}}},
		})
		assert.Error(t, err)
	})

	t.Run("deterministic across runs", func(t *testing.T) {
		again, err := service.Analyze(ctx, sheetTables())
		require.NoError(t, err)
		assert.Equal(t, result.Records, again.Records)
		assert.Equal(t, result.Rankings, again.Rankings)
	})
}

func TestTopPerformers(t *testing.T) {
	service := newService()
	result, err := service.Analyze(context.Background(), sheetTables())
	require.NoError(t, err)

	top, err := service.TopPerformers(result, domain.MetricTotal, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Alice", top[0].Student)

	_, err = service.TopPerformers(result, domain.MetricTotal, 0)
	assert.Error(t, err)
}

func TestHistoryService(t *testing.T) {
	ctx := context.Background()
	analysis := newService()
	histService := NewHistoryService(history.NewMemoryStore(), nil)

	term1, err := analysis.Analyze(ctx, sheetTables())
	require.NoError(t, err)

	term2Tables := sheetTables()
	term2Tables[0].Rows[0].Mark = mark(95) // Alice improves in Math
	term2, err := analysis.Analyze(ctx, term2Tables)
	require.NoError(t, err)

	examDate := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	_, err = histService.SaveSnapshot(ctx, "term1", term1, examDate, "Form 3", "East")
	require.NoError(t, err)
	_, err = histService.SaveSnapshot(ctx, "term2", term2, examDate.AddDate(0, 3, 0), "Form 3", "East")
	require.NoError(t, err)

	t.Run("labels listed", func(t *testing.T) {
		labels, err := histService.Labels(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"term1", "term2"}, labels)
	})

	t.Run("comparison over stored snapshots", func(t *testing.T) {
		cmp, err := histService.Compare(ctx, "term1", "term2", domain.MetricTotal)
		require.NoError(t, err)

		require.NotEmpty(t, cmp.Deltas)
		byStudent := make(map[string]domain.HistoricalDelta)
		for _, d := range cmp.Deltas {
			byStudent[d.Student] = d
		}
		assert.InDelta(t, 15, byStudent["Alice"].Change, 1e-9)
		assert.Equal(t, domain.DeltaImproved, byStudent["Alice"].Status)
		assert.Equal(t, domain.DeltaUnchanged, byStudent["Bob"].Status)
	})

	t.Run("nil result rejected", func(t *testing.T) {
		_, err := histService.SaveSnapshot(ctx, "bad", nil, examDate, "", "")
		assert.Error(t, err)
	})
}
