// Package services orchestrates the analysis pipeline: consolidation,
// statistics, ranking, and snapshot history. Handlers and CLI commands
// call services; services never touch the transport layer.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"marklens/internal/config"
	"marklens/internal/consolidate"
	"marklens/internal/ranking"
	"marklens/internal/stats"
	"marklens/pkg/contracts/domain"
)

// AnalysisResult bundles everything one analysis run produces.
type AnalysisResult struct {
	ID             string                       `json:"id"`
	CreatedAt      time.Time                    `json:"created_at"`
	Records        *domain.ConsolidatedSet      `json:"records"`
	Statistics     map[string]domain.Statistics `json:"statistics"`
	Rankings       map[string]domain.Ranking    `json:"rankings"`
	SubjectLeaders map[string]string            `json:"subject_leaders"`
	ClassSummary   domain.ClassSummary          `json:"class_summary"`
	PassFail       domain.PassFail              `json:"pass_fail"`
	Grades         domain.GradeDistribution     `json:"grades"`
}

// AnalysisService runs the full pipeline over raw subject tables.
type AnalysisService struct {
	consolidator *consolidate.Consolidator
	statsEngine  *stats.Engine
	rankEngine   *ranking.Engine
	cfg          config.AnalysisConfig
	logger       *slog.Logger
}

// NewAnalysisService wires the pipeline from configuration.
func NewAnalysisService(
	consolidator *consolidate.Consolidator,
	statsEngine *stats.Engine,
	rankEngine *ranking.Engine,
	cfg config.AnalysisConfig,
	logger *slog.Logger,
) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		consolidator: consolidator,
		statsEngine:  statsEngine,
		rankEngine:   rankEngine,
		cfg:          cfg,
		logger:       logger.With(slog.String("component", "analysis_service")),
	}
}

// Analyze consolidates the tables and computes statistics and rankings
// for every subject plus the total and average metrics. Statistics and
// ranking run concurrently per metric; both read the consolidated set
// without mutating it.
func (s *AnalysisService) Analyze(ctx context.Context, tables []domain.SubjectTable) (*AnalysisResult, error) {
	start := time.Now()

	set, err := s.consolidator.Consolidate(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("consolidate sheets: %w", err)
	}

	result := &AnalysisResult{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Records:    set,
		Statistics: make(map[string]domain.Statistics),
		Rankings:   make(map[string]domain.Ranking),
	}

	metrics := append([]string{domain.MetricTotal, domain.MetricAverage}, set.Subjects...)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, metric := range metrics {
		metric := metric
		g.Go(func() error {
			summary := s.statsEngine.Summarize(gctx, set, metric)
			rank := s.rankEngine.Rank(gctx, set, metric)

			mu.Lock()
			result.Statistics[metric] = summary
			result.Rankings[metric] = rank
			mu.Unlock()
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analysis interrupted: %w", err)
	}

	result.SubjectLeaders = s.rankEngine.SubjectLeaders(ctx, set)
	result.ClassSummary = s.rankEngine.ClassSummary(result.Rankings[domain.MetricAverage])

	averages := set.MetricValues(domain.MetricAverage)
	result.PassFail = stats.PassFail(averages, s.cfg.PassThreshold, s.cfg.MaxMark)
	result.Grades = stats.GradeDistribution(averages, s.cfg.MaxMark)

	s.logger.InfoContext(ctx, "analysis complete",
		slog.String("run_id", result.ID),
		slog.Int("students", set.Len()),
		slog.Int("subjects", len(set.Subjects)),
		slog.Duration("elapsed", time.Since(start)))

	return result, nil
}

// TopPerformers returns the first n entries of the ranking for the
// metric, computing the ranking if the result does not carry it.
func (s *AnalysisService) TopPerformers(result *AnalysisResult, metric string, n int) ([]domain.RankEntry, error) {
	rank, ok := result.Rankings[metric]
	if !ok {
		rank = s.rankEngine.Rank(context.Background(), result.Records, metric)
	}
	return ranking.TopN(rank, n)
}
