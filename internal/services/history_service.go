package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"marklens/internal/history"
	"marklens/pkg/contracts/domain"
)

// HistoryService stores analysis results as named snapshots and
// compares them.
type HistoryService struct {
	store      history.Store
	comparator *history.Comparator
	logger     *slog.Logger
}

// NewHistoryService creates a history service over a snapshot store.
func NewHistoryService(store history.Store, logger *slog.Logger) *HistoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryService{
		store:      store,
		comparator: history.NewComparator(store, logger),
		logger:     logger.With(slog.String("component", "history_service")),
	}
}

// SaveSnapshot stores an analysis result under a label so later exams
// can be compared against it.
func (s *HistoryService) SaveSnapshot(ctx context.Context, label string, result *AnalysisResult, examDate time.Time, class, stream string) (domain.ExamSnapshot, error) {
	if result == nil || result.Records == nil {
		return domain.ExamSnapshot{}, fmt.Errorf("snapshot %q: no analysis result to store", label)
	}

	snapshot := domain.ExamSnapshot{
		Label:    label,
		ExamDate: examDate,
		Class:    class,
		Stream:   stream,
		Records:  result.Records,
		Summary:  result.Statistics[domain.MetricAverage],
	}
	return s.store.AddSnapshot(ctx, snapshot)
}

// Snapshot retrieves a stored snapshot by label.
func (s *HistoryService) Snapshot(ctx context.Context, label string) (domain.ExamSnapshot, error) {
	return s.store.Snapshot(ctx, label)
}

// Labels lists stored snapshot labels in creation order.
func (s *HistoryService) Labels(ctx context.Context) ([]string, error) {
	return s.store.Labels(ctx)
}

// DeleteSnapshot removes a stored snapshot.
func (s *HistoryService) DeleteSnapshot(ctx context.Context, label string) error {
	return s.store.DeleteSnapshot(ctx, label)
}

// Compare computes the delta report between two stored snapshots.
func (s *HistoryService) Compare(ctx context.Context, previousLabel, currentLabel, metric string) (domain.Comparison, error) {
	return s.comparator.Compare(ctx, previousLabel, currentLabel, metric)
}
