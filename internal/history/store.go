// Package history persists exam snapshots and compares them. Snapshots
// are immutable once stored; comparisons are computed on demand and
// never persisted, so re-running a comparison always reflects the
// stored snapshots exactly.
package history

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "marklens/internal/errors"
	"marklens/pkg/contracts/domain"
)

// Store persists exam snapshots keyed by label.
type Store interface {
	// AddSnapshot stores a snapshot under its label. Storing a label
	// twice overwrites the earlier snapshot.
	AddSnapshot(ctx context.Context, snapshot domain.ExamSnapshot) (domain.ExamSnapshot, error)
	// Snapshot retrieves a snapshot by label.
	Snapshot(ctx context.Context, label string) (domain.ExamSnapshot, error)
	// Labels lists stored snapshot labels ordered by creation time.
	Labels(ctx context.Context) ([]string, error)
	// DeleteSnapshot removes a snapshot by label.
	DeleteSnapshot(ctx context.Context, label string) error
	// Close releases store resources.
	Close() error
}

// MemoryStore is the in-process Store used by default and in tests.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]domain.ExamSnapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]domain.ExamSnapshot)}
}

// AddSnapshot stores a deep copy so later caller mutations cannot leak
// into the stored snapshot.
func (s *MemoryStore) AddSnapshot(_ context.Context, snapshot domain.ExamSnapshot) (domain.ExamSnapshot, error) {
	if snapshot.Label == "" {
		return domain.ExamSnapshot{}, fmt.Errorf("snapshot label is required")
	}
	if snapshot.Records == nil || snapshot.Records.Len() == 0 {
		return domain.ExamSnapshot{}, fmt.Errorf("snapshot %q: %w", snapshot.Label, apperrors.ErrEmptyInput)
	}

	stored := snapshot.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	s.snapshots[stored.Label] = stored
	s.mu.Unlock()

	return stored.Clone(), nil
}

func (s *MemoryStore) Snapshot(_ context.Context, label string) (domain.ExamSnapshot, error) {
	s.mu.RLock()
	snapshot, ok := s.snapshots[label]
	s.mu.RUnlock()
	if !ok {
		return domain.ExamSnapshot{}, fmt.Errorf("snapshot %q: %w", label, apperrors.ErrSnapshotNotFound)
	}
	return snapshot.Clone(), nil
}

func (s *MemoryStore) Labels(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	labels := make([]string, 0, len(s.snapshots))
	for label := range s.snapshots {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		a, b := s.snapshots[labels[i]], s.snapshots[labels[j]]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return labels[i] < labels[j]
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return labels, nil
}

func (s *MemoryStore) DeleteSnapshot(_ context.Context, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snapshots[label]; !ok {
		return fmt.Errorf("snapshot %q: %w", label, apperrors.ErrSnapshotNotFound)
	}
	delete(s.snapshots, label)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
