package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/regready/internal/core/domain"
	"github.com/custodia-labs/regready/internal/core/ports/driven"
)

// Ensure ReviewStore implements the interface.
var _ driven.ReviewStore = (*ReviewStore)(nil)

// ReviewStore is an in-memory implementation of driven.ReviewStore.
type ReviewStore struct {
	mu       sync.RWMutex
	flags    map[string]domain.ReviewFlag
	feedback map[string][]domain.ExpertFeedback
}

// NewReviewStore creates a new in-memory review store.
func NewReviewStore() *ReviewStore {
	return &ReviewStore{
		flags:    make(map[string]domain.ReviewFlag),
		feedback: make(map[string][]domain.ExpertFeedback),
	}
}

// Save stores a review flag. The feedback history is kept separately
// and is never touched here.
func (s *ReviewStore) Save(_ context.Context, flag domain.ReviewFlag) error {
	if flag.RunID == "" || !flag.State.IsValid() {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.flags[flag.RunID]; ok && flag.CreatedAt.IsZero() {
		flag.CreatedAt = existing.CreatedAt
	}
	flag.Feedback = nil
	s.flags[flag.RunID] = flag
	return nil
}

// Get returns the flag for a run with its full feedback history.
func (s *ReviewStore) Get(_ context.Context, runID string) (*domain.ReviewFlag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	flag, ok := s.flags[runID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	flag.Feedback = s.feedbackLocked(runID)
	return &flag, nil
}

// ListPending returns all flags in the pending-review state, ordered by
// creation time then run ID.
func (s *ReviewStore) ListPending(_ context.Context) ([]domain.ReviewFlag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []domain.ReviewFlag
	for _, flag := range s.flags {
		if flag.State != domain.ReviewPendingReview {
			continue
		}
		flag.Feedback = s.feedbackLocked(flag.RunID)
		pending = append(pending, flag)
	}

	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].CreatedAt.Before(pending[j].CreatedAt)
		}
		return pending[i].RunID < pending[j].RunID
	})

	return pending, nil
}

// AppendFeedback appends one expert decision to a flag's history.
func (s *ReviewStore) AppendFeedback(_ context.Context, runID string, feedback domain.ExpertFeedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.flags[runID]; !ok {
		return domain.ErrNotFound
	}
	s.feedback[runID] = append(s.feedback[runID], feedback)
	return nil
}

// feedbackLocked copies a run's feedback history. Caller holds the lock.
func (s *ReviewStore) feedbackLocked(runID string) []domain.ExpertFeedback {
	history := s.feedback[runID]
	if len(history) == 0 {
		return nil
	}
	out := make([]domain.ExpertFeedback, len(history))
	copy(out, history)
	return out
}
