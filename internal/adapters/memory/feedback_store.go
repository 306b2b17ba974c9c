package memory

import (
	"context"
	"sync"
	"time"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
	"github.com/zatekoja/erwaittime/internal/domain/repositories"
)

// FeedbackStore keeps feedback in process memory when Postgres is not configured.
type FeedbackStore struct {
	mu      sync.RWMutex
	reports []entities.Feedback
}

// NewFeedbackStore creates an empty in-memory feedback store.
func NewFeedbackStore() repositories.FeedbackRepository {
	return &FeedbackStore{}
}

// Create appends a copy of feedback.
func (s *FeedbackStore) Create(ctx context.Context, feedback *entities.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, *feedback)
	return nil
}

// Count returns the total number of reports and those created at or after since.
func (s *FeedbackStore) Count(ctx context.Context, since time.Time) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recent := 0
	for _, r := range s.reports {
		if !r.CreatedAt.Before(since) {
			recent++
		}
	}
	return len(s.reports), recent, nil
}
