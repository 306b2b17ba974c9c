package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
	"github.com/zatekoja/erwaittime/internal/domain/repositories"
	apperrors "github.com/zatekoja/erwaittime/pkg/errors"
)

const recentFeedbackWindow = 24 * time.Hour

// FeedbackService handles feedback submissions.
type FeedbackService struct {
	repo repositories.FeedbackRepository
}

// NewFeedbackService creates a new feedback service.
func NewFeedbackService(repo repositories.FeedbackRepository) *FeedbackService {
	return &FeedbackService{repo: repo}
}

// Create stores feedback.
func (s *FeedbackService) Create(ctx context.Context, feedback *entities.Feedback) error {
	if strings.TrimSpace(feedback.HospitalID) == "" || strings.TrimSpace(feedback.ReportType) == "" {
		return apperrors.NewValidationError("Missing required fields")
	}
	if feedback.ActualWaitTime != nil && *feedback.ActualWaitTime < 0 {
		return apperrors.NewValidationError("actualWaitTime must not be negative")
	}
	if feedback.ID == "" {
		feedback.ID = uuid.New().String()
	}
	if feedback.CreatedAt.IsZero() {
		feedback.CreatedAt = time.Now().UTC()
	}
	if feedback.ReportedAt.IsZero() {
		feedback.ReportedAt = feedback.CreatedAt
	}
	return s.repo.Create(ctx, feedback)
}

// Stats summarises all reports and those from the last 24 hours before now.
func (s *FeedbackService) Stats(ctx context.Context, now time.Time) (*entities.FeedbackStats, error) {
	total, recent, err := s.repo.Count(ctx, now.Add(-recentFeedbackWindow))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to count feedback", err)
	}
	return &entities.FeedbackStats{
		TotalReports:  total,
		RecentReports: recent,
		ImpactScore:   ImpactScore(total),
	}, nil
}

// ImpactScore is min(100, round(total × 0.5)).
func ImpactScore(total int) int {
	score := int(math.Round(float64(total) * 0.5))
	if score > 100 {
		return 100
	}
	return score
}
