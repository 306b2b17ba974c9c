package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/erwaittime/internal/application/services"
	"github.com/zatekoja/erwaittime/internal/domain/entities"
	apperrors "github.com/zatekoja/erwaittime/pkg/errors"
)

func TestFeedbackService_Create(t *testing.T) {
	repo := new(MockFeedbackRepository)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(f *entities.Feedback) bool {
		return f.ID != "" && !f.CreatedAt.IsZero() && f.ReportedAt.Equal(f.CreatedAt)
	})).Return(nil)

	wait := 45
	err := services.NewFeedbackService(repo).Create(context.Background(), &entities.Feedback{
		HospitalID:     "HOSP-1",
		ReportType:     "wait_time",
		ActualWaitTime: &wait,
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestFeedbackService_CreateRequiresFields(t *testing.T) {
	repo := new(MockFeedbackRepository)
	svc := services.NewFeedbackService(repo)

	err := svc.Create(context.Background(), &entities.Feedback{HospitalID: "HOSP-1"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	negative := -5
	err = svc.Create(context.Background(), &entities.Feedback{HospitalID: "HOSP-1", ReportType: "wait_time", ActualWaitTime: &negative})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestFeedbackService_Stats(t *testing.T) {
	now := time.Date(2024, time.June, 12, 12, 0, 0, 0, time.UTC)
	repo := new(MockFeedbackRepository)
	repo.On("Count", mock.Anything, now.Add(-24*time.Hour)).Return(41, 3, nil)

	stats, err := services.NewFeedbackService(repo).Stats(context.Background(), now)

	require.NoError(t, err)
	assert.Equal(t, 41, stats.TotalReports)
	assert.Equal(t, 3, stats.RecentReports)
	assert.Equal(t, 21, stats.ImpactScore)
}

func TestFeedbackService_StatsError(t *testing.T) {
	repo := new(MockFeedbackRepository)
	repo.On("Count", mock.Anything, mock.Anything).Return(0, 0, errors.New("db down"))

	_, err := services.NewFeedbackService(repo).Stats(context.Background(), time.Now())

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
}

func TestImpactScore(t *testing.T) {
	assert.Equal(t, 0, services.ImpactScore(0))
	assert.Equal(t, 1, services.ImpactScore(1))
	assert.Equal(t, 50, services.ImpactScore(100))
	assert.Equal(t, 100, services.ImpactScore(1000))
}
