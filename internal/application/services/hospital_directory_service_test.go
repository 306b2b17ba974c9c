package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/erwaittime/internal/application/services"
	"github.com/zatekoja/erwaittime/internal/domain/entities"
	"github.com/zatekoja/erwaittime/internal/domain/providers"
	apperrors "github.com/zatekoja/erwaittime/pkg/errors"
)

func TestHospitalDirectoryService_Nearby(t *testing.T) {
	source := new(MockSnapshotSource)
	source.On("Snapshot", mock.Anything).Return(testSnapshot(), nil)
	svc := services.NewHospitalDirectoryService(source, nil, providers.FixedClock{At: wednesdayAfternoon})

	dir, err := svc.Nearby(context.Background(), 32.7157, -117.1611, "High", 3)

	require.NoError(t, err)
	require.Len(t, dir.Hospitals, 3)
	assert.Equal(t, "SD-1", dir.Hospitals[0].ID)
	assert.Equal(t, 60, dir.Hospitals[0].EstimatedWaitTime)
	assert.Equal(t, entities.TimeOfDayAfternoon, dir.Metadata.TimeOfDay)
	assert.Equal(t, entities.SeasonSummer, dir.Metadata.Season)
	assert.Equal(t, entities.UrgencyHigh, dir.Metadata.UrgencyLevel)
}

func TestHospitalDirectoryService_NearbyDefaultsAndValidation(t *testing.T) {
	source := new(MockSnapshotSource)
	source.On("Snapshot", mock.Anything).Return(testSnapshot(), nil)
	svc := services.NewHospitalDirectoryService(source, nil, providers.FixedClock{At: wednesdayAfternoon})

	dir, err := svc.Nearby(context.Background(), 32.7157, -117.1611, "", 0)
	require.NoError(t, err)
	assert.Len(t, dir.Hospitals, 6)
	assert.Equal(t, entities.UrgencyMedium, dir.Metadata.UrgencyLevel)

	last := dir.Hospitals[len(dir.Hospitals)-1]
	assert.Equal(t, "NOWHERE", last.ID)
	assert.Equal(t, 100, last.EstimatedWaitTime)

	_, err = svc.Nearby(context.Background(), 0, 0, "", 0)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestDirectoryEstimate(t *testing.T) {
	profile := flatProfile("A", "Fresno, CA", 100)
	profile.AverageWaitTimes.ByTimeOfDay[entities.TimeOfDayAfternoon] = 110
	profile.AverageWaitTimes.BySeason[entities.SeasonSummer] = 90
	signal := neutralSignal(wednesdayAfternoon)

	// 60 × 1.1 × 0.9 = 59.4
	assert.Equal(t, 59, services.DirectoryEstimate(profile, entities.UrgencyHigh, signal, true))
	assert.Equal(t, 100, services.DirectoryEstimate(profile, entities.UrgencyHigh, signal, false))
}

func TestHospitalDirectoryService_GetByID(t *testing.T) {
	source := new(MockSnapshotSource)
	source.On("Snapshot", mock.Anything).Return(testSnapshot(), nil)
	svc := services.NewHospitalDirectoryService(source, nil, nil)

	detail, err := svc.GetByID(context.Background(), "LA-1")
	require.NoError(t, err)
	assert.Equal(t, "LA-1", detail.ID)
	require.NotNil(t, detail.Coordinates)
	assert.Equal(t, losAngeles.Longitude, detail.Coordinates.Lng)

	_, err = svc.GetByID(context.Background(), "missing")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestHospitalDirectoryService_SearchUsesIndex(t *testing.T) {
	source := new(MockSnapshotSource)
	source.On("Snapshot", mock.Anything).Return(testSnapshot(), nil)
	index := new(MockHospitalSearchRepository)
	index.On("Search", mock.Anything, "los", 20).Return([]string{"LA-1", "DELETED"}, nil)
	svc := services.NewHospitalDirectoryService(source, index, nil)

	results, err := svc.Search(context.Background(), " los ", 0)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "LA-1", results[0].ID)
	index.AssertExpectations(t)
}

func TestHospitalDirectoryService_SearchFallsBackToSnapshot(t *testing.T) {
	source := new(MockSnapshotSource)
	source.On("Snapshot", mock.Anything).Return(testSnapshot(), nil)
	index := new(MockHospitalSearchRepository)
	index.On("Search", mock.Anything, "san diego", 2).Return(nil, errors.New("typesense unavailable"))
	svc := services.NewHospitalDirectoryService(source, index, nil)

	results, err := svc.Search(context.Background(), "san diego", 2)

	require.NoError(t, err)
	assert.Len(t, results, 2)

	_, err = svc.Search(context.Background(), "  ", 2)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}
