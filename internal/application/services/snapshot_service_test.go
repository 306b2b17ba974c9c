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
	apperrors "github.com/zatekoja/erwaittime/pkg/errors"
)

func TestSnapshotService_LoadsOnce(t *testing.T) {
	profileRepo := new(MockProfileRepository)
	coordinateRepo := new(MockCoordinateRepository)
	profileRepo.On("LoadProfiles", mock.Anything).
		Return([]*entities.HospitalProfile{flatProfile("A", "Fresno, CA", 80)}, nil).Once()
	coordinateRepo.On("LoadCoordinates", mock.Anything).
		Return(map[string]entities.GeoCoordinate{"A": sanDiego}, nil).Once()

	svc := services.NewSnapshotService(profileRepo, coordinateRepo)

	first, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	second, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, first.Len())
	profileRepo.AssertNumberOfCalls(t, "LoadProfiles", 1)
	coordinateRepo.AssertNumberOfCalls(t, "LoadCoordinates", 1)
}

func TestSnapshotService_FailedLoadIsRetried(t *testing.T) {
	profileRepo := new(MockProfileRepository)
	coordinateRepo := new(MockCoordinateRepository)
	profileRepo.On("LoadProfiles", mock.Anything).Return(nil, errors.New("no such file")).Once()
	profileRepo.On("LoadProfiles", mock.Anything).
		Return([]*entities.HospitalProfile{flatProfile("A", "Fresno, CA", 80)}, nil).Once()
	coordinateRepo.On("LoadCoordinates", mock.Anything).
		Return(map[string]entities.GeoCoordinate{}, nil)

	svc := services.NewSnapshotService(profileRepo, coordinateRepo)

	_, err := svc.Snapshot(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDataUnavailable))
	appErr, _ := apperrors.As(err)
	assert.Equal(t, services.MsgHospitalDataNotFound, appErr.Message)

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Len())
}

func TestSnapshotService_EmptyProfileSetIsUnavailable(t *testing.T) {
	profileRepo := new(MockProfileRepository)
	coordinateRepo := new(MockCoordinateRepository)
	profileRepo.On("LoadProfiles", mock.Anything).Return([]*entities.HospitalProfile{}, nil)
	coordinateRepo.On("LoadCoordinates", mock.Anything).Return(map[string]entities.GeoCoordinate{}, nil)

	_, err := services.NewSnapshotService(profileRepo, coordinateRepo).Snapshot(context.Background())

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDataUnavailable))
}

func TestNewProfileSnapshot_ValidatesAndDeduplicates(t *testing.T) {
	first := flatProfile("A", "Fresno, CA", 80)
	duplicate := flatProfile("A", "Other, CA", 10)
	invalid := flatProfile("B", "Fresno, CA", 80)
	invalid.AverageWaitTimes.Overall = -1
	partial := &entities.HospitalProfile{ID: "C", Name: "Partial", Region: "Fresno, CA"}

	snap := services.NewProfileSnapshot([]*entities.HospitalProfile{first, duplicate, invalid, partial, nil}, nil, wednesdayAfternoon)

	assert.Equal(t, 2, snap.Len())
	got, ok := snap.Profile("A")
	require.True(t, ok)
	assert.Equal(t, "Fresno, CA", got.Region)
	_, ok = snap.Profile("B")
	assert.False(t, ok)

	c, ok := snap.Profile("C")
	require.True(t, ok)
	assert.Len(t, c.AverageWaitTimes.ByUrgency, 4)
	assert.Equal(t, []string{"A", "C"}, snap.IDs())
}
