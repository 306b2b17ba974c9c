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
	"github.com/zatekoja/erwaittime/internal/domain/providers"
	apperrors "github.com/zatekoja/erwaittime/pkg/errors"
)

func testSnapshot() *services.ProfileSnapshot {
	profiles := []*entities.HospitalProfile{
		flatProfile("SD-1", "San Diego, CA", 100),
		flatProfile("SD-2", "San Diego, CA", 100),
		flatProfile("SD-3", "San Diego, CA", 100),
		flatProfile("SD-4", "San Diego, CA", 100),
		flatProfile("LA-1", "Los Angeles, CA", 100),
		flatProfile("NOWHERE", "Atlantis", 100),
	}
	coords := map[string]entities.GeoCoordinate{
		"SD-1": {Latitude: 32.72, Longitude: -117.16},
		"SD-2": {Latitude: 32.73, Longitude: -117.16},
		"SD-3": {Latitude: 32.74, Longitude: -117.16},
		"SD-4": {Latitude: 32.75, Longitude: -117.16},
		"LA-1": losAngeles,
	}
	return services.NewProfileSnapshot(profiles, coords, wednesdayAfternoon)
}

func newWaitTimeService(source services.SnapshotSource, weather providers.WeatherProvider) *services.WaitTimeService {
	clock := providers.FixedClock{At: wednesdayAfternoon}
	contextProvider := services.NewContextProvider(clock, weather, noEvents(), 30*time.Millisecond, time.Second)
	predictor := services.NewFormulaPredictor(services.NewPredictionEngine(clock))
	return services.NewWaitTimeService(source, contextProvider, predictor, 3)
}

func TestWaitTimeService_Estimate(t *testing.T) {
	source := new(MockSnapshotSource)
	source.On("Snapshot", mock.Anything).Return(testSnapshot(), nil)

	estimate, err := newWaitTimeService(source, staticWeather(entities.WeatherRainy)).Estimate(context.Background(), services.EstimateQuery{
		Latitude:  32.7157,
		Longitude: -117.1611,
		Urgency:   "critical",
	})

	require.NoError(t, err)
	require.Len(t, estimate.Hospitals, 5)
	assert.Equal(t, []string{"SD-1", "SD-2", "SD-3", "LA-1", "NOWHERE"}, hospitalIDs(estimate.Hospitals))
	assert.Equal(t, services.SentinelDistanceKm, estimate.Hospitals[4].Distance)
	assert.Nil(t, estimate.Hospitals[4].Coordinates)
	assert.NotNil(t, estimate.Hospitals[0].Coordinates)

	for _, h := range estimate.Hospitals {
		require.NotNil(t, h.Prediction)
		assert.Equal(t, 1.12, h.Prediction.Factors.WeatherFactor)
		assert.Equal(t, 100.0, h.HistoricalWaitTime)
	}

	cf := estimate.ContextualFactors
	assert.Equal(t, entities.UrgencyCritical, cf.UrgencyLevel)
	assert.Equal(t, entities.WeatherRainy, cf.WeatherCondition)
	assert.Equal(t, entities.ProvenanceObserved, cf.WeatherSource)
	assert.Equal(t, entities.ProvenanceSimulated, cf.EventsSource)
	assert.NotNil(t, cf.LocalEvents)
}

func TestWaitTimeService_RejectsOriginBeforeLookup(t *testing.T) {
	source := new(MockSnapshotSource)

	_, err := newWaitTimeService(source, nil).Estimate(context.Background(), services.EstimateQuery{})

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	appErr, _ := apperrors.As(err)
	assert.Equal(t, services.MsgInvalidCoordinates, appErr.Message)
	source.AssertNotCalled(t, "Snapshot", mock.Anything)
}

func TestWaitTimeService_RejectsOutOfRange(t *testing.T) {
	source := new(MockSnapshotSource)

	_, err := newWaitTimeService(source, nil).Estimate(context.Background(), services.EstimateQuery{Latitude: 91, Longitude: 10})

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	source.AssertNotCalled(t, "Snapshot", mock.Anything)
}

func TestWaitTimeService_WeatherTimeoutStillPredicts(t *testing.T) {
	source := new(MockSnapshotSource)
	source.On("Snapshot", mock.Anything).Return(testSnapshot(), nil)

	estimate, err := newWaitTimeService(source, blockingWeather()).Estimate(context.Background(), services.EstimateQuery{
		Latitude:  32.7157,
		Longitude: -117.1611,
	})

	require.NoError(t, err)
	require.Len(t, estimate.Hospitals, 5)
	for _, h := range estimate.Hospitals {
		assert.Equal(t, 1.0, h.Prediction.Factors.WeatherFactor)
	}
	assert.Equal(t, entities.WeatherClear, estimate.ContextualFactors.WeatherCondition)
	assert.Equal(t, entities.ProvenanceSimulated, estimate.ContextualFactors.WeatherSource)
	assert.Equal(t, entities.UrgencyMedium, estimate.ContextualFactors.UrgencyLevel)
}

func TestWaitTimeService_DataUnavailable(t *testing.T) {
	source := new(MockSnapshotSource)
	source.On("Snapshot", mock.Anything).Return(nil,
		apperrors.NewDataUnavailableError(services.MsgHospitalDataNotFound, errors.New("open data/hospital-features.json: no such file")))

	_, err := newWaitTimeService(source, nil).Estimate(context.Background(), services.EstimateQuery{Latitude: 32.7, Longitude: -117.1})

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDataUnavailable))
}

func TestWaitTimeService_UnknownUrgencyFallsBackToOverall(t *testing.T) {
	source := new(MockSnapshotSource)
	source.On("Snapshot", mock.Anything).Return(testSnapshot(), nil)

	estimate, err := newWaitTimeService(source, staticWeather(entities.WeatherClear)).Estimate(context.Background(), services.EstimateQuery{
		Latitude:  32.7157,
		Longitude: -117.1611,
		Urgency:   "Whenever",
	})

	require.NoError(t, err)
	assert.Equal(t, entities.Urgency("Whenever"), estimate.ContextualFactors.UrgencyLevel)
	assert.Equal(t, 100.0, estimate.Hospitals[0].Prediction.Factors.BaseWaitTime)
}

func hospitalIDs(hospitals []*entities.HospitalPrediction) []string {
	ids := make([]string, 0, len(hospitals))
	for _, h := range hospitals {
		ids = append(ids, h.ID)
	}
	return ids
}
