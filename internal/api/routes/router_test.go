package routes_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/erwaittime/internal/adapters/cache"
	"github.com/zatekoja/erwaittime/internal/adapters/memory"
	"github.com/zatekoja/erwaittime/internal/api/handlers"
	"github.com/zatekoja/erwaittime/internal/api/middleware"
	"github.com/zatekoja/erwaittime/internal/api/routes"
	"github.com/zatekoja/erwaittime/internal/application/services"
	"github.com/zatekoja/erwaittime/internal/domain/entities"
	"github.com/zatekoja/erwaittime/internal/domain/providers"
)

type staticSnapshot struct {
	snap *services.ProfileSnapshot
}

func (s staticSnapshot) Snapshot(ctx context.Context) (*services.ProfileSnapshot, error) {
	return s.snap, nil
}

func profile(id, region string) *entities.HospitalProfile {
	avg := entities.NewAverageWaitTimes()
	avg.Overall = 100
	for _, u := range entities.Urgencies() {
		avg.ByUrgency[u] = 80
	}
	for _, t := range entities.TimesOfDay() {
		avg.ByTimeOfDay[t] = 100
	}
	for _, s := range entities.Seasons() {
		avg.BySeason[s] = 100
	}
	return &entities.HospitalProfile{
		ID:                  id,
		Name:                id + " Hospital",
		Region:              region,
		FacilitySize:        150,
		AverageWaitTimes:    avg,
		NurseToPatientRatio: 0.3,
		VisitCount:          40,
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	at := time.Date(2024, time.June, 12, 15, 0, 0, 0, time.UTC)
	clock := providers.FixedClock{At: at}
	snap := services.NewProfileSnapshot(
		[]*entities.HospitalProfile{profile("SD-1", "San Diego, CA"), profile("LA-1", "Los Angeles, CA")},
		map[string]entities.GeoCoordinate{
			"SD-1": {Latitude: 32.72, Longitude: -117.16},
			"LA-1": {Latitude: 34.05, Longitude: -118.24},
		},
		at,
	)
	source := staticSnapshot{snap: snap}

	contextProvider := services.NewContextProvider(clock, nil, nil, 50*time.Millisecond, 50*time.Millisecond)
	predictor := services.NewFormulaPredictor(services.NewPredictionEngine(clock))
	waitTimes := services.NewWaitTimeService(source, contextProvider, predictor, 3)
	directory := services.NewHospitalDirectoryService(source, nil, clock)
	feedback := services.NewFeedbackService(memory.NewFeedbackStore())
	responseCache := cache.NewMemoryAdapter(64)

	router := routes.NewRouter(
		handlers.NewPredictionHandler(waitTimes),
		handlers.NewHospitalHandler(directory),
		handlers.NewFeedbackHandler(feedback, responseCache, clock),
		handlers.NewTimeHandler(clock),
		handlers.NewHealthHandler(nil),
		routes.Options{
			CacheMiddleware: middleware.NewCacheMiddleware(responseCache),
			MetricsPath:     "/metrics",
		},
	)

	server := httptest.NewServer(router.SetupRoutes())
	t.Cleanup(server.Close)
	return server
}

func TestRouter_Predict(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/predict?latitude=32.7157&longitude=-117.1611&urgency=High")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var estimate entities.WaitTimeEstimate
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&estimate))
	require.Len(t, estimate.Hospitals, 2)
	assert.Equal(t, "SD-1", estimate.Hospitals[0].ID)
	for _, h := range estimate.Hospitals {
		require.NotNil(t, h.Prediction)
		assert.Equal(t, entities.PredictionSourceFormula, h.Prediction.Source)
		assert.Zero(t, h.Prediction.PredictedWaitTime%5)
	}
	assert.Equal(t, entities.UrgencyHigh, estimate.ContextualFactors.UrgencyLevel)
}

func TestRouter_PredictRejectsOrigin(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/predict?latitude=0&longitude=0")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, services.MsgInvalidCoordinates, body["error"])
}

func TestRouter_HospitalsAreCached(t *testing.T) {
	server := newTestServer(t)
	url := server.URL + "/api/hospitals?latitude=32.7157&longitude=-117.1611"

	first, err := http.Get(url)
	require.NoError(t, err)
	first.Body.Close()
	second, err := http.Get(url)
	require.NoError(t, err)
	second.Body.Close()

	assert.Equal(t, http.StatusOK, first.StatusCode)
	assert.Equal(t, "MISS", first.Header.Get("X-Cache"))
	assert.Equal(t, "HIT", second.Header.Get("X-Cache"))
}

func TestRouter_FeedbackRoundTrip(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Post(server.URL+"/api/feedback", "application/json",
		strings.NewReader(`{"hospitalId":"SD-1","hospitalName":"SD-1 Hospital","reportType":"wait_time","actualWaitTime":40}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(server.URL + "/api/feedback")
	require.NoError(t, err)
	defer resp.Body.Close()

	var stats entities.FeedbackStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 1, stats.TotalReports)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
