package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/erwaittime/internal/adapters/cache"
	"github.com/zatekoja/erwaittime/internal/domain/entities"
)

var sanDiego = entities.GeoCoordinate{Latitude: 32.7157, Longitude: -117.1611}

func TestOpenMeteoProvider_CurrentWeather(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "32.7157", r.URL.Query().Get("latitude"))
		assert.Equal(t, "-117.1611", r.URL.Query().Get("longitude"))
		assert.Contains(t, r.URL.Query().Get("current"), "weathercode")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"current":{"time":"2024-06-12T14:00","temperature_2m":18.4,"precipitation":1.2,"weathercode":63}}`))
	}))
	defer server.Close()

	p := NewOpenMeteoProviderWithOptions(nil, server.URL, server.Client(), 0)

	obs, err := p.CurrentWeather(context.Background(), sanDiego)

	require.NoError(t, err)
	assert.Equal(t, 63, obs.Code)
	assert.Equal(t, entities.WeatherRainy, obs.Condition)
	assert.Equal(t, 18.4, obs.TemperatureC)
	assert.Equal(t, 1.2, obs.PrecipitationMm)
}

func TestOpenMeteoProvider_UsesCache(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"current":{"weather_code":0}}`))
	}))
	defer server.Close()

	p := NewOpenMeteoProviderWithOptions(cache.NewMemoryAdapter(16), server.URL, server.Client(), 60)

	first, err := p.CurrentWeather(context.Background(), sanDiego)
	require.NoError(t, err)
	second, err := p.CurrentWeather(context.Background(), entities.GeoCoordinate{Latitude: 32.7161, Longitude: -117.1609})
	require.NoError(t, err)

	assert.Equal(t, entities.WeatherClear, first.Condition)
	assert.Equal(t, first.Condition, second.Condition)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestOpenMeteoProvider_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{}`},
		{"malformed", http.StatusOK, `not json`},
		{"no current block", http.StatusOK, `{"hourly":{}}`},
		{"no code", http.StatusOK, `{"current":{"temperature_2m":10}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewOpenMeteoProviderWithOptions(nil, server.URL, server.Client(), 0).CurrentWeather(context.Background(), sanDiego)
			assert.Error(t, err)
		})
	}
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "weather:v1:32.72:-117.16", CacheKey(sanDiego))
}
