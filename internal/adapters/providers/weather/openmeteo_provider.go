package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
	"github.com/zatekoja/erwaittime/internal/domain/providers"
	"github.com/zatekoja/erwaittime/internal/infrastructure/observability"
)

const (
	openMeteoForecastURL   = "https://api.open-meteo.com/v1/forecast"
	defaultWeatherCacheTTL = 30 * 60
	defaultHTTPTimeout     = 5 * time.Second
)

// OpenMeteoProvider implements WeatherProvider with the keyless Open-Meteo
// forecast API. Readings are cached per rounded coordinate.
type OpenMeteoProvider struct {
	httpClient *http.Client
	cache      providers.CacheProvider
	baseURL    string
	cacheTTL   int
	now        func() time.Time
}

// NewOpenMeteoProvider creates a new Open-Meteo provider.
func NewOpenMeteoProvider(cache providers.CacheProvider) providers.WeatherProvider {
	return NewOpenMeteoProviderWithOptions(cache, openMeteoForecastURL, nil, defaultWeatherCacheTTL)
}

// NewOpenMeteoProviderWithOptions allows overriding the base URL, HTTP client
// and cache TTL (used for tests and configuration).
func NewOpenMeteoProviderWithOptions(cache providers.CacheProvider, baseURL string, httpClient *http.Client, cacheTTLSeconds int) *OpenMeteoProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = openMeteoForecastURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if cacheTTLSeconds <= 0 {
		cacheTTLSeconds = defaultWeatherCacheTTL
	}
	return &OpenMeteoProvider{
		httpClient: httpClient,
		cache:      cache,
		baseURL:    baseURL,
		cacheTTL:   cacheTTLSeconds,
		now:        time.Now,
	}
}

type forecastResponse struct {
	Current *struct {
		Time          string  `json:"time"`
		Temperature   float64 `json:"temperature_2m"`
		Precipitation float64 `json:"precipitation"`
		WeatherCode   *int    `json:"weathercode"`
		WeatherCodeV2 *int    `json:"weather_code"`
	} `json:"current"`
}

// CurrentWeather returns the current conditions at point.
func (p *OpenMeteoProvider) CurrentWeather(ctx context.Context, point entities.GeoCoordinate) (*providers.WeatherObservation, error) {
	cacheKey := CacheKey(point)
	if p.cache != nil {
		if cached, err := p.cache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			var obs providers.WeatherObservation
			if err := json.Unmarshal(cached, &obs); err == nil && obs.Condition != "" {
				observability.RecordCacheLookup(ctx, "weather", true)
				observability.CountWeatherLookup(observability.WeatherOutcomeCache)
				return &obs, nil
			}
		}
		observability.RecordCacheLookup(ctx, "weather", false)
	}

	start := time.Now()
	obs, err := p.fetch(ctx, point)
	observability.RecordExternalCall(ctx, "open-meteo", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	observability.CountWeatherLookup(observability.WeatherOutcomeObserved)

	if p.cache != nil {
		if payload, err := json.Marshal(obs); err == nil {
			if err := p.cache.Set(ctx, cacheKey, payload, p.cacheTTL); err != nil {
				log.Debug().Err(err).Str("key", cacheKey).Msg("Failed to cache weather observation")
			}
		}
	}
	return obs, nil
}

func (p *OpenMeteoProvider) fetch(ctx context.Context, point entities.GeoCoordinate) (*providers.WeatherObservation, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(point.Latitude, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(point.Longitude, 'f', 4, 64))
	params.Set("current", "temperature_2m,precipitation,rain,snowfall,weathercode")
	params.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather request failed with status %d", resp.StatusCode)
	}

	var body forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}
	if body.Current == nil {
		return nil, fmt.Errorf("weather response has no current conditions")
	}

	code := body.Current.WeatherCode
	if code == nil {
		code = body.Current.WeatherCodeV2
	}
	if code == nil {
		return nil, fmt.Errorf("weather response has no weather code")
	}

	return &providers.WeatherObservation{
		Code:            *code,
		Condition:       entities.WeatherConditionFromCode(*code),
		TemperatureC:    body.Current.Temperature,
		PrecipitationMm: body.Current.Precipitation,
		ObservedAt:      p.now().UTC(),
	}, nil
}

// CacheKey rounds to two decimals (about 1 km) so nearby queries share a reading.
func CacheKey(point entities.GeoCoordinate) string {
	return fmt.Sprintf("weather:v1:%.2f:%.2f", point.Latitude, point.Longitude)
}
