package services

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
	"github.com/zatekoja/erwaittime/internal/domain/providers"
	"github.com/zatekoja/erwaittime/internal/infrastructure/observability"
)

const (
	defaultWeatherTimeout = 2500 * time.Millisecond
	defaultEventsTimeout  = 500 * time.Millisecond
)

// ContextProvider resolves the live signal bundle for a request. Every
// sub-signal has a local default, so Resolve never fails.
type ContextProvider struct {
	clock          providers.Clock
	weather        providers.WeatherProvider
	events         providers.EventsProvider
	weatherTimeout time.Duration
	eventsTimeout  time.Duration
}

// NewContextProvider creates a context provider. weather and events may be nil,
// in which case their fallbacks are always used.
func NewContextProvider(
	clock providers.Clock,
	weather providers.WeatherProvider,
	events providers.EventsProvider,
	weatherTimeout time.Duration,
	eventsTimeout time.Duration,
) *ContextProvider {
	if clock == nil {
		clock = providers.SystemClock{}
	}
	if weatherTimeout <= 0 {
		weatherTimeout = defaultWeatherTimeout
	}
	if eventsTimeout <= 0 {
		eventsTimeout = defaultEventsTimeout
	}
	return &ContextProvider{
		clock:          clock,
		weather:        weather,
		events:         events,
		weatherTimeout: weatherTimeout,
		eventsTimeout:  eventsTimeout,
	}
}

// Now returns the provider's wall-clock time.
func (p *ContextProvider) Now() time.Time {
	return p.clock.Now()
}

// Resolve derives the time based signals and fetches weather and events
// concurrently. External lookups get one attempt each.
func (p *ContextProvider) Resolve(ctx context.Context, point entities.GeoCoordinate) *entities.ContextualSignal {
	ctx, span := observability.StartSpan(ctx, "ContextProvider.Resolve")
	defer span.End()

	signal := TemporalSignal(p.clock.Now())
	signal.Traffic = EstimateTraffic(signal.Hour, signal.IsWeekend, point.Latitude)
	signal.TrafficSource = entities.ProvenanceSimulated

	var g errgroup.Group
	g.Go(func() error {
		signal.Weather, signal.WeatherSource = p.resolveWeather(ctx, point, signal.Hour)
		return nil
	})
	g.Go(func() error {
		signal.Events, signal.EventsSource = p.resolveEvents(ctx, point, signal.ResolvedAt)
		return nil
	})
	_ = g.Wait()

	return signal
}

func (p *ContextProvider) resolveWeather(ctx context.Context, point entities.GeoCoordinate, hour int) (entities.WeatherCondition, entities.Provenance) {
	if p.weather == nil {
		observability.CountWeatherLookup(observability.WeatherOutcomeFallback)
		return FallbackWeather(hour), entities.ProvenanceSimulated
	}

	wctx, cancel := context.WithTimeout(ctx, p.weatherTimeout)
	defer cancel()

	obs, err := p.weather.CurrentWeather(wctx, point)
	if err != nil || obs == nil {
		log.Warn().
			Err(err).
			Float64("lat", point.Latitude).
			Float64("lon", point.Longitude).
			Msg("Weather lookup failed, using time of day fallback")
		observability.CountWeatherLookup(observability.WeatherOutcomeFallback)
		return FallbackWeather(hour), entities.ProvenanceSimulated
	}
	return obs.Condition, entities.ProvenanceObserved
}

func (p *ContextProvider) resolveEvents(ctx context.Context, point entities.GeoCoordinate, at time.Time) ([]string, entities.Provenance) {
	if p.events == nil {
		return []string{}, entities.ProvenanceSimulated
	}

	ectx, cancel := context.WithTimeout(ctx, p.eventsTimeout)
	defer cancel()

	report, err := p.events.LocalEvents(ectx, point, at)
	if err != nil || report == nil {
		log.Warn().Err(err).Msg("Local events lookup failed, assuming none")
		return []string{}, entities.ProvenanceSimulated
	}
	names := report.Names
	if names == nil {
		names = []string{}
	}
	provenance := report.Provenance
	if provenance == "" {
		provenance = entities.ProvenanceSimulated
	}
	return names, provenance
}

// TemporalSignal builds a signal holding only the clock derived fields with
// neutral traffic, weather and events.
func TemporalSignal(now time.Time) *entities.ContextualSignal {
	hour := now.Hour()
	day := now.Weekday()
	return &entities.ContextualSignal{
		ResolvedAt:    now,
		Hour:          hour,
		TimeOfDay:     entities.TimeOfDayForHour(hour),
		Season:        entities.SeasonForTime(now),
		DayOfWeek:     day,
		IsWeekend:     entities.IsWeekendDay(day),
		Traffic:       entities.TrafficLight,
		TrafficSource: entities.ProvenanceSimulated,
		Weather:       entities.WeatherClear,
		WeatherSource: entities.ProvenanceSimulated,
		Events:        []string{},
		EventsSource:  entities.ProvenanceSimulated,
	}
}

// EstimateTraffic approximates congestion from hour, weekend and latitude band.
// Latitudes between 30 and 50 degrees are treated as urban.
func EstimateTraffic(hour int, weekend bool, latitude float64) entities.TrafficCondition {
	if weekend {
		if (hour >= 10 && hour <= 14) || (hour >= 17 && hour <= 20) {
			return entities.TrafficModerate
		}
		return entities.TrafficLight
	}

	absLat := math.Abs(latitude)
	if absLat > 30 && absLat < 50 {
		switch {
		case hour >= 7 && hour <= 9:
			return entities.TrafficHeavy
		case hour >= 16 && hour <= 19:
			return entities.TrafficHeavy
		case hour >= 10 && hour <= 15:
			return entities.TrafficModerate
		case hour >= 19 && hour <= 22:
			return entities.TrafficModerate
		}
		return entities.TrafficLight
	}

	if (hour >= 7 && hour <= 9) || (hour >= 16 && hour <= 18) {
		return entities.TrafficModerate
	}
	return entities.TrafficLight
}

// FallbackWeather is used when no observation is available: clear in daytime, cloudy otherwise.
func FallbackWeather(hour int) entities.WeatherCondition {
	if hour >= 6 && hour <= 18 {
		return entities.WeatherClear
	}
	return entities.WeatherCloudy
}
