package providers

import (
	"context"
	"time"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
)

// WeatherProvider defines the interface for current-weather lookups
type WeatherProvider interface {
	// CurrentWeather returns the conditions observed at a coordinate
	CurrentWeather(ctx context.Context, point entities.GeoCoordinate) (*WeatherObservation, error)
}

// WeatherObservation is a provider reading reduced to what the estimator needs
type WeatherObservation struct {
	Code            int                       `json:"code"`
	Condition       entities.WeatherCondition `json:"condition"`
	TemperatureC    float64                   `json:"temperatureC"`
	PrecipitationMm float64                   `json:"precipitationMm"`
	ObservedAt      time.Time                 `json:"observedAt"`
}
