package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	predictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "erwait_predictions_total",
		Help: "Predictions produced, by source (formula or ai)",
	}, []string{"source"})

	aiFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "erwait_ai_fallbacks_total",
		Help: "Generative predictions replaced by the formula, by reason",
	}, []string{"provider", "reason"})

	weatherLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "erwait_weather_lookups_total",
		Help: "Weather resolutions by outcome (observed, cache, fallback)",
	}, []string{"outcome"})

	quarantinedVisitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "erwait_quarantined_visits_total",
		Help: "Visit records excluded from aggregation",
	})

	estimateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "erwait_estimate_duration_seconds",
		Help:    "End-to-end duration of a wait-time estimate request",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "erwait_http_request_duration_seconds",
		Help:    "HTTP request duration by route group and status class",
		Buckets: []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"group", "status"})
)

// Domain outcome labels.
const (
	WeatherOutcomeObserved = "observed"
	WeatherOutcomeCache    = "cache"
	WeatherOutcomeFallback = "fallback"
)

// CountPrediction increments the prediction counter for a source.
func CountPrediction(source string) {
	predictionsTotal.WithLabelValues(source).Inc()
}

// CountAIFallback increments the fallback counter.
func CountAIFallback(provider, reason string) {
	aiFallbacksTotal.WithLabelValues(provider, reason).Inc()
}

// CountWeatherLookup increments the weather outcome counter.
func CountWeatherLookup(outcome string) {
	weatherLookupsTotal.WithLabelValues(outcome).Inc()
}

// CountQuarantinedVisits adds n quarantined visit rows.
func CountQuarantinedVisits(n int) {
	if n > 0 {
		quarantinedVisitsTotal.Add(float64(n))
	}
}

// ObserveEstimateDuration records one estimate request.
func ObserveEstimateDuration(d time.Duration) {
	estimateDuration.Observe(d.Seconds())
}

// ObserveHTTPRequest records one request under its route group. Statuses are
// folded into classes such as "2xx".
func ObserveHTTPRequest(group string, status int, d time.Duration) {
	httpRequestDuration.WithLabelValues(group, StatusClass(status)).Observe(d.Seconds())
}

// StatusClass maps 404 to "4xx".
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}

// MetricsHandler serves the Prometheus exposition format.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
