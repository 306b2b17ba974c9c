package routes

import (
	"net/http"

	"github.com/zatekoja/erwaittime/internal/api/handlers"
	"github.com/zatekoja/erwaittime/internal/api/middleware"
	"github.com/zatekoja/erwaittime/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	predictionHandler *handlers.PredictionHandler
	hospitalHandler   *handlers.HospitalHandler
	feedbackHandler   *handlers.FeedbackHandler
	timeHandler       *handlers.TimeHandler
	healthHandler     *handlers.HealthHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
	allowedOrigins  []string
	metricsPath     string
}

// Options carries the optional parts of the router.
type Options struct {
	CacheMiddleware *middleware.CacheMiddleware
	Metrics         *observability.Metrics
	AllowedOrigins  []string
	// MetricsPath exposes Prometheus metrics when set.
	MetricsPath string
}

// NewRouter creates a new router
func NewRouter(
	predictionHandler *handlers.PredictionHandler,
	hospitalHandler *handlers.HospitalHandler,
	feedbackHandler *handlers.FeedbackHandler,
	timeHandler *handlers.TimeHandler,
	healthHandler *handlers.HealthHandler,
	opts Options,
) *Router {
	return &Router{
		mux:               http.NewServeMux(),
		predictionHandler: predictionHandler,
		hospitalHandler:   hospitalHandler,
		feedbackHandler:   feedbackHandler,
		timeHandler:       timeHandler,
		healthHandler:     healthHandler,
		cacheMiddleware:   opts.CacheMiddleware,
		metrics:           opts.Metrics,
		allowedOrigins:    opts.AllowedOrigins,
		metricsPath:       opts.MetricsPath,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)
	if r.metricsPath != "" {
		r.mux.Handle("GET "+r.metricsPath, observability.MetricsHandler())
	}

	// Prediction endpoint
	r.mux.HandleFunc("GET /api/predict", r.predictionHandler.Predict)

	// Hospital directory endpoints
	r.mux.HandleFunc("GET /api/hospitals", r.hospitalHandler.ListNearby)
	r.mux.HandleFunc("GET /api/hospitals/search", r.hospitalHandler.SearchHospitals)
	r.mux.HandleFunc("GET /api/hospitals/{id}", r.hospitalHandler.GetHospital)

	// Feedback endpoints
	r.mux.HandleFunc("POST /api/feedback", r.feedbackHandler.SubmitFeedback)
	r.mux.HandleFunc("GET /api/feedback", r.feedbackHandler.GetStats)

	r.mux.HandleFunc("GET /api/time", r.timeHandler.GetTime)

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
