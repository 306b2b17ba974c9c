package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/erwaittime/internal/adapters/cache"
	"github.com/zatekoja/erwaittime/internal/adapters/database"
	"github.com/zatekoja/erwaittime/internal/adapters/memory"
	"github.com/zatekoja/erwaittime/internal/adapters/providers/events"
	"github.com/zatekoja/erwaittime/internal/adapters/providers/weather"
	"github.com/zatekoja/erwaittime/internal/adapters/search"
	"github.com/zatekoja/erwaittime/internal/adapters/storage"
	"github.com/zatekoja/erwaittime/internal/api/handlers"
	"github.com/zatekoja/erwaittime/internal/api/middleware"
	"github.com/zatekoja/erwaittime/internal/api/routes"
	"github.com/zatekoja/erwaittime/internal/application/services"
	"github.com/zatekoja/erwaittime/internal/domain/providers"
	"github.com/zatekoja/erwaittime/internal/domain/repositories"
	"github.com/zatekoja/erwaittime/internal/infrastructure/clients/gemini"
	"github.com/zatekoja/erwaittime/internal/infrastructure/clients/openai"
	"github.com/zatekoja/erwaittime/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/erwaittime/internal/infrastructure/clients/redis"
	"github.com/zatekoja/erwaittime/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/erwaittime/internal/infrastructure/observability"
	"github.com/zatekoja/erwaittime/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			observability.EnableOTelLogExport(cfg.OTEL.ServiceName)
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized successfully")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	checks := make(map[string]handlers.Pinger)

	// Initialize database client
	var pgClient *postgres.Client
	if cfg.Database.Enabled {
		pgClient, err = postgres.NewClient(&cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
		}
		defer pgClient.Close()
		if err := database.EnsureSchema(ctx, pgClient); err != nil {
			log.Fatal().Err(err).Msg("Failed to ensure database schema")
		}
		checks["postgres"] = pgClient
	}

	// Shared cache: Redis when configured, otherwise in-process
	var cacheProvider providers.CacheProvider
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			// Continue without Redis - the in-process cache takes over
			log.Warn().Err(err).Msg("Failed to initialize Redis client")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient, "erwait")
			checks["redis"] = redisClient
		}
	}
	if cacheProvider == nil {
		cacheProvider = cache.NewMemoryAdapter(cfg.Data.LocalCacheSize)
		log.Info().Int("size", cfg.Data.LocalCacheSize).Msg("Using in-process cache")
	}

	// Historical artifacts
	var profileRepo repositories.ProfileRepository
	var coordinateRepo repositories.CoordinateRepository
	switch cfg.Data.ProfileStore {
	case "postgres":
		if pgClient == nil {
			log.Fatal().Msg("PROFILE_STORE=postgres requires DB_ENABLED=true")
		}
		profileRepo = database.NewProfileAdapter(pgClient)
		coordinateRepo = database.NewCoordinateAdapter(pgClient)
	default:
		profileRepo = storage.NewProfileFileStore(cfg.Data.ProfilePaths...)
		coordinateRepo = storage.NewCoordinateFileStore(cfg.Data.CoordinatesPath)
	}
	snapshots := services.NewSnapshotService(profileRepo, coordinateRepo)

	// Warm the snapshot so a deployment problem shows in the logs at startup.
	// Requests retry the load, so a failure here is not fatal.
	if _, err := snapshots.Snapshot(ctx); err != nil {
		log.Error().Err(err).Msg("Hospital data could not be loaded at startup")
	}

	// Feedback sink
	var feedbackRepo repositories.FeedbackRepository
	if pgClient != nil {
		feedbackRepo = database.NewFeedbackAdapter(pgClient)
	} else {
		feedbackRepo = memory.NewFeedbackStore()
		log.Info().Msg("Feedback is kept in memory (database disabled)")
	}

	// Contextual signals
	var weatherProvider providers.WeatherProvider
	if cfg.Weather.Enabled {
		weatherProvider = weather.NewOpenMeteoProviderWithOptions(
			cacheProvider,
			cfg.Weather.BaseURL,
			&http.Client{Timeout: cfg.Weather.Timeout},
			cfg.Weather.CacheTTLSeconds,
		)
	}

	var eventsProvider providers.EventsProvider
	if cfg.Events.Simulated {
		eventsProvider = events.NewSimulatedProvider(cfg.Events.Probability, time.Now().UnixNano())
	}

	clock := providers.SystemClock{}
	contextProvider := services.NewContextProvider(clock, weatherProvider, eventsProvider, cfg.Weather.Timeout, cfg.Events.Timeout)
	engine := services.NewPredictionEngine(clock)

	var predictor services.Predictor = services.NewFormulaPredictor(engine)
	if textProvider := newTextGenerationProvider(ctx, cfg); textProvider != nil {
		predictor = services.NewAIPredictionService(textProvider, engine, cfg.AI.Timeout)
		log.Info().Str("provider", textProvider.Name()).Msg("AI predictions enabled")
	}

	waitTimeService := services.NewWaitTimeService(snapshots, contextProvider, predictor, services.DefaultPerRegionCap)

	// Hospital search
	var searchRepo repositories.HospitalSearchRepository
	if cfg.Typesense.Enabled {
		typesenseClient, err := typesense.NewClient(&cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Typesense client")
		} else {
			if err := typesenseClient.InitSchema(ctx); err != nil {
				log.Warn().Err(err).Msg("Failed to init Typesense schema")
			}
			searchRepo = search.NewTypesenseAdapter(typesenseClient)
			services.NewHospitalIndexService(snapshots, searchRepo).IndexInBackground(ctx)
			checks["typesense"] = typesenseClient
		}
	}

	directoryService := services.NewHospitalDirectoryService(snapshots, searchRepo, clock)
	feedbackService := services.NewFeedbackService(feedbackRepo)

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}

	router := routes.NewRouter(
		handlers.NewPredictionHandler(waitTimeService),
		handlers.NewHospitalHandler(directoryService),
		handlers.NewFeedbackHandler(feedbackService, cacheProvider, clock),
		handlers.NewTimeHandler(clock),
		handlers.NewHealthHandler(checks),
		routes.Options{
			CacheMiddleware: middleware.NewCacheMiddleware(cacheProvider),
			Metrics:         metrics,
			AllowedOrigins:  cfg.Server.AllowedOrigins,
			MetricsPath:     metricsPath,
		},
	)

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	log.Info().Msg("Server stopped")
}

// newTextGenerationProvider returns nil when AI predictions are disabled or
// the provider cannot be built; the formula is then used for every request.
func newTextGenerationProvider(ctx context.Context, cfg *config.Config) providers.TextGenerationProvider {
	switch cfg.AI.Provider {
	case "groq":
		client, err := openai.NewClient(&cfg.Groq, &cfg.AI)
		if err != nil {
			log.Warn().Err(err).Msg("Groq provider disabled")
			return nil
		}
		return client
	case "gemini":
		client, err := gemini.NewClient(ctx, &cfg.Gemini, &cfg.AI)
		if err != nil {
			log.Warn().Err(err).Msg("Gemini provider disabled")
			return nil
		}
		return client
	case "", "none":
		return nil
	default:
		log.Warn().Str("provider", cfg.AI.Provider).Msg("Unknown AI provider; using formula predictions")
		return nil
	}
}
