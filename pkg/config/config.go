package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Env       string
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Typesense TypesenseConfig
	Data      DataConfig
	Weather   WeatherConfig
	Events    EventsConfig
	AI        AIConfig
	Groq      GroqConfig
	Gemini    GeminiConfig
	OTEL      OTELConfig
	Metrics   MetricsConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	Enabled bool
	URL     string
	APIKey  string
}

// DataConfig locates the historical artifacts
type DataConfig struct {
	// ProfileStore is "file" or "postgres"
	ProfileStore    string
	ProfilePaths    []string
	CoordinatesPath string
	LocalCacheSize  int
}

// WeatherConfig holds weather provider configuration
type WeatherConfig struct {
	Enabled         bool
	BaseURL         string
	Timeout         time.Duration
	CacheTTLSeconds int
}

// EventsConfig holds local events configuration
type EventsConfig struct {
	Simulated   bool
	Probability float64
	Timeout     time.Duration
}

// AIConfig selects the optional generative prediction path
type AIConfig struct {
	// Provider is "none", "groq" or "gemini"
	Provider       string
	Timeout        time.Duration
	RateLimitRPM   int
	RateLimitBurst int
}

// GroqConfig holds the OpenAI-compatible Groq endpoint configuration
type GroqConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// GeminiConfig holds Gemini configuration
type GeminiConfig struct {
	APIKey string
	Model  string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// MetricsConfig holds Prometheus exposition configuration
type MetricsConfig struct {
	Enabled bool
	Path    string
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("ENV", "production")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("ALLOWED_ORIGINS", "*")

	v.SetDefault("DB_ENABLED", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "er_wait_time")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("TYPESENSE_ENABLED", false)
	v.SetDefault("TYPESENSE_URL", "http://localhost:8108")
	v.SetDefault("TYPESENSE_API_KEY", "xyz")

	v.SetDefault("PROFILE_STORE", "file")
	v.SetDefault("PROFILE_PATHS", "data/hospital-features.json,data/real-hospital-features.json")
	v.SetDefault("COORDINATES_PATH", "data/hospital-coordinates-real.json")
	v.SetDefault("LOCAL_CACHE_SIZE", 1024)

	v.SetDefault("WEATHER_ENABLED", true)
	v.SetDefault("WEATHER_BASE_URL", "https://api.open-meteo.com/v1/forecast")
	v.SetDefault("WEATHER_TIMEOUT_MS", 2500)
	v.SetDefault("WEATHER_CACHE_TTL_SECONDS", 1800)

	v.SetDefault("EVENTS_SIMULATED", true)
	v.SetDefault("EVENTS_PROBABILITY", 0.3)
	v.SetDefault("EVENTS_TIMEOUT_MS", 500)

	v.SetDefault("AI_PROVIDER", "none")
	v.SetDefault("AI_TIMEOUT_MS", 8000)
	v.SetDefault("AI_RATE_LIMIT_RPM", 30)
	v.SetDefault("AI_RATE_LIMIT_BURST", 5)
	v.SetDefault("GROQ_API_KEY", "")
	v.SetDefault("GROQ_MODEL", "llama3-70b-8192")
	v.SetDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1")
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")

	v.SetDefault("OTEL_SERVICE_NAME", "er-wait-time")
	v.SetDefault("OTEL_SERVICE_VERSION", "1.0.0")
	v.SetDefault("OTEL_ENDPOINT", "")
	v.SetDefault("OTEL_ENABLED", false)

	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("METRICS_PATH", "/metrics")

	return v
}

// Load loads configuration from environment variables and an optional config.yaml
func Load() (*Config, error) {
	v := newViper()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Env: v.GetString("ENV"),
		Server: ServerConfig{
			Host:           v.GetString("SERVER_HOST"),
			Port:           v.GetInt("SERVER_PORT"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Enabled:  v.GetBool("DB_ENABLED"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Database: v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Typesense: TypesenseConfig{
			Enabled: v.GetBool("TYPESENSE_ENABLED"),
			URL:     v.GetString("TYPESENSE_URL"),
			APIKey:  v.GetString("TYPESENSE_API_KEY"),
		},
		Data: DataConfig{
			ProfileStore:    strings.ToLower(v.GetString("PROFILE_STORE")),
			ProfilePaths:    splitList(v.GetString("PROFILE_PATHS")),
			CoordinatesPath: v.GetString("COORDINATES_PATH"),
			LocalCacheSize:  v.GetInt("LOCAL_CACHE_SIZE"),
		},
		Weather: WeatherConfig{
			Enabled:         v.GetBool("WEATHER_ENABLED"),
			BaseURL:         v.GetString("WEATHER_BASE_URL"),
			Timeout:         time.Duration(v.GetInt("WEATHER_TIMEOUT_MS")) * time.Millisecond,
			CacheTTLSeconds: v.GetInt("WEATHER_CACHE_TTL_SECONDS"),
		},
		Events: EventsConfig{
			Simulated:   v.GetBool("EVENTS_SIMULATED"),
			Probability: v.GetFloat64("EVENTS_PROBABILITY"),
			Timeout:     time.Duration(v.GetInt("EVENTS_TIMEOUT_MS")) * time.Millisecond,
		},
		AI: AIConfig{
			Provider:       strings.ToLower(v.GetString("AI_PROVIDER")),
			Timeout:        time.Duration(v.GetInt("AI_TIMEOUT_MS")) * time.Millisecond,
			RateLimitRPM:   v.GetInt("AI_RATE_LIMIT_RPM"),
			RateLimitBurst: v.GetInt("AI_RATE_LIMIT_BURST"),
		},
		Groq: GroqConfig{
			APIKey:  v.GetString("GROQ_API_KEY"),
			Model:   v.GetString("GROQ_MODEL"),
			BaseURL: v.GetString("GROQ_BASE_URL"),
		},
		Gemini: GeminiConfig{
			APIKey: v.GetString("GEMINI_API_KEY"),
			Model:  v.GetString("GEMINI_MODEL"),
		},
		OTEL: OTELConfig{
			ServiceName:    v.GetString("OTEL_SERVICE_NAME"),
			ServiceVersion: v.GetString("OTEL_SERVICE_VERSION"),
			Endpoint:       v.GetString("OTEL_ENDPOINT"),
			Enabled:        v.GetBool("OTEL_ENABLED"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("METRICS_ENABLED"),
			Path:    v.GetString("METRICS_PATH"),
		},
	}

	if cfg.Data.ProfileStore != "file" && cfg.Data.ProfileStore != "postgres" {
		return nil, fmt.Errorf("unsupported PROFILE_STORE %q", cfg.Data.ProfileStore)
	}

	return cfg, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDevelopment reports whether console logging should be used
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
