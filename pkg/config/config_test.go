package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "file", cfg.Data.ProfileStore)
	assert.Equal(t, []string{"data/hospital-features.json", "data/real-hospital-features.json"}, cfg.Data.ProfilePaths)
	assert.Equal(t, 1800, cfg.Weather.CacheTTLSeconds)
	assert.Equal(t, 2500*time.Millisecond, cfg.Weather.Timeout)
	assert.Equal(t, "none", cfg.AI.Provider)
	assert.Equal(t, "llama3-70b-8192", cfg.Groq.Model)
	assert.InDelta(t, 0.3, cfg.Events.Probability, 1e-9)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("PROFILE_PATHS", " a.json , ,b.json")
	t.Setenv("AI_PROVIDER", "Gemini")
	t.Setenv("WEATHER_TIMEOUT_MS", "750")
	t.Setenv("ALLOWED_ORIGINS", "https://er.example.com,https://admin.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"a.json", "b.json"}, cfg.Data.ProfilePaths)
	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, 750*time.Millisecond, cfg.Weather.Timeout)
	assert.Len(t, cfg.Server.AllowedOrigins, 2)
}

func TestLoad_RejectsUnknownProfileStore(t *testing.T) {
	t.Setenv("PROFILE_STORE", "s3")

	_, err := Load()
	assert.Error(t, err)
}

func TestConnectionStrings(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "er", SSLMode: "disable"}
	redis := RedisConfig{Host: "cache", Port: 6380}

	assert.Equal(t, "host=db port=5433 user=u password=p dbname=er sslmode=disable", db.DatabaseDSN())
	assert.Equal(t, "cache:6380", redis.RedisAddr())
}
