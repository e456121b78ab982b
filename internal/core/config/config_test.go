package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_Defaults verifies that default values are used when env vars are missing.
func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("APP_ENV")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("SERVER_PORT")
	os.Unsetenv("REDIS_URL")
	os.Unsetenv("STATS_CACHE_TTL_SECONDS")
	os.Unsetenv("JWT_TTL_HOURS")

	os.Setenv("DATABASE_URL", "postgres://default.test/barulogix")
	os.Setenv("JWT_SECRET", "secret_default")
	defer func() {
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("JWT_SECRET")
	}()

	cfg, err := Load(".")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL)
	assert.Equal(t, 60, cfg.Cache.StatsTTLSeconds)
	assert.Equal(t, 24, cfg.Auth.TokenTTLHours)
}

// TestLoad_EnvVars verifies that environment variables override defaults.
func TestLoad_EnvVars(t *testing.T) {
	os.Setenv("APP_ENV", "production")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("SERVER_PORT", "9090")
	os.Setenv("DATABASE_URL", "postgres://db.test/barulogix")
	os.Setenv("REDIS_URL", "redis://cache.test:6379/1")
	os.Setenv("STATS_CACHE_TTL_SECONDS", "120")
	os.Setenv("JWT_SECRET", "secret_123")
	os.Setenv("JWT_TTL_HOURS", "12")
	defer func() {
		os.Unsetenv("APP_ENV")
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("REDIS_URL")
		os.Unsetenv("STATS_CACHE_TTL_SECONDS")
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("JWT_TTL_HOURS")
	}()

	cfg, err := Load(".")
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "postgres://db.test/barulogix", cfg.Database.URL)
	assert.Equal(t, "redis://cache.test:6379/1", cfg.Cache.RedisURL)
	assert.Equal(t, 120, cfg.Cache.StatsTTLSeconds)
	assert.Equal(t, "secret_123", cfg.Auth.JWTSecret)
	assert.Equal(t, 12, cfg.Auth.TokenTTLHours)
}

// TestLoad_MissingRequired verifies that a missing required variable fails the load.
func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	os.Setenv("JWT_SECRET", "secret_123")
	defer os.Unsetenv("JWT_SECRET")

	cfg, err := Load(".")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
