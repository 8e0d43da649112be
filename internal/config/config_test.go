package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load("nonexistent.env")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.AppHost)
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, "50051", cfg.GRPCPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30, cfg.PageSize)

	assert.Equal(t, "localhost", cfg.PostgresHost)
	assert.Equal(t, 5432, cfg.PostgresPort)
	assert.Equal(t, 16, cfg.PostgresMaxOpenConns)
	assert.Equal(t, 8, cfg.PostgresMaxIdleConns)

	assert.Equal(t, 6379, cfg.RedisPort)
	assert.Equal(t, 10, cfg.RedisPoolSize)
	assert.Equal(t, 2, cfg.RedisMinIdleConns)

	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "microblog.events", cfg.KafkaTopic)

	assert.Equal(t, "my_super_secret_key", cfg.JWTSecretKey)
	assert.Equal(t, 24*time.Hour, cfg.SessionExp)
	assert.Equal(t, 30*24*time.Hour, cfg.RememberExp)
	assert.Equal(t, time.Hour, cfg.APITokenExp)
	assert.Equal(t, 10, cfg.SigninRateCap)
	assert.Equal(t, 0.2, cfg.SigninRatePS)
}

func TestLoad_CustomEnv(t *testing.T) {
	os.Clearenv()
	t.Setenv("APP_HOST", "127.0.0.1")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_LOG_LEVEL", "debug")
	t.Setenv("POSTGRES_PORT", "5433")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("JWT_SECRET_KEY", "supersecret")
	t.Setenv("SESSION_EXP_SECOND", "300")
	t.Setenv("PAGE_SIZE", "5")

	cfg, err := Load("nonexistent.env")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.AppHost)
	assert.Equal(t, "9090", cfg.AppPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5433, cfg.PostgresPort)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "supersecret", cfg.JWTSecretKey)
	assert.Equal(t, 300*time.Second, cfg.SessionExp)
	assert.Equal(t, 5, cfg.PageSize)
}

func TestLoad_EnvFile(t *testing.T) {
	os.Clearenv()
	path := filepath.Join(t.TempDir(), "config.env")
	require.NoError(t, os.WriteFile(path, []byte("APP_PORT=7070\nPOSTGRES_DB=microblog\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.AppPort)
	assert.Equal(t, "microblog", cfg.PostgresDB)
}

func TestLoad_InvalidNumber(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"POSTGRES_PORT", "abc"},
		{"REDIS_POOL_SIZE", "x"},
		{"SESSION_EXP_SECOND", "forever"},
		{"SIGNIN_RATE_PER_SECOND", "fast"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			os.Clearenv()
			t.Setenv(tt.key, tt.value)

			cfg, err := Load("nonexistent.env")
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}
