package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"MODE", "HTTP_ADDR", "LOG_LEVEL", "LOG_JSON", "DB_DRIVER", "DB_DSN",
	"REFERENCE_DATA_PATH", "DEFAULT_GRADE", "LOW_STOCK_THRESHOLD", "COST_PER_KG",
	"BLOB_DRIVER", "BLOB_BASE_PATH", "MINIO_ENDPOINT", "MINIO_ACCESS_KEY",
	"MINIO_SECRET_KEY", "MINIO_BUCKET", "MINIO_SECURE", "REDIS_ADDR", "REDIS_DB",
	"CACHE_TTL", "RABBITMQ_URL", "EVENTS_EXCHANGE", "CORS_ORIGINS_ONLINE",
	"CORS_ORIGINS_OFFLINE", "ENABLE_METRICS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	cfg := FromEnv()

	assert.Equal(t, ModeOffline, cfg.Mode)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogJSON)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "316L", cfg.DefaultGrade)
	assert.Equal(t, 100.0, cfg.LowStockThreshold)
	assert.Equal(t, 12.5, cfg.CostPerKg)
	assert.Equal(t, "fs", cfg.BlobDriver)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.RabbitMQURL)
	assert.Equal(t, "alloy.events", cfg.EventsExchange)
	assert.True(t, cfg.EnableMetrics)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CORSOrigins())
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MODE", "online")
	t.Setenv("LOW_STOCK_THRESHOLD", "250.5")
	t.Setenv("CACHE_TTL", "2m")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("ENABLE_METRICS", "no")
	t.Setenv("CORS_ORIGINS_ONLINE", " https://a.example , ,https://b.example")

	cfg := FromEnv()
	assert.Equal(t, ModeOnline, cfg.Mode)
	assert.True(t, cfg.LogJSON)
	assert.Equal(t, 250.5, cfg.LowStockThreshold)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.False(t, cfg.EnableMetrics)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins())
}

func TestFromEnv_BadNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("COST_PER_KG", "cheap")
	t.Setenv("CACHE_TTL", "soon")
	t.Setenv("REDIS_DB", "x")

	cfg := FromEnv()
	assert.Equal(t, 12.5, cfg.CostPerKg)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 0, cfg.RedisDB)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DEFAULT_GRADE=304\nHTTP_ADDR=:9090\n"), 0o644))
	t.Setenv("HTTP_ADDR", ":7070")
	t.Cleanup(func() { os.Unsetenv("DEFAULT_GRADE") })
	os.Unsetenv("DEFAULT_GRADE")

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))

	cfg := FromEnv()
	assert.Equal(t, "304", cfg.DefaultGrade)
	assert.Equal(t, ":7070", cfg.HTTPAddr, "existing variables win")
}
