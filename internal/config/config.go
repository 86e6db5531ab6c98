package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	LogLevel string
	LogJSON  bool

	DBDriver string
	DBDSN    string

	// Grade tables and addition catalog; empty means built-in defaults.
	ReferenceDataPath string
	DefaultGrade      string
	LowStockThreshold float64
	CostPerKg         float64

	BlobDriver     string // fs|minio
	BlobBasePath   string // for fs
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioSecure    bool

	RedisAddr string // empty -> in-process cache
	RedisDB   int
	CacheTTL  time.Duration

	RabbitMQURL    string // empty -> events are only logged
	EventsExchange string

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	EnableMetrics bool
}

// LoadDotEnv populates the process environment from .env style files.
// Missing files are skipped; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	return Config{
		Mode:     mode,
		HTTPAddr: envOr("HTTP_ADDR", ":8080"),

		LogLevel: envOr("LOG_LEVEL", "info"),
		LogJSON:  envBool("LOG_JSON", mode == ModeOnline),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		ReferenceDataPath: os.Getenv("REFERENCE_DATA_PATH"),
		DefaultGrade:      envOr("DEFAULT_GRADE", "316L"),
		LowStockThreshold: envFloat("LOW_STOCK_THRESHOLD", 100),
		CostPerKg:         envFloat("COST_PER_KG", 12.5),

		BlobDriver:     envOr("BLOB_DRIVER", "fs"),
		BlobBasePath:   envOr("BLOB_BASE_PATH", "./data"),
		MinioEndpoint:  envOr("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    envOr("MINIO_BUCKET", "alloy-imports"),
		MinioSecure:    envBool("MINIO_SECURE", false),

		RedisAddr: os.Getenv("REDIS_ADDR"),
		RedisDB:   envInt("REDIS_DB", 0),
		CacheTTL:  envDuration("CACHE_TTL", 30*time.Second),

		RabbitMQURL:    os.Getenv("RABBITMQ_URL"),
		EventsExchange: envOr("EVENTS_EXCHANGE", "alloy.events"),

		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://alloy.mindengage.ai"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:5173"),

		EnableMetrics: envBool("ENABLE_METRICS", true),
	}
}

// CORSOrigins returns the allow-list for the configured mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envInt(k string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return v
	}
	return def
}
func envFloat(k string, def float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(k), 64); err == nil {
		return v
	}
	return def
}
func envDuration(k string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return v
	}
	return def
}
func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
