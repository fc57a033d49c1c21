package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreMongo  = "mongo"
	StoreS3     = "s3"
	StoreSQLite = "sqlite"
)

// Config holds all application configuration
type Config struct {
	Store     StoreConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	S3        S3Config
	SQLite    SQLiteConfig
	Log       LogConfig
	Telemetry TelemetryConfig
}

// StoreConfig selects where state is persisted
type StoreConfig struct {
	Backend string
	// CacheMB sizes the read-through cache in front of the backend. 0 disables it.
	CacheMB int
}

// MongoDBConfig holds MongoDB connection configuration
type MongoDBConfig struct {
	URI        string
	Database   string
	Collection string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// S3Config holds S3-compatible object storage configuration
type S3Config struct {
	Endpoint string
	Region   string
	Bucket   string
	Prefix   string
}

// SQLiteConfig holds the local database location
type SQLiteConfig struct {
	Path string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level   string
	JSON    bool
	File    string
	MaxSize int
}

// TelemetryConfig holds OpenTelemetry export configuration
type TelemetryConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	Environment string
	Headers     map[string]string
}

// Load reads configuration from environment variables
// It attempts to load from .env file first, then falls back to system env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("HUTRAZ_STORE", StoreSQLite)),
			CacheMB: getEnvAsInt("STORE_CACHE_MB", 0),
		},
		MongoDB: MongoDBConfig{
			URI:        getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:   getEnv("MONGODB_DATABASE", "hutraz"),
			Collection: getEnv("MONGODB_COLLECTION", "state"),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "hutraz:"),
		},
		S3: S3Config{
			Endpoint: getEnv("S3_ENDPOINT", "http://localhost:8333"),
			Region:   getEnv("S3_REGION", "us-east-1"),
			Bucket:   getEnv("S3_BUCKET", "hutraz"),
			Prefix:   getEnv("S3_PREFIX", "state/"),
		},
		SQLite: SQLiteConfig{
			Path: getEnv("SQLITE_PATH", "hutraz.db"),
		},
		Log: LogConfig{
			Level:   getEnv("LOG_LEVEL", "info"),
			JSON:    getEnvAsBool("LOG_FORMAT_JSON", false),
			File:    getEnv("LOG_FILE", ""),
			MaxSize: getEnvAsInt("LOG_FILE_MAX_MB", 10),
		},
		Telemetry: TelemetryConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_ENDPOINT", ""),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "hutraz"),
			Environment: getEnv("OTEL_ENVIRONMENT", "development"),
			Headers:     parseHeaders(getEnv("OTEL_HEADERS", "")),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that the selected backend has what it needs
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreMemory:
	case StoreRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required")
		}
	case StoreMongo:
		if c.MongoDB.URI == "" {
			return fmt.Errorf("MONGODB_URI is required")
		}
		if c.MongoDB.Database == "" {
			return fmt.Errorf("MONGODB_DATABASE is required")
		}
	case StoreS3:
		if c.S3.Endpoint == "" {
			return fmt.Errorf("S3_ENDPOINT is required")
		}
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required")
		}
	case StoreSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("SQLITE_PATH is required")
		}
	default:
		return fmt.Errorf("unknown HUTRAZ_STORE %q", c.Store.Backend)
	}
	if c.Store.CacheMB < 0 {
		return fmt.Errorf("STORE_CACHE_MB must not be negative")
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return fmt.Errorf("OTEL_ENDPOINT is required when OTEL_ENABLED is set")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// parseHeaders reads "k1=v1,k2=v2".
func parseHeaders(s string) map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if ok && k != "" {
			headers[k] = v
		}
	}
	return headers
}
