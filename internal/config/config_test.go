package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HUTRAZ_STORE", "")
	t.Setenv("OTEL_ENABLED", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreSQLite, cfg.Store.Backend)
	assert.Equal(t, "hutraz.db", cfg.SQLite.Path)
	assert.Equal(t, "hutraz:", cfg.Redis.KeyPrefix)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Empty(t, cfg.Telemetry.Headers)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HUTRAZ_STORE", "Redis")
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("STORE_CACHE_MB", "8")
	t.Setenv("LOG_FORMAT_JSON", "true")
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_ENDPOINT", "otel:4318")
	t.Setenv("OTEL_HEADERS", "Authorization=Basic abc, X-Scope=team ,broken")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreRedis, cfg.Store.Backend)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 8, cfg.Store.CacheMB)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, map[string]string{"Authorization": "Basic abc", "X-Scope": "team"}, cfg.Telemetry.Headers)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("HUTRAZ_STORE", "floppy")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Store: StoreConfig{Backend: StoreMemory}}, false},
		{"redis without addr", Config{Store: StoreConfig{Backend: StoreRedis}}, true},
		{"mongo without database", Config{Store: StoreConfig{Backend: StoreMongo}, MongoDB: MongoDBConfig{URI: "mongodb://x"}}, true},
		{"s3 without bucket", Config{Store: StoreConfig{Backend: StoreS3}, S3: S3Config{Endpoint: "http://x"}}, true},
		{"sqlite without path", Config{Store: StoreConfig{Backend: StoreSQLite}}, true},
		{"negative cache", Config{Store: StoreConfig{Backend: StoreMemory, CacheMB: -1}}, true},
		{"telemetry without endpoint", Config{Store: StoreConfig{Backend: StoreMemory}, Telemetry: TelemetryConfig{Enabled: true}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetEnvAsIntFallsBack(t *testing.T) {
	t.Setenv("HUTRAZ_TEST_INT", "twelve")
	assert.Equal(t, 7, getEnvAsInt("HUTRAZ_TEST_INT", 7))
	t.Setenv("HUTRAZ_TEST_BOOL", "maybe")
	assert.True(t, getEnvAsBool("HUTRAZ_TEST_BOOL", true))
}
