package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "logins", cfg.RecordsTable)
	assert.Equal(t, 50000, cfg.RowLimit)
	assert.Equal(t, 20000, cfg.PrefixLimit)
	assert.Equal(t, 15000, cfg.GovLimit)
	assert.Equal(t, 30*time.Second, cfg.FanoutTimeout)
	assert.Equal(t, 200, cfg.CacheCapacity)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, CacheBackendFile, cfg.CacheBackend)
	assert.Equal(t, 3, cfg.ProviderAttempts)
	assert.Equal(t, 2*time.Second, cfg.ProviderDelay)
	assert.Empty(t, cfg.ProviderURL)
	assert.Zero(t, cfg.ProviderBreakerThreshold, "breaker is opt-in")
	assert.False(t, cfg.Migrate)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CREDSEARCH_CACHE_CAPACITY", "5")
	t.Setenv("CREDSEARCH_CACHE_TTL", "90m")
	t.Setenv("CREDSEARCH_CACHE_BACKEND", "Redis")
	t.Setenv("CREDSEARCH_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("CREDSEARCH_MIGRATE", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.CacheCapacity)
	assert.Equal(t, 90*time.Minute, cfg.CacheTTL)
	assert.Equal(t, CacheBackendRedis, cfg.CacheBackend)
	assert.True(t, cfg.Migrate)
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CREDSEARCH_RECORDS_TABLE=leaks\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("CREDSEARCH_RECORDS_TABLE") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "leaks", cfg.RecordsTable)
}

func TestValidate(t *testing.T) {
	tests := map[string]string{
		"CREDSEARCH_CACHE_CAPACITY":    "0",
		"CREDSEARCH_CACHE_TTL":         "-1s",
		"CREDSEARCH_PROVIDER_ATTEMPTS": "0",
		"CREDSEARCH_CACHE_BACKEND":     "s3",

		"CREDSEARCH_PROVIDER_BREAKER_THRESHOLD": "-1",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load("")
			require.Error(t, err)
		})
	}

	t.Run("redis backend needs a url", func(t *testing.T) {
		t.Setenv("CREDSEARCH_CACHE_BACKEND", "redis")
		_, err := Load("")
		assert.ErrorContains(t, err, "redis url")
	})
}

func TestStringMasksCredentials(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://user:secret@db:5432/leaks"}
	out := cfg.String()
	assert.NotContains(t, out, "secret")
	assert.Contains(t, out, "postgres://****@db:5432/leaks")
}

func TestStringMasksKeywordDSN(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{"keyword", "host=db user=app password=secret dbname=leaks", "host=db user=app password=**** dbname=leaks"},
		{"quoted keyword", "host=db password='se cret' dbname=leaks", "host=db password=**** dbname=leaks"},
		{"spaced keyword", "host=db PASSWORD = secret", "host=db PASSWORD = ****"},
		{"url query", "postgres://db:5432/leaks?sslmode=disable&password=secret", "postgres://db:5432/leaks?sslmode=disable&password=****"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := (&Config{DatabaseURL: tt.dsn}).String()
			assert.NotContains(t, out, "secret")
			assert.NotContains(t, out, "se cret")
			assert.Contains(t, out, tt.want)
		})
	}
}
