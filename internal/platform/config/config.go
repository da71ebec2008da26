package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment key, e.g. CREDSEARCH_ADDR.
const EnvPrefix = "CREDSEARCH"

// Cache persistence backends.
const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
)

// Config is the full process configuration.
type Config struct {
	Addr      string `mapstructure:"ADDR"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Local store. An empty DatabaseURL selects the in-memory store.
	DatabaseURL   string        `mapstructure:"DATABASE_URL"`
	RecordsTable  string        `mapstructure:"RECORDS_TABLE"`
	RowLimit      int           `mapstructure:"ROW_LIMIT"`
	PrefixLimit   int           `mapstructure:"PREFIX_LIMIT"`
	GovLimit      int           `mapstructure:"GOV_LIMIT"`
	FanoutTimeout time.Duration `mapstructure:"FANOUT_TIMEOUT"`
	Migrate       bool          `mapstructure:"MIGRATE"`

	CacheCapacity int           `mapstructure:"CACHE_CAPACITY"`
	CacheTTL      time.Duration `mapstructure:"CACHE_TTL"`
	CachePath     string        `mapstructure:"CACHE_PATH"`
	CacheBackend  string        `mapstructure:"CACHE_BACKEND"`
	RedisURL      string        `mapstructure:"REDIS_URL"`
	RedisKey      string        `mapstructure:"REDIS_KEY"`

	// External provider. An empty ProviderURL disables the external phase.
	ProviderURL      string        `mapstructure:"PROVIDER_URL"`
	ProviderTimeout  time.Duration `mapstructure:"PROVIDER_TIMEOUT"`
	ProviderAttempts int           `mapstructure:"PROVIDER_ATTEMPTS"`
	ProviderDelay    time.Duration `mapstructure:"PROVIDER_DELAY"`
	// Consecutive exhausted fetches before the provider circuit opens and
	// fetches drop to a single attempt. Zero, the default, disables it.
	ProviderBreakerThreshold int `mapstructure:"PROVIDER_BREAKER_THRESHOLD"`
}

var defaults = map[string]any{
	"ADDR":              ":8080",
	"LOG_LEVEL":         "info",
	"LOG_FORMAT":        "json",
	"DATABASE_URL":      "",
	"RECORDS_TABLE":     "logins",
	"ROW_LIMIT":         50000,
	"PREFIX_LIMIT":      20000,
	"GOV_LIMIT":         15000,
	"FANOUT_TIMEOUT":    "30s",
	"MIGRATE":           false,
	"CACHE_CAPACITY":    200,
	"CACHE_TTL":         "24h",
	"CACHE_PATH":        "./database/cache_data.json",
	"CACHE_BACKEND":     CacheBackendFile,
	"REDIS_URL":         "",
	"REDIS_KEY":         "credsearch:cache",
	"PROVIDER_URL":      "",
	"PROVIDER_TIMEOUT":  "15s",
	"PROVIDER_ATTEMPTS": 3,
	"PROVIDER_DELAY":    "2s",

	"PROVIDER_BREAKER_THRESHOLD": 0,
}

// FromEnv loads configuration from the environment, reading ./.env first
// when it exists.
func FromEnv() (*Config, error) {
	return Load(".env")
}

// Load reads envFile (skipped when missing) and then the environment.
// Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("load %s: %w", envFile, err)
			}
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for k, def := range defaults {
		v.SetDefault(k, def)
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.CacheBackend = strings.ToLower(strings.TrimSpace(cfg.CacheBackend))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the components cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.CacheCapacity <= 0 {
		errs = append(errs, errors.New("cache capacity must be positive"))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, errors.New("cache ttl must be positive"))
	}
	if c.ProviderAttempts <= 0 {
		errs = append(errs, errors.New("provider attempts must be positive"))
	}
	if c.ProviderDelay < 0 {
		errs = append(errs, errors.New("provider delay must not be negative"))
	}
	if c.ProviderBreakerThreshold < 0 {
		errs = append(errs, errors.New("provider breaker threshold must not be negative"))
	}
	if c.RowLimit <= 0 || c.PrefixLimit <= 0 || c.GovLimit <= 0 {
		errs = append(errs, errors.New("row limits must be positive"))
	}
	switch c.CacheBackend {
	case CacheBackendFile:
		if c.CachePath == "" {
			errs = append(errs, errors.New("cache path is required for the file backend"))
		}
	case CacheBackendRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("redis url is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache backend %q", c.CacheBackend))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// String renders the config with credentials in URLs masked.
func (c *Config) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "addr=%s log=%s/%s", c.Addr, c.LogLevel, c.LogFormat)
	fmt.Fprintf(&sb, " database=%s table=%s", maskURL(c.DatabaseURL), c.RecordsTable)
	fmt.Fprintf(&sb, " cache=%s capacity=%d ttl=%s", c.CacheBackend, c.CacheCapacity, c.CacheTTL)
	fmt.Fprintf(&sb, " provider=%s attempts=%d", maskURL(c.ProviderURL), c.ProviderAttempts)
	return sb.String()
}

// passwordParam matches password settings in keyword DSNs
// ("host=db password=secret") and URL queries ("?password=secret"),
// including single-quoted keyword values.
var passwordParam = regexp.MustCompile(`(?i)(\bpassword\s*=\s*)('(?:[^'\\]|\\.)*'|[^\s&]+)`)

func maskURL(raw string) string {
	if raw == "" {
		return "(none)"
	}
	raw = passwordParam.ReplaceAllString(raw, "${1}****")
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return raw
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		return scheme + "://****@" + rest[at+1:]
	}
	return raw
}
