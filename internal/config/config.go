package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/vitallab/vitallab/internal/platform/db"
)

const (
	DataSourceLocal  = "local"
	DataSourceRemote = "remote"

	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"

	VitalsFile  = "file"
	VitalsStore = "store"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	DBMaxConns    int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns    int32  `mapstructure:"DB_MIN_CONNS"`
	DBSchema      string `mapstructure:"DB_SCHEMA"`
	MigrationsDir string `mapstructure:"MIGRATIONS_DIR"`

	DataSource        string `mapstructure:"DATA_SOURCE"`
	VitalDBURL        string `mapstructure:"VITALDB_API_URL"`
	VitalDBTimeoutSec int    `mapstructure:"VITALDB_API_TIMEOUT"`
	VitalDBRetryCount int    `mapstructure:"VITALDB_RETRY_COUNT"`

	CacheMode string        `mapstructure:"CACHE_MODE"`
	RedisURL  string        `mapstructure:"REDIS_URL"`
	CacheTTL  time.Duration `mapstructure:"CACHE_TTL"`

	SyncConcurrency int `mapstructure:"SYNC_CONCURRENCY"`
	SyncBatchSize   int `mapstructure:"SYNC_BATCH_SIZE"`

	VitalsSource  string `mapstructure:"VITALS_SOURCE"`
	VitalsDataDir string `mapstructure:"VITALS_DATA_DIR"`

	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "DB_SCHEMA", "MIGRATIONS_DIR",
	"DATA_SOURCE", "VITALDB_API_URL", "VITALDB_API_TIMEOUT", "VITALDB_RETRY_COUNT",
	"CACHE_MODE", "REDIS_URL", "CACHE_TTL",
	"SYNC_CONCURRENCY", "SYNC_BATCH_SIZE",
	"VITALS_SOURCE", "VITALS_DATA_DIR",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "REQUEST_TIMEOUT",
}

// Load reads configuration from the environment and an optional .env file.
// It does not validate; callers run Validate once they know whether the
// command needs a database.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("MIGRATIONS_DIR", "./migrations")
	v.SetDefault("DATA_SOURCE", DataSourceLocal)
	v.SetDefault("VITALDB_API_URL", "https://api.vitaldb.net")
	v.SetDefault("VITALDB_API_TIMEOUT", 30)
	v.SetDefault("VITALDB_RETRY_COUNT", 0)
	v.SetDefault("CACHE_MODE", CacheMemory)
	v.SetDefault("CACHE_TTL", "1h")
	v.SetDefault("SYNC_CONCURRENCY", 1)
	v.SetDefault("SYNC_BATCH_SIZE", 10000)
	v.SetDefault("VITALS_SOURCE", VitalsFile)
	v.SetDefault("VITALS_DATA_DIR", "./data")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("REQUEST_TIMEOUT", "60s")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// .env is optional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	cfg.DataSource = strings.ToLower(strings.TrimSpace(cfg.DataSource))
	cfg.CacheMode = strings.ToLower(strings.TrimSpace(cfg.CacheMode))
	cfg.VitalsSource = strings.ToLower(strings.TrimSpace(cfg.VitalsSource))

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// VitalDBTimeout is the remote fetch timeout.
func (c *Config) VitalDBTimeout() time.Duration {
	return time.Duration(c.VitalDBTimeoutSec) * time.Second
}

// NeedsDatabase reports whether serving the API requires a database
// connection with this configuration.
func (c *Config) NeedsDatabase() bool {
	return c.DataSource == DataSourceLocal || c.VitalsSource == VitalsStore
}

// Validate checks the configuration. requireDB forces DATABASE_URL even when
// the HTTP surface would not need it, as sync and migrate commands do.
func (c *Config) Validate(requireDB bool) error {
	switch c.DataSource {
	case DataSourceLocal, DataSourceRemote:
	default:
		return fmt.Errorf("DATA_SOURCE must be %q or %q, got %q", DataSourceLocal, DataSourceRemote, c.DataSource)
	}
	switch c.CacheMode {
	case CacheNone, CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("CACHE_MODE must be %q, %q or %q, got %q", CacheNone, CacheMemory, CacheRedis, c.CacheMode)
	}
	switch c.VitalsSource {
	case VitalsFile, VitalsStore:
	default:
		return fmt.Errorf("VITALS_SOURCE must be %q or %q, got %q", VitalsFile, VitalsStore, c.VitalsSource)
	}

	if (requireDB || c.NeedsDatabase()) && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.CacheMode == CacheRedis && c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required when CACHE_MODE is %q", CacheRedis)
	}
	if !db.ValidSchema(c.DBSchema) {
		return fmt.Errorf("DB_SCHEMA %q is not a valid schema name", c.DBSchema)
	}
	if c.SyncConcurrency < 1 {
		return fmt.Errorf("SYNC_CONCURRENCY must be positive, got %d", c.SyncConcurrency)
	}
	if c.SyncBatchSize < 1 {
		return fmt.Errorf("SYNC_BATCH_SIZE must be positive, got %d", c.SyncBatchSize)
	}
	if c.VitalDBTimeoutSec < 1 {
		return fmt.Errorf("VITALDB_API_TIMEOUT must be positive, got %d", c.VitalDBTimeoutSec)
	}
	if c.VitalDBRetryCount < 0 {
		return fmt.Errorf("VITALDB_RETRY_COUNT must not be negative, got %d", c.VitalDBRetryCount)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}
