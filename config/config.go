// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full runtime configuration. Load it once at startup and
// pass the pieces down; nothing here is a process global.
type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	Database   DatabaseConfig
	Redis      RedisConfig
	Cache      CacheConfig
	Comparatif ComparatifConfig
}

// DatabaseConfig locates the analytics warehouse.
type DatabaseConfig struct {
	Host            string        `envconfig:"SQL_HOST" default:"localhost"`
	Port            int           `envconfig:"SQL_PORT" default:"5432"`
	User            string        `envconfig:"SQL_USER" default:"pricing"`
	Password        string        `envconfig:"SQL_PASSWORD" default:""`
	Database        string        `envconfig:"SQL_DATABASE" default:"cbm_data"`
	SSLMode         string        `envconfig:"SQL_SSLMODE" default:"disable"`
	MaxOpenConns    int           `envconfig:"SQL_MAX_OPEN_CONNS" default:"100"`
	MaxIdleConns    int           `envconfig:"SQL_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SQL_CONN_MAX_LIFETIME" default:"1h"`
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig locates the shared cache instance.
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// Addr renders the host:port pair.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CacheConfig selects the cache backend and its retention tiers.
type CacheConfig struct {
	// Backend is "redis" or "memory".
	Backend        string        `envconfig:"CACHE_BACKEND" default:"redis"`
	TTLShort       time.Duration `envconfig:"CACHE_TTL_SHORT" default:"5m"`
	TTLMedium      time.Duration `envconfig:"CACHE_TTL_MEDIUM" default:"30m"`
	TTLLong        time.Duration `envconfig:"CACHE_TTL_LONG" default:"1h"`
	KeyThreshold   int           `envconfig:"CACHE_KEY_THRESHOLD" default:"150"`
	MemoryCapacity int           `envconfig:"CACHE_MEMORY_CAPACITY" default:"10000"`
}

// ComparatifConfig bounds pagination for the comparison service.
type ComparatifConfig struct {
	DefaultLimit      int `envconfig:"COMPARATIF_DEFAULT_LIMIT" default:"100"`
	MaxLimit          int `envconfig:"COMPARATIF_MAX_LIMIT" default:"200"`
	ExportLimit       int `envconfig:"COMPARATIF_EXPORT_LIMIT" default:"999999"`
	FirstPagePrefetch int `envconfig:"COMPARATIF_FIRST_PAGE_PREFETCH" default:"0"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
