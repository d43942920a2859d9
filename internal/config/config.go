// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an error.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all runtime configuration for the match service.
type Config struct {
	StoreDriver    string        `mapstructure:"store_driver"`
	DatabaseURL    string        `mapstructure:"database_url"`
	SQLitePath     string        `mapstructure:"sqlite_path"`
	RedisURL       string        `mapstructure:"redis_url"`
	Port           string        `mapstructure:"match_port"`
	GRPCPort       string        `mapstructure:"match_grpc_port"`
	ScoringURL     string        `mapstructure:"scoring_engine_url"`
	ScoringTimeout time.Duration `mapstructure:"scoring_timeout"`
	ScoringWorkers int           `mapstructure:"scoring_workers"`
	// SweepInterval is a cron spec such as "@every 15m"; empty disables the sweep.
	SweepInterval string `mapstructure:"sweep_interval"`
	LogJSON       bool   `mapstructure:"log_json"`
	LogDebug      bool   `mapstructure:"log_debug"`
	// CORSAllowOrigins is a comma separated list; empty disables CORS.
	CORSAllowOrigins []string `mapstructure:"cors_allow_origins"`
}

var defaults = map[string]any{
	"store_driver":       DriverPostgres,
	"database_url":       "",
	"sqlite_path":        "match.sqlite",
	"redis_url":          "",
	"match_port":         "8083",
	"match_grpc_port":    "9083",
	"scoring_engine_url": "",
	"scoring_timeout":    "10s",
	"scoring_workers":    4,
	"sweep_interval":     "",
	"log_json":           false,
	"log_debug":          false,
	"cors_allow_origins": "",
}

// Load reads a .env file when present, then the environment, and returns a
// validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
		if err := v.BindEnv(k, strings.ToUpper(k)); err != nil {
			return nil, fmt.Errorf("bind %s: %w", strings.ToUpper(k), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORE_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.StoreDriver)
	}

	if c.ScoringURL == "" {
		return fmt.Errorf("SCORING_ENGINE_URL is required")
	}
	if c.ScoringTimeout <= 0 {
		return fmt.Errorf("SCORING_TIMEOUT must be positive, got %s", c.ScoringTimeout)
	}
	if c.ScoringWorkers < 1 || c.ScoringWorkers > 64 {
		return fmt.Errorf("SCORING_WORKERS must be between 1 and 64, got %d", c.ScoringWorkers)
	}
	if c.Port == "" || c.GRPCPort == "" {
		return fmt.Errorf("MATCH_PORT and MATCH_GRPC_PORT must not be empty")
	}
	return nil
}
