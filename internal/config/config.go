// Package config loads server configuration from defaults, an optional YAML
// file, a .env file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Catalog sources.
const (
	SourceFile     = "file"
	SourceS3       = "s3"
	SourcePostgres = "postgres"
)

// Config holds application configuration.
type Config struct {
	Port      int             `mapstructure:"port"`
	Log       LogConfig       `mapstructure:"log"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Predictor PredictorConfig `mapstructure:"predictor"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Forecast  ForecastConfig  `mapstructure:"forecast"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// CatalogConfig selects where listings are loaded from at startup.
type CatalogConfig struct {
	Source   string `mapstructure:"source"`
	Path     string `mapstructure:"path"`
	S3Bucket string `mapstructure:"s3_bucket"`
	S3Key    string `mapstructure:"s3_key"`
	S3Region string `mapstructure:"s3_region"`
}

// DatabaseConfig is optional unless the catalog source is postgres.
type DatabaseConfig struct {
	URL           string `mapstructure:"url"`
	MigrationsDir string `mapstructure:"migrations_dir"`
}

// RedisConfig is optional; without a URL filter predictions are not memoized.
type RedisConfig struct {
	URL       string        `mapstructure:"url"`
	FilterTTL time.Duration `mapstructure:"filter_ttl"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type PredictorConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AuthConfig enables bearer auth on the API when Token is set.
type AuthConfig struct {
	Token string `mapstructure:"token"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
}

type ForecastConfig struct {
	AveragePrice float64 `mapstructure:"average_price"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("log.level", "info")

	v.SetDefault("catalog.source", SourceFile)
	v.SetDefault("catalog.path", "data/boarding_houses.csv")
	v.SetDefault("catalog.s3_bucket", "")
	v.SetDefault("catalog.s3_key", "")
	v.SetDefault("catalog.s3_region", "")

	v.SetDefault("database.url", "")
	v.SetDefault("database.migrations_dir", "migrations")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.filter_ttl", time.Hour)
	v.SetDefault("redis.timeout", 500*time.Millisecond)

	v.SetDefault("predictor.url", "")
	v.SetDefault("predictor.timeout", 10*time.Second)

	v.SetDefault("auth.token", "")
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("rate_limit.requests_per_minute", 60)
	v.SetDefault("forecast.average_price", 18000.0)
}

// Load reads configuration. cfgFile is optional. Environment variables use
// the key with dots replaced by underscores, e.g. PREDICTOR_URL or
// CATALOG_S3_BUCKET. A .env file in the working directory is loaded first
// and never overrides variables already set.
func Load(cfgFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Catalog.Source = strings.ToLower(strings.TrimSpace(cfg.Catalog.Source))

	return &cfg, nil
}

// Validate checks everything the server needs.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Predictor.URL == "" {
		errs = append(errs, errors.New("predictor.url is required"))
	}
	if c.Predictor.Timeout <= 0 {
		errs = append(errs, errors.New("predictor.timeout must be positive"))
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("rate_limit.requests_per_minute must be positive"))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, c.ValidateCatalog())
	return errors.Join(errs...)
}

// ValidateCatalog checks only the settings needed to load the catalog.
func (c *Config) ValidateCatalog() error {
	switch c.Catalog.Source {
	case SourceFile:
		if c.Catalog.Path == "" {
			return errors.New("catalog.path is required for the file source")
		}
	case SourceS3:
		if c.Catalog.S3Bucket == "" || c.Catalog.S3Key == "" {
			return errors.New("catalog.s3_bucket and catalog.s3_key are required for the s3 source")
		}
	case SourcePostgres:
		if c.Database.URL == "" {
			return errors.New("database.url is required for the postgres source")
		}
	default:
		return fmt.Errorf("unknown catalog.source %q", c.Catalog.Source)
	}
	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
