package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "inkpress.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "INKPRESS_PORT")
	setString(&cfg.Server.CORSOrigin, "INKPRESS_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "INKPRESS_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "INKPRESS_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "INKPRESS_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "INKPRESS_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "INKPRESS_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.LiteLLM.URL, "LITELLM_URL")
	setString(&cfg.LiteLLM.MasterKey, "LITELLM_MASTER_KEY")
	setString(&cfg.Ghost.URL, "GHOST_URL")
	setString(&cfg.Ghost.AdminKey, "GHOST_ADMIN_KEY")
	setString(&cfg.Logging.Level, "INKPRESS_LOG_LEVEL")
	setString(&cfg.Logging.Service, "INKPRESS_LOG_SERVICE")
	setInt(&cfg.Breaker.MaxFailures, "INKPRESS_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "INKPRESS_BREAKER_TIMEOUT")
	setFloat64(&cfg.Rate.RequestsPerSecond, "INKPRESS_RATE_RPS")
	setInt(&cfg.Rate.Burst, "INKPRESS_RATE_BURST")
	setInt64(&cfg.Cache.MaxSizeMB, "INKPRESS_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.SnapshotTTL, "INKPRESS_CACHE_SNAPSHOT_TTL")
	setBool(&cfg.Otel.Enabled, "INKPRESS_OTEL_ENABLED")
	setString(&cfg.Otel.Endpoint, "INKPRESS_OTEL_ENDPOINT")

	// Pipeline
	setInt(&cfg.Pipeline.Workers, "INKPRESS_PIPELINE_WORKERS")
	setFloat64(&cfg.Pipeline.QualityThreshold, "INKPRESS_QUALITY_THRESHOLD")
	setInt(&cfg.Pipeline.MaxRefinements, "INKPRESS_MAX_REFINEMENTS")
	setBool(&cfg.Pipeline.AcceptOnMaxRefinements, "INKPRESS_ACCEPT_ON_MAX_REFINEMENTS")
	setDuration(&cfg.Pipeline.PhaseTimeout, "INKPRESS_PHASE_TIMEOUT")
	setInt(&cfg.Pipeline.ProviderRetries, "INKPRESS_PROVIDER_RETRIES")
	setDuration(&cfg.Pipeline.RetryBackoff, "INKPRESS_RETRY_BACKOFF")
	setString(&cfg.Pipeline.DefaultTier, "INKPRESS_DEFAULT_TIER")
	setBool(&cfg.Pipeline.SEOExtras, "INKPRESS_SEO_EXTRAS")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.NATS.URL == "" {
		return errors.New("nats.url is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.Pipeline.Workers < 1 {
		return errors.New("pipeline.workers must be >= 1")
	}
	if cfg.Pipeline.MaxRefinements < 0 {
		return errors.New("pipeline.max_refinements must be >= 0")
	}
	if cfg.Pipeline.QualityThreshold < 0 || cfg.Pipeline.QualityThreshold > 10 {
		return errors.New("pipeline.quality_threshold must be in [0,10]")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
