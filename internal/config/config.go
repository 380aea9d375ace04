package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds all runtime settings, loaded from environment variables.
type Config struct {
	Port        string `koanf:"port"`
	Env         string `koanf:"env"`
	DatabaseURL string `koanf:"database_url"`
	RedisURL    string `koanf:"redis_url"`

	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	LogLevel string `koanf:"log_level"`

	TaxRateBps      int `koanf:"pricing_tax_rate_bps"`
	GratuityRateBps int `koanf:"pricing_gratuity_rate_bps"`

	CartTTL         time.Duration `koanf:"cart_ttl"`
	CatalogCacheTTL time.Duration `koanf:"catalog_cache_ttl"`
	ReportCacheTTL  time.Duration `koanf:"report_cache_ttl"`
	IdempotencyTTL  time.Duration `koanf:"idempotency_ttl"`

	PrinterBridgeURL     string        `koanf:"printer_bridge_url"`
	PrinterTimeout       time.Duration `koanf:"printer_timeout"`
	PrintQueueName       string        `koanf:"print_queue_name"`
	PrintMaxAttempts     int           `koanf:"print_max_attempts"`
	PrintVisibility      time.Duration `koanf:"print_visibility_timeout"`
	PrintWorkerInterval  time.Duration `koanf:"print_worker_interval"`
	PrintWorkerBatchSize int           `koanf:"print_worker_batch_size"`

	RateLimitRPS   int           `koanf:"rate_limit_rps"`
	RateLimitBurst int           `koanf:"rate_limit_burst"`
	RateLimitTTL   time.Duration `koanf:"rate_limit_ttl"`

	TracingEnabled     bool    `koanf:"tracing_enabled"`
	TracingEndpoint    string  `koanf:"tracing_endpoint"`
	TracingInsecure    bool    `koanf:"tracing_insecure"`
	TracingSampleRatio float64 `koanf:"tracing_sample_ratio"`

	MetricsBucketsCSV string `koanf:"metrics_buckets_ms"`

	PProfEnabled bool   `koanf:"pprof_enabled"`
	PProfUser    string `koanf:"pprof_user"`
	PProfPass    string `koanf:"pprof_pass"`
}

// Load reads .env when present, then environment variables, and validates
// the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := defaults()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Port:                 "8080",
		Env:                  "development",
		LogLevel:             "info",
		CORSAllowedOrigins:   []string{"*"},
		TaxRateBps:           1000,
		GratuityRateBps:      200,
		CartTTL:              24 * time.Hour,
		CatalogCacheTTL:      5 * time.Minute,
		ReportCacheTTL:       time.Minute,
		IdempotencyTTL:       10 * time.Minute,
		PrinterTimeout:       5 * time.Second,
		PrintQueueName:       "print_jobs",
		PrintMaxAttempts:     5,
		PrintVisibility:      30 * time.Second,
		PrintWorkerInterval:  time.Second,
		PrintWorkerBatchSize: 10,
		RateLimitRPS:         20,
		RateLimitBurst:       40,
		RateLimitTTL:         time.Minute,
		TracingSampleRatio:   1,
	}
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	if c.TaxRateBps < 0 || c.TaxRateBps > 10000 {
		return fmt.Errorf("PRICING_TAX_RATE_BPS out of range: %d", c.TaxRateBps)
	}
	if c.GratuityRateBps < 0 || c.GratuityRateBps > 10000 {
		return fmt.Errorf("PRICING_GRATUITY_RATE_BPS out of range: %d", c.GratuityRateBps)
	}
	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
