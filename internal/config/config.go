// Package config loads service configuration from the environment with an
// optional YAML overlay for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the full service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Supabase SupabaseConfig `yaml:"supabase"`
	Checkout CheckoutConfig `yaml:"checkout"`
	Mailer   MailerConfig   `yaml:"mailer"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RateLimitPerSec int           `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int           `yaml:"rate_limit_burst"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

// SupabaseConfig holds backend gateway settings.
type SupabaseConfig struct {
	URL        string `yaml:"url"`
	AnonKey    string `yaml:"anon_key"`
	ServiceKey string `yaml:"service_key"`
	// JWTSecret verifies GoTrue session tokens (HS256).
	JWTSecret string `yaml:"jwt_secret"`
	// PaperBucket is the storage bucket holding submission files.
	PaperBucket string `yaml:"paper_bucket"`
}

// CheckoutConfig holds the hosted checkout integration settings.
type CheckoutConfig struct {
	// KeySecret signs and verifies checkout callback signatures.
	KeySecret string `yaml:"key_secret"`
	// ReconcileSchedule is the cron spec for the pending-intent sweep.
	ReconcileSchedule string `yaml:"reconcile_schedule"`
	// IntentTTL is how long a pending intent may stay unconfirmed before
	// the reconciler flags it.
	IntentTTL time.Duration `yaml:"intent_ttl"`
}

// MailerConfig holds the template-email relay settings.
type MailerConfig struct {
	RelayURL string        `yaml:"relay_url"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from the environment. A .env file is applied
// first when present; CONFERENCE_CONFIG may point at a YAML file that is
// used as the base before environment overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path := os.Getenv("CONFERENCE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimitPerSec: 10,
			RateLimitBurst:  20,
			AllowedOrigins:  []string{"*"},
		},
		Supabase: SupabaseConfig{
			PaperBucket: "papers",
		},
		Checkout: CheckoutConfig{
			ReconcileSchedule: "@every 15m",
			IntentTTL:         time.Hour,
		},
		Mailer: MailerConfig{
			Timeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Addr, "SERVER_ADDR")
	setInt(&cfg.Server.RateLimitPerSec, "SERVER_RATE_LIMIT_PER_SEC")
	setInt(&cfg.Server.RateLimitBurst, "SERVER_RATE_LIMIT_BURST")

	setString(&cfg.Supabase.URL, "SUPABASE_URL")
	setString(&cfg.Supabase.AnonKey, "SUPABASE_ANON_KEY")
	setString(&cfg.Supabase.ServiceKey, "SUPABASE_SERVICE_KEY")
	setString(&cfg.Supabase.JWTSecret, "SUPABASE_JWT_SECRET")
	setString(&cfg.Supabase.PaperBucket, "SUPABASE_PAPER_BUCKET")

	setString(&cfg.Checkout.KeySecret, "CHECKOUT_KEY_SECRET")
	setString(&cfg.Checkout.ReconcileSchedule, "CHECKOUT_RECONCILE_SCHEDULE")
	setDuration(&cfg.Checkout.IntentTTL, "CHECKOUT_INTENT_TTL")

	setString(&cfg.Mailer.RelayURL, "MAILER_RELAY_URL")
	setString(&cfg.Mailer.APIKey, "MAILER_API_KEY")

	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Format, "LOG_FORMAT")
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.Supabase.URL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.Supabase.ServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
	}
	if c.Supabase.JWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	if c.Supabase.PaperBucket == "" {
		return fmt.Errorf("paper bucket cannot be empty")
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

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
