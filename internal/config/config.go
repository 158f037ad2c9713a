// Package config provides unified configuration loading for klarpost.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the klarpost service.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Extraction    ExtractionConfig    `yaml:"extraction"`
	Entitlement   EntitlementConfig   `yaml:"entitlement"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Simplify      SimplifyConfig      `yaml:"simplify"`
	Payment       PaymentConfig       `yaml:"payment"`
	BasicAuth     BasicAuthConfig     `yaml:"basic_auth"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	MaxUploadBytes   int64         `yaml:"max_upload_bytes"`
	Production       bool          `yaml:"production"`
	CORSOrigins      []string      `yaml:"cors_origins"`
}

// ExtractionConfig holds extraction pipeline settings.
type ExtractionConfig struct {
	TextLayerMinChars int           `yaml:"text_layer_min_chars"`
	MaxOCRPages       int           `yaml:"max_ocr_pages"`
	RenderScale       float64       `yaml:"render_scale"`
	MaxImageDimension int           `yaml:"max_image_dimension"`
	Languages         []string      `yaml:"languages"`
	PageWorkers       int           `yaml:"page_workers"`
	AttemptTimeout    time.Duration `yaml:"attempt_timeout"`
}

// EntitlementConfig holds the signed-cookie entitlement settings.
// Secret is required for every entitlement-touching endpoint; when absent
// those endpoints fail closed with a configuration error.
type EntitlementConfig struct {
	Secret       string `yaml:"secret"`
	FreeDocLimit int    `yaml:"free_doc_limit"`
}

// RateLimitConfig holds fixed-window rate limiter settings.
type RateLimitConfig struct {
	Driver        string        `yaml:"driver"` // memory or redis
	Window        time.Duration `yaml:"window"`
	MaxRequests   int           `yaml:"max_requests"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	Redis         RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings for the redis window store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// SimplifyConfig holds the downstream transformation collaborator settings.
type SimplifyConfig struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
}

// PaymentConfig holds Stripe settings for premium verification.
type PaymentConfig struct {
	StripeSecretKey string `yaml:"stripe_secret_key"`
	StripePriceID   string `yaml:"stripe_price_id"`
	AppURL          string `yaml:"app_url"`
}

// BasicAuthConfig guards the whole surface when both values are set.
// When either is empty the guard is disabled (safe default for local dev).
type BasicAuthConfig struct {
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      60 * time.Second,
			WriteTimeout:     120 * time.Second,
			IdleTimeout:      120 * time.Second,
			RequestTimeout:   120 * time.Second,
			GracefulShutdown: 10 * time.Second,
			MaxUploadBytes:   15 * 1024 * 1024,
			CORSOrigins:      []string{"*"},
		},
		Extraction: ExtractionConfig{
			TextLayerMinChars: 80,
			MaxOCRPages:       5,
			RenderScale:       2.0,
			MaxImageDimension: 1800,
			Languages:         []string{"deu", "eng"},
			PageWorkers:       1,
			AttemptTimeout:    45 * time.Second,
		},
		Entitlement: EntitlementConfig{
			FreeDocLimit: 3,
		},
		RateLimit: RateLimitConfig{
			Driver:        "memory",
			Window:        60 * time.Second,
			MaxRequests:   12,
			SweepInterval: 5 * time.Minute,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				DB:       0,
				PoolSize: 10,
			},
		},
		Simplify: SimplifyConfig{
			Model:       "llama-3.3-70b-versatile",
			Temperature: 0.2,
		},
		Payment: PaymentConfig{
			AppURL: "http://localhost:3000",
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// applyEnvOverrides layers environment variables over the loaded config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("MAX_UPLOAD_MB"); v != "" {
		if mb, err := strconv.Atoi(v); err == nil && mb > 0 {
			cfg.Server.MaxUploadBytes = int64(mb) * 1024 * 1024
		}
	}
	if v := os.Getenv("PRODUCTION"); v == "1" || v == "true" {
		cfg.Server.Production = true
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Server.CORSOrigins = origins
	}
	if v := os.Getenv("APP_COOKIE_SECRET"); v != "" {
		cfg.Entitlement.Secret = v
	}
	if v := os.Getenv("FREE_DOC_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Entitlement.FreeDocLimit = n
		}
	}
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		cfg.Simplify.APIKey = v
	}
	if v := os.Getenv("GROQ_MODEL"); v != "" {
		cfg.Simplify.Model = v
	}
	if v := os.Getenv("GROQ_BASE_URL"); v != "" {
		cfg.Simplify.BaseURL = v
	}
	if v := os.Getenv("STRIPE_SECRET_KEY"); v != "" {
		cfg.Payment.StripeSecretKey = v
	}
	if v := os.Getenv("STRIPE_PRICE_ID"); v != "" {
		cfg.Payment.StripePriceID = v
	}
	if v := os.Getenv("APP_URL"); v != "" {
		cfg.Payment.AppURL = v
	}
	if v := os.Getenv("BASIC_AUTH_USER"); v != "" {
		cfg.BasicAuth.User = v
	}
	if v := os.Getenv("BASIC_AUTH_PASS"); v != "" {
		cfg.BasicAuth.Pass = v
	}
	if v := os.Getenv("RATE_LIMIT_DRIVER"); v != "" {
		cfg.RateLimit.Driver = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RateLimit.Redis.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}

// Validate checks structural configuration values. Secrets are deliberately
// not required here: endpoints that depend on them fail closed per request
// instead of preventing the rest of the service from starting.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Extraction.TextLayerMinChars < 0 {
		return fmt.Errorf("text_layer_min_chars must be >= 0")
	}
	if c.Extraction.MaxOCRPages < 1 {
		return fmt.Errorf("max_ocr_pages must be >= 1")
	}
	if c.Extraction.RenderScale <= 0 {
		return fmt.Errorf("render_scale must be > 0")
	}
	if c.Extraction.PageWorkers < 1 {
		return fmt.Errorf("page_workers must be >= 1")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit window must be > 0")
	}
	if c.RateLimit.MaxRequests < 1 {
		return fmt.Errorf("rate limit max_requests must be >= 1")
	}
	switch c.RateLimit.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown rate limit driver %q", c.RateLimit.Driver)
	}
	if c.Entitlement.FreeDocLimit < 1 {
		return fmt.Errorf("free_doc_limit must be >= 1")
	}
	if len(c.Server.CORSOrigins) == 0 {
		return fmt.Errorf("cors_origins must not be empty")
	}
	return nil
}
