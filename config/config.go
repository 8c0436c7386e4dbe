package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Gamma     GammaConfig     `mapstructure:"gamma"`
	Search    SearchConfig    `mapstructure:"search"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// GammaConfig holds Polymarket Gamma API configuration
type GammaConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

// SearchConfig holds market search configuration
type SearchConfig struct {
	PageSize     int  `mapstructure:"page_size"`
	DefaultLimit int  `mapstructure:"default_limit"`
	MaxLimit     int  `mapstructure:"max_limit"`
	Debug        bool `mapstructure:"debug"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP    int    `mapstructure:"per_ip"` // requests per minute
	Store    string `mapstructure:"store"`  // "memory" or "redis"
	RedisURL string `mapstructure:"redis_url"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/marketlens/")

	// MARKETLENS_SERVER_PORT overrides server.port
	v.SetEnvPrefix("MARKETLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values. Every key gets a default so
// that AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*"})
	v.SetDefault("server.shutdown_timeout", "10s")

	// Gamma defaults
	v.SetDefault("gamma.base_url", "https://gamma-api.polymarket.com")
	v.SetDefault("gamma.timeout", "15s")
	v.SetDefault("gamma.requests_per_second", 5)
	v.SetDefault("gamma.burst", 10)

	// Search defaults
	v.SetDefault("search.page_size", 50)
	v.SetDefault("search.default_limit", 10)
	v.SetDefault("search.max_limit", 50)
	v.SetDefault("search.debug", false)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
	v.SetDefault("ratelimit.store", "memory")
	v.SetDefault("ratelimit.redis_url", "")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Gamma.BaseURL == "" {
		return fmt.Errorf("gamma base URL is required (set MARKETLENS_GAMMA_BASE_URL)")
	}

	if config.Search.PageSize < 1 || config.Search.PageSize > 500 {
		return fmt.Errorf("search page size must be between 1 and 500, got: %d", config.Search.PageSize)
	}

	if config.Search.MaxLimit < 1 {
		return fmt.Errorf("search max limit must be at least 1, got: %d", config.Search.MaxLimit)
	}

	if config.Search.DefaultLimit < 0 || config.Search.DefaultLimit > config.Search.MaxLimit {
		return fmt.Errorf("search default limit must be between 0 and %d, got: %d",
			config.Search.MaxLimit, config.Search.DefaultLimit)
	}

	if config.RateLimit.PerIP <= 0 {
		return fmt.Errorf("rate limit per IP must be positive, got: %d", config.RateLimit.PerIP)
	}

	if config.RateLimit.Store != "memory" && config.RateLimit.Store != "redis" {
		return fmt.Errorf("rate limit store must be 'memory' or 'redis', got: %s", config.RateLimit.Store)
	}

	if config.RateLimit.Store == "redis" && config.RateLimit.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when rate limit store is 'redis'")
	}

	switch strings.ToLower(config.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be debug, info, warn or error, got: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("log format must be 'text' or 'json', got: %s", config.Log.Format)
	}

	return nil
}
