// Package config defines the client configuration and its loading layers.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/Sternrassler/emuready-client/pkg/logging"
)

// Config contains process configuration.
type Config struct {
	// BaseURL is the service root, e.g. "https://www.emuready.com".
	BaseURL string `koanf:"base_url"`

	// UserAgent identifies this client to the service.
	UserAgent string `koanf:"user_agent"`

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration `koanf:"timeout"`

	// MaxRetries is the number of retries after a gateway or network failure.
	MaxRetries int `koanf:"max_retries"`

	// PageSize is the default page size of list commands.
	PageSize int `koanf:"page_size"`

	// MaxConcurrency bounds parallel page loads of a range.
	MaxConcurrency int `koanf:"max_concurrency"`

	// MaxPerformanceRank normalizes compatibility scores.
	MaxPerformanceRank int `koanf:"max_performance_rank"`

	// LogLevel controls verbosity: trace, debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogPretty switches to a human-readable console writer.
	LogPretty bool `koanf:"log_pretty"`

	// CacheEnabled turns on the Redis response cache.
	CacheEnabled bool          `koanf:"cache_enabled"`
	RedisAddr    string        `koanf:"redis_addr"`
	RedisDB      int           `koanf:"redis_db"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		BaseURL:            "https://www.emuready.com",
		UserAgent:          "emuready-client/0.1",
		Timeout:            30 * time.Second,
		MaxRetries:         2,
		PageSize:           20,
		MaxConcurrency:     4,
		MaxPerformanceRank: 8,
		LogLevel:           "info",
		LogPretty:          false,
		CacheEnabled:       false,
		RedisAddr:          "localhost:6379",
		RedisDB:            0,
		CacheTTL:           5 * time.Minute,
	}
}

// Validate checks field ranges. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: base_url %q", ErrInvalidConfig, c.BaseURL)
	}
	if c.UserAgent == "" {
		return fmt.Errorf("%w: user_agent must not be empty", ErrInvalidConfig)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries must be >= 0 (got %d)", ErrInvalidConfig, c.MaxRetries)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("%w: page_size must be positive (got %d)", ErrInvalidConfig, c.PageSize)
	}
	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("%w: max_concurrency must be positive (got %d)", ErrInvalidConfig, c.MaxConcurrency)
	}
	if c.MaxPerformanceRank <= 0 {
		return fmt.Errorf("%w: max_performance_rank must be positive (got %d)", ErrInvalidConfig, c.MaxPerformanceRank)
	}
	if _, err := logging.ParseLevel(logging.LogLevel(c.LogLevel)); err != nil {
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.CacheEnabled {
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis_addr must not be empty when cache is enabled", ErrInvalidConfig)
		}
		if c.CacheTTL <= 0 {
			return fmt.Errorf("%w: cache_ttl must be positive", ErrInvalidConfig)
		}
	}
	return nil
}
