// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/erauner12/rangle-api/internal/rangle"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the rangle API server
type Config struct {
	Env         string `env:"ENV" envDefault:"dev"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8081"`
	DatabaseURL string `env:"DATABASE_URL"`
	JWTSecret   string `env:"JWT_HS256_SECRET"`
	DevMode     bool   `env:"DEV_MODE"` // enables X-Debug-Sub header fallback
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	Ranges    RangesConfig    `envPrefix:"RANGLE_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
}

// RangesConfig mirrors rangle.Options; zero values fall back to the library defaults
type RangesConfig struct {
	TimestampPath         string  `env:"TIMESTAMP_PATH"`
	MaxClientChunks       int     `env:"MAX_CLIENT_CHUNKS"`
	MinValidChunkRatio    float64 `env:"MIN_VALID_CHUNK_RATIO"`
	MaxClientStorageRatio float64 `env:"MAX_CLIENT_STORAGE_RATIO"`
}

// RateLimitConfig configures the per-owner token bucket
type RateLimitConfig struct {
	WindowSeconds int `env:"WINDOW_SECONDS" envDefault:"60"`
	MaxRequests   int `env:"MAX_REQUESTS" envDefault:"600"`
	Burst         int `env:"BURST" envDefault:"120"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(dotenvPath string) (*Config, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading %s: %w", dotenvPath, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("error getting env configs: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if !c.DevMode && c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.RateLimit.WindowSeconds <= 0 || c.RateLimit.MaxRequests <= 0 || c.RateLimit.Burst <= 0 {
		return ErrInvalidRateLimit
	}
	if err := c.RangeOptions().Validate(); err != nil {
		return fmt.Errorf("invalid RANGLE_* settings: %w", err)
	}
	return nil
}

// RangeOptions converts the range settings into reconciliation options
func (c *Config) RangeOptions() rangle.Options {
	return rangle.Options{
		Path:                  c.Ranges.TimestampPath,
		MaxClientChunks:       c.Ranges.MaxClientChunks,
		MinValidChunkRatio:    c.Ranges.MinValidChunkRatio,
		MaxClientStorageRatio: c.Ranges.MaxClientStorageRatio,
	}
}

// IsDev reports whether the server runs in local development mode
func (c *Config) IsDev() bool {
	return c.Env == "dev"
}
