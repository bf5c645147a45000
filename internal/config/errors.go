package config

import "errors"

var (
	// ErrMissingDatabaseURL indicates that DATABASE_URL is not configured
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")

	// ErrMissingJWTSecret indicates that no JWT secret is configured outside dev mode
	ErrMissingJWTSecret = errors.New("JWT_HS256_SECRET is required when not in dev mode")

	// ErrInvalidRateLimit indicates a non-positive rate limit setting
	ErrInvalidRateLimit = errors.New("rate limit window, max requests and burst must be positive")
)
