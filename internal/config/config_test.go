package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/erauner12/rangle-api/internal/rangle"
)

func TestLoad(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/rangle")
	t.Setenv("JWT_HS256_SECRET", "secret")
	t.Setenv("RANGLE_MAX_CLIENT_CHUNKS", "8")
	t.Setenv("RANGLE_TIMESTAMP_PATH", "modified.ts")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTPAddr != ":8081" {
		t.Errorf("HTTPAddr = %q, want default :8081", cfg.HTTPAddr)
	}
	if cfg.RateLimit.MaxRequests != 600 {
		t.Errorf("RateLimit.MaxRequests = %d, want 600", cfg.RateLimit.MaxRequests)
	}

	opts := cfg.RangeOptions()
	if opts.MaxClientChunks != 8 || opts.Path != "modified.ts" {
		t.Errorf("RangeOptions() = %+v", opts)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "DATABASE_URL=postgres://from-file/rangle\nDEV_MODE=true\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	// godotenv sets process env; make sure the test restores it
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")
	t.Setenv("DEV_MODE", "")
	os.Unsetenv("DEV_MODE")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DatabaseURL != "postgres://from-file/rangle" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if !cfg.DevMode {
		t.Error("DevMode should be read from .env")
	}
}

func TestLoad_MissingDotEnvIsIgnored(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/rangle")
	t.Setenv("DEV_MODE", "true")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			DatabaseURL: "postgres://localhost/rangle",
			JWTSecret:   "secret",
			RateLimit:   RateLimitConfig{WindowSeconds: 60, MaxRequests: 600, Burst: 120},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing database url", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: ErrMissingDatabaseURL},
		{name: "missing secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: ErrMissingJWTSecret},
		{name: "dev mode without secret", mutate: func(c *Config) { c.JWTSecret = ""; c.DevMode = true }},
		{name: "zero burst", mutate: func(c *Config) { c.RateLimit.Burst = 0 }, wantErr: ErrInvalidRateLimit},
		{name: "deep timestamp path", mutate: func(c *Config) { c.Ranges.TimestampPath = "a.b.c" }, wantErr: rangle.ErrUnsupportedPath},
		{name: "chunk ceiling too low", mutate: func(c *Config) { c.Ranges.MaxClientChunks = 1 }, wantErr: rangle.ErrInvalidOptions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
