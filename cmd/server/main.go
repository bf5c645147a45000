package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erauner12/rangle-api/internal/auth"
	"github.com/erauner12/rangle-api/internal/config"
	"github.com/erauner12/rangle-api/internal/db"
	"github.com/erauner12/rangle-api/internal/db/migrations"
	"github.com/erauner12/rangle-api/internal/httpapi"
	"github.com/erauner12/rangle-api/internal/service/rangeservice"
	"github.com/erauner12/rangle-api/internal/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Configure structured logging
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = log.With().Str("service", "rangle-api").Logger()

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Pretty logging for local dev
	if cfg.IsDev() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown LOG_LEVEL, keeping default")
	}
	// log.Ctx falls back to the global logger outside a request
	zerolog.DefaultContextLogger = &log.Logger

	ctx := context.Background()

	// Database connection
	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()

	sqlDB := db.SQL(pool)
	defer sqlDB.Close()

	if err := migrations.Migrate(sqlDB); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	items, err := store.NewItemStore(sqlDB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create item store")
	}

	opts := cfg.RangeOptions()
	log.Info().
		Str("path", opts.Path).
		Int("maxClientChunks", opts.MaxClientChunks).
		Float64("minValidChunkRatio", opts.MinValidChunkRatio).
		Float64("maxClientStorageRatio", opts.MaxClientStorageRatio).
		Msg("range options loaded (zero means default)")

	// HTTP server setup
	srv := &httpapi.Server{
		Ranges: rangeservice.NewRangeService(items, opts),
		RateLimitConfig: httpapi.RateLimitInfo{
			WindowSeconds: cfg.RateLimit.WindowSeconds,
			MaxRequests:   cfg.RateLimit.MaxRequests,
			Burst:         cfg.RateLimit.Burst,
		},
	}

	jwtCfg := auth.JWTCfg{
		HS256Secret: cfg.JWTSecret,
		DevMode:     cfg.DevMode,
	}

	routesCtx, stopRoutes := context.WithCancel(ctx)
	defer stopRoutes()

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv.Routes(routesCtx, jwtCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("server stopped")
}
