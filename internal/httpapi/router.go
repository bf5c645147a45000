package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"

	"github.com/erauner12/rangle-api/internal/auth"
	"github.com/erauner12/rangle-api/internal/metrics"
	"github.com/erauner12/rangle-api/internal/service/rangeservice"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// RangeAPI is the service behind the collection endpoints
type RangeAPI interface {
	Ranges(ctx context.Context, owner, collection string, ranges []string) (*rangeservice.RangesResponse, error)
	Push(ctx context.Context, owner, collection string, items []map[string]any) ([]rangeservice.PushAck, error)
	Pull(ctx context.Context, owner, collection string, from int64, to *int64, limit int) (*rangeservice.PullResponse, error)
}

// Server holds dependencies for HTTP handlers
type Server struct {
	Ranges          RangeAPI
	RateLimitConfig RateLimitInfo
}

// pushReq is the request body for push endpoints
type pushReq struct {
	Items []map[string]any `json:"items"`
}

// rangesReq is the request body for the ranges endpoint
type rangesReq struct {
	Ranges []string `json:"ranges"`
}

var collectionName = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode json response")
	}
}

// writeError writes a JSON error carrying the request's correlation ID
func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	writeJSON(w, code, map[string]any{
		"error":          msg,
		"correlation_id": GetCorrelationID(r.Context()),
	})
}

// parseLimit parses a limit query param with default and max
func parseLimit(q string, def, ceiling int) int {
	if q == "" {
		return def
	}
	n, err := strconv.Atoi(q)
	if err != nil || n <= 0 {
		return def
	}
	if n > ceiling {
		return ceiling
	}
	return n
}

// Routes creates the HTTP router with all collection endpoints.
// Background work started for the router stops when ctx is done.
func (s *Server) Routes(ctx context.Context, jwt auth.JWTCfg) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(CorrelationMiddleware)
	r.Use(AccessLog)
	r.Use(middleware.Recoverer)

	// Health check and metrics (unauthenticated)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	// All collection endpoints require authentication
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(jwt))
		r.Use(RateLimitMiddleware(ctx, s.RateLimitConfig))

		r.Route("/v1/collections/{collection}", func(r chi.Router) {
			r.Use(requireCollection)

			r.Post("/items/push", s.PushItems)
			r.Get("/items", s.PullItems)
			r.Post("/ranges", s.PostRanges)
			r.Get("/ranges", s.GetRanges)
		})
	})

	log.Info().Msg("HTTP routes registered")
	return r
}

// requireCollection rejects collection names outside [a-z0-9_-]{1,64}
func requireCollection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !collectionName.MatchString(chi.URLParam(r, "collection")) {
			writeError(w, r, http.StatusBadRequest, "invalid collection name")
			return
		}
		next.ServeHTTP(w, r)
	})
}
