package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/erauner12/rangle-api/internal/auth"
	"github.com/erauner12/rangle-api/internal/rangle"
	"github.com/erauner12/rangle-api/internal/syncx"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const (
	defaultPullLimit = 500
	maxPullLimit     = 1000
	maxPushItems     = 1000
)

// PushItems handles POST /v1/collections/{collection}/items/push
func (s *Server) PushItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := auth.UserID(ctx)
	collection := chi.URLParam(r, "collection")

	var req pushReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("invalid push body")
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if len(req.Items) > maxPushItems {
		writeError(w, r, http.StatusRequestEntityTooLarge, "too many items in one push")
		return
	}

	acks, err := s.Ranges.Push(ctx, owner, collection, req.Items)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to push items")
		return
	}

	writeJSON(w, http.StatusOK, acks)
}

// PullItems handles GET /v1/collections/{collection}/items?from=&to=&limit=
func (s *Server) PullItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := auth.UserID(ctx)
	collection := chi.URLParam(r, "collection")
	q := r.URL.Query()

	from, err := parseBound(q.Get("from"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid from")
		return
	}

	var to *int64
	if raw := q.Get("to"); raw != "" {
		v, err := parseBound(raw)
		if err != nil || v < from {
			writeError(w, r, http.StatusBadRequest, "invalid to")
			return
		}
		to = &v
	}

	limit := parseLimit(q.Get("limit"), defaultPullLimit, maxPullLimit)

	resp, err := s.Ranges.Pull(ctx, owner, collection, from, to, limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to pull items")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// PostRanges handles POST /v1/collections/{collection}/ranges
func (s *Server) PostRanges(w http.ResponseWriter, r *http.Request) {
	var req rangesReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("invalid ranges body")
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	s.reconcile(w, r, req.Ranges)
}

// GetRanges handles GET /v1/collections/{collection}/ranges?token=
func (s *Server) GetRanges(w http.ResponseWriter, r *http.Request) {
	ranges, ok := syncx.DecodeRanges(r.URL.Query().Get("token"))
	if !ok {
		log.Ctx(r.Context()).Warn().Msg("invalid ranges token")
		writeError(w, r, http.StatusBadRequest, "invalid token")
		return
	}
	s.reconcile(w, r, ranges)
}

func (s *Server) reconcile(w http.ResponseWriter, r *http.Request, ranges []string) {
	ctx := r.Context()
	owner := auth.UserID(ctx)
	collection := chi.URLParam(r, "collection")

	resp, err := s.Ranges.Ranges(ctx, owner, collection, ranges)
	if err != nil {
		if errors.Is(err, rangle.ErrMalformedRange) || errors.Is(err, rangle.ErrUnsupportedPath) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "failed to compute ranges")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// parseBound parses a non-negative timestamp query value; empty means 0
func parseBound(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, errors.New("negative bound")
	}
	return v, nil
}
