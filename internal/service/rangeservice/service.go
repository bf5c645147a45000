package rangeservice

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/erauner12/rangle-api/internal/metrics"
	"github.com/erauner12/rangle-api/internal/rangle"
	"github.com/erauner12/rangle-api/internal/store"
	"github.com/erauner12/rangle-api/internal/syncx"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Store is the persistence the service needs
type Store interface {
	Snapshot(ctx context.Context, owner, collection, path string) (rangle.Items, error)
	ListRange(ctx context.Context, owner, collection string, from int64, to *int64, limit int) ([]store.Row, error)
	Push(ctx context.Context, owner, collection string, items []store.PushItem) ([]store.Ack, error)
}

// RangeService encapsulates business logic for ranged sync operations
type RangeService struct {
	Store Store
	Opts  rangle.Options
}

// NewRangeService creates a new RangeService
func NewRangeService(s Store, opts rangle.Options) *RangeService {
	return &RangeService{Store: s, Opts: opts}
}

// path is the configured timestamp path, used both when writing and when reconciling
func (s *RangeService) path() string {
	if s.Opts.Path == "" {
		return rangle.DefaultPath
	}
	return s.Opts.Path
}

// Reconcile computes the next chunk list for a client of collection
func (s *RangeService) Reconcile(ctx context.Context, owner, collection string, ranges []string) (rangle.Result, error) {
	logger := log.Ctx(ctx)

	items, err := s.Store.Snapshot(ctx, owner, collection, s.path())
	if err != nil {
		metrics.ReportStoreError("snapshot")
		logger.Error().Err(err).Str("collection", collection).Msg("failed to load snapshot")
		return rangle.Result{}, fmt.Errorf("load snapshot: %w", err)
	}

	res, err := rangle.Reconcile(items, ranges, s.Opts)
	if err != nil {
		logger.Warn().Err(err).Strs("ranges", ranges).Msg("rejected client ranges")
		return rangle.Result{}, err
	}

	ev := logger.Debug().
		Str("collection", collection).
		Str("outcome", string(res.Outcome)).
		Int("items", len(items)).
		Int("clientChunks", len(ranges)).
		Int("chunks", len(res.Chunks))
	reason := ""
	if res.Merge != nil {
		reason = string(res.Merge.Reason)
		ev = ev.Int("mergeLeft", res.Merge.Left).Str("mergeReason", reason)
	}
	ev.Msg("ranges reconciled")

	metrics.ReportReconcile(string(res.Outcome), len(res.Chunks), reason)
	return res, nil
}

// Ranges is Reconcile shaped for the HTTP response
func (s *RangeService) Ranges(ctx context.Context, owner, collection string, ranges []string) (*RangesResponse, error) {
	res, err := s.Reconcile(ctx, owner, collection, ranges)
	if err != nil {
		return nil, err
	}
	out := res.Strings()
	return &RangesResponse{
		Ranges:  out,
		Outcome: string(res.Outcome),
		Token:   syncx.EncodeRanges(out),
	}, nil
}

// Push extracts sync metadata from client items and writes them. The update
// time is read at the configured timestamp path first, then from the usual
// timestamp fields.
func (s *RangeService) Push(ctx context.Context, owner, collection string, items []map[string]any) ([]PushAck, error) {
	logger := log.Ctx(ctx)
	path := s.path()

	acks := make([]PushAck, len(items))
	toWrite := make([]store.PushItem, 0, len(items))
	slots := make([]int, 0, len(items))

	for i, item := range items {
		ts, ok, err := rangle.Timestamp(item, path)
		if err != nil {
			return nil, err
		}

		ext, err := syncx.ExtractWithTime(item, ts, ok)
		if err != nil {
			logger.Warn().Err(err).Interface("item", item).Msg("failed to extract sync metadata")
			acks[i] = PushAck{Error: err.Error()}
			if ext.UID != uuid.Nil {
				acks[i].UID = ext.UID.String()
			}
			continue
		}

		// Serialize payload back to JSON for storage
		payloadJSON, err := json.Marshal(item)
		if err != nil {
			logger.Error().Err(err).Str("uid", ext.UID.String()).Msg("failed to marshal payload")
			acks[i] = PushAck{
				UID:       ext.UID.String(),
				Version:   ext.Version,
				UpdatedAt: syncx.RFC3339(ext.UpdatedAtMs),
				Error:     "payload serialization error",
			}
			continue
		}

		toWrite = append(toWrite, store.PushItem{Meta: ext, Payload: payloadJSON})
		slots = append(slots, i)
	}

	if len(toWrite) == 0 {
		return acks, nil
	}

	written, err := s.Store.Push(ctx, owner, collection, toWrite)
	if err != nil {
		metrics.ReportStoreError("push")
		logger.Error().Err(err).Str("collection", collection).Msg("failed to push items")
		return nil, fmt.Errorf("push items: %w", err)
	}

	for j, w := range written {
		ack := PushAck{
			UID:       w.UID,
			Version:   w.Version,
			UpdatedAt: syncx.RFC3339(w.UpdatedAtMs),
		}
		if w.Err != nil {
			ack.Error = w.Err.Error()
		}
		acks[slots[j]] = ack
	}

	return acks, nil
}

// Pull returns the items of collection inside (from, to]; a nil to is open-ended
func (s *RangeService) Pull(ctx context.Context, owner, collection string, from int64, to *int64, limit int) (*PullResponse, error) {
	logger := log.Ctx(ctx)

	rows, err := s.Store.ListRange(ctx, owner, collection, from, to, limit)
	if err != nil {
		metrics.ReportStoreError("list_range")
		logger.Error().Err(err).Str("collection", collection).Msg("failed to list range")
		return nil, fmt.Errorf("list range: %w", err)
	}

	upserts := make([]map[string]any, 0, len(rows))
	deletes := make([]map[string]any, 0)

	for _, r := range rows {
		if r.DeletedAtMs != nil {
			// Tombstone - return as delete
			deletes = append(deletes, map[string]any{
				"uid":       r.UID,
				"deletedAt": syncx.RFC3339(*r.DeletedAtMs),
			})
			continue
		}

		var payload map[string]any
		if err := json.Unmarshal(r.Payload, &payload); err != nil {
			logger.Error().Err(err).Str("uid", r.UID).Msg("failed to decode stored payload")
			return nil, fmt.Errorf("decode payload %s: %w", r.UID, err)
		}
		upserts = append(upserts, payload)
	}

	return &PullResponse{
		Upserts: upserts,
		Deletes: deletes,
		HasMore: len(rows) == limit,
	}, nil
}
