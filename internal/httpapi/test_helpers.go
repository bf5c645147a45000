package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erauner12/rangle-api/internal/auth"
	"github.com/erauner12/rangle-api/internal/rangle"
	"github.com/erauner12/rangle-api/internal/service/rangeservice"
	"github.com/erauner12/rangle-api/internal/store"
)

// memStore is an in-memory rangeservice.Store keyed by uid
type memStore struct {
	stamps map[string]int64
	rows   []store.Row
	err    error

	pushed   []store.PushItem
	gotOwner string
	gotFrom  int64
	gotTo    *int64
	gotLimit int
}

func (m *memStore) Snapshot(ctx context.Context, owner, collection, path string) (rangle.Items, error) {
	m.gotOwner = owner
	if m.err != nil {
		return nil, m.err
	}
	items := make(rangle.Items, len(m.stamps))
	for uid, ts := range m.stamps {
		item, err := rangle.Stamp(path, ts)
		if err != nil {
			return nil, err
		}
		items[uid] = item
	}
	return items, nil
}

func (m *memStore) ListRange(ctx context.Context, owner, collection string, from int64, to *int64, limit int) ([]store.Row, error) {
	m.gotOwner, m.gotFrom, m.gotTo, m.gotLimit = owner, from, to, limit
	return m.rows, m.err
}

func (m *memStore) Push(ctx context.Context, owner, collection string, items []store.PushItem) ([]store.Ack, error) {
	m.gotOwner = owner
	if m.err != nil {
		return nil, m.err
	}
	m.pushed = append(m.pushed, items...)
	acks := make([]store.Ack, len(items))
	for i, it := range items {
		acks[i] = store.Ack{UID: it.Meta.UID.String(), Version: it.Meta.Version + 1, UpdatedAtMs: it.Meta.UpdatedAtMs}
	}
	return acks, nil
}

// newTestRouter wires a dev-mode router over st with a generous rate limit
func newTestRouter(t *testing.T, st *memStore) http.Handler {
	t.Helper()
	return newTestRouterWithLimit(t, st, RateLimitInfo{WindowSeconds: 60, MaxRequests: 6000, Burst: 1000})
}

func newTestRouterWithLimit(t *testing.T, st *memStore, limit RateLimitInfo) http.Handler {
	t.Helper()
	srv := &Server{
		Ranges:          rangeservice.NewRangeService(st, rangle.Options{}),
		RateLimitConfig: limit,
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return srv.Routes(ctx, auth.JWTCfg{DevMode: true})
}

// doRequest sends a JSON request as test-user and returns the recorder
func doRequest(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Debug-Sub", "test-user")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decodeBody decodes a JSON response body into v
func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v (body: %s)", err, w.Body.String())
	}
}
