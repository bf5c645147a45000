// Package store persists collection items and serves the metadata snapshots
// used for range reconciliation.
package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/erauner12/rangle-api/internal/rangle"
	"github.com/erauner12/rangle-api/internal/syncx"
	"github.com/rs/zerolog/log"
)

const itemTable = "sync_item"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Row is a stored item as returned by ListRange
type Row struct {
	UID         string
	UpdatedAtMs int64
	DeletedAtMs *int64
	Version     int
	Payload     []byte
}

// PushItem is an extracted item ready to be written
type PushItem struct {
	Meta    syncx.Extracted
	Payload []byte
}

// Ack reports the server-authoritative state of one pushed item
type Ack struct {
	UID         string
	Version     int
	UpdatedAtMs int64
	Err         error
}

// ItemStore reads and writes sync_item rows
type ItemStore struct {
	DB *sql.DB
}

// NewItemStore creates a new ItemStore
func NewItemStore(db *sql.DB) (*ItemStore, error) {
	if db == nil {
		return nil, ErrNilDB
	}
	return &ItemStore{DB: db}, nil
}

func buildSnapshotQuery(owner, collection string) (string, []any, error) {
	return psql.Select("uid", "updated_at_ms").
		From(itemTable).
		Where(sq.Eq{"owner_id": owner}).
		Where(sq.Eq{"collection": collection}).
		ToSql()
}

// Snapshot loads the timestamp of every item (tombstones included) in a
// collection. Each item carries its updated_at_ms at path.
func (s *ItemStore) Snapshot(ctx context.Context, owner, collection, path string) (rangle.Items, error) {
	query, args, err := buildSnapshotQuery(owner, collection)
	if err != nil {
		return nil, fmt.Errorf("build snapshot query: %w", err)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	items := make(rangle.Items)
	for rows.Next() {
		var uid string
		var ms int64
		if err := rows.Scan(&uid, &ms); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		item, err := rangle.Stamp(path, ms)
		if err != nil {
			return nil, err
		}
		items[uid] = item
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot: %w", err)
	}

	return items, nil
}

func buildListRangeQuery(owner, collection string, from int64, to *int64, limit uint64) (string, []any, error) {
	b := psql.Select("uid", "updated_at_ms", "deleted_at_ms", "version", "payload_json").
		From(itemTable).
		Where(sq.Eq{"owner_id": owner}).
		Where(sq.Eq{"collection": collection}).
		Where(sq.Gt{"updated_at_ms": from})
	if to != nil {
		b = b.Where(sq.LtOrEq{"updated_at_ms": *to})
	}
	return b.OrderBy("updated_at_ms", "uid").Limit(limit).ToSql()
}

// ListRange returns items with from < updated_at_ms <= to, ordered by
// timestamp. A nil to means no upper bound.
func (s *ItemStore) ListRange(ctx context.Context, owner, collection string, from int64, to *int64, limit int) ([]Row, error) {
	query, args, err := buildListRangeQuery(owner, collection, from, to, uint64(limit))
	if err != nil {
		return nil, fmt.Errorf("build range query: %w", err)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query range: %w", err)
	}
	defer rows.Close()

	out := make([]Row, 0, limit)
	for rows.Next() {
		var r Row
		var deleted sql.NullInt64
		if err := rows.Scan(&r.UID, &r.UpdatedAtMs, &deleted, &r.Version, &r.Payload); err != nil {
			return nil, fmt.Errorf("scan range row: %w", err)
		}
		if deleted.Valid {
			ms := deleted.Int64
			r.DeletedAtMs = &ms
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate range: %w", err)
	}

	return out, nil
}

func buildUpsertQuery(owner, collection string, it PushItem) (string, []any, error) {
	// Bump version only on strictly newer update so duplicate pushes are idempotent
	return psql.Insert(itemTable).
		Columns("owner_id", "collection", "uid", "updated_at_ms", "deleted_at_ms", "version", "payload_json").
		Values(owner, collection, it.Meta.UID, it.Meta.UpdatedAtMs, it.Meta.DeletedAtMs, sq.Expr("GREATEST(?, 1)", it.Meta.Version), it.Payload).
		Suffix(`ON CONFLICT (owner_id, collection, uid) DO UPDATE SET
			payload_json  = EXCLUDED.payload_json,
			updated_at_ms = EXCLUDED.updated_at_ms,
			deleted_at_ms = EXCLUDED.deleted_at_ms,
			version       = sync_item.version + 1
		WHERE EXCLUDED.updated_at_ms > sync_item.updated_at_ms`).
		ToSql()
}

func buildReadBackQuery(owner, collection string, uid any) (string, []any, error) {
	return psql.Select("version", "updated_at_ms").
		From(itemTable).
		Where(sq.Eq{"owner_id": owner}).
		Where(sq.Eq{"collection": collection}).
		Where(sq.Eq{"uid": uid}).
		ToSql()
}

// Push upserts items with last-write-wins semantics inside one transaction.
// Each item runs under its own savepoint, so a failed item is rolled back and
// reported in its ack while the rest of the batch is still written. The
// returned error is only set when the transaction itself fails.
func (s *ItemStore) Push(ctx context.Context, owner, collection string, items []PushItem) ([]Ack, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	acks := make([]Ack, 0, len(items))
	for _, it := range items {
		if _, err := tx.ExecContext(ctx, "SAVEPOINT push_item"); err != nil {
			return nil, fmt.Errorf("savepoint: %w", err)
		}

		ack := upsertOne(ctx, tx, owner, collection, it)

		release := "RELEASE SAVEPOINT push_item"
		if ack.Err != nil {
			release = "ROLLBACK TO SAVEPOINT push_item"
		}
		if _, err := tx.ExecContext(ctx, release); err != nil {
			return nil, fmt.Errorf("release savepoint: %w", err)
		}
		acks = append(acks, ack)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return acks, nil
}

// upsertOne writes one item and reads back the server-authoritative version
func upsertOne(ctx context.Context, tx *sql.Tx, owner, collection string, it PushItem) Ack {
	ack := Ack{UID: it.Meta.UID.String(), Version: it.Meta.Version, UpdatedAtMs: it.Meta.UpdatedAtMs}

	query, args, err := buildUpsertQuery(owner, collection, it)
	if err == nil {
		_, err = tx.ExecContext(ctx, query, args...)
	}
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("uid", ack.UID).Msg("failed to upsert item")
		ack.Err = err
		return ack
	}

	query, args, err = buildReadBackQuery(owner, collection, it.Meta.UID)
	if err == nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&ack.Version, &ack.UpdatedAtMs)
	}
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("uid", ack.UID).Msg("failed to read item after upsert")
		ack.Err = fmt.Errorf("failed to confirm write: %w", err)
	}
	return ack
}
