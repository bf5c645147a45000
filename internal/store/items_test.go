package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erauner12/rangle-api/internal/rangle"
	"github.com/erauner12/rangle-api/internal/syncx"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestItemStore(t *testing.T) (*ItemStore, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	s, err := NewItemStore(db)
	require.NoError(t, err)
	return s, mock, db
}

func TestNewItemStore_NilDB(t *testing.T) {
	_, err := NewItemStore(nil)
	require.ErrorIs(t, err, ErrNilDB)
}

func Test_buildSnapshotQuery(t *testing.T) {
	query, args, err := buildSnapshotQuery("user-1", "notes")
	require.NoError(t, err)
	require.Equal(t, "SELECT uid, updated_at_ms FROM sync_item WHERE owner_id = $1 AND collection = $2", query)
	require.Equal(t, []any{"user-1", "notes"}, args)
}

func Test_buildListRangeQuery(t *testing.T) {
	to := int64(50)

	query, args, err := buildListRangeQuery("user-1", "notes", 10, &to, 100)
	require.NoError(t, err)
	q := strings.ToLower(query)
	require.Contains(t, q, "updated_at_ms > $3")
	require.Contains(t, q, "updated_at_ms <= $4")
	require.Contains(t, q, "order by updated_at_ms, uid")
	require.Contains(t, q, "limit 100")
	require.Equal(t, []any{"user-1", "notes", int64(10), int64(50)}, args)

	query, args, err = buildListRangeQuery("user-1", "notes", 10, nil, 100)
	require.NoError(t, err)
	require.NotContains(t, query, "<=")
	require.Len(t, args, 3)
}

func Test_buildUpsertQuery(t *testing.T) {
	it := PushItem{
		Meta:    syncx.Extracted{UID: uuid.MustParse("c1d9b7dc-a1b2-4c3d-9e8f-7a6b5c4d3e2f"), UpdatedAtMs: 42, Version: 1},
		Payload: []byte(`{}`),
	}
	query, args, err := buildUpsertQuery("user-1", "notes", it)
	require.NoError(t, err)
	require.Contains(t, query, "INSERT INTO sync_item")
	require.Contains(t, query, "GREATEST($6, 1)")
	require.Contains(t, query, "WHERE EXCLUDED.updated_at_ms > sync_item.updated_at_ms")
	require.Len(t, args, 7)
}

func TestSnapshot(t *testing.T) {
	s, mock, db := newTestItemStore(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"uid", "updated_at_ms"}).
		AddRow("a", int64(10)).
		AddRow("b", int64(25))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT uid, updated_at_ms FROM sync_item")).
		WithArgs("user-1", "notes").
		WillReturnRows(rows)

	items, err := s.Snapshot(context.Background(), "user-1", "notes", "meta.ts")
	require.NoError(t, err)
	require.Equal(t, rangle.Items{
		"a": {"meta": map[string]any{"ts": int64(10)}},
		"b": {"meta": map[string]any{"ts": int64(25)}},
	}, items)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshot_QueryError(t *testing.T) {
	s, mock, db := newTestItemStore(t)
	defer db.Close()

	mock.ExpectQuery("FROM sync_item").WillReturnError(errors.New("boom"))

	_, err := s.Snapshot(context.Background(), "user-1", "notes", rangle.DefaultPath)
	require.ErrorContains(t, err, "query snapshot")
}

func TestListRange(t *testing.T) {
	s, mock, db := newTestItemStore(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"uid", "updated_at_ms", "deleted_at_ms", "version", "payload_json"}).
		AddRow("a", int64(11), nil, 1, []byte(`{"uid":"a"}`)).
		AddRow("b", int64(12), int64(12), 3, []byte(`{"uid":"b"}`))
	mock.ExpectQuery("FROM sync_item").
		WithArgs("user-1", "notes", int64(10), int64(20)).
		WillReturnRows(rows)

	to := int64(20)
	got, err := s.ListRange(context.Background(), "user-1", "notes", 10, &to, 500)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Nil(t, got[0].DeletedAtMs)
	require.Equal(t, `{"uid":"a"}`, string(got[0].Payload))
	require.NotNil(t, got[1].DeletedAtMs)
	require.EqualValues(t, 12, *got[1].DeletedAtMs)
	require.Equal(t, 3, got[1].Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPush(t *testing.T) {
	s, mock, db := newTestItemStore(t)
	defer db.Close()

	id := uuid.MustParse("c1d9b7dc-a1b2-4c3d-9e8f-7a6b5c4d3e2f")
	items := []PushItem{{
		Meta:    syncx.Extracted{UID: id, UpdatedAtMs: 1730635200000, Version: 1},
		Payload: []byte(`{"uid":"c1d9b7dc-a1b2-4c3d-9e8f-7a6b5c4d3e2f"}`),
	}}

	mock.ExpectBegin()
	mock.ExpectExec("^SAVEPOINT push_item$").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO sync_item").
		WithArgs("user-1", "notes", sqlmock.AnyArg(), int64(1730635200000), nil, 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT version, updated_at_ms FROM sync_item").
		WillReturnRows(sqlmock.NewRows([]string{"version", "updated_at_ms"}).AddRow(2, int64(1730635200000)))
	mock.ExpectExec("^RELEASE SAVEPOINT push_item$").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	acks, err := s.Push(context.Background(), "user-1", "notes", items)
	require.NoError(t, err)
	require.Len(t, acks, 1)
	require.NoError(t, acks[0].Err)
	require.Equal(t, id.String(), acks[0].UID)
	require.Equal(t, 2, acks[0].Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPush_ItemErrorKeepsBatch(t *testing.T) {
	s, mock, db := newTestItemStore(t)
	defer db.Close()

	bad := uuid.MustParse("0b7c1f8e-3a55-4d6e-9f00-112233445566")
	good := uuid.MustParse("c1d9b7dc-a1b2-4c3d-9e8f-7a6b5c4d3e2f")
	items := []PushItem{
		{Meta: syncx.Extracted{UID: bad, UpdatedAtMs: 1, Version: 1}, Payload: []byte(`{}`)},
		{Meta: syncx.Extracted{UID: good, UpdatedAtMs: 2, Version: 1}, Payload: []byte(`{}`)},
	}

	mock.ExpectBegin()
	mock.ExpectExec("^SAVEPOINT push_item$").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO sync_item").WillReturnError(errors.New("constraint"))
	mock.ExpectExec("^ROLLBACK TO SAVEPOINT push_item$").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("^SAVEPOINT push_item$").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO sync_item").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT version, updated_at_ms FROM sync_item").
		WillReturnRows(sqlmock.NewRows([]string{"version", "updated_at_ms"}).AddRow(1, int64(2)))
	mock.ExpectExec("^RELEASE SAVEPOINT push_item$").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	acks, err := s.Push(context.Background(), "user-1", "notes", items)
	require.NoError(t, err)
	require.Len(t, acks, 2)
	require.Error(t, acks[0].Err)
	require.Equal(t, bad.String(), acks[0].UID)
	require.NoError(t, acks[1].Err)
	require.Equal(t, good.String(), acks[1].UID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPush_SavepointError(t *testing.T) {
	s, mock, db := newTestItemStore(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("^SAVEPOINT push_item$").WillReturnError(errors.New("conn reset"))
	mock.ExpectRollback()

	_, err := s.Push(context.Background(), "user-1", "notes",
		[]PushItem{{Meta: syncx.Extracted{UID: uuid.New(), UpdatedAtMs: 1, Version: 1}, Payload: []byte(`{}`)}})
	require.ErrorContains(t, err, "savepoint")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPush_BeginError(t *testing.T) {
	s, mock, db := newTestItemStore(t)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("no conn"))

	_, err := s.Push(context.Background(), "user-1", "notes", nil)
	require.ErrorContains(t, err, "begin transaction")
}
