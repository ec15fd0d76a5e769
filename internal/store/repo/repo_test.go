package repo

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kv interface {
	Get(ctx context.Context, key string) ([]byte, int64, error)
	Put(ctx context.Context, key string, value []byte, expected int64) (int64, error)
	Delete(ctx context.Context, key string) error
}

func exerciseContract(t *testing.T, r kv) {
	t.Helper()
	ctx := context.Background()

	_, _, err := r.Get(ctx, "ctf_users")
	require.ErrorIs(t, err, ErrNotFound)

	v, err := r.Put(ctx, "ctf_users", []byte(`[]`), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	_, err = r.Put(ctx, "ctf_users", []byte(`[1]`), 0)
	assert.ErrorIs(t, err, ErrVersionConflict, "create-only must fail once the key exists")

	v, err = r.Put(ctx, "ctf_users", []byte(`[{"id":"a"}]`), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	_, err = r.Put(ctx, "ctf_users", []byte(`[]`), 1)
	assert.ErrorIs(t, err, ErrVersionConflict, "stale version must be rejected")

	got, ver, err := r.Get(ctx, "ctf_users")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a"}]`, string(got))
	assert.Equal(t, int64(2), ver)

	require.NoError(t, r.Delete(ctx, "ctf_users"))
	_, _, err = r.Get(ctx, "ctf_users")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepoContract(t *testing.T) {
	exerciseContract(t, NewMemoryRepo())
}

func TestRedisRepoContract(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	r := NewRedisRepo(rdb, "test:")
	exerciseContract(t, r)

	_, err := r.Put(context.Background(), "ctf_event", []byte(`{}`), 0)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:ctf_event"), "keys are namespaced by prefix")
}

func TestMemoryRepoGetReturnsCopy(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	_, err := r.Put(ctx, "k", []byte("abc"), 0)
	require.NoError(t, err)
	b, _, _ := r.Get(ctx, "k")
	b[0] = 'z'
	again, _, _ := r.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func newMockRepo(t *testing.T) (*PostgresRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepo(sqlx.NewDb(db, "sqlmock")), mock
}

func TestPostgresRepoGet(t *testing.T) {
	r, mock := newMockRepo(t)
	q := regexp.QuoteMeta(`SELECT value, version FROM ctf_kv WHERE key=$1`)

	mock.ExpectQuery(q).WithArgs("ctf_event").
		WillReturnRows(sqlmock.NewRows([]string{"value", "version"}).AddRow([]byte(`{"status":"live"}`), 3))
	mock.ExpectQuery(q).WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"value", "version"}))

	b, v, err := r.Get(context.Background(), "ctf_event")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"live"}`, string(b))
	assert.Equal(t, int64(3), v)

	_, _, err = r.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepoPut(t *testing.T) {
	r, mock := newMockRepo(t)
	insert := regexp.QuoteMeta(`INSERT INTO ctf_kv (key, value, version, updated_at) VALUES ($1, $2, 1, NOW()) ON CONFLICT (key) DO NOTHING RETURNING version`)
	update := regexp.QuoteMeta(`UPDATE ctf_kv SET value=$2, version=version+1, updated_at=NOW() WHERE key=$1 AND version=$3 RETURNING version`)

	mock.ExpectQuery(insert).WithArgs("ctf_users", `[]`).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))
	mock.ExpectQuery(insert).WithArgs("ctf_users", `[]`).
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectQuery(update).WithArgs("ctf_users", `[1]`, int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(2))
	mock.ExpectQuery(update).WithArgs("ctf_users", `[2]`, int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}))

	ctx := context.Background()
	v, err := r.Put(ctx, "ctf_users", []byte(`[]`), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	_, err = r.Put(ctx, "ctf_users", []byte(`[]`), 0)
	assert.ErrorIs(t, err, ErrVersionConflict)

	v, err = r.Put(ctx, "ctf_users", []byte(`[1]`), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	_, err = r.Put(ctx, "ctf_users", []byte(`[2]`), 1)
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepoEnsureTableAndDelete(t *testing.T) {
	r, mock := newMockRepo(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS ctf_kv").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM ctf_kv WHERE key=$1`)).WithArgs("ctf_current_user").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.EnsureTable(context.Background()))
	require.NoError(t, r.Delete(context.Background(), "ctf_current_user"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
