package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/taxdesk/internal/kv/postgres"
)

var (
	lockQuery   = regexp.QuoteMeta("SELECT pg_advisory_xact_lock($1)")
	selectQuery = regexp.QuoteMeta("SELECT value FROM kv_entries WHERE key = $1")
	upsertQuery = regexp.QuoteMeta("INSERT INTO kv_entries (key, value, updated_at)")
)

func newStore(t *testing.T) (*postgres.Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return postgres.New(db), mock
}

func TestSession_GetAndSet(t *testing.T) {
	ctx := context.Background()
	store, mock := newStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(lockQuery).WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(selectQuery).WithArgs("revenues").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("[]"))
	mock.ExpectQuery(selectQuery).WithArgs("expenses").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(upsertQuery).WithArgs("expenses", "[]").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s, err := store.Open(ctx)
	require.NoError(t, err)

	defer s.Rollback()

	v, found, err := s.Get(ctx, "revenues")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[]", v)

	_, found, err = s.Get(ctx, "expenses")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "expenses", "[]"))
	require.NoError(t, s.Commit())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSession_OpenFailsWhenLockFails(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(lockQuery).WithArgs(sqlmock.AnyArg()).WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	_, err := store.Open(context.Background())
	assert.ErrorContains(t, err, "acquiring kv lock")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSession_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	store, mock := newStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(lockQuery).WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(upsertQuery).WithArgs("revenues", "[]").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	s, err := store.Open(ctx)
	require.NoError(t, err)

	err = s.Set(ctx, "revenues", "[]")
	assert.ErrorContains(t, err, "disk full")
	require.NoError(t, s.Rollback())

	assert.NoError(t, mock.ExpectationsWereMet())
}
