package sql

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/persistence/dialect"
	"github.com/syssam/persistence/logging"
)

func TestKindOf(t *testing.T) {
	tests := map[string]Kind{
		"SELECT * FROM t":        KindSelect,
		"  insert INTO t (a)":    KindInsert,
		"UPDATE t SET a = 1":     KindUpdate,
		"DELETE FROM t":          KindDelete,
		"CREATE TABLE t (a INT)": KindOther,
		"":                       KindOther,
	}
	for query, want := range tests {
		assert.Equal(t, want, KindOf(query), query)
	}
}

func TestStatsDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var slow []logging.Entry
	drv := NewStatsDriver(OpenDB(dialect.SQLite, db),
		WithSlowThreshold(time.Hour),
		WithSlowHook(func(_ context.Context, e logging.Entry, _ time.Duration) {
			slow = append(slow, e)
		}),
	)
	ctx := context.Background()

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	rows, err := drv.Query(ctx, "SELECT 1", nil)
	require.NoError(t, err)
	require.NoError(t, rows.Close())

	mock.ExpectExec("DELETE").WillReturnError(errors.New("locked"))
	_, err = drv.Exec(ctx, "DELETE FROM t", nil)
	require.Error(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	tx, err := drv.Tx(ctx)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, "INSERT INTO t VALUES (1)", nil)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	mock.ExpectBegin()
	mock.ExpectRollback()
	tx, err = drv.Tx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())

	snap := drv.Stats().Snapshot()
	assert.Equal(t, map[Kind]int64{KindSelect: 1, KindDelete: 1, KindInsert: 1}, snap.Statements)
	assert.EqualValues(t, 3, snap.Total())
	assert.EqualValues(t, 1, snap.Errors)
	assert.EqualValues(t, 1, snap.Commits)
	assert.EqualValues(t, 1, snap.Rollbacks)
	assert.Zero(t, snap.Slow)
	assert.Empty(t, slow)
	assert.Contains(t, snap.String(), "select=1 insert=1 update=0 delete=1")
	assert.Equal(t, dialect.SQLite, drv.Dialect())

	drv.Stats().Reset()
	snap = drv.Stats().Snapshot()
	assert.Zero(t, snap.Total())
	assert.Zero(t, snap.Avg())
	assert.Zero(t, snap.Commits)
}

func TestStatsDriverSlow(t *testing.T) {
	t.Run("slog", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		var buf bytes.Buffer
		drv := NewStatsDriver(OpenDB(dialect.MySQL, db),
			WithSlowSlog(slog.New(slog.NewTextHandler(&buf, nil))))
		drv.SetSlowThreshold(-1)
		assert.Equal(t, time.Duration(-1), drv.SlowThreshold())

		mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 1))
		_, err = drv.Exec(context.Background(), "UPDATE t SET a = ?", []any{1})
		require.NoError(t, err)

		assert.EqualValues(t, 1, drv.Stats().Snapshot().Slow)
		assert.Contains(t, buf.String(), "slow statement")
		assert.Contains(t, buf.String(), "scope=mysql")
		assert.Contains(t, buf.String(), "UPDATE t SET a = ?")
	})

	t.Run("sink", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		var got []logging.Entry
		sink := logging.LoggerFunc(func(_ context.Context, e logging.Entry) error {
			got = append(got, e)
			return nil
		})
		drv := NewStatsDriver(OpenDB(dialect.Postgres, db), WithSlowThreshold(-1), WithSlowLog(sink))

		mock.ExpectExec("DELETE").WillReturnResult(sqlmock.NewResult(0, 2))
		_, err = drv.Exec(context.Background(), "DELETE FROM t WHERE a = $1", []any{7})
		require.NoError(t, err)

		require.Len(t, got, 1)
		assert.Equal(t, "DELETE FROM t WHERE a = $1", got[0].Command)
		assert.Equal(t, []any{7}, got[0].Parameters)
		assert.Equal(t, dialect.Postgres, got[0].Scope)
		assert.False(t, got[0].Time.IsZero())
	})
}
