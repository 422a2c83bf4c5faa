package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countLadders(t *testing.T, database DBTX) int {
	t.Helper()
	var n int
	require.NoError(t, database.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM ladders`).Scan(&n))
	return n
}

func TestUnitOfWork_CommitsOnSuccess(t *testing.T) {
	database, err := OpenDB(":memory:")
	require.NoError(t, err)
	defer database.Close()

	uow := NewSQLiteUnitOfWork(database)
	err = uow.WithinTx(context.Background(), func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO ladders (account_id, slot, updated_at) VALUES ('acc', 'active', 'now')`)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, 1, countLadders(t, database))
}

func TestUnitOfWork_RollsBackOnError(t *testing.T) {
	database, err := OpenDB(":memory:")
	require.NoError(t, err)
	defer database.Close()

	boom := errors.New("boom")
	uow := NewSQLiteUnitOfWork(database)
	err = uow.WithinTx(context.Background(), func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO ladders (account_id, slot, updated_at) VALUES ('acc', 'active', 'now')`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, 0, countLadders(t, database))
}

func TestUnitOfWork_RollsBackOnPanic(t *testing.T) {
	database, err := OpenDB(":memory:")
	require.NoError(t, err)
	defer database.Close()

	uow := NewSQLiteUnitOfWork(database)
	assert.Panics(t, func() {
		_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx DBTX) error {
			_, _ = tx.ExecContext(ctx, `INSERT INTO ladders (account_id, slot, updated_at) VALUES ('acc', 'active', 'now')`)
			panic("boom")
		})
	})

	assert.Equal(t, 0, countLadders(t, database))
}
