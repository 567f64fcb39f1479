package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/sqlguide/internal/db"
	"github.com/yigit/sqlguide/internal/db/dbtest"
)

func TestConnect_InvalidURL(t *testing.T) {
	_, err := db.Connect(context.Background(), "://nope", db.PoolOptions{})
	assert.ErrorContains(t, err, "failed to parse pgxpool config")
}

func TestWithTransaction(t *testing.T) {
	database := dbtest.Connect(t)
	ctx := context.Background()

	_, err := database.Pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS sqlguide_tx_probe (n int)`)
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = database.Pool.Exec(context.Background(), `DROP TABLE IF EXISTS sqlguide_tx_probe`) })

	errBoom := errors.New("boom")
	err = database.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO sqlguide_tx_probe VALUES (1)`); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	err = database.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO sqlguide_tx_probe VALUES (2)`)
		return err
	})
	require.NoError(t, err)

	rows, err := database.Pool.Query(ctx, `SELECT n FROM sqlguide_tx_probe ORDER BY n`)
	require.NoError(t, err)
	values, err := pgx.CollectRows(rows, pgx.RowTo[int])
	require.NoError(t, err)
	assert.Equal(t, []int{2}, values)
}
