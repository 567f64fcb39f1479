// Package dbtest connects tests to the PostgreSQL named by
// SQLGUIDE_TEST_DATABASE_URL and skips them when it is unset.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yigit/sqlguide/internal/config"
	"github.com/yigit/sqlguide/internal/db"
)

// EnvVar names the database used by integration tests. The database is
// reseeded by those tests, so never point it at anything you care about.
const EnvVar = "SQLGUIDE_TEST_DATABASE_URL"

// Connect returns a pool for the test database, closed when the test ends.
func Connect(t testing.TB) *db.PostgresDB {
	t.Helper()
	return ConnectWith(t, db.PoolOptions{MaxConns: 8})
}

// ConnectWith is Connect with explicit pool sizing.
func ConnectWith(t testing.TB, opts db.PoolOptions) *db.PostgresDB {
	t.Helper()

	url := config.GetEnv(EnvVar, "")
	if url == "" {
		t.Skipf("%s not set", EnvVar)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	database, err := db.Connect(ctx, url, opts)
	require.NoError(t, err)
	t.Cleanup(database.Close)
	return database
}
