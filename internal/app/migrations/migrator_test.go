package migrations

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/sqlguide/internal/db/dbtest"
)

func TestPending(t *testing.T) {
	names, err := Pending(fstest.MapFS{
		"002_b.sql":   {Data: []byte("SELECT 1;")},
		"001_a.sql":   {Data: []byte("SELECT 1;")},
		"README.md":   {Data: []byte("notes")},
		"old/003.sql": {Data: []byte("SELECT 1;")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.sql", "002_b.sql"}, names)

	bundled, err := Pending(Files())
	require.NoError(t, err)
	assert.Contains(t, bundled, "001_sqlguide_schema.sql")
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "001", Version("001_sqlguide_schema.sql"))
	assert.Equal(t, "042", Version("sql/042_x.sql"))
}

func TestMigrate_Idempotent(t *testing.T) {
	database := dbtest.Connect(t)
	ctx := context.Background()
	m := NewMigrator(database.Pool, Files(), zerolog.Nop())

	_, err := m.Migrate(ctx)
	require.NoError(t, err)

	applied, err := m.Migrate(ctx)
	require.NoError(t, err)
	assert.Zero(t, applied)

	var exists bool
	err = database.Pool.QueryRow(ctx, `SELECT to_regclass('sqlguide.verification_runs') IS NOT NULL`).Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists)
}
