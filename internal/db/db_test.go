package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteSchema(t *testing.T) {
	ctx := context.Background()
	sqlDB, err := Open(DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, Ping(ctx, sqlDB))
	require.NoError(t, EnsureSchema(ctx, sqlDB))
	// Idempotent.
	require.NoError(t, EnsureSchema(ctx, sqlDB))

	var n int
	require.NoError(t, sqlDB.GetContext(ctx, &n, `SELECT COUNT(*) FROM kv_store`))
	assert.Zero(t, n)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}
