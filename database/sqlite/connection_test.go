package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sherpa-db/sherpa/config"
	dbtypes "github.com/sherpa-db/sherpa/database/types"
	"github.com/sherpa-db/sherpa/logger"
)

func TestIsMemory(t *testing.T) {
	assert.True(t, isMemory(":memory:"))
	assert.True(t, isMemory("file:test?mode=memory"))
	assert.False(t, isMemory("file:test?mode=memory&cache=shared"))
	assert.False(t, isMemory("/var/lib/app.db"))
}

func TestBuildDSN(t *testing.T) {
	assert.Equal(t, "app.db", BuildDSN(&config.DatabaseConfig{SQLite: config.SQLiteConfig{Path: "app.db"}}))
	assert.Equal(t, "file:x?mode=ro", BuildDSN(&config.DatabaseConfig{
		ConnectionString: "file:x?mode=ro",
		SQLite:           config.SQLiteConfig{Path: "ignored.db"},
	}))
}

// The SQLite driver runs in-process, so these tests exercise the real driver.
func TestNewConnectionInMemory(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Type:   config.SQLite,
		SQLite: config.SQLiteConfig{Path: ":memory:"},
		Pool:   config.PoolConfig{Max: config.PoolMaxConfig{Connections: 25}},
	}

	conn, err := NewConnection(cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	assert.Equal(t, dbtypes.SQLite, conn.DatabaseType())
	stats, err := conn.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats["max_open_connections"])

	ctx := context.Background()
	require.NoError(t, conn.Health(ctx))

	rows, err := conn.Query(ctx, "SELECT 1 AS one, 'x' AS label, NULL AS nothing")
	require.NoError(t, err)
	records, err := dbtypes.ScanRecords(rows)
	require.NoError(t, rows.Close())
	require.NoError(t, err)

	require.Len(t, records, 1)
	one, ok := records[0].Int64("one")
	assert.True(t, ok)
	assert.Equal(t, int64(1), one)
	label, ok := records[0].String("label")
	assert.True(t, ok)
	assert.Equal(t, "x", label)
	assert.True(t, records[0].IsNull("nothing"))
}

func TestQueryErrorIsExecutionError(t *testing.T) {
	conn, err := NewConnection(&config.DatabaseConfig{SQLite: config.SQLiteConfig{Path: ":memory:"}}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.Query(context.Background(), "SELECT * FROM missing_table")

	require.Error(t, err)
	assert.True(t, dbtypes.IsExecutionError(err))
	assert.Contains(t, err.Error(), "no such table")
}

func TestNewConnectionNilLogger(t *testing.T) {
	var (
		conn dbtypes.Interface
		err  error
	)
	require.NotPanics(t, func() {
		conn, err = NewConnection(&config.DatabaseConfig{SQLite: config.SQLiteConfig{Path: ":memory:"}}, nil)
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	assert.NoError(t, conn.Health(context.Background()))
}
