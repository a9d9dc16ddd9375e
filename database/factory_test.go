package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sherpa-db/sherpa/config"
	"github.com/sherpa-db/sherpa/database/internal/tracking"
	"github.com/sherpa-db/sherpa/internal/testutil"
	"github.com/sherpa-db/sherpa/logger"
)

func TestNewConnectionWrapsAdapterWithTracking(t *testing.T) {
	conn, err := NewConnection(testutil.SQLiteMemoryConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	tracked, ok := conn.(*tracking.Connection)
	require.True(t, ok, "expected tracked connection, got %T", conn)
	assert.Equal(t, SQLite, tracked.Unwrap().DatabaseType())
	assert.Equal(t, SQLite, conn.DatabaseType())
	assert.NoError(t, conn.Health(context.Background()))
}

func TestNewConnectionRejectsUnsupportedType(t *testing.T) {
	_, err := NewConnection(&config.DatabaseConfig{Type: "mongodb"}, logger.Nop())

	require.Error(t, err)
	assert.True(t, config.IsConfigError(err))
	assert.Contains(t, err.Error(), `unsupported database type "mongodb"`)
	assert.Contains(t, err.Error(), "postgresql, oracle, mysql, sqlite")
}

func TestNewConnectionRequiresConfig(t *testing.T) {
	_, err := NewConnection(nil, logger.Nop())
	assert.ErrorIs(t, err, config.ErrNotConfigured)
}

func TestNewConnectionReturnsAdapterErrors(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Type:   config.SQLite,
		SQLite: config.SQLiteConfig{Path: "file:/nonexistent-dir/sherpa.db?mode=ro"},
	}

	_, err := NewConnection(cfg, logger.Nop())
	require.Error(t, err)
	assert.False(t, config.IsConfigError(err))
}

func TestValidateDatabaseType(t *testing.T) {
	for _, vendor := range SupportedDatabaseTypes() {
		assert.NoError(t, ValidateDatabaseType(vendor), vendor)
	}
	assert.Error(t, ValidateDatabaseType("sqlserver"))
	assert.Error(t, ValidateDatabaseType(""))
}
