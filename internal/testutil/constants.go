// Package testutil provides shared constants and helpers for tests across sherpa.
package testutil

import (
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sherpa-db/sherpa/config"
)

const (
	// TestError is a generic error message for test error scenarios.
	TestError = "test error"

	// TestConnectionRefused is the network error message used for connection failures.
	TestConnectionRefused = "connection refused"

	// TestHost is the hostname used in test configurations.
	TestHost = "localhost"

	TestTableUsers = "users"
)

// NewSQLMock returns a sqlmock database matching SQL exactly and verifying
// expectations when the test ends. Exact matching keeps $1 and ? placeholders
// from being read as regular expressions.
func NewSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	return db, mock
}

// SQLiteMemoryConfig returns a configuration for a private in-memory SQLite database.
func SQLiteMemoryConfig() *config.DatabaseConfig {
	return &config.DatabaseConfig{
		Type:   config.SQLite,
		SQLite: config.SQLiteConfig{Path: ":memory:"},
		Query: config.QueryConfig{
			Slow: config.SlowQueryConfig{Enabled: true, Threshold: 200 * time.Millisecond},
		},
	}
}
