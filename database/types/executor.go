// Package types contains the core database vocabulary and interfaces for sherpa.
// These types are separate from the main database package to avoid import cycles
// and to make them easily accessible for mocking and testing.
//
//nolint:revive // Package name "types" is intentionally generic to avoid circular
package types

import (
	"context"
	"database/sql"
)

// Database vendor identifiers shared across the database packages.
type Vendor = string

const (
	PostgreSQL Vendor = "postgresql"
	Oracle     Vendor = "oracle"
	MySQL      Vendor = "mysql"
	SQLite     Vendor = "sqlite"
)

// Executor runs compiled statements. It is the boundary between the query
// builder and a concrete driver.
//
// Implementations must surface driver failures as errors; an empty result set
// always means that no rows matched.
type Executor interface {
	// Query executes a statement that returns rows. The caller closes the rows.
	//
	// The query uses the vendor's placeholder style:
	//   - PostgreSQL: $1, $2, $3
	//   - Oracle: :1, :2, :3
	//   - MySQL, SQLite: ?
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)

	// DatabaseType returns the vendor identifier for this connection.
	// The query builder uses it to select the placeholder format.
	DatabaseType() string
}

// Interface is an Executor that owns a connection pool.
type Interface interface {
	Executor

	// Health pings the database.
	Health(ctx context.Context) error

	// Stats returns connection pool statistics.
	Stats() (map[string]any, error)

	// Close releases the connection pool.
	Close() error
}
