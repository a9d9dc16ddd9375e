package database

import "github.com/sherpa-db/sherpa/database/types"

// Re-export database vendor identifiers so callers of the database package
// do not need to import types while the single source of truth lives there.
const (
	PostgreSQL = types.PostgreSQL
	Oracle     = types.Oracle
	MySQL      = types.MySQL
	SQLite     = types.SQLite
)
