// Package sqlite provides the SQLite Execution Adapter on mattn/go-sqlite3.
package sqlite

import (
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver

	"github.com/sherpa-db/sherpa/config"
	"github.com/sherpa-db/sherpa/database/internal/sqlconn"
	dbtypes "github.com/sherpa-db/sherpa/database/types"
	"github.com/sherpa-db/sherpa/logger"
)

const driverName = "sqlite3"

var openSQLiteDB = func(dsn string) (*sql.DB, error) {
	return sql.Open(driverName, dsn)
}

// BuildDSN returns the go-sqlite3 DSN for cfg.
func BuildDSN(cfg *config.DatabaseConfig) string {
	if cfg.ConnectionString != "" {
		return cfg.ConnectionString
	}
	return cfg.SQLite.Path
}

// isMemory reports whether dsn names a private in-memory database.
// Each pooled connection would see its own empty database, so the pool is pinned to one.
func isMemory(dsn string) bool {
	return dsn == ":memory:" || (strings.Contains(dsn, "mode=memory") && !strings.Contains(dsn, "cache=shared"))
}

// NewConnection opens a SQLite database. Statements use ? placeholders.
func NewConnection(cfg *config.DatabaseConfig, log logger.Logger) (dbtypes.Interface, error) {
	if log == nil {
		log = logger.Nop()
	}

	dsn := BuildDSN(cfg)

	db, err := openSQLiteDB(dsn)
	if err != nil {
		return nil, dbtypes.NewConnectionError(dbtypes.SQLite, err)
	}

	pool := cfg.Pool
	if isMemory(dsn) {
		pool.Max.Connections = 1
		pool.Idle.Connections = 1
		pool.Lifetime.Max = 0
		pool.Idle.Time = 0
	}

	conn, err := sqlconn.Open(db, dbtypes.SQLite, &pool, log)
	if err != nil {
		return nil, err
	}

	log.Info().Str("path", dsn).Msg("Opened SQLite database")

	return conn, nil
}
