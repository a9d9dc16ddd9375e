package database

import (
	"fmt"
	"slices"

	"github.com/sherpa-db/sherpa/config"
	"github.com/sherpa-db/sherpa/database/internal/tracking"
	"github.com/sherpa-db/sherpa/database/mysql"
	"github.com/sherpa-db/sherpa/database/oracle"
	"github.com/sherpa-db/sherpa/database/postgresql"
	"github.com/sherpa-db/sherpa/database/sqlite"
	"github.com/sherpa-db/sherpa/logger"
)

// Connector opens an Execution Adapter for one database configuration.
type Connector func(*config.DatabaseConfig, logger.Logger) (Interface, error)

var connectors = map[string]Connector{
	PostgreSQL: postgresql.NewConnection,
	Oracle:     oracle.NewConnection,
	MySQL:      mysql.NewConnection,
	SQLite:     sqlite.NewConnection,
}

// NewConnection creates a database connection according to cfg and returns it wrapped
// with query tracking. The adapter is selected by cfg.Type. An unsupported type returns
// a *config.ConfigError; if the adapter fails to open, its error is returned unchanged.
func NewConnection(cfg *config.DatabaseConfig, log logger.Logger) (Interface, error) {
	if cfg == nil {
		return nil, config.ErrNotConfigured
	}
	if log == nil {
		log = logger.Nop()
	}

	connect, ok := connectors[cfg.Type]
	if !ok {
		return nil, unsupportedTypeError(cfg.Type)
	}

	conn, err := connect(cfg, log)
	if err != nil {
		return nil, err
	}

	return tracking.NewConnection(conn, log, cfg), nil
}

// ValidateDatabaseType returns nil if dbType is one of the supported database types.
func ValidateDatabaseType(dbType string) error {
	if !slices.Contains(SupportedDatabaseTypes(), dbType) {
		return unsupportedTypeError(dbType)
	}
	return nil
}

// SupportedDatabaseTypes returns the supported vendor identifiers.
func SupportedDatabaseTypes() []string {
	return []string{PostgreSQL, Oracle, MySQL, SQLite}
}

func unsupportedTypeError(dbType string) error {
	return config.NewInvalidFieldError("database.type",
		fmt.Sprintf("unsupported database type %q", dbType),
		SupportedDatabaseTypes())
}
