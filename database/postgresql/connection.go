// Package postgresql provides the PostgreSQL Execution Adapter on pgx/v5.
package postgresql

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/sherpa-db/sherpa/config"
	"github.com/sherpa-db/sherpa/database/internal/sqlconn"
	dbtypes "github.com/sherpa-db/sherpa/database/types"
	"github.com/sherpa-db/sherpa/logger"
)

var openPostgresDB = func(cfg *pgx.ConnConfig) *sql.DB {
	return stdlib.OpenDB(*cfg)
}

// quoteDSN quotes a DSN value according to libpq rules:
// - Returns double single quotes for empty strings (empty value)
// - Escapes backslashes and single quotes
// - Wraps in single quotes when value contains non-alphanumeric/._- characters
func quoteDSN(value string) string {
	if value == "" {
		return "''"
	}

	needsQuoting := false
	for _, r := range value {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') &&
			(r < '0' || r > '9') && r != '.' && r != '_' && r != '-' {
			needsQuoting = true
			break
		}
	}

	if !needsQuoting {
		return value
	}

	escaped := strings.ReplaceAll(value, "\\", "\\\\")
	escaped = strings.ReplaceAll(escaped, "'", "\\'")

	return "'" + escaped + "'"
}

// BuildDSN returns the libpq keyword/value DSN for cfg, or cfg.ConnectionString when set.
func BuildDSN(cfg *config.DatabaseConfig) string {
	if cfg.ConnectionString != "" {
		return cfg.ConnectionString
	}

	parts := []string{
		fmt.Sprintf("host=%s", quoteDSN(cfg.Host)),
		fmt.Sprintf("port=%d", cfg.Port),
		fmt.Sprintf("user=%s", quoteDSN(cfg.Username)),
		fmt.Sprintf("password=%s", quoteDSN(cfg.Password)),
		fmt.Sprintf("dbname=%s", quoteDSN(cfg.Database)),
	}

	if cfg.PostgreSQL.SSLMode != "" {
		parts = append(parts, fmt.Sprintf("sslmode=%s", cfg.PostgreSQL.SSLMode))
	}

	return strings.Join(parts, " ")
}

// NewConnection opens a PostgreSQL pool through the pgx stdlib driver.
// Statements use $1, $2, ... placeholders.
func NewConnection(cfg *config.DatabaseConfig, log logger.Logger) (dbtypes.Interface, error) {
	if log == nil {
		log = logger.Nop()
	}

	pgxConfig, err := pgx.ParseConfig(BuildDSN(cfg))
	if err != nil {
		return nil, dbtypes.NewConnectionError(dbtypes.PostgreSQL, fmt.Errorf("failed to parse PostgreSQL config: %w", err))
	}

	conn, err := sqlconn.Open(openPostgresDB(pgxConfig), dbtypes.PostgreSQL, &cfg.Pool, log)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("host", pgxConfig.Host).
		Int("port", int(pgxConfig.Port)).
		Str("database", pgxConfig.Database).
		Msg("Connected to PostgreSQL database")

	return conn, nil
}
