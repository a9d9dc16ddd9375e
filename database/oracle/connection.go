// Package oracle provides the Oracle Execution Adapter on go-ora.
package oracle

import (
	"database/sql"

	go_ora "github.com/sijms/go-ora/v2"

	"github.com/sherpa-db/sherpa/config"
	"github.com/sherpa-db/sherpa/database/internal/sqlconn"
	dbtypes "github.com/sherpa-db/sherpa/database/types"
	"github.com/sherpa-db/sherpa/logger"
)

var openOracleDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("oracle", dsn)
}

// BuildDSN returns the go-ora URL for cfg, or cfg.ConnectionString when set.
// A service name takes precedence over a SID, which takes precedence over Database.
func BuildDSN(cfg *config.DatabaseConfig) string {
	if cfg.ConnectionString != "" {
		return cfg.ConnectionString
	}

	switch {
	case cfg.Oracle.Service.Name != "":
		return go_ora.BuildUrl(cfg.Host, cfg.Port, cfg.Oracle.Service.Name, cfg.Username, cfg.Password, nil)
	case cfg.Oracle.Service.SID != "":
		urlOpts := map[string]string{"SID": cfg.Oracle.Service.SID}
		return go_ora.BuildUrl(cfg.Host, cfg.Port, "", cfg.Username, cfg.Password, urlOpts)
	default:
		return go_ora.BuildUrl(cfg.Host, cfg.Port, cfg.Database, cfg.Username, cfg.Password, nil)
	}
}

// NewConnection opens an Oracle pool. Statements use :1, :2, ... placeholders.
func NewConnection(cfg *config.DatabaseConfig, log logger.Logger) (dbtypes.Interface, error) {
	if log == nil {
		log = logger.Nop()
	}

	db, err := openOracleDB(BuildDSN(cfg))
	if err != nil {
		return nil, dbtypes.NewConnectionError(dbtypes.Oracle, err)
	}

	conn, err := sqlconn.Open(db, dbtypes.Oracle, &cfg.Pool, log)
	if err != nil {
		return nil, err
	}

	ev := log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port)
	switch {
	case cfg.Oracle.Service.Name != "":
		ev = ev.Str("service_name", cfg.Oracle.Service.Name)
	case cfg.Oracle.Service.SID != "":
		ev = ev.Str("sid", cfg.Oracle.Service.SID)
	default:
		ev = ev.Str("database", cfg.Database)
	}
	ev.Msg("Connected to Oracle database")

	return conn, nil
}
