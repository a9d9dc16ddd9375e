// Package mysql provides the MySQL Execution Adapter on go-sql-driver/mysql.
package mysql

import (
	"database/sql"
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"github.com/sherpa-db/sherpa/config"
	"github.com/sherpa-db/sherpa/database/internal/sqlconn"
	dbtypes "github.com/sherpa-db/sherpa/database/types"
	"github.com/sherpa-db/sherpa/logger"
)

var openMySQLDB = func(cfg *mysql.Config) (*sql.DB, error) {
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, err
	}
	return sql.OpenDB(connector), nil
}

// ParseConfig builds the driver configuration for cfg. A connection string is
// parsed as a go-sql-driver DSN. Temporal columns are always decoded as time.Time.
func ParseConfig(cfg *config.DatabaseConfig) (*mysql.Config, error) {
	var mc *mysql.Config
	if cfg.ConnectionString != "" {
		parsed, err := mysql.ParseDSN(cfg.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("failed to parse MySQL DSN: %w", err)
		}
		mc = parsed
	} else {
		mc = mysql.NewConfig()
		mc.User = cfg.Username
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		mc.DBName = cfg.Database
	}
	mc.ParseTime = true
	return mc, nil
}

// NewConnection opens a MySQL pool. Statements use ? placeholders.
func NewConnection(cfg *config.DatabaseConfig, log logger.Logger) (dbtypes.Interface, error) {
	if log == nil {
		log = logger.Nop()
	}

	mc, err := ParseConfig(cfg)
	if err != nil {
		return nil, dbtypes.NewConnectionError(dbtypes.MySQL, err)
	}

	db, err := openMySQLDB(mc)
	if err != nil {
		return nil, dbtypes.NewConnectionError(dbtypes.MySQL, err)
	}

	conn, err := sqlconn.Open(db, dbtypes.MySQL, &cfg.Pool, log)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("addr", mc.Addr).
		Str("database", mc.DBName).
		Msg("Connected to MySQL database")

	return conn, nil
}
