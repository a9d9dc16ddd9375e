// Package sqlconn implements the parts of an Execution Adapter shared by every
// database/sql driver: pool configuration, connectivity checks, statistics and
// the mapping of driver failures to sherpa's error types.
package sqlconn

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"time"

	"github.com/sherpa-db/sherpa/config"
	dbtypes "github.com/sherpa-db/sherpa/database/types"
	"github.com/sherpa-db/sherpa/logger"
)

const (
	// ConnectTimeout bounds the ping performed by Open.
	ConnectTimeout = 10 * time.Second

	// HealthTimeout bounds the ping performed by Health.
	HealthTimeout = 5 * time.Second
)

// Connection adapts a *sql.DB to dbtypes.Interface.
type Connection struct {
	db     *sql.DB
	vendor string
	logger logger.Logger
}

var _ dbtypes.Interface = (*Connection)(nil)

// Open applies the pool settings to db and verifies connectivity.
// On ping failure db is closed and a *dbtypes.ConnectionError is returned.
func Open(db *sql.DB, vendor string, pool *config.PoolConfig, log logger.Logger) (*Connection, error) {
	if log == nil {
		log = logger.Nop()
	}

	if pool != nil {
		ConfigurePool(db, pool)
	}

	ctx, cancel := context.WithTimeout(context.Background(), ConnectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error().Err(closeErr).Str("vendor", vendor).Msg("Failed to close database connection after ping failure")
		}
		return nil, dbtypes.NewConnectionError(vendor, err)
	}

	return New(db, vendor, log), nil
}

// New wraps an already verified db.
func New(db *sql.DB, vendor string, log logger.Logger) *Connection {
	if log == nil {
		log = logger.Nop()
	}
	return &Connection{db: db, vendor: vendor, logger: log}
}

// ConfigurePool applies pool to db. Zero values leave the database/sql default.
func ConfigurePool(db *sql.DB, pool *config.PoolConfig) {
	if pool.Max.Connections > 0 {
		db.SetMaxOpenConns(int(pool.Max.Connections))
	}
	if pool.Idle.Connections > 0 {
		db.SetMaxIdleConns(int(pool.Idle.Connections))
	}
	if pool.Lifetime.Max > 0 {
		db.SetConnMaxLifetime(pool.Lifetime.Max)
	}
	if pool.Idle.Time > 0 {
		db.SetConnMaxIdleTime(pool.Idle.Time)
	}
}

// Query executes a statement that returns rows.
func (c *Connection) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, c.classify(query, err)
	}
	return rows, nil
}

// classify maps lost connections to ConnectionError and everything else to ExecutionError.
func (c *Connection) classify(query string, err error) error {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return dbtypes.NewConnectionError(c.vendor, err)
	}
	return dbtypes.NewExecutionError(query, err)
}

// Health checks database connectivity.
func (c *Connection) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, HealthTimeout)
	defer cancel()

	if err := c.db.PingContext(ctx); err != nil {
		return dbtypes.NewConnectionError(c.vendor, err)
	}
	return nil
}

// Stats returns database connection statistics
func (c *Connection) Stats() (map[string]any, error) {
	stats := c.db.Stats()
	return map[string]any{
		"vendor":               c.vendor,
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration":        stats.WaitDuration.String(),
		"max_idle_closed":      stats.MaxIdleClosed,
		"max_idle_time_closed": stats.MaxIdleTimeClosed,
		"max_lifetime_closed":  stats.MaxLifetimeClosed,
	}, nil
}

// Close closes the database connection
func (c *Connection) Close() error {
	c.logger.Info().Str("vendor", c.vendor).Msg("Closing database connection")
	return c.db.Close()
}

// DatabaseType returns the vendor identifier.
func (c *Connection) DatabaseType() string {
	return c.vendor
}

// DB exposes the underlying pool.
func (c *Connection) DB() *sql.DB {
	return c.db
}
