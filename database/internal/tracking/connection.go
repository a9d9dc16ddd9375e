package tracking

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/sherpa-db/sherpa/config"
	"github.com/sherpa-db/sherpa/database/types"
	"github.com/sherpa-db/sherpa/logger"
)

// Connection wraps types.Interface to provide query tracking.
// It delegates every operation to the wrapped connection and records a log
// entry, a span and metrics for each executed statement.
type Connection struct {
	conn     types.Interface
	logger   logger.Logger
	vendor   string
	settings Settings

	unregisterPool func()
	closeOnce      sync.Once
}

var _ types.Interface = (*Connection)(nil)

// NewConnection returns a types.Interface that wraps conn. The vendor is taken
// from conn.DatabaseType() and the settings from cfg. Connection pool gauges are
// registered with the global meter provider until Close.
func NewConnection(conn types.Interface, log logger.Logger, cfg *config.DatabaseConfig) *Connection {
	if log == nil {
		log = logger.Nop()
	}
	vendor := conn.DatabaseType()
	return &Connection{
		conn:           conn,
		logger:         log,
		vendor:         vendor,
		settings:       NewSettings(cfg),
		unregisterPool: RegisterConnectionPoolMetrics(conn, vendor),
	}
}

// Query executes a query with performance tracking
func (tc *Connection) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := tc.conn.Query(ctx, query, args...)

	TrackDBOperation(ctx, &Context{Logger: tc.logger, Vendor: tc.vendor, Settings: tc.settings}, query, args, start, err)
	return rows, err
}

// Health checks database connection health (no tracking needed)
func (tc *Connection) Health(ctx context.Context) error {
	return tc.conn.Health(ctx)
}

// Stats returns the wrapped connection's pool statistics.
func (tc *Connection) Stats() (map[string]any, error) {
	return tc.conn.Stats()
}

// Close unregisters pool metrics and closes the wrapped connection.
func (tc *Connection) Close() error {
	tc.closeOnce.Do(tc.unregisterPool)
	return tc.conn.Close()
}

// DatabaseType returns the wrapped connection's vendor.
func (tc *Connection) DatabaseType() string {
	return tc.vendor
}

// Unwrap returns the wrapped connection.
func (tc *Connection) Unwrap() types.Interface {
	return tc.conn
}
