// Package database is the entry point for building and running queries.
//
// A DB binds an Execution Adapter to the query builder:
//
//	conn, err := database.NewConnection(&cfg.Database, log)
//	db := database.New(conn, database.WithConfig(&cfg.Database))
//	q, err := db.Table("users")
//	rows, err := q.WhereOp("age", ">", 18).OrderByDesc("created_at").Limit(10).Get(ctx)
package database

import (
	"context"

	"github.com/sherpa-db/sherpa/config"
	"github.com/sherpa-db/sherpa/database/internal/builder"
	"github.com/sherpa-db/sherpa/database/types"
)

// DB creates queries bound to one connection.
type DB struct {
	conn          Interface
	unorderedLast bool
}

// Option configures a DB.
type Option func(*DB)

// WithConfig applies the query settings from cfg.
func WithConfig(cfg *config.DatabaseConfig) Option {
	return func(db *DB) {
		if cfg != nil {
			db.unorderedLast = cfg.Query.Last.Unordered
		}
	}
}

// WithUnorderedLast allows Last() on queries without an ORDER BY.
func WithUnorderedLast(allow bool) Option {
	return func(db *DB) {
		db.unorderedLast = allow
	}
}

// New returns a DB that runs queries through conn.
func New(conn Interface, opts ...Option) *DB {
	db := &DB{conn: conn}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Table starts a query selecting all columns from table. The query compiles
// with the connection's placeholder style and runs through the connection.
// A blank table returns a *types.ValidationError wrapping types.ErrEmptyTableName.
func (db *DB) Table(table string) (*Query, error) {
	return builder.New(table,
		builder.WithExecutor(db.conn),
		builder.WithUnorderedLast(db.unorderedLast),
	)
}

// Run executes a hand-written statement and decodes every row. The statement
// must use the connection's native placeholder style. Raw arguments are passed
// as their SQL text and Value arguments as their driver value.
func (db *DB) Run(ctx context.Context, query string, args ...any) ([]Record, error) {
	if db.conn == nil {
		return nil, types.NewConnectionError("", types.ErrNoExecutor)
	}

	rows, err := db.conn.Query(ctx, query, unwrapArgs(args)...)
	if err != nil {
		if types.IsConnectionError(err) || types.IsExecutionError(err) {
			return nil, err
		}
		return nil, types.NewExecutionError(query, err)
	}
	defer rows.Close()

	records, err := types.ScanRecords(rows)
	if err != nil {
		return nil, types.NewExecutionError(query, err)
	}
	return records, nil
}

func unwrapArgs(args []any) []any {
	out := make([]any, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case types.RawExpr:
			out[i] = v.SQL()
		case types.Value:
			out[i] = v.Any()
		default:
			out[i] = arg
		}
	}
	return out
}

// Vendor returns the connection's database type.
func (db *DB) Vendor() string {
	if db.conn == nil {
		return ""
	}
	return db.conn.DatabaseType()
}

// Conn returns the underlying connection.
func (db *DB) Conn() Interface {
	return db.conn
}

// Health pings the database.
func (db *DB) Health(ctx context.Context) error {
	if db.conn == nil {
		return types.NewConnectionError("", types.ErrNoExecutor)
	}
	return db.conn.Health(ctx)
}

// Close releases the connection pool.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}
