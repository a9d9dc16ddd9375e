// Package testing provides an in-memory Execution Adapter for unit tests of code
// that builds and runs queries.
//
// TestDB implements types.Interface with expectation-based responses, so it can
// back a database.DB without a driver or sqlmock:
//
//	fake := dbtesting.NewTestDB(types.PostgreSQL)
//	fake.ExpectQuery("FROM users").
//	    WillReturnRows(dbtesting.NewRowSet("id", "name").AddRow(1, "Alice"))
//
//	db := database.New(fake)
//	q, _ := db.Table("users")
//	rec, found, err := q.Find(ctx, 1)
//
// Rows returned by Query are backed by a temporary *sql.DB. Close the rows as
// usual; TestDB.Close releases any temporary pools still open.
package testing

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	dbtypes "github.com/sherpa-db/sherpa/database/types"
)

// TestDB is an in-memory fake implementing types.Interface.
//
// SQL is matched by substring unless StrictSQLMatching is enabled. The first
// matching expectation wins, and an expectation can answer any number of calls.
type TestDB struct {
	vendor      string
	queries     []*QueryExpectation
	queryLog    []QueryCall
	strictMatch bool
	healthErr   error
	pools       []*sql.DB
	closed      bool
	mu          sync.RWMutex
}

var _ dbtypes.Interface = (*TestDB)(nil)

// QueryCall records a single Query invocation.
type QueryCall struct {
	SQL  string
	Args []any
}

// QueryExpectation defines the response for queries matching its SQL.
type QueryExpectation struct {
	sql  string
	args []any
	rows *RowSet
	err  error
}

// NewTestDB creates a fake for vendor. The vendor decides which placeholder
// style the query builder compiles for.
func NewTestDB(vendor string) *TestDB {
	return &TestDB{vendor: vendor}
}

// StrictSQLMatching switches from substring to exact SQL matching.
//
//	db.StrictSQLMatching().ExpectQuery("SELECT * FROM users WHERE id = $1 LIMIT 1")
func (db *TestDB) StrictSQLMatching() *TestDB {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.strictMatch = true
	return db
}

// ExpectQuery registers an expectation for queries matching sqlPattern.
func (db *TestDB) ExpectQuery(sqlPattern string) *QueryExpectation {
	exp := &QueryExpectation{sql: sqlPattern}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.queries = append(db.queries, exp)
	return exp
}

// WillFailHealth makes Health return err.
func (db *TestDB) WillFailHealth(err error) *TestDB {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.healthErr = err
	return db
}

// QueryLog returns every Query call in order.
func (db *TestDB) QueryLog() []QueryCall {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]QueryCall{}, db.queryLog...)
}

// Closed reports whether Close was called.
func (db *TestDB) Closed() bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.closed
}

func (db *TestDB) matchSQL(expected, actual string) bool {
	if db.strictMatch {
		return strings.TrimSpace(expected) == strings.TrimSpace(actual)
	}
	return strings.Contains(actual, expected)
}

func (db *TestDB) findExpectation(query string, args []any) *QueryExpectation {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, exp := range db.queries {
		if db.matchSQL(exp.sql, query) && exp.matchArgs(args) {
			return exp
		}
	}
	return nil
}

// Query answers with the first matching expectation. An unmatched query
// returns an error naming the SQL.
func (db *TestDB) Query(_ context.Context, query string, args ...any) (*sql.Rows, error) {
	db.mu.Lock()
	db.queryLog = append(db.queryLog, QueryCall{SQL: query, Args: append([]any(nil), args...)})
	db.mu.Unlock()

	exp := db.findExpectation(query, args)
	if exp == nil {
		return nil, fmt.Errorf("unexpected query: %s (no matching expectation)", query)
	}
	if exp.err != nil {
		return nil, exp.err
	}
	if exp.rows == nil {
		return nil, fmt.Errorf("query expectation for %q has no rows configured (use WillReturnRows)", query)
	}

	rows, pool, err := exp.rows.toSQLRows()
	if err != nil {
		return nil, err
	}
	db.mu.Lock()
	db.pools = append(db.pools, pool)
	db.mu.Unlock()
	return rows, nil
}

// DatabaseType returns the vendor passed to NewTestDB.
func (db *TestDB) DatabaseType() string {
	return db.vendor
}

// Health returns the error set by WillFailHealth, if any.
func (db *TestDB) Health(_ context.Context) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.healthErr
}

// Stats reports the vendor and number of queries seen.
func (db *TestDB) Stats() (map[string]any, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return map[string]any{
		"vendor":      db.vendor,
		"query_count": len(db.queryLog),
	}, nil
}

// Close releases the temporary pools backing returned rows.
func (db *TestDB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, pool := range db.pools {
		_ = pool.Close()
	}
	db.pools = nil
	db.closed = true
	return nil
}

// WithArgs restricts the expectation to calls with exactly these arguments.
// Arguments are compared after driver normalization, so 18 matches int64(18).
func (qe *QueryExpectation) WithArgs(args ...any) *QueryExpectation {
	qe.args = args
	if qe.args == nil {
		qe.args = []any{}
	}
	return qe
}

// WillReturnRows sets the rows returned for matching queries.
func (qe *QueryExpectation) WillReturnRows(rows *RowSet) *QueryExpectation {
	qe.rows = rows
	return qe
}

// WillReturnError makes matching queries fail with err.
func (qe *QueryExpectation) WillReturnError(err error) *QueryExpectation {
	qe.err = err
	return qe
}

func (qe *QueryExpectation) matchArgs(args []any) bool {
	if qe.args == nil {
		return true
	}
	if len(qe.args) != len(args) {
		return false
	}
	for i := range args {
		if !sameArg(qe.args[i], args[i]) {
			return false
		}
	}
	return true
}
