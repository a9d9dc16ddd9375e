package testing

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"reflect"

	dbtypes "github.com/sherpa-db/sherpa/database/types"
)

// RowSet is the result a TestDB expectation answers with.
//
// Cells are converted with types.ValueOf when added, so they decode exactly as
// a real driver's would: integers come back as Int, float32 as Float, pointers
// are dereferenced and nil pointers are NULL.
//
//	rows := NewRowSet("id", "name").
//	    AddRow(1, "Alice").
//	    AddRow(2, "Bob")
//
//	fake.ExpectQuery("FROM users").WillReturnRows(rows)
type RowSet struct {
	columns []string
	rows    [][]dbtypes.Value
}

// NewRowSet creates an empty RowSet. The column names become the keys of
// decoded records.
func NewRowSet(columns ...string) *RowSet {
	return &RowSet{columns: append([]string(nil), columns...)}
}

// AddRow appends one row. It panics when the number of values differs from
// the number of columns or a value cannot be bound.
func (rs *RowSet) AddRow(values ...any) *RowSet {
	if len(values) != len(rs.columns) {
		panic(fmt.Sprintf("AddRow: expected %d values for columns %v, got %d",
			len(rs.columns), rs.columns, len(values)))
	}

	row := make([]dbtypes.Value, len(values))
	for i, v := range values {
		row[i] = dbtypes.MustValueOf(rs.columns[i], v)
	}
	rs.rows = append(rs.rows, row)
	return rs
}

// AddRows appends count rows produced by generator.
//
//	rs := NewRowSet("id", "name").
//	    AddRows(100, func(i int) []any {
//	        return []any{i + 1, fmt.Sprintf("user%d", i+1)}
//	    })
func (rs *RowSet) AddRows(count int, generator func(i int) []any) *RowSet {
	for i := range count {
		rs.AddRow(generator(i)...)
	}
	return rs
}

// AddRowsFromStructs appends one row per struct, reading each column from the
// field tagged `db:"<column>"`. It panics when a column has no tagged field.
func (rs *RowSet) AddRowsFromStructs(structs ...any) *RowSet {
	for _, s := range structs {
		rs.AddRow(taggedValues(s, rs.columns)...)
	}
	return rs
}

// RowCount returns the number of rows.
func (rs *RowSet) RowCount() int {
	return len(rs.rows)
}

// Columns returns the column names.
func (rs *RowSet) Columns() []string {
	return append([]string(nil), rs.columns...)
}

// toSQLRows serves the RowSet through a single-use pool so callers receive a
// genuine *sql.Rows. The caller closes both the rows and the pool.
func (rs *RowSet) toSQLRows() (*sql.Rows, *sql.DB, error) {
	pool := sql.OpenDB(&rowSetConnector{columns: rs.Columns(), rows: rs.snapshot()})
	rows, err := pool.QueryContext(context.Background(), "rowset")
	if err != nil {
		_ = pool.Close()
		return nil, nil, err
	}
	return rows, pool, nil
}

// snapshot converts the rows to driver values, detached from later AddRow calls.
func (rs *RowSet) snapshot() [][]driver.Value {
	out := make([][]driver.Value, len(rs.rows))
	for i, row := range rs.rows {
		values := make([]driver.Value, len(row))
		for j, v := range row {
			values[j] = v.Any()
		}
		out[i] = values
	}
	return out
}

// sameArg compares two bound arguments after conversion to Values, so that 18
// matches int64(18) and Text("a") matches "a".
func sameArg(want, got any) bool {
	w, err := dbtypes.ValueOf(want)
	if err != nil {
		return false
	}
	g, err := dbtypes.ValueOf(got)
	if err != nil {
		return false
	}
	return w.Kind() == g.Kind() && fmt.Sprint(w.Any()) == fmt.Sprint(g.Any())
}

// taggedValues reads the db-tagged fields of a struct in column order.
func taggedValues(s any, columns []string) []any {
	v := reflect.Indirect(reflect.ValueOf(s))
	if v.Kind() != reflect.Struct {
		panic(fmt.Sprintf("AddRowsFromStructs: expected struct or pointer to struct, got %T", s))
	}

	byTag := make(map[string]reflect.Value, v.NumField())
	for i := range v.NumField() {
		if tag := v.Type().Field(i).Tag.Get("db"); tag != "" && tag != "-" {
			byTag[tag] = v.Field(i)
		}
	}

	values := make([]any, len(columns))
	for i, col := range columns {
		field, ok := byTag[col]
		if !ok {
			panic(fmt.Sprintf("AddRowsFromStructs: column %q has no db tag in %T", col, s))
		}
		values[i] = field.Interface()
	}
	return values
}

var errRowSetOnly = errors.New("rowset connection only serves queries")

// rowSetConnector opens connections that answer every query with the same rows.
type rowSetConnector struct {
	columns []string
	rows    [][]driver.Value
}

func (c *rowSetConnector) Connect(context.Context) (driver.Conn, error) {
	return &rowSetConn{columns: c.columns, rows: c.rows}, nil
}

func (c *rowSetConnector) Driver() driver.Driver { return rowSetDriver{} }

// rowSetDriver is only reachable through rowSetConnector.
type rowSetDriver struct{}

func (rowSetDriver) Open(string) (driver.Conn, error) { return nil, errRowSetOnly }

type rowSetConn struct {
	columns []string
	rows    [][]driver.Value
}

func (c *rowSetConn) Prepare(string) (driver.Stmt, error) { return nil, errRowSetOnly }
func (c *rowSetConn) Close() error                        { return nil }
func (c *rowSetConn) Begin() (driver.Tx, error)           { return nil, errRowSetOnly }

func (c *rowSetConn) QueryContext(context.Context, string, []driver.NamedValue) (driver.Rows, error) {
	return &rowSetRows{columns: c.columns, rows: c.rows}, nil
}

type rowSetRows struct {
	columns []string
	rows    [][]driver.Value
	next    int
}

func (r *rowSetRows) Columns() []string { return r.columns }
func (r *rowSetRows) Close() error      { return nil }

func (r *rowSetRows) Next(dest []driver.Value) error {
	if r.next >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.next])
	r.next++
	return nil
}
