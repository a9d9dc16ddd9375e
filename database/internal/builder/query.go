// Package builder implements sherpa's fluent SELECT builder: a mutable clause
// accumulator, a pure compiler that renders it into a parameterized statement,
// and fetch operations that run the statement through an Executor.
package builder

import (
	"strings"

	"github.com/Masterminds/squirrel"
	dbtypes "github.com/sherpa-db/sherpa/database/types"
)

const allColumns = "*"

// Query accumulates the clauses of one SELECT statement.
//
// Every mutation returns the same *Query so calls can be chained. A Query is not
// safe for concurrent mutation; callers that share one must serialize access.
// Compilation never mutates the Query, so it may be compiled any number of times.
type Query struct {
	table   string
	columns []string
	joins   []Join
	wheres  []Condition
	groupBy []string
	havings []Condition
	orders  []Order
	limit   *uint64
	offset  *uint64

	exec          dbtypes.Executor
	placeholder   squirrel.PlaceholderFormat
	unorderedLast bool
}

// Option configures a Query at construction time.
type Option func(*Query)

// WithExecutor binds the query to an executor used by the fetch operations.
// Unless WithPlaceholder or WithVendor is also given, the placeholder format
// follows exec.DatabaseType().
func WithExecutor(exec dbtypes.Executor) Option {
	return func(q *Query) {
		q.exec = exec
	}
}

// WithPlaceholder overrides the placeholder format used by ToSQL.
func WithPlaceholder(format squirrel.PlaceholderFormat) Option {
	return func(q *Query) {
		q.placeholder = format
	}
}

// WithVendor selects the placeholder format for vendor.
func WithVendor(vendor dbtypes.Vendor) Option {
	return func(q *Query) {
		q.placeholder = PlaceholderFor(vendor)
	}
}

// WithUnorderedLast allows Last() on queries without an ORDER BY, in which case
// the result is whatever row the database happens to return last.
func WithUnorderedLast(allow bool) Option {
	return func(q *Query) {
		q.unorderedLast = allow
	}
}

// PlaceholderFor returns the squirrel placeholder format used by vendor.
func PlaceholderFor(vendor dbtypes.Vendor) squirrel.PlaceholderFormat {
	switch vendor {
	case dbtypes.PostgreSQL:
		// PostgreSQL uses $1, $2, ... placeholders
		return squirrel.Dollar
	case dbtypes.Oracle:
		// Oracle uses :1, :2, ... placeholders
		return squirrel.Colon
	default:
		return squirrel.Question
	}
}

// New creates a query selecting from table.
// It returns a *dbtypes.ValidationError wrapping ErrEmptyTableName for a blank table.
func New(table string, opts ...Option) (*Query, error) {
	if strings.TrimSpace(table) == "" {
		return nil, dbtypes.NewValidationError("table", dbtypes.ErrEmptyTableName)
	}

	q := &Query{
		table:   table,
		columns: []string{allColumns},
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.placeholder == nil {
		vendor := ""
		if q.exec != nil {
			vendor = q.exec.DatabaseType()
		}
		q.placeholder = PlaceholderFor(vendor)
	}
	return q, nil
}

// ========== Projection ==========

// Select replaces the column list. Without arguments it selects all columns.
// Calls do not merge: the last one wins.
func (q *Query) Select(columns ...string) *Query {
	if len(columns) == 0 {
		q.columns = []string{allColumns}
		return q
	}
	for _, c := range columns {
		if strings.TrimSpace(c) == "" {
			panic(dbtypes.NewValidationError("select.column", dbtypes.ErrEmptyColumn)) //nolint:S8148 // NOSONAR: fail-fast on builder misuse
		}
	}
	q.columns = append([]string(nil), columns...)
	return q
}

// ========== Joins ==========

// Join appends a join of the given kind whose ON clause compares column to value
// with "=". Pass dbtypes.Raw for column-to-column joins:
//
//	q.Join(dbtypes.InnerJoin, "users", "orders.user_id", dbtypes.Raw("users.id"))
func (q *Query) Join(kind dbtypes.JoinKind, table, column string, value any) *Query {
	return q.JoinOp(kind, table, column, defaultOperator, value)
}

// JoinOp appends a join whose ON clause compares column to value with operator.
func (q *Query) JoinOp(kind dbtypes.JoinKind, table, column, operator string, value any) *Query {
	if !kind.Valid() {
		panic(dbtypes.NewValidationError("join.kind", dbtypes.ErrInvalidJoinKind)) //nolint:S8148 // NOSONAR: fail-fast on builder misuse
	}
	if strings.TrimSpace(table) == "" {
		panic(dbtypes.NewValidationError("join.table", dbtypes.ErrEmptyTableName)) //nolint:S8148 // NOSONAR: fail-fast on builder misuse
	}
	// Joins carry a single ON condition.
	cond := newCondition("join", column, operator, value, dbtypes.And)
	q.joins = append(q.joins, Join{
		Table:      table,
		Kind:       kind,
		Conditions: []Condition{cond},
	})
	return q
}

// InnerJoin appends an INNER JOIN comparing column to value with "=".
func (q *Query) InnerJoin(table, column string, value any) *Query {
	return q.Join(dbtypes.InnerJoin, table, column, value)
}

// InnerJoinOp appends an INNER JOIN comparing column to value with operator.
func (q *Query) InnerJoinOp(table, column, operator string, value any) *Query {
	return q.JoinOp(dbtypes.InnerJoin, table, column, operator, value)
}

// LeftJoin appends a LEFT JOIN comparing column to value with "=".
func (q *Query) LeftJoin(table, column string, value any) *Query {
	return q.Join(dbtypes.LeftJoin, table, column, value)
}

// LeftJoinOp appends a LEFT JOIN comparing column to value with operator.
func (q *Query) LeftJoinOp(table, column, operator string, value any) *Query {
	return q.JoinOp(dbtypes.LeftJoin, table, column, operator, value)
}

// RightJoin appends a RIGHT JOIN comparing column to value with "=".
func (q *Query) RightJoin(table, column string, value any) *Query {
	return q.Join(dbtypes.RightJoin, table, column, value)
}

// RightJoinOp appends a RIGHT JOIN comparing column to value with operator.
func (q *Query) RightJoinOp(table, column, operator string, value any) *Query {
	return q.JoinOp(dbtypes.RightJoin, table, column, operator, value)
}

// FullJoin appends a FULL JOIN comparing column to value with "=".
func (q *Query) FullJoin(table, column string, value any) *Query {
	return q.Join(dbtypes.FullJoin, table, column, value)
}

// FullJoinOp appends a FULL JOIN comparing column to value with operator.
func (q *Query) FullJoinOp(table, column, operator string, value any) *Query {
	return q.JoinOp(dbtypes.FullJoin, table, column, operator, value)
}

// ========== WHERE ==========

// Where appends "column = value" to the WHERE group, linked with AND.
func (q *Query) Where(column string, value any) *Query {
	return q.WhereOp(column, defaultOperator, value)
}

// WhereOp appends "column operator value" to the WHERE group, linked with AND.
func (q *Query) WhereOp(column, operator string, value any) *Query {
	q.wheres = append(q.wheres, newCondition("where", column, operator, value, dbtypes.And))
	return q
}

// OrWhere appends "column = value" to the WHERE group, linked with OR.
func (q *Query) OrWhere(column string, value any) *Query {
	return q.OrWhereOp(column, defaultOperator, value)
}

// OrWhereOp appends "column operator value" to the WHERE group, linked with OR.
func (q *Query) OrWhereOp(column, operator string, value any) *Query {
	q.wheres = append(q.wheres, newCondition("where", column, operator, value, dbtypes.Or))
	return q
}

// ========== GROUP BY / HAVING ==========

// GroupBy replaces the GROUP BY column list.
func (q *Query) GroupBy(columns ...string) *Query {
	for _, c := range columns {
		if strings.TrimSpace(c) == "" {
			panic(dbtypes.NewValidationError("groupBy.column", dbtypes.ErrEmptyColumn)) //nolint:S8148 // NOSONAR: fail-fast on builder misuse
		}
	}
	q.groupBy = append([]string(nil), columns...)
	return q
}

// Having appends "column = value" to the HAVING group, linked with AND.
func (q *Query) Having(column string, value any) *Query {
	return q.HavingOp(column, defaultOperator, value)
}

// HavingOp appends "column operator value" to the HAVING group, linked with AND.
func (q *Query) HavingOp(column, operator string, value any) *Query {
	q.havings = append(q.havings, newCondition("having", column, operator, value, dbtypes.And))
	return q
}

// OrHaving appends "column = value" to the HAVING group, linked with OR.
func (q *Query) OrHaving(column string, value any) *Query {
	return q.OrHavingOp(column, defaultOperator, value)
}

// OrHavingOp appends "column operator value" to the HAVING group, linked with OR.
func (q *Query) OrHavingOp(column, operator string, value any) *Query {
	q.havings = append(q.havings, newCondition("having", column, operator, value, dbtypes.Or))
	return q
}

// ========== ORDER BY ==========

// OrderBy appends an ORDER BY term. The direction defaults to ASC and is parsed
// case-insensitively, so OrderBy("name", "desc") sorts descending. Unknown
// directions fall back to ASC.
func (q *Query) OrderBy(column string, direction ...dbtypes.SortDirection) *Query {
	if strings.TrimSpace(column) == "" {
		panic(dbtypes.NewValidationError("orderBy.column", dbtypes.ErrEmptyColumn)) //nolint:S8148 // NOSONAR: fail-fast on builder misuse
	}
	dir := dbtypes.Asc
	if len(direction) > 0 {
		dir = direction[0].Normalize()
	}
	q.orders = append(q.orders, Order{Column: column, Direction: dir})
	return q
}

// OrderByDesc appends a descending ORDER BY term.
func (q *Query) OrderByDesc(column string) *Query {
	return q.OrderBy(column, dbtypes.Desc)
}

// ========== LIMIT / OFFSET ==========

// Limit sets the LIMIT and, optionally, the OFFSET. It governs both fields:
// calling Limit without an offset clears any previously set offset.
func (q *Query) Limit(n uint64, offset ...uint64) *Query {
	if len(offset) > 1 {
		panic(dbtypes.NewValidationError("limit.offset", dbtypes.ErrTooManyOffsets)) //nolint:S8148 // NOSONAR: fail-fast on builder misuse
	}
	q.limit = &n
	q.offset = nil
	if len(offset) == 1 {
		off := offset[0]
		q.offset = &off
	}
	return q
}

// Offset sets the OFFSET without touching the LIMIT.
func (q *Query) Offset(n uint64) *Query {
	q.offset = &n
	return q
}

// ========== Inspection ==========

// Clone returns a deep copy of q. The copy shares the executor and options
// but none of the clause lists.
func (q *Query) Clone() *Query {
	c := *q
	c.columns = append([]string(nil), q.columns...)
	c.joins = make([]Join, len(q.joins))
	for i, j := range q.joins {
		c.joins[i] = j.clone()
	}
	c.wheres = append([]Condition(nil), q.wheres...)
	c.groupBy = append([]string(nil), q.groupBy...)
	c.havings = append([]Condition(nil), q.havings...)
	c.orders = append([]Order(nil), q.orders...)
	if q.limit != nil {
		l := *q.limit
		c.limit = &l
	}
	if q.offset != nil {
		o := *q.offset
		c.offset = &o
	}
	return &c
}

// Table returns the table the query selects from.
func (q *Query) Table() string { return q.table }

// Columns returns a copy of the selected columns.
func (q *Query) Columns() []string { return append([]string(nil), q.columns...) }

// Joins returns a copy of the joins.
func (q *Query) Joins() []Join {
	out := make([]Join, len(q.joins))
	for i, j := range q.joins {
		out[i] = j.clone()
	}
	return out
}

// Wheres returns a copy of the WHERE conditions.
func (q *Query) Wheres() []Condition { return append([]Condition(nil), q.wheres...) }

// Havings returns a copy of the HAVING conditions.
func (q *Query) Havings() []Condition { return append([]Condition(nil), q.havings...) }

// GroupBys returns a copy of the GROUP BY columns.
func (q *Query) GroupBys() []string { return append([]string(nil), q.groupBy...) }

// Orders returns a copy of the ORDER BY terms.
func (q *Query) Orders() []Order { return append([]Order(nil), q.orders...) }

// LimitValue returns the LIMIT and whether it is set.
func (q *Query) LimitValue() (uint64, bool) {
	if q.limit == nil {
		return 0, false
	}
	return *q.limit, true
}

// OffsetValue returns the OFFSET and whether it is set.
func (q *Query) OffsetValue() (uint64, bool) {
	if q.offset == nil {
		return 0, false
	}
	return *q.offset, true
}

// Executor returns the executor bound to q, or nil.
func (q *Query) Executor() dbtypes.Executor { return q.exec }
