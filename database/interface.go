package database

import (
	"github.com/sherpa-db/sherpa/database/internal/builder"
	"github.com/sherpa-db/sherpa/database/types"
)

// Interface is a pooled connection that queries can run against.
// The actual interfaces live in the database/types package to avoid import cycles.
type Interface = types.Interface

// Executor runs compiled statements.
type Executor = types.Executor

// Query is the fluent SELECT builder returned by DB.Table.
type Query = builder.Query

// Record is a decoded result row.
type Record = types.Record

// Value is a bound parameter or decoded column value.
type Value = types.Value

// RawExpr is SQL text inlined verbatim by the compiler.
type RawExpr = types.RawExpr

// SortDirection is ASC or DESC.
type SortDirection = types.SortDirection

// ParseSortDirection reads "desc" in any case as DESC and everything else as ASC.
func ParseSortDirection(s string) SortDirection {
	return types.ParseSortDirection(s)
}

// Sort directions and join kinds re-exported for callers of the facade.
const (
	Asc  = types.Asc
	Desc = types.Desc

	InnerJoin = types.InnerJoin
	LeftJoin  = types.LeftJoin
	RightJoin = types.RightJoin
	FullJoin  = types.FullJoin
)

// Raw marks sql as an expression to be inlined verbatim instead of bound as
// a parameter. It panics on blank input.
//
// Raw text is never escaped; never build it from user input.
func Raw(sql string) RawExpr {
	return types.Raw(sql)
}
