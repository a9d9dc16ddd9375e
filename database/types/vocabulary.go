//revive:disable-next-line:var-naming // Package name "types" avoids circular imports.
package types

import "strings"

// Combinator links a condition to the previous condition of the same group.
type Combinator string

const (
	And Combinator = "AND"
	Or  Combinator = "OR"
)

// String returns the SQL keyword for the combinator.
func (c Combinator) String() string {
	return string(c)
}

// Valid reports whether c is one of the known combinators.
func (c Combinator) Valid() bool {
	return c == And || c == Or
}

// JoinKind identifies the type of a JOIN clause.
type JoinKind string

const (
	InnerJoin JoinKind = "INNER"
	LeftJoin  JoinKind = "LEFT"
	RightJoin JoinKind = "RIGHT"
	FullJoin  JoinKind = "FULL"
)

// String returns the SQL keyword for the join kind.
func (k JoinKind) String() string {
	return string(k)
}

// Keyword returns the full join keyword, e.g. "LEFT JOIN".
func (k JoinKind) Keyword() string {
	return string(k) + " JOIN"
}

// Valid reports whether k is one of the known join kinds.
func (k JoinKind) Valid() bool {
	switch k {
	case InnerJoin, LeftJoin, RightJoin, FullJoin:
		return true
	default:
		return false
	}
}

// SortDirection is the direction of an ORDER BY term.
//
// Because SortDirection is string-backed, untyped string constants can be passed
// wherever a SortDirection is expected:
//
//	q.OrderBy("created_at", "desc")
type SortDirection string

const (
	Asc  SortDirection = "ASC"
	Desc SortDirection = "DESC"
)

// String returns the SQL keyword for the direction.
func (d SortDirection) String() string {
	return string(d)
}

// Normalize resolves d to one of Asc or Desc using ParseSortDirection.
func (d SortDirection) Normalize() SortDirection {
	return ParseSortDirection(string(d))
}

// Reverse returns the opposite direction.
func (d SortDirection) Reverse() SortDirection {
	if d.Normalize() == Desc {
		return Asc
	}
	return Desc
}

// ParseSortDirection parses a direction case-insensitively.
// It never fails: anything other than "desc" resolves to Asc.
func ParseSortDirection(s string) SortDirection {
	if strings.EqualFold(strings.TrimSpace(s), string(Desc)) {
		return Desc
	}
	return Asc
}
