package builder

import (
	"strings"

	dbtypes "github.com/sherpa-db/sherpa/database/types"
)

// defaultOperator is used by the value-only shorthand forms (Where, Having, Join...).
const defaultOperator = "="

// Condition is one comparison term of a WHERE, HAVING or JOIN ON group.
//
// Operator is interpolated unescaped and must be a trusted literal such as
// "=", "<>", ">", "LIKE" or "IN". Combinator links the condition to the previous
// one in its group and is ignored for the first condition.
type Condition struct {
	Column     string
	Operator   string
	Value      dbtypes.Value
	Combinator dbtypes.Combinator
}

// newCondition validates its arguments and converts value into a dbtypes.Value.
// Misuse panics with a *dbtypes.ValidationError naming the offending clause.
func newCondition(clause, column, operator string, value any, combinator dbtypes.Combinator) Condition {
	if strings.TrimSpace(column) == "" {
		panic(dbtypes.NewValidationError(clause+".column", dbtypes.ErrEmptyColumn)) //nolint:S8148 // NOSONAR: fail-fast on builder misuse
	}
	if strings.TrimSpace(operator) == "" {
		panic(dbtypes.NewValidationError(clause+".operator", dbtypes.ErrEmptyOperator)) //nolint:S8148 // NOSONAR: fail-fast on builder misuse
	}
	return Condition{
		Column:     column,
		Operator:   operator,
		Value:      dbtypes.MustValueOf(clause+".value", value),
		Combinator: combinator,
	}
}

// Join is a JOIN clause with its own ON condition group.
// Joins are created with exactly one condition and never modified afterwards.
type Join struct {
	Table      string
	Kind       dbtypes.JoinKind
	Conditions []Condition
}

func (j Join) clone() Join {
	j.Conditions = append([]Condition(nil), j.Conditions...)
	return j
}

// Order is a single ORDER BY term.
type Order struct {
	Column    string
	Direction dbtypes.SortDirection
}
