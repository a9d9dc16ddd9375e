package builder

import (
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	dbtypes "github.com/sherpa-db/sherpa/database/types"
)

const (
	placeholder = "?"
	countColumn = "COUNT(*)"
	countAlias  = "sherpa_count"
)

// RenderConditions renders a condition group used by WHERE, HAVING and JOIN ON.
//
// The first condition renders as "column op token"; each following condition is
// prefixed with its own combinator. No parentheses are added, so mixed AND/OR
// chains follow the database's precedence rules. Raw values are written verbatim
// and contribute no parameter; every other value renders as "?" and is returned
// in render order.
func RenderConditions(conditions []Condition) (string, []dbtypes.Value) {
	return renderConditions(conditions, false)
}

// escapeText doubles every "?" of inlined SQL text when escape is set. A
// numbered placeholder format (Dollar, Colon) renumbers "?" and turns "??"
// back into a literal "?", so escaped text reaches the driver verbatim.
func escapeText(text string, escape bool) string {
	if !escape {
		return text
	}
	return strings.ReplaceAll(text, placeholder, placeholder+placeholder)
}

func renderConditions(conditions []Condition, escape bool) (string, []dbtypes.Value) {
	var sb strings.Builder
	params := make([]dbtypes.Value, 0, len(conditions))

	for i, c := range conditions {
		if i > 0 {
			combinator := c.Combinator
			if !combinator.Valid() {
				combinator = dbtypes.And
			}
			sb.WriteByte(' ')
			sb.WriteString(combinator.String())
			sb.WriteByte(' ')
		}

		sb.WriteString(escapeText(c.Column, escape))
		sb.WriteByte(' ')
		sb.WriteString(escapeText(c.Operator, escape))
		sb.WriteByte(' ')

		if raw, ok := c.Value.RawSQL(); ok {
			sb.WriteString(escapeText(raw, escape))
			continue
		}
		sb.WriteString(placeholder)
		params = append(params, c.Value)
	}

	return sb.String(), params
}

// Compile renders the query into SQL with "?" placeholders and the bound
// parameters in placeholder order (JOIN ON, then WHERE, then HAVING).
//
// Compile is pure: the parameter list is rebuilt on every call and the query is
// left untouched.
func (q *Query) Compile() (sql string, params []dbtypes.Value, err error) {
	sb, params := q.build(q.columns, true, false)
	sql, _, err = sb.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to compile query on %s: %w", q.table, err)
	}
	return sql, params, nil
}

// ToSQL renders the query using the vendor placeholder format and returns
// driver-ready arguments.
func (q *Query) ToSQL() (sql string, args []any, err error) {
	sb, _ := q.build(q.columns, true, q.numbered())
	sql, args, err = sb.PlaceholderFormat(q.placeholder).ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to compile query on %s: %w", q.table, err)
	}
	return sql, args, nil
}

// CountSQL renders a COUNT(*) projection of the query.
//
// ORDER BY is dropped. When the query groups rows or pages them with LIMIT/OFFSET
// the full statement is wrapped in a subquery so the count matches what Get returns.
func (q *Query) CountSQL() (sql string, args []any, err error) {
	var sb squirrel.SelectBuilder
	if len(q.groupBy) > 0 || q.limit != nil || q.offset != nil {
		inner, _ := q.build(q.columns, true, q.numbered())
		sb = squirrel.Select(countColumn).FromSelect(inner, countAlias)
	} else {
		sb, _ = q.build([]string{countColumn}, false, q.numbered())
	}

	sql, args, err = sb.PlaceholderFormat(q.placeholder).ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to compile count on %s: %w", q.table, err)
	}
	return sql, args, nil
}

// numbered reports whether the placeholder format renumbers "?" markers.
func (q *Query) numbered() bool {
	return q.placeholder != nil && q.placeholder != squirrel.Question
}

// build assembles the clauses into a squirrel.SelectBuilder using "?" placeholders.
// squirrel renders clauses in SELECT, FROM, JOIN, WHERE, GROUP BY, HAVING,
// ORDER BY, LIMIT, OFFSET order and skips empty ones. With escape set, "?" in
// identifiers, operators and raw text is doubled for a numbered format.
func (q *Query) build(columns []string, withOrders, escape bool) (squirrel.SelectBuilder, []dbtypes.Value) {
	var params []dbtypes.Value

	selected := make([]string, len(columns))
	for i, c := range columns {
		selected[i] = escapeText(c, escape)
	}

	sb := squirrel.StatementBuilder.
		PlaceholderFormat(squirrel.Question).
		Select(selected...).
		From(escapeText(q.table, escape))

	for _, j := range q.joins {
		on, p := renderConditions(j.Conditions, escape)
		params = append(params, p...)
		sb = sb.JoinClause(squirrel.Expr(j.Kind.Keyword()+" "+escapeText(j.Table, escape)+" ON "+on, driverArgs(p)...))
	}

	if len(q.wheres) > 0 {
		where, p := renderConditions(q.wheres, escape)
		params = append(params, p...)
		sb = sb.Where(squirrel.Expr(where, driverArgs(p)...))
	}

	if len(q.groupBy) > 0 {
		groups := make([]string, len(q.groupBy))
		for i, g := range q.groupBy {
			groups[i] = escapeText(g, escape)
		}
		sb = sb.GroupBy(groups...)
	}

	if len(q.havings) > 0 {
		having, p := renderConditions(q.havings, escape)
		params = append(params, p...)
		sb = sb.Having(squirrel.Expr(having, driverArgs(p)...))
	}

	if withOrders && len(q.orders) > 0 {
		terms := make([]string, len(q.orders))
		for i, o := range q.orders {
			terms[i] = escapeText(o.Column, escape) + " " + o.Direction.Normalize().String()
		}
		sb = sb.OrderBy(terms...)
	}

	if q.limit != nil {
		sb = sb.Limit(*q.limit)
	}
	if q.offset != nil {
		sb = sb.Offset(*q.offset)
	}

	if params == nil {
		params = []dbtypes.Value{}
	}
	return sb, params
}

// driverArgs converts bound values into database/sql arguments.
func driverArgs(values []dbtypes.Value) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v.Any()
	}
	return args
}
