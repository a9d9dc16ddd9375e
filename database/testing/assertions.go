package testing

import (
	"fmt"
	"strings"
	"testing"
)

// AssertQueryExecuted asserts that a query matching sqlPattern ran on db.
// Matching follows the TestDB mode (substring unless StrictSQLMatching).
//
//	AssertQueryExecuted(t, fake, "FROM users WHERE id = $1")
func AssertQueryExecuted(t *testing.T, db *TestDB, sqlPattern string) {
	t.Helper()
	log := db.QueryLog()
	for _, call := range log {
		if db.matchSQL(sqlPattern, call.SQL) {
			return
		}
	}

	t.Errorf("expected query not executed: %q\nActual queries:\n%s",
		sqlPattern, formatQueryLog(log))
}

// AssertQueryNotExecuted asserts that no query matching sqlPattern ran on db.
func AssertQueryNotExecuted(t *testing.T, db *TestDB, sqlPattern string) {
	t.Helper()
	for _, call := range db.QueryLog() {
		if db.matchSQL(sqlPattern, call.SQL) {
			t.Errorf("unexpected query executed: %q\nQuery SQL: %s",
				sqlPattern, call.SQL)
			return
		}
	}
}

// AssertQueryCount asserts that exactly expected queries matching sqlPattern ran on db.
func AssertQueryCount(t *testing.T, db *TestDB, sqlPattern string, expected int) {
	t.Helper()
	log := db.QueryLog()
	count := 0
	for _, call := range log {
		if db.matchSQL(sqlPattern, call.SQL) {
			count++
		}
	}

	if count != expected {
		t.Errorf("expected %d queries matching %q, got %d\nActual queries:\n%s",
			expected, sqlPattern, count, formatQueryLog(log))
	}
}

// AssertQueryArgs asserts that the last query matching sqlPattern was bound
// with args, compared after driver normalization.
func AssertQueryArgs(t *testing.T, db *TestDB, sqlPattern string, args ...any) {
	t.Helper()
	log := db.QueryLog()
	for i := len(log) - 1; i >= 0; i-- {
		call := log[i]
		if !db.matchSQL(sqlPattern, call.SQL) {
			continue
		}
		exp := QueryExpectation{args: args}
		if args == nil {
			exp.args = []any{}
		}
		if !exp.matchArgs(call.Args) {
			t.Errorf("query %q bound with %v, expected %v", call.SQL, call.Args, args)
		}
		return
	}

	t.Errorf("expected query not executed: %q\nActual queries:\n%s",
		sqlPattern, formatQueryLog(log))
}

func formatQueryLog(log []QueryCall) string {
	if len(log) == 0 {
		return "  (no queries executed)"
	}

	var sb strings.Builder
	for i, call := range log {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, call.SQL))
		if len(call.Args) > 0 {
			sb.WriteString(fmt.Sprintf("     Args: %v\n", call.Args))
		}
	}
	return sb.String()
}
