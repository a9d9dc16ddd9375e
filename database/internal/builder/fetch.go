package builder

import (
	"context"
	"errors"
	"strings"

	dbtypes "github.com/sherpa-db/sherpa/database/types"
)

const defaultIDColumn = "id"

// Get runs the query and returns every row. It returns an empty slice when no
// rows match. Columns, when given, replace the select list for this call only.
func (q *Query) Get(ctx context.Context, columns ...string) ([]dbtypes.Record, error) {
	target := q
	if len(columns) > 0 {
		target = q.Clone().Select(columns...)
	}
	return target.fetch(ctx)
}

// First returns the first row. found is false, with a nil error, when no row
// matches. The statement is run with LIMIT 1; any OFFSET is kept.
func (q *Query) First(ctx context.Context, columns ...string) (rec dbtypes.Record, found bool, err error) {
	target := q.Clone()
	if len(columns) > 0 {
		target.Select(columns...)
	}
	one := uint64(1)
	target.limit = &one

	records, err := target.fetch(ctx)
	if err != nil {
		return nil, false, err
	}
	if len(records) == 0 {
		return nil, false, nil
	}
	return records[0], true, nil
}

// Last returns the final row of the full result set. Every row is fetched, so
// prefer First with a reversed ORDER BY for large tables.
//
// Without an ORDER BY the last row is arbitrary; Last refuses such queries with
// ErrUnorderedLast unless the query was created WithUnorderedLast(true).
func (q *Query) Last(ctx context.Context, columns ...string) (rec dbtypes.Record, found bool, err error) {
	if len(q.orders) == 0 && !q.unorderedLast {
		return nil, false, dbtypes.NewValidationError("last", dbtypes.ErrUnorderedLast)
	}

	records, err := q.Get(ctx, columns...)
	if err != nil {
		return nil, false, err
	}
	if len(records) == 0 {
		return nil, false, nil
	}
	return records[len(records)-1], true, nil
}

// Find returns the row whose "id" column equals id.
func (q *Query) Find(ctx context.Context, id any, columns ...string) (dbtypes.Record, bool, error) {
	return q.FindBy(ctx, defaultIDColumn, id, columns...)
}

// FindBy returns the first row whose idColumn equals id. The condition is added
// to a copy of the query. A blank column or an unbindable id is reported as a
// *types.ValidationError.
func (q *Query) FindBy(ctx context.Context, idColumn string, id any, columns ...string) (dbtypes.Record, bool, error) {
	if strings.TrimSpace(idColumn) == "" {
		return nil, false, dbtypes.NewValidationError("find.column", dbtypes.ErrEmptyColumn)
	}
	value, err := dbtypes.ValueOf(id)
	if err != nil {
		return nil, false, dbtypes.NewValidationError("find.id", err)
	}
	return q.Clone().Where(idColumn, value).First(ctx, columns...)
}

// Count returns the number of rows the query matches using a COUNT(*) projection.
func (q *Query) Count(ctx context.Context) (int64, error) {
	if q.exec == nil {
		return 0, dbtypes.NewConnectionError("", dbtypes.ErrNoExecutor)
	}

	query, args, err := q.CountSQL()
	if err != nil {
		return 0, dbtypes.NewValidationError("count", err)
	}

	rows, err := q.exec.Query(ctx, query, args...)
	if err != nil {
		return 0, wrapExecutionError(query, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, dbtypes.NewExecutionError(query, err)
		}
		return 0, dbtypes.NewExecutionError(query, errors.New("count returned no rows"))
	}

	var n int64
	if err := rows.Scan(&n); err != nil {
		return 0, dbtypes.NewExecutionError(query, err)
	}
	return n, nil
}

func (q *Query) fetch(ctx context.Context) ([]dbtypes.Record, error) {
	if q.exec == nil {
		return nil, dbtypes.NewConnectionError("", dbtypes.ErrNoExecutor)
	}

	query, args, err := q.ToSQL()
	if err != nil {
		return nil, dbtypes.NewValidationError("query", err)
	}

	rows, err := q.exec.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapExecutionError(query, err)
	}
	defer rows.Close()

	records, err := dbtypes.ScanRecords(rows)
	if err != nil {
		return nil, dbtypes.NewExecutionError(query, err)
	}
	return records, nil
}

// wrapExecutionError keeps errors already classified by the adapter and wraps
// everything else as an ExecutionError.
func wrapExecutionError(query string, err error) error {
	if dbtypes.IsConnectionError(err) || dbtypes.IsExecutionError(err) {
		return err
	}
	return dbtypes.NewExecutionError(query, err)
}
