//revive:disable-next-line:var-naming // Package name "types" avoids circular imports.
package types

import (
	"slices"
	"strconv"
	"time"
)

// Record is a decoded result row keyed by column name.
type Record map[string]Value

// Get returns the value stored for column.
func (r Record) Get(column string) (Value, bool) {
	v, ok := r[column]
	return v, ok
}

// Columns returns the record's column names in sorted order.
func (r Record) Columns() []string {
	cols := make([]string, 0, len(r))
	for c := range r {
		cols = append(cols, c)
	}
	slices.Sort(cols)
	return cols
}

// IsNull reports whether column is absent or NULL.
func (r Record) IsNull(column string) bool {
	v, ok := r[column]
	return !ok || v.IsNull()
}

// String returns column as a string. Byte values are converted, since several
// drivers return text columns as []byte.
func (r Record) String(column string) (string, bool) {
	v, ok := r[column]
	if !ok {
		return "", false
	}
	switch v.Kind() {
	case KindText:
		return v.s, true
	case KindBytes:
		return string(v.bs), true
	default:
		return "", false
	}
}

// Int64 returns column as an integer, parsing textual representations.
func (r Record) Int64(column string) (int64, bool) {
	v, ok := r[column]
	if !ok {
		return 0, false
	}
	switch v.Kind() {
	case KindInt:
		return v.i, true
	case KindText, KindBytes:
		s, _ := r.String(column)
		i, err := strconv.ParseInt(s, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

// Float64 returns column as a float, widening integers and parsing text.
func (r Record) Float64(column string) (float64, bool) {
	v, ok := r[column]
	if !ok {
		return 0, false
	}
	switch v.Kind() {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	case KindText, KindBytes:
		s, _ := r.String(column)
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Bool returns column as a boolean. Integers are true when non-zero.
func (r Record) Bool(column string) (bool, bool) {
	v, ok := r[column]
	if !ok {
		return false, false
	}
	switch v.Kind() {
	case KindBool:
		return v.b, true
	case KindInt:
		return v.i != 0, true
	case KindText, KindBytes:
		s, _ := r.String(column)
		b, err := strconv.ParseBool(s)
		return b, err == nil
	default:
		return false, false
	}
}

// Bytes returns column as a byte slice.
func (r Record) Bytes(column string) ([]byte, bool) {
	v, ok := r[column]
	if !ok {
		return nil, false
	}
	switch v.Kind() {
	case KindBytes:
		return v.bs, true
	case KindText:
		return []byte(v.s), true
	default:
		return nil, false
	}
}

// Time returns column as a timestamp.
func (r Record) Time(column string) (time.Time, bool) {
	v, ok := r[column]
	if !ok {
		return time.Time{}, false
	}
	return v.AsTime()
}

// RowScanner is the subset of *sql.Rows used by ScanRecords.
type RowScanner interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// ScanRecords decodes every remaining row into a Record. It returns an empty,
// non-nil slice when there are no rows. The caller closes rows.
func ScanRecords(rows RowScanner) ([]Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0)
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := make(Record, len(cols))
		for i, c := range cols {
			rec[c] = FromDriver(vals[i])
			vals[i] = nil
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
