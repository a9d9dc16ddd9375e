//revive:disable-next-line:var-naming // Package name "types" avoids circular imports.
package types

import (
	"database/sql/driver"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindText
	KindBytes
	KindTime
	KindRaw
)

var kindNames = [...]string{
	KindNull:  "null",
	KindBool:  "bool",
	KindInt:   "int",
	KindFloat: "float",
	KindText:  "text",
	KindBytes: "bytes",
	KindTime:  "time",
	KindRaw:   "raw",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a tagged SQL value. Every variant except KindRaw is rendered as a
// placeholder and bound as a parameter; KindRaw text is interpolated verbatim.
//
// The zero Value is NULL.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	bs   []byte
	t    time.Time
}

// Null returns the NULL value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating point value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Text returns a string value. Text is always bound, never interpolated.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Bytes returns a byte-sequence value. The slice is copied.
func Bytes(b []byte) Value {
	if b == nil {
		return Value{kind: KindBytes}
	}
	return Value{kind: KindBytes, bs: append([]byte(nil), b...)}
}

// Time returns a timestamp value.
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is NULL.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsRaw reports whether v is a raw SQL reference.
func (v Value) IsRaw() bool { return v.kind == KindRaw }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the integer held by v.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns the float held by v.
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

// AsText returns the string held by v.
func (v Value) AsText() (string, bool) { return v.s, v.kind == KindText }

// AsBytes returns the bytes held by v.
func (v Value) AsBytes() ([]byte, bool) { return v.bs, v.kind == KindBytes }

// AsTime returns the timestamp held by v.
func (v Value) AsTime() (time.Time, bool) { return v.t, v.kind == KindTime }

// RawSQL returns the SQL text of a raw value.
func (v Value) RawSQL() (string, bool) { return v.s, v.kind == KindRaw }

// Any returns v as a driver argument.
// Raw values are unwrapped to their text.
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindText, KindRaw:
		return v.s
	case KindBytes:
		return v.bs
	case KindTime:
		return v.t
	default:
		return nil
	}
}

// String renders v for logs and debugging. It is not valid SQL for bound values.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return strconv.Quote(v.s)
	case KindBytes:
		return fmt.Sprintf("0x%x", v.bs)
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	case KindRaw:
		return v.s
	default:
		return "NULL"
	}
}

// RawExpr is a trusted SQL fragment that is interpolated into statements
// instead of being bound as a parameter. It can only be created with Raw.
//
// SECURITY WARNING: raw text is NOT escaped. Never build it from user input.
type RawExpr struct {
	sql string
}

// Raw wraps a trusted SQL fragment, typically a column reference used for
// column-to-column comparisons:
//
//	q.InnerJoin("users", "orders.user_id", types.Raw("users.id"))
//
// Panics with a *ValidationError if sql is blank (fail fast).
func Raw(sql string) RawExpr {
	if strings.TrimSpace(sql) == "" {
		panic(NewValidationError("raw", ErrEmptyRaw)) //nolint:S8148 // NOSONAR: fail-fast on invalid raw construction
	}
	return RawExpr{sql: sql}
}

// SQL returns the raw text.
func (r RawExpr) SQL() string { return r.sql }

// Value returns r as a KindRaw Value.
func (r RawExpr) Value() Value { return Value{kind: KindRaw, s: r.sql} }

// ValueOf converts a Go value into a Value.
//
// Supported inputs are nil, bool, every integer kind, float32/64, string,
// []byte, time.Time, driver.Valuer, Value, RawExpr and named types whose
// underlying kind is one of those. Pointers are dereferenced; nil pointers are NULL.
// A plain string is always Text: only RawExpr yields a raw value.
func ValueOf(x any) (Value, error) {
	// a nil pointer may still satisfy driver.Valuer through a pointer receiver
	if rv := reflect.ValueOf(x); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return Null(), nil
	}

	switch v := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v, nil
	case RawExpr:
		if v.sql == "" {
			return Value{}, ErrEmptyRaw
		}
		return v.Value(), nil
	case bool:
		return Bool(v), nil
	case int:
		return Int(int64(v)), nil
	case int8:
		return Int(int64(v)), nil
	case int16:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case uint:
		return fromUint(uint64(v))
	case uint8:
		return Int(int64(v)), nil
	case uint16:
		return Int(int64(v)), nil
	case uint32:
		return Int(int64(v)), nil
	case uint64:
		return fromUint(v)
	case float32:
		return Float(float64(v)), nil
	case float64:
		return Float(v), nil
	case string:
		return Text(v), nil
	case []byte:
		return Bytes(v), nil
	case time.Time:
		return Time(v), nil
	case driver.Valuer:
		dv, err := v.Value()
		if err != nil {
			return Value{}, fmt.Errorf("%w: %T: %w", ErrUnsupportedValue, x, err)
		}
		if _, nested := dv.(driver.Valuer); nested {
			return Value{}, fmt.Errorf("%w: %T returned a driver.Valuer", ErrUnsupportedValue, x)
		}
		return ValueOf(dv)
	}
	return valueOfReflect(x)
}

func fromUint(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return Value{}, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedValue, u)
	}
	return Int(int64(u)), nil
}

func valueOfReflect(x any) (Value, error) {
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return Null(), nil
		}
		return ValueOf(rv.Elem().Interface())
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fromUint(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.String:
		return Text(rv.String()), nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return Bytes(rv.Bytes()), nil
		}
	}
	return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, x)
}

// MustValueOf is like ValueOf but panics with a *ValidationError naming field.
func MustValueOf(field string, x any) Value {
	v, err := ValueOf(x)
	if err != nil {
		panic(NewValidationError(field, err)) //nolint:S8148 // NOSONAR: fail-fast on unbindable parameter
	}
	return v
}

// FromDriver converts a value produced by database/sql scanning into a Value.
func FromDriver(x any) Value {
	switch v := x.(type) {
	case nil:
		return Null()
	case int64:
		return Int(v)
	case float64:
		return Float(v)
	case bool:
		return Bool(v)
	case []byte:
		return Bytes(v)
	case string:
		return Text(v)
	case time.Time:
		return Time(v)
	}
	if v, err := ValueOf(x); err == nil && !v.IsRaw() {
		return v
	}
	return Text(fmt.Sprint(x))
}
