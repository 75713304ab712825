package csvio

import (
	"maps"
	"strconv"
)

// Kind is the dynamic type of a Value
type Kind uint8

const (
	KindString Kind = iota
	KindInt
	KindFloat
	// KindEmpty marks a blank int-or-empty cell.
	KindEmpty
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindEmpty:
		return "empty"
	}
	return "unknown"
}

// Value is a single decoded cell. The zero Value is the empty string.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
}

// String returns a text value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating point value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Empty returns the sentinel for a blank int-or-empty cell.
func Empty() Value { return Value{kind: KindEmpty} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// Str returns the text of a string value, or the serialized form of any other value.
func (v Value) Str() string {
	if v.kind == KindString {
		return v.s
	}
	return v.Text()
}

// Int64 returns the integer held by v. Float values are truncated.
func (v Value) Int64() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		return int64(v.f), true
	}
	return 0, false
}

// Float64 returns the number held by v.
func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

// Text is the cell text written by the encoder.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	}
	return ""
}

func (v Value) GoString() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.s)
	case KindEmpty:
		return "<empty>"
	}
	return v.Text()
}

// Record is one decoded row: column name -> value. A column that was not
// supplied for this row is missing from the map (absent), which is distinct
// from a present Empty or empty-string value.
type Record map[string]Value

// Str returns the text of column col, "" when absent.
func (r Record) Str(col string) string {
	v, ok := r[col]
	if !ok {
		return ""
	}
	return v.Str()
}

// Int returns the integer in column col.
func (r Record) Int(col string) (int64, bool) {
	v, ok := r[col]
	if !ok {
		return 0, false
	}
	return v.Int64()
}

// Float returns the number in column col.
func (r Record) Float(col string) (float64, bool) {
	v, ok := r[col]
	if !ok {
		return 0, false
	}
	return v.Float64()
}

// Has reports whether col is present (possibly Empty).
func (r Record) Has(col string) bool {
	_, ok := r[col]
	return ok
}

func (r Record) Clone() Record { return maps.Clone(r) }

// Equal reports whether both records hold the same columns and values.
func (r Record) Equal(o Record) bool { return maps.Equal(r, o) }
