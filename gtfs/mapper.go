package gtfs

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/theoremus-urban-solutions/gtfs-io/csvio"
	"github.com/theoremus-urban-solutions/gtfs-io/schema"
)

// ErrUnsupportedField is returned by NewStructMapper for fields it cannot map.
var ErrUnsupportedField = errors.New("unsupported struct field")

// Mapper converts between decoded records and a caller's row type.
type Mapper[R any] interface {
	FromRecord(rec csvio.Record) (R, error)
	ToRecord(row R) (csvio.Record, error)
}

// RecordMapper is the identity mapper over csvio.Record.
type RecordMapper struct{}

func (RecordMapper) FromRecord(rec csvio.Record) (csvio.Record, error) { return rec, nil }
func (RecordMapper) ToRecord(rec csvio.Record) (csvio.Record, error) { return rec, nil }

type structField struct {
	index     int
	column    string
	omitEmpty bool
}

// StructMapper maps struct fields tagged `csv:"column[,omitempty]"` to
// columns of one table. Supported field kinds are string, integers, floats
// and pointers to those. A nil pointer is an absent column, a blank
// int-or-empty cell decodes to nil.
type StructMapper[T any] struct {
	table  schema.Table
	fields []structField
}

// NewStructMapper inspects T once. Every tagged column must exist in table.
func NewStructMapper[T any](table schema.Table) (*StructMapper[T], error) {
	typ := reflect.TypeFor[T]()
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrUnsupportedField, typ)
	}
	m := &StructMapper[T]{table: table}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag, ok := f.Tag.Lookup("csv")
		if !ok || tag == "-" || !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if _, ok := table.Column(name); !ok {
			return nil, fmt.Errorf("%w: %s.%s: table %s has no column %q", ErrUnsupportedField, typ.Name(), f.Name, table.Name, name)
		}
		if !mappable(f.Type) {
			return nil, fmt.Errorf("%w: %s.%s has type %s", ErrUnsupportedField, typ.Name(), f.Name, f.Type)
		}
		m.fields = append(m.fields, structField{index: i, column: name, omitEmpty: opts == "omitempty"})
	}
	return m, nil
}

func mappable(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String, reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func (m *StructMapper[T]) FromRecord(rec csvio.Record) (T, error) {
	var row T
	rv := reflect.ValueOf(&row).Elem()
	for _, f := range m.fields {
		v, ok := rec[f.column]
		if !ok || v.IsEmpty() {
			continue
		}
		fv := rv.Field(f.index)
		if fv.Kind() == reflect.Pointer {
			fv.Set(reflect.New(fv.Type().Elem()))
			fv = fv.Elem()
		}
		if err := setField(fv, v); err != nil {
			return row, fmt.Errorf("%s: column %s: %w", m.table.Name, f.column, err)
		}
	}
	return row, nil
}

func setField(fv reflect.Value, v csvio.Value) error {
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(v.Str())
	case reflect.Float32, reflect.Float64:
		f, ok := v.Float64()
		if !ok {
			var err error
			if f, err = strconv.ParseFloat(strings.TrimSpace(v.Str()), 64); err != nil {
				return err
			}
		}
		fv.SetFloat(f)
	default:
		i, ok := v.Int64()
		if !ok {
			var err error
			if i, err = strconv.ParseInt(strings.TrimSpace(v.Str()), 10, 64); err != nil {
				return err
			}
		}
		fv.SetInt(i)
	}
	return nil
}

func (m *StructMapper[T]) ToRecord(row T) (csvio.Record, error) {
	rv := reflect.ValueOf(row)
	rec := make(csvio.Record, len(m.fields))
	for _, f := range m.fields {
		fv := rv.Field(f.index)
		if fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		} else if f.omitEmpty && fv.IsZero() {
			continue
		}
		switch fv.Kind() {
		case reflect.String:
			rec[f.column] = csvio.String(fv.String())
		case reflect.Float32, reflect.Float64:
			rec[f.column] = csvio.Float(fv.Float())
		default:
			rec[f.column] = csvio.Int(fv.Int())
		}
	}
	return rec, nil
}
