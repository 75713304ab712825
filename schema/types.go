package schema

import "errors"

// ErrUnknownTable is returned when a table name is not part of the GTFS table set.
var ErrUnknownTable = errors.New("unknown GTFS table")

// TableName identifies a GTFS table, e.g. "stops" for stops.txt
type TableName string

// ColumnType tells the decoder how to coerce a cell
type ColumnType uint8

const (
	TypeString ColumnType = iota
	TypeInt
	TypeFloat
	// TypeIntOrEmpty keeps "blank" distinct from "0" for enumeration columns.
	TypeIntOrEmpty
)

func (t ColumnType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeIntOrEmpty:
		return "int-or-empty"
	}
	return "unknown"
}

// Column is a single named, typed column of a table
type Column struct {
	Name string
	Type ColumnType
}

// Table describes one GTFS file: its name, file name and ordered columns.
type Table struct {
	Name     TableName
	FileName string
	Columns  []Column

	index map[string]int // column name -> position in Columns
}

// ColumnNames returns the column names in declared order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the declared column with the given name.
func (t Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.Columns[i], true
}

// Required reports whether the table is part of the minimal set every feed carries.
func (t Table) Required() bool { return IsRequired(t.Name) }

// NewTable declares a table outside the registry, for ad-hoc files that
// follow the same decoding rules.
func NewTable(name TableName, columns ...Column) Table {
	t := Table{
		Name:     name,
		FileName: string(name) + ".txt",
		Columns:  columns,
		index:    make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		t.index[c.Name] = i
	}
	return t
}
