package csvio

import (
	"errors"
	"fmt"

	"github.com/theoremus-urban-solutions/gtfs-io/schema"
)

// ErrUnterminatedQuote marks a quoted field that never closes.
var ErrUnterminatedQuote = errors.New("unterminated quoted field")

var errFinished = errors.New("decode state already finished")

// StructuralError is returned when table text cannot be tokenized, even
// after all input has been seen. It aborts the table's record sequence.
type StructuralError struct {
	Table schema.TableName
	Err   error
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: malformed csv: %v", e.Table, e.Err)
}

func (e *StructuralError) Unwrap() error { return e.Err }

// CoercionError is returned in strict mode when a numeric cell cannot be parsed.
type CoercionError struct {
	Table  schema.TableName
	Column string
	Type   schema.ColumnType
	Row    int // 1-based data row, header excluded
	Text   string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("%s row %d: column %s: cannot parse %q as %s", e.Table, e.Row, e.Column, e.Text, e.Type)
}
