package csvio

import (
	"context"
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/theoremus-urban-solutions/gtfs-io/schema"
	"github.com/theoremus-urban-solutions/gtfs-io/stream"
)

const byteOrderMark = "\ufeff"

// DecodeOptions controls cell coercion
type DecodeOptions struct {
	// StrictNumbers turns unparseable numeric cells into a *CoercionError.
	// By default such cells are left absent from the record.
	StrictNumbers bool `yaml:"strictNumbers"`
}

// DecodeState is the state of one table traversal. It is a value: Step and
// Finish return the next state and never modify the receiver's view.
type DecodeState struct {
	table    schema.Table
	opts     DecodeOptions
	columns  []string // header, nil until the first row has been read
	leftover string   // text not yet known to end on a row boundary
	started  bool
	finished bool
	rows     int
}

// NewDecodeState returns the initial state for decoding table.
func NewDecodeState(table schema.Table, opts DecodeOptions) DecodeState {
	return DecodeState{table: table, opts: opts}
}

// Columns returns the header read so far, nil before the header row.
func (s DecodeState) Columns() []string { return s.columns }

// Pending returns the number of bytes held back waiting for more input.
func (s DecodeState) Pending() int { return len(s.leftover) }

// Step feeds one chunk and returns the records completed by it.
func (s DecodeState) Step(chunk string) (DecodeState, []Record, error) {
	if s.finished {
		return s, nil, errFinished
	}
	chunk = strings.ReplaceAll(chunk, "\r\n", "\n")
	if !s.started && chunk != "" {
		chunk = strings.TrimPrefix(chunk, byteOrderMark)
		s.started = true
	}

	nl := strings.LastIndexByte(chunk, '\n')
	if nl < 0 {
		s.leftover += chunk
		return s, nil, nil
	}
	content := s.leftover + chunk[:nl+1]
	s.leftover = chunk[nl+1:]
	return s.parse(content, true)
}

// Finish flushes the held back text once the input has ended. Nothing is
// retracted any more: a quote that is still open is a *StructuralError.
func (s DecodeState) Finish() (DecodeState, []Record, error) {
	if s.finished {
		return s, nil, errFinished
	}
	content := s.leftover
	s.leftover = ""
	s.finished = true
	if strings.TrimSpace(content) == "" {
		return s, nil, nil
	}
	return s.parse(content, false)
}

// parse tokenizes content. While a quoted field is left open the last
// physical line is moved back in front of the leftover and parsing retried.
func (s DecodeState) parse(content string, retract bool) (DecodeState, []Record, error) {
	for content != "" {
		rows, err := tokenize(content)
		if err == nil {
			return s.emit(rows)
		}
		if !retract || err != ErrUnterminatedQuote {
			return s, nil, &StructuralError{Table: s.table.Name, Err: err}
		}
		// content always ends with '\n' here
		cut := strings.LastIndexByte(content[:len(content)-1], '\n')
		s.leftover = content[cut+1:] + s.leftover
		content = content[:cut+1]
	}
	return s, nil, nil
}

func tokenize(content string) ([][]string, error) {
	// An odd number of quotes leaves a quoted field open; encoding/csv
	// would report it as a generic quote error.
	if strings.Count(content, `"`)%2 == 1 {
		return nil, ErrUnterminatedQuote
	}
	r := csv.NewReader(strings.NewReader(content))
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func (s DecodeState) emit(rows [][]string) (DecodeState, []Record, error) {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		if blankRow(row) {
			continue
		}
		if s.columns == nil {
			s.columns = make([]string, len(row))
			for i, h := range row {
				s.columns[i] = strings.TrimSpace(h)
			}
			continue
		}
		s.rows++
		rec, err := s.record(row)
		if err != nil {
			return s, records, err
		}
		records = append(records, rec)
	}
	return s, records, nil
}

func blankRow(row []string) bool {
	return len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "")
}

// record maps cells to the header columns. Columns unknown to the schema are
// dropped; schema columns missing from the header stay absent.
func (s DecodeState) record(row []string) (Record, error) {
	rec := make(Record, len(row))
	for i, cell := range row {
		if i >= len(s.columns) {
			break
		}
		col, ok := s.table.Column(s.columns[i])
		if !ok {
			continue
		}
		v, present, ok := coerce(col.Type, cell)
		if !ok {
			if s.opts.StrictNumbers {
				return nil, &CoercionError{Table: s.table.Name, Column: col.Name, Type: col.Type, Row: s.rows, Text: cell}
			}
			continue
		}
		if present {
			rec[col.Name] = v
		}
	}
	return rec, nil
}

// coerce converts one cell. present is false for a blank int or float cell;
// ok is false when numeric text cannot be parsed.
func coerce(typ schema.ColumnType, cell string) (v Value, present, ok bool) {
	if typ == schema.TypeString {
		return String(cell), true, true
	}
	text := strings.TrimSpace(cell)
	if text == "" {
		if typ == schema.TypeIntOrEmpty {
			return Empty(), true, true
		}
		return Value{}, false, true
	}
	if typ == schema.TypeFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return Value{}, false, false
		}
		return Float(f), true, true
	}
	i, ok := parseInt(text)
	if !ok {
		return Value{}, false, false
	}
	return Int(i), true, true
}

// parseInt accepts plain integers and integral decimals such as "2.0".
func parseInt(text string) (int64, bool) {
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// decoder adapts the step function to pull-based streams. Records completed
// before a decode error are still handed out, then the error.
type decoder struct {
	state   DecodeState
	pending []Record
	err     error
	ended   bool
}

func (d *decoder) next(fetch func() (string, error)) (Record, error) {
	for len(d.pending) == 0 {
		if d.err != nil {
			return nil, d.err
		}
		if d.ended {
			return nil, io.EOF
		}
		chunk, err := fetch()
		switch {
		case err == io.EOF:
			d.ended = true
			d.state, d.pending, d.err = d.state.Finish()
		case err != nil:
			return nil, err
		default:
			d.state, d.pending, d.err = d.state.Step(chunk)
		}
	}
	rec := d.pending[0]
	d.pending[0] = nil
	d.pending = d.pending[1:]
	return rec, nil
}

// Decode lazily decodes a chunk stream into records of table. Records are
// yielded as soon as the chunk completing them has been read.
func Decode(table schema.Table, chunks *stream.Stream[string], opts DecodeOptions) *stream.Stream[Record] {
	d := &decoder{state: NewDecodeState(table, opts)}
	return stream.NewWithClose(func() (Record, error) {
		return d.next(chunks.Next)
	}, chunks.Close)
}

// DecodeAsync is Decode over a context-aware chunk stream. Every chunk
// fetch happens inside a record pull and observes that pull's context.
func DecodeAsync(table schema.Table, chunks *stream.AsyncStream[string], opts DecodeOptions) *stream.AsyncStream[Record] {
	d := &decoder{state: NewDecodeState(table, opts)}
	return stream.NewAsync(func(ctx context.Context) (Record, error) {
		return d.next(func() (string, error) { return chunks.Next(ctx) })
	}, chunks.Close)
}

// DecodeString decodes a whole table held in memory.
func DecodeString(table schema.Table, content string, opts DecodeOptions) ([]Record, error) {
	return Decode(table, stream.FromSlice([]string{content}), opts).Collect()
}
