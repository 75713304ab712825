package csvio

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/theoremus-urban-solutions/gtfs-io/schema"
	"github.com/theoremus-urban-solutions/gtfs-io/stream"
)

const (
	DefaultNewline    = "\n"
	DefaultBufferSize = 64
)

var validate = validator.New()

// EncodeOptions controls block size and the record delimiter.
type EncodeOptions struct {
	Newline    string `yaml:"newline" validate:"required"`
	BufferSize int    `yaml:"bufferSize" validate:"gte=1"`
}

// WithDefaults fills zero fields and validates the result.
func (o EncodeOptions) WithDefaults() (EncodeOptions, error) {
	if o.Newline == "" {
		o.Newline = DefaultNewline
	}
	if o.BufferSize == 0 {
		o.BufferSize = DefaultBufferSize
	}
	if err := validate.Struct(o); err != nil {
		return o, fmt.Errorf("invalid encode options: %w", err)
	}
	return o, nil
}

// EncodeState is the state of one table write: the schema columns and the
// records buffered since the last block.
type EncodeState struct {
	table   schema.Table
	opts    EncodeOptions
	columns []string
	buffer  []Record
}

// NewEncodeState returns the initial state for writing table.
func NewEncodeState(table schema.Table, opts EncodeOptions) (EncodeState, error) {
	opts, err := opts.WithDefaults()
	if err != nil {
		return EncodeState{}, err
	}
	return EncodeState{
		table:   table,
		opts:    opts,
		columns: table.ColumnNames(),
		buffer:  make([]Record, 0, opts.BufferSize),
	}, nil
}

// Header returns the header block: the schema columns in declared order.
func (s EncodeState) Header() string {
	var b strings.Builder
	writeRow(&b, s.columns, s.opts.Newline)
	return b.String()
}

// Push buffers rec. When the buffer is full the serialized block is returned.
func (s EncodeState) Push(rec Record) (EncodeState, string, bool) {
	s.buffer = append(s.buffer, rec)
	if len(s.buffer) < s.opts.BufferSize {
		return s, "", false
	}
	return s.Flush()
}

// Flush serializes whatever is buffered. ok is false when nothing was buffered.
func (s EncodeState) Flush() (EncodeState, string, bool) {
	if len(s.buffer) == 0 {
		return s, "", false
	}
	var b strings.Builder
	fields := make([]string, len(s.columns))
	for _, rec := range s.buffer {
		for i, col := range s.columns {
			fields[i] = ""
			if v, ok := rec[col]; ok {
				fields[i] = v.Text()
			}
		}
		writeRow(&b, fields, s.opts.Newline)
	}
	clear(s.buffer)
	s.buffer = s.buffer[:0]
	return s, b.String(), true
}

// EncodeRecord serializes a single record as one row, without the header.
func EncodeRecord(table schema.Table, rec Record, newline string) string {
	if newline == "" {
		newline = DefaultNewline
	}
	var b strings.Builder
	fields := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		if v, ok := rec[col.Name]; ok {
			fields[i] = v.Text()
		}
	}
	writeRow(&b, fields, newline)
	return b.String()
}

func writeRow(b *strings.Builder, fields []string, newline string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		if needsQuotes(f, newline) {
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(f, `"`, `""`))
			b.WriteByte('"')
			continue
		}
		b.WriteString(f)
	}
	b.WriteString(newline)
}

func needsQuotes(field, newline string) bool {
	return strings.ContainsAny(field, ",\"\r\n") || strings.ContainsAny(field, newline)
}

// encoder adapts EncodeState to pull-based streams.
type encoder struct {
	state      EncodeState
	headerDone bool
	ended      bool
}

func (e *encoder) next(fetch func() (Record, error)) (string, error) {
	if !e.headerDone {
		e.headerDone = true
		return e.state.Header(), nil
	}
	for !e.ended {
		rec, err := fetch()
		if err == io.EOF {
			e.ended = true
			var block string
			var ok bool
			if e.state, block, ok = e.state.Flush(); ok {
				return block, nil
			}
			break
		}
		if err != nil {
			return "", err
		}
		var block string
		var ok bool
		if e.state, block, ok = e.state.Push(rec); ok {
			return block, nil
		}
	}
	return "", io.EOF
}

// Encode lazily serializes records of table into text blocks. The header is
// always the first block, even when there are no records.
func Encode(table schema.Table, records *stream.Stream[Record], opts EncodeOptions) *stream.Stream[string] {
	state, err := NewEncodeState(table, opts)
	if err != nil {
		return stream.NewWithClose(func() (string, error) { return "", err }, records.Close)
	}
	e := &encoder{state: state}
	return stream.NewWithClose(func() (string, error) {
		return e.next(records.Next)
	}, records.Close)
}

// EncodeAsync is Encode over a context-aware record stream.
func EncodeAsync(table schema.Table, records *stream.AsyncStream[Record], opts EncodeOptions) *stream.AsyncStream[string] {
	state, err := NewEncodeState(table, opts)
	if err != nil {
		return stream.NewAsync(func(context.Context) (string, error) { return "", err }, records.Close)
	}
	e := &encoder{state: state}
	return stream.NewAsync(func(ctx context.Context) (string, error) {
		return e.next(func() (Record, error) { return records.Next(ctx) })
	}, records.Close)
}

// EncodeString serializes a whole table into one string.
func EncodeString(table schema.Table, records []Record, opts EncodeOptions) (string, error) {
	var b strings.Builder
	for block, err := range Encode(table, stream.FromSlice(records), opts).All() {
		if err != nil {
			return b.String(), err
		}
		b.WriteString(block)
	}
	return b.String(), nil
}

// WriteTo copies encoded blocks to w verbatim and in order.
func WriteTo(w io.Writer, blocks *stream.Stream[string]) (int64, error) {
	var n int64
	for block, err := range blocks.All() {
		if err != nil {
			return n, err
		}
		m, err := io.WriteString(w, block)
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// WriteToAsync is WriteTo for an async block stream.
func WriteToAsync(ctx context.Context, w io.Writer, blocks *stream.AsyncStream[string]) (int64, error) {
	var n int64
	for block, err := range blocks.All(ctx) {
		if err != nil {
			return n, err
		}
		m, err := io.WriteString(w, block)
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
