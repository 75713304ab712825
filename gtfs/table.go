package gtfs

import (
	"context"
	"strings"

	"github.com/theoremus-urban-solutions/gtfs-io/csvio"
	"github.com/theoremus-urban-solutions/gtfs-io/schema"
	"github.com/theoremus-urban-solutions/gtfs-io/stream"
)

// TableIO binds one table schema to the codec and maps rows through Mapper.
type TableIO[R any] struct {
	Table  schema.Table
	Mapper Mapper[R]
	Decode csvio.DecodeOptions
	Encode csvio.EncodeOptions
}

// NewTableIO returns the IO for a registered table.
func NewTableIO[R any](name schema.TableName, mapper Mapper[R]) (*TableIO[R], error) {
	table, err := schema.Lookup(name)
	if err != nil {
		return nil, err
	}
	return &TableIO[R]{Table: table, Mapper: mapper}, nil
}

// RecordIO returns the untyped IO for a registered table.
func RecordIO(name schema.TableName) (*TableIO[csvio.Record], error) {
	return NewTableIO[csvio.Record](name, RecordMapper{})
}

// StructIO returns an IO mapping the table's records to T, see StructMapper.
func StructIO[T any](name schema.TableName) (*TableIO[T], error) {
	table, err := schema.Lookup(name)
	if err != nil {
		return nil, err
	}
	m, err := NewStructMapper[T](table)
	if err != nil {
		return nil, err
	}
	return &TableIO[T]{Table: table, Mapper: m}, nil
}

// Read decodes chunks lazily into rows.
func (t *TableIO[R]) Read(chunks *stream.Stream[string]) *stream.Stream[R] {
	return stream.Map(csvio.Decode(t.Table, chunks, t.Decode), t.Mapper.FromRecord)
}

// ReadAsync is Read over an async chunk stream.
func (t *TableIO[R]) ReadAsync(chunks *stream.AsyncStream[string]) *stream.AsyncStream[R] {
	return stream.MapAsync(csvio.DecodeAsync(t.Table, chunks, t.Decode), t.Mapper.FromRecord)
}

// ReadContent decodes a whole table held in memory.
func (t *TableIO[R]) ReadContent(content string) ([]R, error) {
	return t.Read(stream.FromSlice([]string{content})).Collect()
}

// ReadAll drains an async chunk stream into rows.
func (t *TableIO[R]) ReadAll(ctx context.Context, chunks *stream.AsyncStream[string]) ([]R, error) {
	return t.ReadAsync(chunks).Collect(ctx)
}

// Write encodes rows lazily. The header is the first block.
func (t *TableIO[R]) Write(rows *stream.Stream[R]) *stream.Stream[string] {
	return csvio.Encode(t.Table, stream.Map(rows, t.Mapper.ToRecord), t.Encode)
}

// WriteAsync is Write over an async row stream.
func (t *TableIO[R]) WriteAsync(rows *stream.AsyncStream[R]) *stream.AsyncStream[string] {
	return csvio.EncodeAsync(t.Table, stream.MapAsync(rows, t.Mapper.ToRecord), t.Encode)
}

// WriteContent encodes rows into one string.
func (t *TableIO[R]) WriteContent(rows []R) (string, error) {
	var b strings.Builder
	_, err := csvio.WriteTo(&b, t.Write(stream.FromSlice(rows)))
	return b.String(), err
}

// WriteAll drains an async row stream into one string.
func (t *TableIO[R]) WriteAll(ctx context.Context, rows *stream.AsyncStream[R]) (string, error) {
	var b strings.Builder
	_, err := csvio.WriteToAsync(ctx, &b, t.WriteAsync(rows))
	return b.String(), err
}
