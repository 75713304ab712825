package gtfs

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/theoremus-urban-solutions/gtfs-io/csvio"
	"github.com/theoremus-urban-solutions/gtfs-io/schema"
	"github.com/theoremus-urban-solutions/gtfs-io/stream"
)

// TableError reports the table a load or write failure belongs to.
type TableError struct {
	Table schema.TableName
	Err   error
}

func (e *TableError) Error() string { return fmt.Sprintf("table %s: %v", e.Table, e.Err) }

func (e *TableError) Unwrap() error { return e.Err }

// Entry is one present table of a feed.
type Entry[C any] struct {
	Name    schema.TableName
	Table   schema.Table
	Records C
}

// Feed maps table names to record containers. The required tables are
// always present; other tables only once set.
type Feed[C any] struct {
	tables map[schema.TableName]C
}

func newFeed[C any](empty func() C) Feed[C] {
	f := Feed[C]{tables: make(map[schema.TableName]C)}
	for _, name := range schema.RequiredNames() {
		f.tables[name] = empty()
	}
	return f
}

// Table returns the container of a present table.
func (f *Feed[C]) Table(name schema.TableName) (C, bool) {
	c, ok := f.tables[name]
	return c, ok
}

// SetTable makes name present with container c, replacing any previous one.
func (f *Feed[C]) SetTable(name schema.TableName, c C) error {
	if schema.Order(name) < 0 {
		return fmt.Errorf("%w: %q", schema.ErrUnknownTable, name)
	}
	f.tables[name] = c
	return nil
}

// Tables enumerates present tables in feed order.
func (f *Feed[C]) Tables() iter.Seq[Entry[C]] {
	return func(yield func(Entry[C]) bool) {
		for _, t := range schema.All() {
			c, ok := f.tables[t.Name]
			if !ok {
				continue
			}
			if !yield(Entry[C]{Name: t.Name, Table: t, Records: c}) {
				return
			}
		}
	}
}

// Len returns the number of present tables.
func (f *Feed[C]) Len() int { return len(f.tables) }

// LazyFeed holds one single-pass record stream per table.
type LazyFeed struct {
	Feed[*stream.Stream[csvio.Record]]
}

func NewLazyFeed() *LazyFeed {
	return &LazyFeed{Feed: newFeed(stream.Empty[csvio.Record])}
}

// Load drains every table. A failing table does not stop the others: the
// error joins one *TableError per failed table and the returned feed keeps
// the records read before each failure.
func (f *LazyFeed) Load() (*LoadedFeed, error) {
	out := NewLoadedFeed()
	var errs []error
	for e := range f.Tables() {
		records, err := e.Records.Collect()
		out.tables[e.Name] = records
		if err != nil {
			errs = append(errs, &TableError{Table: e.Name, Err: err})
		}
	}
	return out, errors.Join(errs...)
}

// Async wraps every stream as an already-resolved async stream.
func (f *LazyFeed) Async() *AsyncFeed {
	out := NewAsyncFeed()
	for e := range f.Tables() {
		out.tables[e.Name] = stream.Async(e.Records)
	}
	return out
}

// Close releases the sources of all tables not yet drained.
func (f *LazyFeed) Close() error {
	var errs []error
	for e := range f.Tables() {
		errs = append(errs, e.Records.Close())
	}
	return errors.Join(errs...)
}

// AsyncFeed holds one context-aware record stream per table. Tables share
// no state, Load drains them concurrently.
type AsyncFeed struct {
	Feed[*stream.AsyncStream[csvio.Record]]

	// Concurrency bounds the tables drained at once by Load, 0 means GOMAXPROCS.
	Concurrency int
}

func NewAsyncFeed() *AsyncFeed {
	return &AsyncFeed{Feed: newFeed(stream.EmptyAsync[csvio.Record])}
}

// Records drains a single table. An absent table yields no records.
func (f *AsyncFeed) Records(ctx context.Context, name schema.TableName) ([]csvio.Record, error) {
	s, ok := f.Table(name)
	if !ok {
		return []csvio.Record{}, nil
	}
	records, err := s.Collect(ctx)
	if err != nil {
		return records, &TableError{Table: name, Err: err}
	}
	return records, nil
}

// Load drains every table, see LazyFeed.Load. Records keep their order
// within a table; tables are read concurrently.
func (f *AsyncFeed) Load(ctx context.Context) (*LoadedFeed, error) {
	var entries []Entry[*stream.AsyncStream[csvio.Record]]
	for e := range f.Tables() {
		entries = append(entries, e)
	}

	limit := f.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	results := make([][]csvio.Record, len(entries))
	errs := make([]error, len(entries))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, e := range entries {
		g.Go(func() error {
			records, err := e.Records.Collect(ctx)
			results[i] = records
			if err != nil {
				errs[i] = &TableError{Table: e.Name, Err: err}
			}
			return nil
		})
	}
	_ = g.Wait()

	out := NewLoadedFeed()
	for i, e := range entries {
		out.tables[e.Name] = results[i]
	}
	return out, errors.Join(errs...)
}

// Close releases the sources of all tables not yet drained.
func (f *AsyncFeed) Close() error {
	var errs []error
	for e := range f.Tables() {
		errs = append(errs, e.Records.Close())
	}
	return errors.Join(errs...)
}

// LoadedFeed holds every table in memory and can be traversed any number of times.
type LoadedFeed struct {
	Feed[[]csvio.Record]
}

func NewLoadedFeed() *LoadedFeed {
	return &LoadedFeed{Feed: newFeed(func() []csvio.Record { return []csvio.Record{} })}
}

// Records returns the rows of a table, nil when absent.
func (f *LoadedFeed) Records(name schema.TableName) []csvio.Record {
	return f.tables[name]
}

// Lazy returns a fresh single-pass view over every table.
func (f *LoadedFeed) Lazy() *LazyFeed {
	out := NewLazyFeed()
	for e := range f.Tables() {
		out.tables[e.Name] = stream.FromSlice(e.Records)
	}
	return out
}

// Async returns a fresh async view over every table.
func (f *LoadedFeed) Async() *AsyncFeed {
	out := NewAsyncFeed()
	for e := range f.Tables() {
		out.tables[e.Name] = stream.FromSliceAsync(e.Records)
	}
	return out
}

// Count returns the number of records per present table.
func (f *LoadedFeed) Count() map[schema.TableName]int {
	out := make(map[schema.TableName]int, len(f.tables))
	for name, records := range f.tables {
		out[name] = len(records)
	}
	return out
}

// Rows maps a table's records to T with a StructMapper.
func Rows[T any](f *LoadedFeed, name schema.TableName) ([]T, error) {
	tio, err := StructIO[T](name)
	if err != nil {
		return nil, err
	}
	records := f.Records(name)
	out := make([]T, 0, len(records))
	for _, rec := range records {
		row, err := tio.Mapper.FromRecord(rec)
		if err != nil {
			return out, err
		}
		out = append(out, row)
	}
	return out, nil
}
