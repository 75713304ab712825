package gtfs

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/theoremus-urban-solutions/gtfs-io/csvio"
	"github.com/theoremus-urban-solutions/gtfs-io/schema"
)

// SerializeFeed encodes a LoadedFeed to bytes as a protobuf Struct: one
// list of row structs per present table. Empty cells are stored as null,
// absent cells are left out.
// This is useful for disk-based caching to avoid re-parsing large feeds.
//
// Example:
//
//	reader, _ := gtfs.OpenZip("gtfs.zip", gtfs.ReaderOptions{})
//	feed, _ := reader.Load()
//	data, err := gtfs.SerializeFeed(feed)
//	if err != nil {
//	    // handle error
//	}
//	os.WriteFile("/path/to/cache/feed.pb", data, 0644)
//
// Thread safety: Safe for concurrent use once the feed is fully loaded.
func SerializeFeed(feed *LoadedFeed) ([]byte, error) {
	st, err := feedToStruct(feed)
	if err != nil {
		return nil, err
	}
	data, err := proto.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("failed to encode feed snapshot: %w", err)
	}
	return data, nil
}

// DeserializeFeed decodes a snapshot produced by SerializeFeed. Value kinds
// are restored from the schema column types.
//
// Example:
//
//	data, _ := os.ReadFile("/path/to/cache/feed.pb")
//	feed, err := gtfs.DeserializeFeed(data)
//	if err != nil {
//	    // Cache is corrupted or invalid, read the archive again
//	    feed, _ = reader.Load()
//	}
func DeserializeFeed(data []byte) (*LoadedFeed, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to decode feed snapshot: %w", err)
	}
	return structToFeed(&st)
}

// SerializeFeedToFile writes a snapshot to a file.
// This is a convenience wrapper around SerializeFeed for direct file I/O.
func SerializeFeedToFile(feed *LoadedFeed, filepath string) error {
	data, err := SerializeFeed(feed)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, data, 0644)
}

// DeserializeFeedFromFile reads a snapshot from a file.
// This is a convenience wrapper around DeserializeFeed for direct file I/O.
func DeserializeFeedFromFile(filepath string) (*LoadedFeed, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	return DeserializeFeed(data)
}

// SerializeFeedToWriter writes a snapshot to an io.Writer, for custom
// storage backends (S3, MinIO, etc.).
func SerializeFeedToWriter(feed *LoadedFeed, w io.Writer) error {
	data, err := SerializeFeed(feed)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write feed snapshot: %w", err)
	}
	return nil
}

// DeserializeFeedFromReader reads a snapshot from an io.Reader.
func DeserializeFeedFromReader(r io.Reader) (*LoadedFeed, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed snapshot: %w", err)
	}
	return DeserializeFeed(data)
}

func feedToStruct(feed *LoadedFeed) (*structpb.Struct, error) {
	st := &structpb.Struct{Fields: make(map[string]*structpb.Value, feed.Len())}
	for e := range feed.Tables() {
		rows := make([]*structpb.Value, len(e.Records))
		for i, rec := range e.Records {
			fields := make(map[string]*structpb.Value, len(rec))
			for col, v := range rec {
				fields[col] = valueToProto(v)
			}
			rows[i] = structpb.NewStructValue(&structpb.Struct{Fields: fields})
		}
		st.Fields[string(e.Name)] = structpb.NewListValue(&structpb.ListValue{Values: rows})
	}
	return st, nil
}

func valueToProto(v csvio.Value) *structpb.Value {
	switch v.Kind() {
	case csvio.KindInt, csvio.KindFloat:
		f, _ := v.Float64()
		return structpb.NewNumberValue(f)
	case csvio.KindEmpty:
		return structpb.NewNullValue()
	}
	return structpb.NewStringValue(v.Str())
}

func structToFeed(st *structpb.Struct) (*LoadedFeed, error) {
	feed := NewLoadedFeed()
	for name, list := range st.GetFields() {
		table, err := schema.Lookup(schema.TableName(name))
		if err != nil {
			return nil, fmt.Errorf("feed snapshot: %w", err)
		}
		rows := list.GetListValue().GetValues()
		records := make([]csvio.Record, len(rows))
		for i, row := range rows {
			fields := row.GetStructValue().GetFields()
			rec := make(csvio.Record, len(fields))
			for col, pv := range fields {
				c, ok := table.Column(col)
				if !ok {
					continue
				}
				v, err := valueFromProto(c, pv)
				if err != nil {
					return nil, fmt.Errorf("feed snapshot: %s row %d: %w", name, i+1, err)
				}
				rec[col] = v
			}
			records[i] = rec
		}
		feed.tables[table.Name] = records
	}
	return feed, nil
}

func valueFromProto(c schema.Column, pv *structpb.Value) (csvio.Value, error) {
	switch k := pv.GetKind().(type) {
	case *structpb.Value_NullValue:
		return csvio.Empty(), nil
	case *structpb.Value_StringValue:
		if c.Type != schema.TypeString {
			return csvio.Value{}, fmt.Errorf("column %s: unexpected string for %s", c.Name, c.Type)
		}
		return csvio.String(k.StringValue), nil
	case *structpb.Value_NumberValue:
		switch c.Type {
		case schema.TypeFloat:
			return csvio.Float(k.NumberValue), nil
		case schema.TypeString:
			return csvio.String(strconv.FormatFloat(k.NumberValue, 'f', -1, 64)), nil
		}
		if k.NumberValue != math.Trunc(k.NumberValue) {
			return csvio.Value{}, fmt.Errorf("column %s: %v is not an integer", c.Name, k.NumberValue)
		}
		return csvio.Int(int64(k.NumberValue)), nil
	}
	return csvio.Value{}, fmt.Errorf("column %s: unsupported value %T", c.Name, pv.GetKind())
}
