package csvio

import (
	"context"
	"strings"
	"testing"

	"github.com/theoremus-urban-solutions/gtfs-io/schema"
	"github.com/theoremus-urban-solutions/gtfs-io/stream"
)

var tripRecords = []Record{
	{"route_id": String("R01"), "service_id": String("S01"), "trip_id": String("T01"), "direction_id": Int(0)},
	{"route_id": String("R01"), "service_id": String("S02"), "trip_id": String("T02"), "trip_headsign": String("HEADSIGN")},
	{"route_id": String("R03"), "service_id": String("S01"), "trip_id": String("T03"), "trip_headsign": String("with,comma")},
	{"route_id": String("R02"), "service_id": String("S02"), "trip_id": String("T04"), "trip_headsign": String("with\nnewline")},
}

const tripsContent = "route_id,service_id,trip_id,trip_headsign,trip_short_name,direction_id,block_id,shape_id,wheelchair_accessible,bikes_allowed\n" +
	"R01,S01,T01,,,0,,,,\n" +
	"R01,S02,T02,HEADSIGN,,,,,,\n" +
	"R03,S01,T03,\"with,comma\",,,,,,\n" +
	"R02,S02,T04,\"with\n" +
	"newline\",,,,,,\n"

func abTable() schema.Table {
	return schema.NewTable("pairs",
		schema.Column{Name: "a", Type: schema.TypeString},
		schema.Column{Name: "b", Type: schema.TypeInt})
}

// TestEncode_Trips checks column order, escaping and absent columns
func TestEncode_Trips(t *testing.T) {
	content, err := EncodeString(schema.MustLookup(schema.Trips), tripRecords, EncodeOptions{BufferSize: 2})
	if err != nil {
		t.Fatal(err)
	}
	if content != tripsContent {
		t.Errorf("unexpected content:\n%s", content)
	}
}

func TestEncode_Blocks(t *testing.T) {
	blocks, err := Encode(schema.MustLookup(schema.Trips), stream.FromSlice(tripRecords), EncodeOptions{BufferSize: 3}).Collect()
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 3 {
		t.Fatalf("expected header + 2 record blocks, got %d: %q", len(blocks), blocks)
	}
	if !strings.HasPrefix(blocks[0], "route_id,") || strings.Count(blocks[0], "\n") != 1 {
		t.Errorf("first block should be the header, got %q", blocks[0])
	}
	if strings.Count(blocks[1], "\n") != 3 {
		t.Errorf("second block should hold 3 rows, got %q", blocks[1])
	}
	if !strings.HasPrefix(blocks[2], "R02,") {
		t.Errorf("last block should hold the remainder, got %q", blocks[2])
	}
}

func TestEncode_NoRecords(t *testing.T) {
	tests := []struct {
		name  string
		table schema.Table
		want  string
	}{
		{"custom", abTable(), "a,b\n"},
		{"routes", schema.MustLookup(schema.Routes),
			"route_id,agency_id,route_short_name,route_long_name,route_desc,route_type,route_url,route_color," +
				"route_text_color,route_sort_order,continuous_pickup,continuous_drop_off,network_id\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeString(tt.table, nil, EncodeOptions{})
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncode_Escaping(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"plain", "x", "x,1\n"},
		{"comma", "x,y", "\"x,y\",1\n"},
		{"quote", `say "hi"`, "\"say \"\"hi\"\"\",1\n"},
		{"carriage return", "x\ry", "\"x\ry\",1\n"},
		{"empty", "", ",1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeRecord(abTable(), Record{"a": String(tt.value), "b": Int(1)}, "")
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncode_CustomNewline(t *testing.T) {
	got, err := EncodeString(abTable(), []Record{{"a": String("x"), "b": Int(1)}}, EncodeOptions{Newline: "\r\n"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "a,b\r\nx,1\r\n" {
		t.Errorf("got %q", got)
	}
}

func TestEncode_InvalidOptions(t *testing.T) {
	_, err := EncodeString(abTable(), nil, EncodeOptions{BufferSize: -1})
	if err == nil {
		t.Fatal("expected an error for a negative buffer size")
	}
}

func TestEncode_Values(t *testing.T) {
	table := schema.MustLookup(schema.Stops)
	rec := Record{"stop_id": String("S1"), "stop_lat": Float(50.25), "location_type": Int(1), "wheelchair_boarding": Empty()}
	got := EncodeRecord(table, rec, "\n")
	want := "S1,,,,,50.25,,,,1,,,,,\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

// TestRoundTrip decodes what was encoded
func TestRoundTrip(t *testing.T) {
	table := schema.MustLookup(schema.Trips)
	content, err := EncodeString(table, tripRecords, EncodeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	records, err := DecodeString(table, content, DecodeOptions{})
	if err != nil {
		t.Fatal(err)
	}

	// absent columns come back as "" or Empty
	for _, rec := range records {
		for col, v := range rec {
			if v.IsEmpty() || (v.Kind() == KindString && v.Str() == "") {
				delete(rec, col)
			}
		}
	}
	assertRecords(t, records, tripRecords)
}

func TestEncodeAsync(t *testing.T) {
	ctx := context.Background()
	table := schema.MustLookup(schema.Trips)
	blocks := EncodeAsync(table, stream.FromSliceAsync(tripRecords), EncodeOptions{BufferSize: 2})

	var b strings.Builder
	if _, err := WriteToAsync(ctx, &b, blocks); err != nil {
		t.Fatal(err)
	}
	if b.String() != tripsContent {
		t.Errorf("unexpected content:\n%s", b.String())
	}
}

func TestEncodeState_PushFlush(t *testing.T) {
	st, err := NewEncodeState(abTable(), EncodeOptions{BufferSize: 2})
	if err != nil {
		t.Fatal(err)
	}
	if st.Header() != "a,b\n" {
		t.Errorf("header %q", st.Header())
	}

	st, _, ok := st.Push(Record{"a": String("1")})
	if ok {
		t.Fatal("block emitted before the buffer was full")
	}
	st, block, ok := st.Push(Record{"a": String("2"), "b": Int(2)})
	if !ok || block != "1,\n2,2\n" {
		t.Fatalf("got %q, %v", block, ok)
	}
	if _, _, ok := st.Flush(); ok {
		t.Error("flush after a full block should be empty")
	}
}
