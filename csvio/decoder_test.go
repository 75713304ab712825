package csvio

import (
	"context"
	"errors"
	"testing"

	"github.com/theoremus-urban-solutions/gtfs-io/schema"
	"github.com/theoremus-urban-solutions/gtfs-io/stream"
)

const stopsContent = "stop_id,stop_name,stop_code,stop_desc,stop_lat,stop_lon,location_type,parent_station\n" +
	"STOP_01,\"Test\",1001,,50.25,-23.28,1,\n" +
	"\"STOP_02\",Test2,\"1002\",,50.25,-23.28,\"0\",STOP_01\n" +
	"STOP_03,\"NameWith,Comma\",1003,,50.30,-23.30,0,\n" +
	"STOP_04,Test4,1004,\"Description with\nNew line\",50.31,-23.48,0,\n"

var stopsChunks = []string{
	"stop_id,stop_name,stop_code,stop_desc,stop_lat,stop_", "lon,location_type,parent_station\n",
	"STOP_01,\"Test\",1001,,50.25,-23.28,1,\n\"STOP_02\",Test2,\"1002\",,50",
	".25,-23.28,\"0\",STOP_01\n",
	"STOP_03,\"NameWith,Comma\",1003,,50.30,-23.30,0,\nSTOP_04,Test4",
	",1004,\"Description with",
	"\nNew line\",50.31,-23.48,0,\n",
}

func idName() schema.Table {
	return schema.NewTable("people",
		schema.Column{Name: "id", Type: schema.TypeString},
		schema.Column{Name: "name", Type: schema.TypeString})
}

// splitEvery cuts s into chunks of n runes
func splitEvery(s string, n int) []string {
	runes := []rune(s)
	var out []string
	for len(runes) > n {
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

func decodeChunks(t *testing.T, table schema.Table, chunks []string) []Record {
	t.Helper()
	records, err := Decode(table, stream.FromSlice(chunks), DecodeOptions{}).Collect()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return records
}

func assertRecords(t *testing.T, got, want []Record) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("record %d: got %#v, want %#v", i, got[i], want[i])
		}
	}
}

// TestDecode_Stops checks cell coercion on a realistic stops table
func TestDecode_Stops(t *testing.T) {
	records, err := DecodeString(schema.MustLookup(schema.Stops), stopsContent, DecodeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}

	first := records[0]
	if first.Str("stop_id") != "STOP_01" || first.Str("stop_name") != "Test" {
		t.Errorf("unexpected first record %#v", first)
	}
	if v := first["stop_code"]; v.Kind() != KindString || v.Str() != "1001" {
		t.Errorf("stop_code should stay a string, got %#v", v)
	}
	if lt, ok := first.Int("location_type"); !ok || lt != 1 {
		t.Errorf("location_type = %d, %v", lt, ok)
	}
	if first.Str("parent_station") != "" {
		t.Errorf("parent_station = %q", first.Str("parent_station"))
	}

	second := records[1]
	if second.Str("stop_id") != "STOP_02" || second.Str("stop_code") != "1002" || second.Str("parent_station") != "STOP_01" {
		t.Errorf("unexpected second record %#v", second)
	}
	if lt, ok := second.Int("location_type"); !ok || lt != 0 {
		t.Errorf("quoted location_type = %d, %v", lt, ok)
	}

	if records[2].Str("stop_name") != "NameWith,Comma" {
		t.Errorf("stop_name = %q", records[2].Str("stop_name"))
	}

	last := records[3]
	if last.Str("stop_desc") != "Description with\nNew line" {
		t.Errorf("stop_desc = %q", last.Str("stop_desc"))
	}
	if lat, _ := last.Float("stop_lat"); lat != 50.31 {
		t.Errorf("stop_lat = %v", lat)
	}
	if lon, _ := last.Float("stop_lon"); lon != -23.48 {
		t.Errorf("stop_lon = %v", lon)
	}
}

// TestDecode_ChunkBoundaries checks the records do not depend on where chunks are cut
func TestDecode_ChunkBoundaries(t *testing.T) {
	table := schema.MustLookup(schema.Stops)
	want, err := DecodeString(table, stopsContent, DecodeOptions{})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		chunks []string
	}{
		{"irregular", stopsChunks},
		{"size 1", splitEvery(stopsContent, 1)},
		{"size 7", splitEvery(stopsContent, 7)},
		{"size 1024", splitEvery(stopsContent, 1024)},
		{"with empty chunks", append([]string{"", ""}, append(splitEvery(stopsContent, 13), "")...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertRecords(t, decodeChunks(t, table, tt.chunks), want)
		})
	}
}

func TestDecode_QuoteSplitAcrossChunks(t *testing.T) {
	got := decodeChunks(t, idName(), []string{"id,name\n1,\"A", "A\"\n2,B\n"})
	assertRecords(t, got, []Record{
		{"id": String("1"), "name": String("AA")},
		{"id": String("2"), "name": String("B")},
	})
}

func TestDecode_NewlineInQuotedField(t *testing.T) {
	got := decodeChunks(t, idName(), []string{"id,name\n1,\"line1\n", "line2\"\n"})
	assertRecords(t, got, []Record{{"id": String("1"), "name": String("line1\nline2")}})
}

func TestDecode_Basic(t *testing.T) {
	got := decodeChunks(t, idName(), []string{"id,name\n1,A\n2,B\n"})
	assertRecords(t, got, []Record{
		{"id": String("1"), "name": String("A")},
		{"id": String("2"), "name": String("B")},
	})
}

func TestDecode_EmptyInputs(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
	}{
		{"no chunks", nil},
		{"empty content", []string{""}},
		{"header only", []string{"id,name\n"}},
		{"header without newline", []string{"id,name"}},
		{"blank lines", []string{"\n\n", "id,name\n\n"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeChunks(t, idName(), tt.chunks)
			if len(got) != 0 {
				t.Errorf("expected no records, got %v", got)
			}
		})
	}
}

func TestDecode_LastRowWithoutNewline(t *testing.T) {
	got := decodeChunks(t, idName(), []string{"id,name\r\n1,A\r\n", "2,B"})
	assertRecords(t, got, []Record{
		{"id": String("1"), "name": String("A")},
		{"id": String("2"), "name": String("B")},
	})
}

func TestDecode_ByteOrderMark(t *testing.T) {
	got := decodeChunks(t, idName(), []string{"\ufeffid,name\n1,A\n"})
	assertRecords(t, got, []Record{{"id": String("1"), "name": String("A")}})
}

func TestDecode_HeaderOrderAndUnknownColumns(t *testing.T) {
	got := decodeChunks(t, idName(), []string{"extra, name ,id\nx,A,1\n"})
	assertRecords(t, got, []Record{{"id": String("1"), "name": String("A")}})
}

func TestDecode_IntOrEmpty(t *testing.T) {
	table := schema.MustLookup(schema.Trips)
	content := "route_id,service_id,trip_id,direction_id,wheelchair_accessible,bikes_allowed\n" +
		"R1,S1,T1,,,0\n" +
		"R1,S1,T2,1,2.0,\n"
	records, err := DecodeString(table, content, DecodeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	assertRecords(t, records, []Record{
		{"route_id": String("R1"), "service_id": String("S1"), "trip_id": String("T1"),
			"wheelchair_accessible": Empty(), "bikes_allowed": Int(0)},
		{"route_id": String("R1"), "service_id": String("S1"), "trip_id": String("T2"),
			"direction_id": Int(1), "wheelchair_accessible": Int(2), "bikes_allowed": Empty()},
	})
	if records[0].Has("direction_id") {
		t.Error("blank int cell should be absent")
	}
	if !records[0]["wheelchair_accessible"].IsEmpty() {
		t.Error("blank int-or-empty cell should be Empty")
	}
}

func TestDecode_Coercion(t *testing.T) {
	table := schema.MustLookup(schema.Stops)
	content := "stop_id,stop_lat,location_type\nS1,north,x\n"

	records, err := DecodeString(table, content, DecodeOptions{})
	if err != nil {
		t.Fatalf("permissive decode: %v", err)
	}
	assertRecords(t, records, []Record{{"stop_id": String("S1")}})

	_, err = DecodeString(table, content, DecodeOptions{StrictNumbers: true})
	var ce *CoercionError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CoercionError, got %v", err)
	}
	if ce.Column != "stop_lat" || ce.Text != "north" || ce.Row != 1 {
		t.Errorf("unexpected coercion error %+v", ce)
	}

	for _, text := range []string{"NaN", "Inf", "-inf"} {
		recs, err := DecodeString(table, "stop_id,stop_lat\nS1,"+text+"\n", DecodeOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if recs[0].Has("stop_lat") {
			t.Errorf("%s should not decode as a float", text)
		}
	}
}

func TestDecode_UnterminatedQuote(t *testing.T) {
	s := Decode(idName(), stream.FromSlice([]string{"id,name\n1,A\n2,\"B\n"}), DecodeOptions{})

	rec, err := s.Next()
	if err != nil {
		t.Fatalf("first record: %v", err)
	}
	if rec.Str("name") != "A" {
		t.Errorf("unexpected record %#v", rec)
	}

	_, err = s.Next()
	var se *StructuralError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StructuralError, got %v", err)
	}
	if !errors.Is(err, ErrUnterminatedQuote) {
		t.Errorf("expected ErrUnterminatedQuote, got %v", err)
	}
	if se.Table != "people" {
		t.Errorf("table = %q", se.Table)
	}
}

func TestDecodeState_Step(t *testing.T) {
	st := NewDecodeState(idName(), DecodeOptions{})

	st, recs, err := st.Step("id,name\n1,")
	if err != nil || len(recs) != 0 {
		t.Fatalf("step 1: %v %v", recs, err)
	}
	if got := st.Columns(); len(got) != 2 {
		t.Errorf("header not read: %v", got)
	}
	if st.Pending() != 2 {
		t.Errorf("pending = %d", st.Pending())
	}

	next, recs, err := st.Step("A\n")
	if err != nil || len(recs) != 1 {
		t.Fatalf("step 2: %v %v", recs, err)
	}
	if st.Pending() != 2 {
		t.Error("Step changed the previous state")
	}

	final, recs, err := next.Finish()
	if err != nil || len(recs) != 0 {
		t.Fatalf("finish: %v %v", recs, err)
	}
	if _, _, err := final.Step("2,B\n"); err == nil {
		t.Error("expected an error when stepping a finished state")
	}
}

func TestDecodeAsync(t *testing.T) {
	ctx := context.Background()
	table := schema.MustLookup(schema.Stops)
	want, err := DecodeString(table, stopsContent, DecodeOptions{})
	if err != nil {
		t.Fatal(err)
	}

	got, err := DecodeAsync(table, stream.FromSliceAsync(stopsChunks), DecodeOptions{}).Collect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	assertRecords(t, got, want)
}

func TestDecodeAsync_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := DecodeAsync(idName(), stream.FromSliceAsync([]string{"id,name\n", "1,A\n"}), DecodeOptions{})
	cancel()
	if _, err := s.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDecode_SingleTraversal(t *testing.T) {
	s := Decode(idName(), stream.FromSlice([]string{"id,name\n1,A\n"}), DecodeOptions{})
	if _, err := s.Collect(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Next(); !errors.Is(err, stream.ErrAlreadyConsumed) {
		t.Errorf("unexpected error after traversal: %v", err)
	}
}
