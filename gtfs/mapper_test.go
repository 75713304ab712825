package gtfs

import (
	"errors"
	"testing"

	"github.com/theoremus-urban-solutions/gtfs-io/csvio"
	"github.com/theoremus-urban-solutions/gtfs-io/schema"
)

func TestStructMapper_FromRecord(t *testing.T) {
	m, err := NewStructMapper[StopTime](schema.MustLookup(schema.StopTimes))
	if err != nil {
		t.Fatal(err)
	}
	st, err := m.FromRecord(csvio.Record{
		"trip_id":             csvio.String("T1"),
		"stop_id":             csvio.String("S1"),
		"stop_sequence":       csvio.Int(4),
		"pickup_type":         csvio.Int(0),
		"drop_off_type":       csvio.Empty(),
		"shape_dist_traveled": csvio.Float(1.25),
	})
	if err != nil {
		t.Fatal(err)
	}
	if st.TripID != "T1" || st.StopSequence != 4 {
		t.Errorf("unexpected row %+v", st)
	}
	if st.PickupType == nil || *st.PickupType != PickupScheduled {
		t.Errorf("pickup_type 0 should be set, got %v", st.PickupType)
	}
	if st.DropOffType != nil {
		t.Error("empty drop_off_type should be nil")
	}
	if st.ShapeDistTraveled == nil || *st.ShapeDistTraveled != 1.25 {
		t.Errorf("shape_dist_traveled = %v", st.ShapeDistTraveled)
	}
}

func TestStructMapper_ToRecord(t *testing.T) {
	m, err := NewStructMapper[Trip](schema.MustLookup(schema.Trips))
	if err != nil {
		t.Fatal(err)
	}
	dir := DirectionOutbound
	rec, err := m.ToRecord(Trip{RouteID: "R1", ServiceID: "S1", ID: "T1", DirectionID: &dir})
	if err != nil {
		t.Fatal(err)
	}
	want := csvio.Record{
		"route_id":     csvio.String("R1"),
		"service_id":   csvio.String("S1"),
		"trip_id":      csvio.String("T1"),
		"direction_id": csvio.Int(0),
	}
	if !rec.Equal(want) {
		t.Errorf("got %#v, want %#v", rec, want)
	}
}

func TestStructMapper_StringCells(t *testing.T) {
	m, err := NewStructMapper[Calendar](schema.MustLookup(schema.Calendar))
	if err != nil {
		t.Fatal(err)
	}
	c, err := m.FromRecord(csvio.Record{"service_id": csvio.String("WK"), "monday": csvio.String("1")})
	if err != nil {
		t.Fatal(err)
	}
	if c.Monday != 1 {
		t.Errorf("monday = %d", c.Monday)
	}
	if _, err := m.FromRecord(csvio.Record{"monday": csvio.String("yes")}); err == nil {
		t.Error("expected an error for a non numeric cell")
	}
}

func TestNewStructMapper_Invalid(t *testing.T) {
	type unknownColumn struct {
		ID string `csv:"vehicle_id"`
	}
	type badType struct {
		ID []string `csv:"stop_id"`
	}
	stops := schema.MustLookup(schema.Stops)

	if _, err := NewStructMapper[unknownColumn](stops); !errors.Is(err, ErrUnsupportedField) {
		t.Errorf("unknown column: %v", err)
	}
	if _, err := NewStructMapper[badType](stops); !errors.Is(err, ErrUnsupportedField) {
		t.Errorf("bad type: %v", err)
	}
	if _, err := NewStructMapper[string](stops); !errors.Is(err, ErrUnsupportedField) {
		t.Errorf("non struct: %v", err)
	}
}
