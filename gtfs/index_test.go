package gtfs

import (
	"math"
	"testing"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := NewIndex(loadTestFeed(t))
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	return idx
}

func TestIndex_Lookups(t *testing.T) {
	idx := newTestIndex(t)

	if idx.AgencyName() != "Test Transit" || idx.AgencyTimezone() != "Europe/Paris" {
		t.Errorf("agency = %q %q", idx.AgencyName(), idx.AgencyTimezone())
	}
	if got := idx.StopName("S3"); got != "Zürich Straße" {
		t.Errorf("StopName = %q", got)
	}
	if got := idx.RouteShortName("R2"); got != "T2" {
		t.Errorf("RouteShortName = %q", got)
	}
	if got := idx.RouteType("R1"); got != RouteBus {
		t.Errorf("RouteType = %d", got)
	}
	if got := idx.RouteIDForTrip("T3"); got != "R2" {
		t.Errorf("RouteIDForTrip = %q", got)
	}
	if d, ok := idx.DirectionForTrip("T2"); !ok || d != DirectionInbound {
		t.Errorf("DirectionForTrip(T2) = %d, %v", d, ok)
	}
	if _, ok := idx.DirectionForTrip("T3"); ok {
		t.Error("T3 has no direction")
	}
	if got := idx.Routes(); len(got) != 2 || got[0] != "R1" {
		t.Errorf("Routes = %v", got)
	}
	if got := idx.StopName("unknown"); got != "" {
		t.Errorf("unknown stop = %q", got)
	}
}

func TestIndex_TripStops(t *testing.T) {
	idx := newTestIndex(t)

	tests := []struct {
		trip string
		want []string
	}{
		{"T1", []string{"S1", "S2", "S3"}},
		{"T2", []string{"S3", "S1"}},
		{"T3", nil},
	}
	for _, tt := range tests {
		t.Run(tt.trip, func(t *testing.T) {
			got := idx.TripStops(tt.trip)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}

	if got := idx.PreviousStop("T1", "S3"); got != "S2" {
		t.Errorf("PreviousStop = %q", got)
	}
	if got := idx.PreviousStop("T1", "S1"); got != "" {
		t.Errorf("PreviousStop of origin = %q", got)
	}
	if idx.OriginStop("T2") != "S3" || idx.DestinationStop("T2") != "S1" {
		t.Error("unexpected origin or destination")
	}
	if got := idx.DepartureTime("T1", "S2"); got != "08:11:00" {
		t.Errorf("DepartureTime = %q", got)
	}
	if got := idx.DropOffType("T1", "S3"); got != PickupNone {
		t.Errorf("DropOffType = %d", got)
	}
	if got := idx.PickupType("T1", "S2"); got != PickupScheduled {
		t.Errorf("blank PickupType = %d", got)
	}
}

func TestIndex_Shapes(t *testing.T) {
	idx := newTestIndex(t)

	pts := idx.ShapePoints("SH1")
	if len(pts) != 3 {
		t.Fatalf("got %d points", len(pts))
	}
	if pts[0].Latitude != 48.8566 || pts[2].Longitude != 2.2950 {
		t.Errorf("points not ordered by sequence: %v", pts)
	}
	if !idx.TripHasShape("T1") || idx.TripHasShape("T2") {
		t.Error("TripHasShape mismatch")
	}
	if l := idx.ShapeLengthKM("SH1"); l <= 0 {
		t.Errorf("ShapeLengthKM = %v", l)
	}
}

func TestIndex_Distances(t *testing.T) {
	idx := newTestIndex(t)

	d1 := HaversineKM(48.8566, 2.3522, 48.8675, 2.3637)
	d2 := HaversineKM(48.8675, 2.3637, 48.8738, 2.2950)
	if got := idx.StopDistanceAlongTripKM("T1", "S1"); got != 0 {
		t.Errorf("origin distance = %v", got)
	}
	if got := idx.StopDistanceAlongTripKM("T1", "S3"); math.Abs(got-(d1+d2)) > 1e-9 {
		t.Errorf("distance to S3 = %v, want %v", got, d1+d2)
	}

	mid, ok := idx.CoordinateAtDistance("T1", d1/2)
	if !ok {
		t.Fatal("no coordinate at distance")
	}
	if math.Abs(mid.Latitude-(48.8566+48.8675)/2) > 1e-6 {
		t.Errorf("midpoint latitude = %v", mid.Latitude)
	}
}

func TestHaversineKM(t *testing.T) {
	// Paris to London, roughly 344 km
	d := HaversineKM(48.8566, 2.3522, 51.5074, -0.1278)
	if d < 340 || d > 348 {
		t.Errorf("HaversineKM = %v", d)
	}
	if HaversineKM(10, 10, 10, 10) != 0 {
		t.Error("distance to self should be 0")
	}
}
