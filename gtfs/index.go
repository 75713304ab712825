package gtfs

import (
	"slices"
	"sort"

	"github.com/theoremus-urban-solutions/gtfs-io/schema"
)

// Index stores lookups over a loaded feed for fast access by id.
// No referential checks are made: lookups of unknown ids return zero values.
type Index struct {
	agencyTZ        string
	agencyName      string                         // agency_name of the first agency
	routeShortNames map[string]string              // route_id -> short_name
	routeTypes      map[string]RouteType           // route_id -> route_type
	tripToRoute     map[string]string              // trip_id -> route_id
	tripHeadsign    map[string]string              // trip_id -> headsign
	tripDirection   map[string]Direction           // trip_id -> direction_id
	tripShapeID     map[string]string              // trip_id -> shape_id
	tripBlockID     map[string]string              // trip_id -> block_id
	tripStopSeq     map[string][]string            // trip_id -> ordered stop_ids
	tripStopIdx     map[string]map[string]int      // trip_id -> stop_id -> index
	stopNames       map[string]string              // stop_id -> name
	stopCoord       map[string]Waypoint            // stop_id -> coordinate
	shapePoints     map[string][]Waypoint          // shape_id -> ordered points
	shapeCumKM      map[string][]float64           // shape_id -> cumulative km at each point
	stopTimes       map[string]map[string]StopTime // trip_id -> stop_id -> first visit
}

// NewIndex builds an Index from the agency, stops, routes, trips,
// stop_times and shapes tables of feed.
func NewIndex(feed *LoadedFeed) (*Index, error) {
	g := &Index{
		routeShortNames: map[string]string{},
		routeTypes:      map[string]RouteType{},
		tripToRoute:     map[string]string{},
		tripHeadsign:    map[string]string{},
		tripDirection:   map[string]Direction{},
		tripShapeID:     map[string]string{},
		tripBlockID:     map[string]string{},
		tripStopSeq:     map[string][]string{},
		tripStopIdx:     map[string]map[string]int{},
		stopNames:       map[string]string{},
		stopCoord:       map[string]Waypoint{},
		shapePoints:     map[string][]Waypoint{},
		shapeCumKM:      map[string][]float64{},
		stopTimes:       map[string]map[string]StopTime{},
	}

	agencies, err := Rows[Agency](feed, schema.Agency)
	if err != nil {
		return nil, err
	}
	if len(agencies) > 0 {
		g.agencyTZ = agencies[0].Timezone
		g.agencyName = agencies[0].Name
	}

	routes, err := Rows[Route](feed, schema.Routes)
	if err != nil {
		return nil, err
	}
	for _, r := range routes {
		g.routeShortNames[r.ID] = r.ShortName
		g.routeTypes[r.ID] = r.Type
	}

	trips, err := Rows[Trip](feed, schema.Trips)
	if err != nil {
		return nil, err
	}
	for _, t := range trips {
		g.tripToRoute[t.ID] = t.RouteID
		g.tripHeadsign[t.ID] = t.Headsign
		g.tripShapeID[t.ID] = t.ShapeID
		g.tripBlockID[t.ID] = t.BlockID
		if t.DirectionID != nil {
			g.tripDirection[t.ID] = *t.DirectionID
		}
	}

	stops, err := Rows[Stop](feed, schema.Stops)
	if err != nil {
		return nil, err
	}
	for _, s := range stops {
		g.stopNames[s.ID] = s.Name
		g.stopCoord[s.ID] = Waypoint{Longitude: s.Lon, Latitude: s.Lat}
	}

	stopTimes, err := Rows[StopTime](feed, schema.StopTimes)
	if err != nil {
		return nil, err
	}
	g.indexStopTimes(stopTimes)

	shapes, err := Rows[ShapePoint](feed, schema.Shapes)
	if err != nil {
		return nil, err
	}
	g.indexShapes(shapes)
	return g, nil
}

func (g *Index) indexStopTimes(stopTimes []StopTime) {
	byTrip := map[string][]StopTime{}
	for _, st := range stopTimes {
		byTrip[st.TripID] = append(byTrip[st.TripID], st)
	}
	for trip, arr := range byTrip {
		sort.SliceStable(arr, func(i, j int) bool { return arr[i].StopSequence < arr[j].StopSequence })
		seq := make([]string, 0, len(arr))
		idx := make(map[string]int, len(arr))
		times := make(map[string]StopTime, len(arr))
		for i, st := range arr {
			seq = append(seq, st.StopID)
			if _, ok := idx[st.StopID]; !ok {
				idx[st.StopID] = i
				times[st.StopID] = st
			}
		}
		g.tripStopSeq[trip] = seq
		g.tripStopIdx[trip] = idx
		g.stopTimes[trip] = times
	}
}

func (g *Index) indexShapes(points []ShapePoint) {
	byShape := map[string][]ShapePoint{}
	for _, p := range points {
		byShape[p.ShapeID] = append(byShape[p.ShapeID], p)
	}
	for shapeID, arr := range byShape {
		sort.SliceStable(arr, func(i, j int) bool { return arr[i].Sequence < arr[j].Sequence })
		pts := make([]Waypoint, len(arr))
		for i, p := range arr {
			pts[i] = Waypoint{Longitude: p.Lon, Latitude: p.Lat}
		}
		g.shapePoints[shapeID] = pts
		g.shapeCumKM[shapeID] = cumulativeKM(pts)
	}
}

// Accessor methods

func (g *Index) AgencyTimezone() string { return g.agencyTZ }

func (g *Index) AgencyName() string { return g.agencyName }

func (g *Index) StopName(stopID string) string { return g.stopNames[stopID] }

func (g *Index) StopCoord(stopID string) (Waypoint, bool) {
	c, ok := g.stopCoord[stopID]
	return c, ok
}

func (g *Index) RouteShortName(routeID string) string { return g.routeShortNames[routeID] }

func (g *Index) RouteType(routeID string) RouteType { return g.routeTypes[routeID] }

func (g *Index) RouteIDForTrip(tripID string) string { return g.tripToRoute[tripID] }

func (g *Index) TripHeadsign(tripID string) string { return g.tripHeadsign[tripID] }

func (g *Index) ShapeIDForTrip(tripID string) string { return g.tripShapeID[tripID] }

func (g *Index) BlockIDForTrip(tripID string) string { return g.tripBlockID[tripID] }

// DirectionForTrip returns direction_id, ok is false when the trip has none.
func (g *Index) DirectionForTrip(tripID string) (Direction, bool) {
	d, ok := g.tripDirection[tripID]
	return d, ok
}

// TripStops returns the stop ids of a trip ordered by stop_sequence.
func (g *Index) TripStops(tripID string) []string { return g.tripStopSeq[tripID] }

func (g *Index) OriginStop(tripID string) string {
	seq := g.tripStopSeq[tripID]
	if len(seq) == 0 {
		return ""
	}
	return seq[0]
}

func (g *Index) DestinationStop(tripID string) string {
	seq := g.tripStopSeq[tripID]
	if len(seq) == 0 {
		return ""
	}
	return seq[len(seq)-1]
}

// PreviousStop returns the stop visited before stopID, "" for the first stop.
func (g *Index) PreviousStop(tripID, stopID string) string {
	if m, ok := g.tripStopIdx[tripID]; ok {
		if idx, ok2 := m[stopID]; ok2 && idx > 0 {
			return g.tripStopSeq[tripID][idx-1]
		}
	}
	return ""
}

// ArrivalTime returns the static arrival_time (HH:MM:SS) of a stop in a trip
func (g *Index) ArrivalTime(tripID, stopID string) string {
	return g.stopTimes[tripID][stopID].ArrivalTime
}

// DepartureTime returns the static departure_time (HH:MM:SS) of a stop in a trip
func (g *Index) DepartureTime(tripID, stopID string) string {
	return g.stopTimes[tripID][stopID].DepartureTime
}

// PickupType returns pickup_type, regular pickup when blank.
func (g *Index) PickupType(tripID, stopID string) PickupDropOff {
	if p := g.stopTimes[tripID][stopID].PickupType; p != nil {
		return *p
	}
	return PickupScheduled
}

// DropOffType returns drop_off_type, regular drop off when blank.
func (g *Index) DropOffType(tripID, stopID string) PickupDropOff {
	if p := g.stopTimes[tripID][stopID].DropOffType; p != nil {
		return *p
	}
	return PickupScheduled
}

// ShapePoints returns the points of a shape ordered by shape_pt_sequence.
func (g *Index) ShapePoints(shapeID string) []Waypoint { return g.shapePoints[shapeID] }

// TripHasShape reports whether the trip's shape has at least two points.
func (g *Index) TripHasShape(tripID string) bool {
	return len(g.shapePoints[g.tripShapeID[tripID]]) > 1
}

func (g *Index) Stops() []string { return sortedKeys(g.stopNames) }

func (g *Index) Routes() []string { return sortedKeys(g.routeShortNames) }

func (g *Index) Trips() []string { return sortedKeys(g.tripToRoute) }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
