package gtfs

import (
	"math"
)

const earthRadiusKM = 6371.0

// StopDistanceAlongTripKM sums the great-circle distances between
// consecutive stops of a trip, from the first stop up to stopID.
// Stops without coordinates are skipped.
func (g *Index) StopDistanceAlongTripKM(tripID, stopID string) float64 {
	stopSeq := g.tripStopSeq[tripID]
	stopIdx, ok := g.tripStopIdx[tripID][stopID]
	if !ok {
		return 0
	}

	cumKM := 0.0
	for i := 0; i < stopIdx; i++ {
		c1, ok1 := g.stopCoord[stopSeq[i]]
		c2, ok2 := g.stopCoord[stopSeq[i+1]]
		if !ok1 || !ok2 {
			continue
		}
		cumKM += HaversineKM(c1.Latitude, c1.Longitude, c2.Latitude, c2.Longitude)
	}
	return cumKM
}

// ShapeLengthKM returns the length of a shape, 0 when unknown.
func (g *Index) ShapeLengthKM(shapeID string) float64 {
	cum := g.shapeCumKM[shapeID]
	if len(cum) == 0 {
		return 0
	}
	return cum[len(cum)-1]
}

// CoordinateAtDistance returns the point on a trip's stop path at targetKM,
// interpolating linearly between stops.
func (g *Index) CoordinateAtDistance(tripID string, targetKM float64) (Waypoint, bool) {
	stopSeq := g.tripStopSeq[tripID]
	if len(stopSeq) < 2 {
		return Waypoint{}, false
	}

	cumKM := make([]float64, len(stopSeq))
	for i := 1; i < len(stopSeq); i++ {
		c1, ok1 := g.stopCoord[stopSeq[i-1]]
		c2, ok2 := g.stopCoord[stopSeq[i]]
		if !ok1 || !ok2 {
			cumKM[i] = cumKM[i-1]
			continue
		}
		cumKM[i] = cumKM[i-1] + HaversineKM(c1.Latitude, c1.Longitude, c2.Latitude, c2.Longitude)
	}

	if targetKM <= 0 {
		c, ok := g.stopCoord[stopSeq[0]]
		return c, ok
	}
	if targetKM >= cumKM[len(cumKM)-1] {
		c, ok := g.stopCoord[stopSeq[len(stopSeq)-1]]
		return c, ok
	}

	segIdx := 0
	for i := 1; i < len(cumKM); i++ {
		if cumKM[i] >= targetKM {
			segIdx = i - 1
			break
		}
	}
	prevKM, nextKM := cumKM[segIdx], cumKM[segIdx+1]
	t := 0.0
	if nextKM > prevKM {
		t = (targetKM - prevKM) / (nextKM - prevKM)
	}

	c1, ok1 := g.stopCoord[stopSeq[segIdx]]
	c2, ok2 := g.stopCoord[stopSeq[segIdx+1]]
	if !ok1 || !ok2 {
		return Waypoint{}, false
	}
	return Waypoint{
		Longitude: c1.Longitude + t*(c2.Longitude-c1.Longitude),
		Latitude:  c1.Latitude + t*(c2.Latitude-c1.Latitude),
	}, true
}

// HaversineKM is the great-circle distance between two points in kilometers.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	la1 := lat1 * math.Pi / 180
	la2 := lat2 * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(la1)*math.Cos(la2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

func cumulativeKM(pts []Waypoint) []float64 {
	out := make([]float64, len(pts))
	for i := 1; i < len(pts); i++ {
		out[i] = out[i-1] + HaversineKM(pts[i-1].Latitude, pts[i-1].Longitude, pts[i].Latitude, pts[i].Longitude)
	}
	return out
}
