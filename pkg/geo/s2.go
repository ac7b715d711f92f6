package geo

import (
	"github.com/golang/geo/s2"
)

func toS2Point(lat, lon float64) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon))
}

// ProjectPointToSegment returns the point of the great circle segment (aLat,aLon)-(bLat,bLon)
// closest to (pLat,pLon).
func ProjectPointToSegment(aLat, aLon, bLat, bLon, pLat, pLon float64) (float64, float64) {
	projection := s2.Project(toS2Point(pLat, pLon), toS2Point(aLat, aLon), toS2Point(bLat, bLon))
	projectLatLng := s2.LatLngFromPoint(projection)
	return projectLatLng.Lat.Degrees(), projectLatLng.Lng.Degrees()
}

// PointSegmentDistance. return in meter
func PointSegmentDistance(aLat, aLon, bLat, bLon, pLat, pLon float64) float64 {
	if aLat == bLat && aLon == bLon {
		return CalculateHaversineDistance(pLat, pLon, aLat, aLon) * 1000
	}
	lat, lon := ProjectPointToSegment(aLat, aLon, bLat, bLon, pLat, pLon)
	return CalculateHaversineDistance(pLat, pLon, lat, lon) * 1000
}
