// Package footprint computes the ground-projected circle from which a
// satellite at a nominal altitude appears at exactly the minimum elevation
// angle. The circle is an approximation for map rendering: it assumes one
// fixed reference altitude regardless of the tracked object, and must never
// be used as an elevation predicate.
package footprint

import "math"

// Point is one vertex of the footprint boundary.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

const (
	// DefaultPoints is the boundary resolution used when the caller does not
	// ask for a specific point count.
	DefaultPoints = 100

	// referenceAltKm is the nominal satellite altitude behind the circle
	// radius (typical LEO).
	referenceAltKm = 400.0

	// horizonDistanceKm is the fixed ground distance used when the minimum
	// elevation is at or below the horizon.
	horizonDistanceKm = 2200.0

	earthRadiusKm = 6371.0
)

// Compute returns n points on the visibility boundary around the ground
// station, ordered by bearing from 0 to 2π. n <= 0 selects DefaultPoints.
func Compute(latDeg, lonDeg, minElevationDeg float64, n int) []Point {
	if n <= 0 {
		n = DefaultPoints
	}

	// Ground distance to the boundary, then angular distance on the sphere.
	distKm := horizonDistanceKm
	if minElevationDeg > 0 {
		elRad := minElevationDeg * math.Pi / 180.0
		distKm = math.Atan(referenceAltKm / math.Tan(elRad))
	}
	delta := distKm / earthRadiusKm

	lat1 := latDeg * math.Pi / 180.0
	lon1 := lonDeg * math.Pi / 180.0
	sinLat1 := math.Sin(lat1)
	cosLat1 := math.Cos(lat1)
	sinDelta := math.Sin(delta)
	cosDelta := math.Cos(delta)

	points := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		bearing := 2 * math.Pi * float64(i) / float64(n)

		// Great-circle destination from (lat1, lon1) at the given bearing.
		lat2 := math.Asin(sinLat1*cosDelta + cosLat1*sinDelta*math.Cos(bearing))
		lon2 := lon1 + math.Atan2(
			math.Sin(bearing)*sinDelta*cosLat1,
			cosDelta-sinLat1*math.Sin(lat2),
		)

		points = append(points, Point{
			Latitude:  lat2 * 180.0 / math.Pi,
			Longitude: normalizeLon(lon2 * 180.0 / math.Pi),
		})
	}
	return points
}

// normalizeLon wraps a longitude into [-180, 180).
func normalizeLon(lon float64) float64 {
	for lon >= 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}
