package geospatial

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/samirrijal/pulpuluck/internal/core/domain"
)

const earthRadiusMeters = 6_371_000.0

// WalkingSpeed is the assumed pedestrian speed in m/s.
const WalkingSpeed = 1.4

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	// rounding can push a just past 1 for antipodal points
	a = math.Min(1, math.Max(0, a))

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// Distance is Haversine over two GeoPoints.
func Distance(a, b domain.GeoPoint) float64 {
	return Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

// WalkingDuration estimates seconds needed to walk the given meters.
func WalkingDuration(meters float64) float64 {
	return meters / WalkingSpeed
}

// BoundingBox returns a bounding box around a point with the given radius in meters.
func BoundingBox(lat, lon, radiusMeters float64) (minLat, minLon, maxLat, maxLon float64) {
	latDelta := radiusMeters / 111320.0
	lonDelta := radiusMeters / (111320.0 * math.Cos(toRad(lat)))

	return lat - latDelta, lon - lonDelta, lat + latDelta, lon + lonDelta
}

// Bound converts a domain box to an orb.Bound (points are lon/lat).
func Bound(b domain.Bounds) orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	}
}

// Around returns the orb.Bound of BoundingBox.
func Around(p domain.GeoPoint, radiusMeters float64) orb.Bound {
	minLat, minLon, maxLat, maxLon := BoundingBox(p.Lat, p.Lon, radiusMeters)
	return orb.Bound{
		Min: orb.Point{minLon, minLat},
		Max: orb.Point{maxLon, maxLat},
	}
}

// Contains reports whether p lies inside b, edges included.
func Contains(b orb.Bound, p domain.GeoPoint) bool {
	return b.Contains(orb.Point{p.Lon, p.Lat})
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
