// Package geospatial has the small amount of spherical math the executor needs
// to turn a map center and radius into a viewbox and to sanity-log routes.
package geospatial

import "math"

const (
	earthRadiusMeters = 6371000.0
	metersPerDegree   = 111320.0
)

// Haversine returns the great-circle distance in meters between two WGS 84 points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// BoundingBox returns the box of half-width radiusMeters around a point,
// clamped to [-90, 90] x [-180, 180]. Close to a pole the box spans every
// longitude.
func BoundingBox(lat, lon, radiusMeters float64) (minLat, minLon, maxLat, maxLon float64) {
	latDelta := radiusMeters / metersPerDegree
	minLat = math.Max(lat-latDelta, -90)
	maxLat = math.Min(lat+latDelta, 90)

	cos := math.Cos(toRad(lat))
	if cos < 1e-9 {
		return minLat, -180, maxLat, 180
	}
	lonDelta := radiusMeters / (metersPerDegree * cos)
	if lonDelta >= 180 {
		return minLat, -180, maxLat, 180
	}
	return minLat, math.Max(lon-lonDelta, -180), maxLat, math.Min(lon+lonDelta, 180)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
