package geo

import "math"

const (
	// EarthRadiusKm is the mean Earth radius used by the haversine formula.
	EarthRadiusKm = 6371.0

	// KmPerDegree is the flat 1° ≈ 111 km approximation used to size index
	// queries. It only holds for latitude.
	KmPerDegree = 111.0

	// MaxOvershoot bounds how far past the requested radius a candidate
	// admitted by a DegreesForKm query can lie, as a fraction of the radius.
	// A haversine degree is ~111.19 km, 0.17% more than KmPerDegree; the rest
	// is margin for spherical curvature at city-scale radii.
	MaxOvershoot = 0.005
)

// GreatCircleDistanceKm returns the haversine distance in kilometers
// between two coordinates given in degrees.
func GreatCircleDistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// DegreesForKm converts a distance to the radius of a planar query in
// degree space.
//
// The result sizes a pre-filter and must never be used as a distance. A
// degree of longitude spans only 111·cos(lat) km, and the planar model does
// not correct for it. Two consequences:
//
//   - every admitted point lies within km·(1+MaxOvershoot) of the query
//     point, so false positives are bounded and cheap to refine;
//   - along longitude the query reaches only km·cos(lat), so a true
//     positive due east or west between km·cos(lat) and km is missed.
//
// Stations are served in a narrow band around 25°N (cos ≈ 0.91). This is an
// accepted, bounded approximation and not a geodesic index.
func DegreesForKm(km float64) float64 {
	return km / KmPerDegree
}

// LongitudeCoverage returns the fraction of a requested radius that a
// degree-space query actually reaches due east or west at lat.
func LongitudeCoverage(lat float64) float64 {
	return math.Cos(toRadians(lat))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
