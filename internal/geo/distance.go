package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// earthRadiusMeters is the mean earth radius of the spherical model used
// everywhere in this package: distance, circle bounds and cell fitting all
// share it so the coarse geohash filter and the exact fine filter agree.
const earthRadiusMeters = 6371000.0

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Distance returns the great-circle distance in meters between two points,
// computed with the Haversine formula.
func Distance(aLat, aLon, bLat, bLon float64) float64 {
	lat1 := toRadians(aLat)
	lat2 := toRadians(bLat)
	dLat := toRadians(bLat - aLat)
	dLon := toRadians(bLon - aLon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// circleBound returns the lon/lat bounding box of the circle of the given
// radius around a center point. The latitude extent of a spherical circle
// is the angular radius along the meridian; the longitude extent is wider,
// asin(sin d / cos lat), and covers all longitudes once the circle reaches
// a pole. The box may extend past [-180, 180] so callers can detect
// antimeridian overlap.
func circleBound(lat, lon, radiusMeters float64) orb.Bound {
	d := radiusMeters / earthRadiusMeters
	latDelta := toDegrees(d)

	minLat := lat - latDelta
	maxLat := lat + latDelta

	lonDelta := 180.0
	if minLat > -90 && maxLat < 90 {
		if sinRatio := math.Sin(d) / math.Cos(toRadians(lat)); sinRatio < 1 {
			lonDelta = toDegrees(math.Asin(sinRatio))
		}
	}

	return orb.Bound{
		Min: orb.Point{lon - lonDelta, math.Max(minLat, -90)},
		Max: orb.Point{lon + lonDelta, math.Min(maxLat, 90)},
	}
}
