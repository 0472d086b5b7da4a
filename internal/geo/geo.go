// Package geo holds the distance maths used by the feed.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius.
const EarthRadiusKm = 6371.0

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Longitude float64
	Latitude  float64
}

// DistanceKm returns the great-circle distance between a and b using the haversine formula.
func DistanceKm(a, b Point) float64 {
	lat1 := toRad(a.Latitude)
	lat2 := toRad(b.Latitude)
	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Box is a lat/lon rectangle that contains every point within a radius of its centre.
// WrapsLongitude is set when the box crosses the antimeridian or covers a pole;
// MinLon/MaxLon are then meaningless and callers should skip the longitude filter.
type Box struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
	WrapsLongitude bool
}

// BoundingBox returns a conservative box around center for radiusKm.
func BoundingBox(center Point, radiusKm float64) Box {
	dLat := radiusKm / EarthRadiusKm * 180 / math.Pi
	b := Box{
		MinLat: center.Latitude - dLat,
		MaxLat: center.Latitude + dLat,
	}
	if b.MinLat <= -90 || b.MaxLat >= 90 {
		b.MinLat = math.Max(b.MinLat, -90)
		b.MaxLat = math.Min(b.MaxLat, 90)
		b.WrapsLongitude = true
		return b
	}

	s := math.Sin(radiusKm/EarthRadiusKm) / math.Cos(toRad(center.Latitude))
	if s >= 1 {
		b.WrapsLongitude = true
		return b
	}
	dLon := math.Asin(s) * 180 / math.Pi
	b.MinLon = center.Longitude - dLon
	b.MaxLon = center.Longitude + dLon
	if b.MinLon < -180 || b.MaxLon > 180 {
		b.WrapsLongitude = true
	}
	return b
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
