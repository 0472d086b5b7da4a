package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm(t *testing.T) {
	manila := Point{Longitude: 120.9842, Latitude: 14.5995}
	quezon := Point{Longitude: 121.0437, Latitude: 14.6760}

	assert.InDelta(t, 0, DistanceKm(manila, manila), 1e-9)
	assert.InDelta(t, 10.6, DistanceKm(manila, quezon), 0.5)
	assert.InDelta(t, DistanceKm(manila, quezon), DistanceKm(quezon, manila), 1e-9)

	// one degree of latitude is ~111.2km
	assert.InDelta(t, 111.19, DistanceKm(Point{0, 0}, Point{0, 1}), 0.05)
}

func TestBoundingBox_ContainsRadius(t *testing.T) {
	center := Point{Longitude: 121.05, Latitude: 14.58}
	box := BoundingBox(center, 50)

	assert.False(t, box.WrapsLongitude)
	assert.Less(t, box.MinLat, center.Latitude)
	assert.Greater(t, box.MaxLat, center.Latitude)

	// points exactly 50km north and east must sit inside the box
	north := Point{Longitude: center.Longitude, Latitude: box.MaxLat}
	assert.InDelta(t, 50, DistanceKm(center, north), 0.01)

	// the east edge touches the circle away from the centre latitude, so on
	// the centre parallel it lies slightly beyond the radius
	east := Point{Longitude: box.MaxLon, Latitude: center.Latitude}
	assert.GreaterOrEqual(t, DistanceKm(center, east), 50.0)

	dueEast := destination(center, 90, 50)
	assert.InDelta(t, 50, DistanceKm(center, dueEast), 1e-6)
	assert.LessOrEqual(t, dueEast.Longitude, box.MaxLon)
	assert.GreaterOrEqual(t, dueEast.Latitude, box.MinLat)
	assert.LessOrEqual(t, dueEast.Latitude, box.MaxLat)
}

func TestBoundingBox_ContainsCircle(t *testing.T) {
	center := Point{Longitude: 121.05, Latitude: 14.58}
	box := BoundingBox(center, 50)

	for bearing := 0.0; bearing < 360; bearing += 5 {
		p := destination(center, bearing, 50)
		assert.GreaterOrEqual(t, p.Longitude, box.MinLon-1e-9, "bearing %v", bearing)
		assert.LessOrEqual(t, p.Longitude, box.MaxLon+1e-9, "bearing %v", bearing)
		assert.GreaterOrEqual(t, p.Latitude, box.MinLat-1e-9, "bearing %v", bearing)
		assert.LessOrEqual(t, p.Latitude, box.MaxLat+1e-9, "bearing %v", bearing)
	}
}

// destination walks km along the great circle leaving from at bearing (degrees from north).
func destination(from Point, bearing, km float64) Point {
	d := km / EarthRadiusKm
	lat1, lon1, theta := toRad(from.Latitude), toRad(from.Longitude), toRad(bearing)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(theta))
	lon2 := lon1 + math.Atan2(math.Sin(theta)*math.Sin(d)*math.Cos(lat1), math.Cos(d)-math.Sin(lat1)*math.Sin(lat2))
	return Point{Longitude: lon2 * 180 / math.Pi, Latitude: lat2 * 180 / math.Pi}
}

func TestBoundingBox_Antimeridian(t *testing.T) {
	box := BoundingBox(Point{Longitude: 179.9, Latitude: 0}, 50)
	assert.True(t, box.WrapsLongitude)
}

func TestBoundingBox_Pole(t *testing.T) {
	box := BoundingBox(Point{Longitude: 0, Latitude: 89.9}, 50)
	assert.True(t, box.WrapsLongitude)
	assert.Equal(t, 90.0, box.MaxLat)
}
