package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm(t *testing.T) {
	sf := Point{Lat: 37.7749, Lng: -122.4194}
	la := Point{Lat: 34.0522, Lng: -118.2437}

	assert.InDelta(t, 559, DistanceKm(sf, la), 2)
	assert.InDelta(t, DistanceKm(sf, la), DistanceKm(la, sf), 1e-9)
	assert.Zero(t, DistanceKm(sf, sf))
}

func TestBoundingBoxContainsRadius(t *testing.T) {
	center := Point{Lat: 47.6062, Lng: -122.3321}
	box := BoundingBox(center, 10)

	assert.True(t, box.Contains(center))
	// roughly 8 km north and 8 km east
	assert.True(t, box.Contains(Point{Lat: 47.678, Lng: -122.226}))
	// roughly 50 km away
	assert.False(t, box.Contains(Point{Lat: 48.05, Lng: -122.33}))
	assert.Less(t, box.MinLng, center.Lng)
	assert.Greater(t, box.MaxLng, center.Lng)
}

func TestBoundingBoxAtPole(t *testing.T) {
	box := BoundingBox(Point{Lat: 90, Lng: 0}, 100)
	assert.Equal(t, -180.0, box.MinLng)
	assert.Equal(t, 180.0, box.MaxLng)
	assert.Equal(t, 90.0, box.MaxLat)
}

func TestBoundingBoxAcrossAntimeridian(t *testing.T) {
	east := Point{Lat: 0, Lng: 179.95}
	west := Point{Lat: 0, Lng: -179.95}
	assert.InDelta(t, 11.12, DistanceKm(east, west), 0.05)

	box := BoundingBox(east, 50)
	assert.True(t, box.WrapsAntimeridian())
	assert.Greater(t, box.MinLng, 179.0)
	assert.Less(t, box.MaxLng, -179.0)
	assert.True(t, box.Contains(east))
	assert.True(t, box.Contains(west))
	assert.False(t, box.Contains(Point{Lat: 0, Lng: 0}))

	box = BoundingBox(west, 50)
	assert.True(t, box.WrapsAntimeridian())
	assert.True(t, box.Contains(east))

	assert.False(t, BoundingBox(Point{Lat: 47.6, Lng: -122.3}, 50).WrapsAntimeridian())
}
