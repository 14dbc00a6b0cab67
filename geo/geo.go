// Package geo has the distance math behind the nearby-trip feed.
package geo

import "math"

const earthRadiusKm = 6371.0

// Point is a latitude/longitude pair in degrees
type Point struct {
	Lat float64
	Lng float64
}

// Box is an axis-aligned lat/lng rectangle. A box that crosses the
// antimeridian has MinLng > MaxLng and covers MinLng..180 and -180..MaxLng.
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// DistanceKm is the great-circle (haversine) distance between two points
func DistanceKm(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := lat2 - lat1
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// BoundingBox returns a box containing every point within radiusKm of center.
// It is a cheap prefilter for an index range scan; callers still check
// DistanceKm for the exact cut.
func BoundingBox(center Point, radiusKm float64) Box {
	dLat := radiusKm / earthRadiusKm * 180 / math.Pi
	box := Box{
		MinLat: math.Max(center.Lat-dLat, -90),
		MaxLat: math.Min(center.Lat+dLat, 90),
		MinLng: -180,
		MaxLng: 180,
	}
	// near the poles the longitude span covers everything
	cosLat := math.Cos(toRadians(center.Lat))
	if cosLat > 1e-9 {
		dLng := dLat / cosLat
		if dLng < 180 {
			box.MinLng = normalizeLng(center.Lng - dLng)
			box.MaxLng = normalizeLng(center.Lng + dLng)
		}
	}
	return box
}

// WrapsAntimeridian reports whether the longitude span crosses ±180°
func (b Box) WrapsAntimeridian() bool {
	return b.MinLng > b.MaxLng
}

// Contains reports whether p falls inside the box
func (b Box) Contains(p Point) bool {
	if p.Lat < b.MinLat || p.Lat > b.MaxLat {
		return false
	}
	if b.WrapsAntimeridian() {
		return p.Lng >= b.MinLng || p.Lng <= b.MaxLng
	}
	return p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// normalizeLng folds a longitude into [-180, 180]
func normalizeLng(lng float64) float64 {
	switch {
	case lng < -180:
		return lng + 360
	case lng > 180:
		return lng - 360
	}
	return lng
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
