package geo

import (
	"math"

	"github.com/twpayne/go-geom"
)

const earthRadiusKm = 6371.0

// Centroid builds a lon/lat point for an area center.
func Centroid(lon, lat float64) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{lon, lat})
}

// DistanceKm returns the great-circle distance between two lon/lat points.
func DistanceKm(a, b *geom.Point) float64 {
	if a == nil || b == nil {
		return 0
	}
	lon1, lat1 := a.X()*math.Pi/180, a.Y()*math.Pi/180
	lon2, lat2 := b.X()*math.Pi/180, b.Y()*math.Pi/180

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// TransferFriction estimates the friction penalty for moving between two
// bases: a flat per-transfer cost plus a distance-scaled component.
func TransferFriction(a, b *geom.Point, flatCost, perKm float64) float64 {
	return flatCost + perKm*DistanceKm(a, b)
}
