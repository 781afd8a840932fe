// Package geo holds the pure geometry helpers shared by the discovery
// pipeline. Everything operates on orb types in degree space; no I/O.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Point-ring radii used across the pipeline. POIs are point features at a
// much smaller semantic scale than a whole neighborhood, so the two callers
// pick different radii.
const (
	PointRadiusPOI          = 0.005
	PointRadiusNeighborhood = 0.01

	// DefaultRingPoints is the vertex count of a synthesized point ring.
	DefaultRingPoints = 16
)

// Bounds scans the outer ring once and returns its bounding box. The result
// is independent of ring winding.
func Bounds(ring orb.Ring) orb.Bound {
	return ring.Bound()
}

// Centroid returns the arithmetic mean of the ring vertices. This is NOT the
// area centroid; it is cheap and sufficient for proximity comparisons. The
// closing vertex is skipped so it does not count twice.
func Centroid(ring orb.Ring) orb.Point {
	n := len(ring)
	if n == 0 {
		return orb.Point{}
	}
	if n > 1 && ring[0] == ring[n-1] {
		n--
	}
	var sumLng, sumLat float64
	for _, p := range ring[:n] {
		sumLng += p.Lon()
		sumLat += p.Lat()
	}
	return orb.Point{sumLng / float64(n), sumLat / float64(n)}
}

// PointRing synthesizes a closed regular N-gon around a point, used whenever
// the provider returns a node that must be represented as an area.
func PointRing(lat, lng, radiusDeg float64, points int) orb.Ring {
	if points <= 0 {
		points = DefaultRingPoints
	}
	ring := make(orb.Ring, 0, points+1)
	for i := 0; i < points; i++ {
		angle := 2 * math.Pi * float64(i) / float64(points)
		ring = append(ring, orb.Point{
			lng + radiusDeg*math.Cos(angle),
			lat + radiusDeg*math.Sin(angle),
		})
	}
	ring = append(ring, ring[0])
	return ring
}

// CloseRing appends the first vertex when the provider did not close the
// ring itself.
func CloseRing(ring orb.Ring) orb.Ring {
	if len(ring) == 0 {
		return ring
	}
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return ring
}

// Distance is the planar Euclidean distance in degrees. Not great-circle;
// acceptable at city scale where no sub-100m precision is promised.
func Distance(a, b orb.Point) float64 {
	return planar.Distance(a, b)
}
