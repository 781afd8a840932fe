package types

import (
	"time"

	"github.com/paulmach/orb"
)

// NeighborhoodSource records where a cached boundary came from. It is kept
// for debugging and for future selective invalidation.
type NeighborhoodSource string

const (
	SourceBoundaryQuery  NeighborhoodSource = "external-boundary-query"
	SourceStaticFallback NeighborhoodSource = "static-fallback"
	SourceManual         NeighborhoodSource = "manual"
	SourcePointApprox    NeighborhoodSource = "point-approximation"
)

// Neighborhood matches the neighborhoods table structure. Boundary is always
// a closed ring (first coordinate repeated as last).
type Neighborhood struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Boundary  orb.Ring           `json:"boundary"`
	CenterLat float64            `json:"center_lat"`
	CenterLng float64            `json:"center_lng"`
	Source    NeighborhoodSource `json:"source"`
	PhotoURL  *string            `json:"photo_url,omitempty"`
	CachedAt  time.Time          `json:"cached_at"`
}

// Center returns the precomputed centroid as an orb point (lng, lat order).
func (n *Neighborhood) Center() orb.Point {
	return orb.Point{n.CenterLng, n.CenterLat}
}

// Fresh reports whether the cached boundary is still inside the ttl window
// relative to now. Freshness is always evaluated at read time.
func (n *Neighborhood) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(n.CachedAt) < ttl
}
