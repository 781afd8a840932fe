package poi

import (
	"github.com/paulmach/orb"

	"github.com/FACorreiaa/go-neighborhood-discovery/internal/geo"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/types"
)

// AssignMaxRadiusDeg bounds how far a POI may sit from a neighborhood
// centroid and still be claimed by it. POIs beyond this radius from every
// centroid are dropped rather than force-assigned.
const AssignMaxRadiusDeg = 0.05

// Assign distributes POIs across neighborhoods by nearest centroid. Ties
// at exactly equal distance go to the lowest neighborhood id so the
// assignment is deterministic regardless of input order.
func Assign(pois []types.POI, neighborhoods []types.Neighborhood) map[string][]types.POI {
	assigned := make(map[string][]types.POI, len(neighborhoods))
	if len(neighborhoods) == 0 {
		return assigned
	}
	for _, p := range pois {
		loc := orb.Point{p.Longitude, p.Latitude}
		bestID := ""
		bestDist := 0.0
		for _, n := range neighborhoods {
			d := geo.Distance(loc, n.Center())
			if d > AssignMaxRadiusDeg {
				continue
			}
			switch {
			case bestID == "", d < bestDist:
				bestID, bestDist = n.ID, d
			case d == bestDist && n.ID < bestID:
				bestID = n.ID
			}
		}
		if bestID == "" {
			continue
		}
		p.NeighborhoodID = bestID
		assigned[bestID] = append(assigned[bestID], p)
	}
	return assigned
}
