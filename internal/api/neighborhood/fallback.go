package neighborhood

import (
	"time"

	"github.com/FACorreiaa/go-neighborhood-discovery/internal/geo"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/types"
)

// DefaultCity is the city the static seed list covers.
const DefaultCity = "Miami"

// fallbackSeed is one pre-seeded neighborhood center. IDs are fixed so that
// repeated fallback resolution upserts the same rows instead of growing the
// table.
type fallbackSeed struct {
	id   string
	name string
	lat  float64
	lng  float64
}

var fallbackSeeds = []fallbackSeed{
	{"miami-brickell", "Brickell", 25.7617, -80.1918},
	{"miami-downtown", "Downtown Miami", 25.7743, -80.1937},
	{"miami-wynwood", "Wynwood", 25.8010, -80.1994},
	{"miami-little-havana", "Little Havana", 25.7668, -80.2195},
	{"miami-coconut-grove", "Coconut Grove", 25.7126, -80.2564},
	{"miami-coral-way", "Coral Way", 25.7504, -80.2230},
	{"miami-edgewater", "Edgewater", 25.7930, -80.1900},
	{"miami-overtown", "Overtown", 25.7870, -80.2010},
	{"miami-allapattah", "Allapattah", 25.8150, -80.2240},
	{"miami-little-haiti", "Little Haiti", 25.8380, -80.1920},
}

// fallbackNeighborhoods synthesizes the seed list into point-ring boundaries
// stamped at now.
func fallbackNeighborhoods(now time.Time) []types.Neighborhood {
	out := make([]types.Neighborhood, 0, len(fallbackSeeds))
	for _, s := range fallbackSeeds {
		out = append(out, types.Neighborhood{
			ID:        s.id,
			Name:      s.name,
			Boundary:  geo.PointRing(s.lat, s.lng, geo.PointRadiusNeighborhood, geo.DefaultRingPoints),
			CenterLat: s.lat,
			CenterLng: s.lng,
			Source:    types.SourceStaticFallback,
			CachedAt:  now,
		})
	}
	return out
}
