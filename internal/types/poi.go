package types

import (
	"time"

	"github.com/google/uuid"
)

// POICategory is the closed category set the classifier may produce.
type POICategory string

const (
	CategorySchool      POICategory = "school"
	CategoryPark        POICategory = "park"
	CategoryShop        POICategory = "shop"
	CategoryTransit     POICategory = "transit"
	CategoryGym         POICategory = "gym"
	CategoryHospital    POICategory = "hospital"
	CategoryRestaurant  POICategory = "restaurant"
	CategoryBar         POICategory = "bar"
	CategoryCafe        POICategory = "cafe"
	CategorySupermarket POICategory = "supermarket"

	// CategoryNone marks a feature that matched no classification rule.
	// Such features are discarded, never stored uncategorized.
	CategoryNone POICategory = ""
)

// AllCategories lists every storable category in declaration order.
func AllCategories() []POICategory {
	return []POICategory{
		CategorySchool, CategoryPark, CategoryShop, CategoryTransit,
		CategoryGym, CategoryHospital, CategoryRestaurant, CategoryBar,
		CategoryCafe, CategorySupermarket,
	}
}

// POI matches the pois table structure. Tags is the opaque provider tag bag
// kept verbatim from the geodata provider.
type POI struct {
	ID             uuid.UUID         `json:"id"`
	NeighborhoodID string            `json:"neighborhood_id"`
	ProviderID     *int64            `json:"provider_id,omitempty"`
	Category       POICategory       `json:"category"`
	Name           string            `json:"name"`
	Latitude       float64           `json:"latitude"`
	Longitude      float64           `json:"longitude"`
	Tags           map[string]string `json:"tags,omitempty"`
	CachedAt       time.Time         `json:"cached_at"`
}

// Fresh reports whether the cached POI is still inside the ttl window.
func (p *POI) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(p.CachedAt) < ttl
}
