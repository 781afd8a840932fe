package overpass

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/go-neighborhood-discovery/internal/types"
)

func allRequested() map[types.POICategory]bool {
	requested := make(map[types.POICategory]bool)
	for _, c := range types.AllCategories() {
		requested[c] = true
	}
	return requested
}

func TestClassify(t *testing.T) {
	t.Run("supermarket wins over generic shop", func(t *testing.T) {
		// Tag bag matches both the supermarket rule and the shop catch-all.
		tags := map[string]string{"shop": "supermarket", "name": "Publix"}
		assert.Equal(t, types.CategorySupermarket, Classify(tags, allRequested()))
	})

	t.Run("generic shop catch-all", func(t *testing.T) {
		tags := map[string]string{"shop": "florist"}
		assert.Equal(t, types.CategoryShop, Classify(tags, allRequested()))
	})

	t.Run("respects requested set", func(t *testing.T) {
		tags := map[string]string{"shop": "supermarket"}
		requested := map[types.POICategory]bool{types.CategoryShop: true}
		// Supermarket not requested, so the bag falls through to shop.
		assert.Equal(t, types.CategoryShop, Classify(tags, requested))
	})

	t.Run("no rule matches", func(t *testing.T) {
		tags := map[string]string{"building": "yes"}
		assert.Equal(t, types.CategoryNone, Classify(tags, allRequested()))
	})

	t.Run("not requested yields none", func(t *testing.T) {
		tags := map[string]string{"amenity": "school"}
		requested := map[types.POICategory]bool{types.CategoryBar: true}
		assert.Equal(t, types.CategoryNone, Classify(tags, requested))
	})

	t.Run("per category table", func(t *testing.T) {
		cases := []struct {
			tags map[string]string
			want types.POICategory
		}{
			{map[string]string{"amenity": "kindergarten"}, types.CategorySchool},
			{map[string]string{"leisure": "park"}, types.CategoryPark},
			{map[string]string{"public_transport": "station"}, types.CategoryTransit},
			{map[string]string{"railway": "tram_stop"}, types.CategoryTransit},
			{map[string]string{"highway": "bus_stop"}, types.CategoryTransit},
			{map[string]string{"leisure": "fitness_centre"}, types.CategoryGym},
			{map[string]string{"amenity": "pharmacy"}, types.CategoryHospital},
			{map[string]string{"amenity": "fast_food"}, types.CategoryRestaurant},
			{map[string]string{"amenity": "pub"}, types.CategoryBar},
			{map[string]string{"amenity": "cafe"}, types.CategoryCafe},
			{map[string]string{"shop": "coffee"}, types.CategoryCafe},
		}
		for _, tc := range cases {
			assert.Equal(t, tc.want, Classify(tc.tags, allRequested()), "tags %v", tc.tags)
		}
	})
}

func TestFiltersFor(t *testing.T) {
	t.Run("only requested categories emitted", func(t *testing.T) {
		filters := filtersFor(map[types.POICategory]bool{types.CategoryBar: true})
		assert.Equal(t, []string{`["amenity"~"bar|pub|biergarten|nightclub"]`}, filters)
	})

	t.Run("order follows rule precedence", func(t *testing.T) {
		filters := filtersFor(map[types.POICategory]bool{
			types.CategoryShop:        true,
			types.CategorySupermarket: true,
		})
		assert.Equal(t, []string{
			`["shop"~"supermarket|convenience|grocery|greengrocer"]`,
			`["shop"]`,
		}, filters)
	})

	t.Run("duplicate clauses de-duplicated", func(t *testing.T) {
		filters := filtersFor(allRequested())
		seen := make(map[string]int)
		for _, f := range filters {
			seen[f]++
		}
		for f, n := range seen {
			assert.Equal(t, 1, n, "clause %s emitted more than once", f)
		}
	})

	t.Run("empty set yields no clauses", func(t *testing.T) {
		assert.Empty(t, filtersFor(nil))
	})
}
