package overpass

import (
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

var testBound = orb.Bound{Min: orb.Point{-80.3, 25.7}, Max: orb.Point{-80.1, 25.9}}

func TestBuildPOIQuery(t *testing.T) {
	filters := []string{`["amenity"~"cafe|ice_cream"]`, `["shop"="coffee"]`}
	query := buildPOIQuery(testBound, filters, 25, 200)

	t.Run("global bbox emitted once", func(t *testing.T) {
		assert.Equal(t, 1, strings.Count(query, "[bbox:"))
		assert.Contains(t, query, "[bbox:25.700000,-80.300000,25.900000,-80.100000]")
	})

	t.Run("maxsize safety clause present", func(t *testing.T) {
		assert.Contains(t, query, "[maxsize:536870912]")
	})

	t.Run("every filter becomes an nwr statement", func(t *testing.T) {
		assert.Contains(t, query, `nwr["amenity"~"cafe|ice_cream"];`)
		assert.Contains(t, query, `nwr["shop"="coffee"];`)
	})

	t.Run("result cap on out statement", func(t *testing.T) {
		assert.True(t, strings.HasSuffix(query, "out center 200;"))
	})
}

func TestBoundaryCandidates(t *testing.T) {
	cases := []struct {
		limit int
		want  int
	}{
		{0, 80},   // no hard limit: cap
		{5, 50},   // 15 < floor
		{20, 60},  // 3x inside the window
		{40, 80},  // 120 > cap
		{-1, 80},  // defensive
		{17, 51},  // exact 3x
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, boundaryCandidates(tc.limit), "limit %d", tc.limit)
	}
}

func TestBuildBoundaryQuery(t *testing.T) {
	query := buildBoundaryQuery(testBound, 10, 25)

	assert.Equal(t, 1, strings.Count(query, "[bbox:"))
	assert.Contains(t, query, `relation["boundary"="administrative"]`)
	assert.Contains(t, query, `["place"~"^(suburb|neighbourhood|quarter)$"]`)
	// Over-fetch: 10*3 = 30 < floor 50.
	assert.True(t, strings.HasSuffix(query, "out geom 50;"))
}
