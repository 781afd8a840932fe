package overpass

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-neighborhood-discovery/internal/geo"
)

func TestNormalize(t *testing.T) {
	t.Run("node becomes point feature", func(t *testing.T) {
		elements := []Element{{
			Type: "node", ID: 1, Lat: 25.76, Lon: -80.19,
			Tags: map[string]string{"name": "Cafe Cubano", "amenity": "cafe"},
		}}
		features := Normalize(elements, geo.PointRadiusPOI)
		require.Len(t, features, 1)
		f := features[0]
		assert.Equal(t, KindPoint, f.Kind)
		assert.Equal(t, "node", f.Type)
		assert.Equal(t, orb.Point{-80.19, 25.76}, f.Point)
		assert.Nil(t, f.Ring)
		assert.False(t, f.Approximated)
	})

	t.Run("way with geometry becomes closed ring", func(t *testing.T) {
		elements := []Element{{
			Type: "way", ID: 2,
			Geometry: []LatLon{{25.7, -80.3}, {25.7, -80.1}, {25.9, -80.1}},
			Tags:     map[string]string{"name": "Brickell"},
		}}
		features := Normalize(elements, geo.PointRadiusNeighborhood)
		require.Len(t, features, 1)
		f := features[0]
		assert.Equal(t, KindArea, f.Kind)
		assert.Equal(t, "way", f.Type)
		require.Len(t, f.Ring, 4) // engine closed the ring
		assert.Equal(t, f.Ring[0], f.Ring[len(f.Ring)-1])
		assert.False(t, f.Approximated)
	})

	t.Run("center-only relation gets synthesized ring", func(t *testing.T) {
		elements := []Element{{
			Type: "relation", ID: 3,
			Center: &LatLon{Lat: 25.76, Lon: -80.19},
			Tags:   map[string]string{"name": "Wynwood"},
		}}
		features := Normalize(elements, geo.PointRadiusNeighborhood)
		require.Len(t, features, 1)
		f := features[0]
		assert.Equal(t, KindArea, f.Kind)
		assert.True(t, f.Approximated)
		assert.Len(t, f.Ring, geo.DefaultRingPoints+1)
		assert.Equal(t, orb.Point{-80.19, 25.76}, f.Point)
	})

	t.Run("two-point geometry falls back to center ring", func(t *testing.T) {
		elements := []Element{{
			Type:     "way", ID: 4,
			Geometry: []LatLon{{25.7, -80.3}, {25.7, -80.1}},
			Center:   &LatLon{Lat: 25.7, Lon: -80.2},
			Tags:     map[string]string{"name": "Edge Case"},
		}}
		features := Normalize(elements, geo.PointRadiusNeighborhood)
		require.Len(t, features, 1)
		assert.True(t, features[0].Approximated)
	})

	t.Run("area without geometry or center is discarded", func(t *testing.T) {
		elements := []Element{{
			Type: "relation", ID: 5,
			Tags: map[string]string{"name": "Nowhere"},
		}}
		assert.Empty(t, Normalize(elements, geo.PointRadiusNeighborhood))
	})

	t.Run("unnamed elements are discarded", func(t *testing.T) {
		elements := []Element{
			{Type: "node", ID: 6, Lat: 25.7, Lon: -80.2, Tags: map[string]string{"amenity": "cafe"}},
			{Type: "node", ID: 7, Lat: 25.7, Lon: -80.2},
		}
		assert.Empty(t, Normalize(elements, geo.PointRadiusPOI))
	})
}
