package overpass

import (
	"github.com/paulmach/orb"

	"github.com/FACorreiaa/go-neighborhood-discovery/internal/geo"
)

// LatLon is the provider's coordinate pair shape.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Element is the raw provider element. Nodes carry lat/lon directly; ways
// and relations carry either a full geometry (out geom) or only a
// server-computed center (out center).
type Element struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Lat      float64           `json:"lat,omitempty"`
	Lon      float64           `json:"lon,omitempty"`
	Center   *LatLon           `json:"center,omitempty"`
	Geometry []LatLon          `json:"geometry,omitempty"`
	Tags     map[string]string `json:"tags,omitempty"`
}

type elementsResponse struct {
	Elements []Element `json:"elements"`
}

// FeatureKind discriminates the normalized feature variants.
type FeatureKind int

const (
	// KindPoint is a plain node feature with direct coordinates.
	KindPoint FeatureKind = iota
	// KindArea is a feature carrying a boundary ring.
	KindArea
)

// Feature is the normalized element the rest of the pipeline consumes.
// Point is always populated (for areas it is the ring centroid or the
// provider center); Ring is populated only for KindArea. Approximated is
// true when the ring was synthesized around a center rather than taken
// from real provider geometry. Type carries the provider element type
// (node, way, relation): provider ids are only unique within one type, so
// ids derived from a Feature must include it.
type Feature struct {
	ID           int64
	Type         string
	Name         string
	Tags         map[string]string
	Kind         FeatureKind
	Point        orb.Point
	Ring         orb.Ring
	Approximated bool
}

// Normalize folds the heterogeneous element shapes into Features. All
// variant handling happens here so business logic never type-checks raw
// elements. areaRadiusDeg sizes the synthesized ring for center-only areas.
// Unnamed elements and areas with neither geometry nor center are dropped.
func Normalize(elements []Element, areaRadiusDeg float64) []Feature {
	features := make([]Feature, 0, len(elements))
	for _, el := range elements {
		name := el.Tags["name"]
		if name == "" {
			continue
		}
		switch el.Type {
		case "node":
			features = append(features, Feature{
				ID:    el.ID,
				Type:  el.Type,
				Name:  name,
				Tags:  el.Tags,
				Kind:  KindPoint,
				Point: orb.Point{el.Lon, el.Lat},
			})
		case "way", "relation":
			f, ok := normalizeArea(el, areaRadiusDeg)
			if !ok {
				continue
			}
			f.Name = name
			features = append(features, f)
		}
	}
	return features
}

func normalizeArea(el Element, areaRadiusDeg float64) (Feature, bool) {
	f := Feature{ID: el.ID, Type: el.Type, Tags: el.Tags, Kind: KindArea}

	if len(el.Geometry) >= 3 {
		ring := make(orb.Ring, 0, len(el.Geometry)+1)
		for _, c := range el.Geometry {
			ring = append(ring, orb.Point{c.Lon, c.Lat})
		}
		f.Ring = geo.CloseRing(ring)
		f.Point = geo.Centroid(f.Ring)
		return f, true
	}

	// No usable geometry: fall back to a ring around the center.
	var center orb.Point
	switch {
	case el.Center != nil:
		center = orb.Point{el.Center.Lon, el.Center.Lat}
	case el.Lat != 0 || el.Lon != 0:
		center = orb.Point{el.Lon, el.Lat}
	default:
		return Feature{}, false
	}
	f.Ring = geo.PointRing(center.Lat(), center.Lon(), areaRadiusDeg, geo.DefaultRingPoints)
	f.Point = center
	f.Approximated = true
	return f, true
}
