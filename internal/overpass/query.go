package overpass

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

// maxQueryMemory is the [maxsize] safety clause included in every query so
// the server rejects nothing with a truncation error mid-response.
const maxQueryMemory = 536870912

const (
	boundaryCandidateFloor = 50
	boundaryCandidateCap   = 80
)

// header emits the global settings once per query, including the single
// bounding-box clause shared by every statement (smaller payload than
// repeating the bbox per filter line).
func header(b orb.Bound, timeoutSec int) string {
	return fmt.Sprintf("[out:json][timeout:%d][maxsize:%d][bbox:%f,%f,%f,%f];",
		timeoutSec, maxQueryMemory,
		b.Min.Lat(), b.Min.Lon(), b.Max.Lat(), b.Max.Lon())
}

// buildPOIQuery synthesizes the POI search for the given filter clauses.
func buildPOIQuery(b orb.Bound, filters []string, timeoutSec, maxResults int) string {
	var sb strings.Builder
	sb.WriteString(header(b, timeoutSec))
	sb.WriteString("(")
	for _, f := range filters {
		sb.WriteString("nwr")
		sb.WriteString(f)
		sb.WriteString(";")
	}
	sb.WriteString(");")
	fmt.Fprintf(&sb, "out center %d;", maxResults)
	return sb.String()
}

// boundaryCandidates over-fetches boundary candidates: downstream spatial
// filtering discards some of them, and too few candidates risks an
// under-filled result.
func boundaryCandidates(limit int) int {
	if limit <= 0 {
		return boundaryCandidateCap
	}
	n := limit * 3
	if n < boundaryCandidateFloor {
		n = boundaryCandidateFloor
	}
	if n > boundaryCandidateCap {
		n = boundaryCandidateCap
	}
	return n
}

// buildBoundaryQuery synthesizes the neighborhood boundary search.
func buildBoundaryQuery(b orb.Bound, limit, timeoutSec int) string {
	var sb strings.Builder
	sb.WriteString(header(b, timeoutSec))
	sb.WriteString("(")
	sb.WriteString(`relation["boundary"="administrative"]["admin_level"~"^(9|10)$"];`)
	sb.WriteString(`node["place"~"^(suburb|neighbourhood|quarter)$"];`)
	sb.WriteString(`way["place"~"^(suburb|neighbourhood|quarter)$"];`)
	sb.WriteString(");")
	fmt.Fprintf(&sb, "out geom %d;", boundaryCandidates(limit))
	return sb.String()
}
