package overpass

import (
	"regexp"

	"github.com/FACorreiaa/go-neighborhood-discovery/internal/types"
)

// tagMatch is one (key, value pattern) predicate against the provider tag bag.
type tagMatch struct {
	key     string
	pattern *regexp.Regexp
}

// categoryRule binds a category to its tag predicates and the Overpass
// filter clauses that fetch matching features.
type categoryRule struct {
	category types.POICategory
	matches  []tagMatch
	filters  []string
}

// categoryRules is an ORDERED slice: classification walks it top to bottom
// and the first match wins. Specific categories (supermarket, school) sit
// above the generic shop catch-all so a supermarket never degrades to shop.
var categoryRules = []categoryRule{
	{
		category: types.CategorySupermarket,
		matches:  []tagMatch{{"shop", regexp.MustCompile(`^(supermarket|convenience|grocery|greengrocer)$`)}},
		filters:  []string{`["shop"~"supermarket|convenience|grocery|greengrocer"]`},
	},
	{
		category: types.CategorySchool,
		matches:  []tagMatch{{"amenity", regexp.MustCompile(`^(school|kindergarten|college|university)$`)}},
		filters:  []string{`["amenity"~"school|kindergarten|college|university"]`},
	},
	{
		category: types.CategoryHospital,
		matches:  []tagMatch{{"amenity", regexp.MustCompile(`^(hospital|clinic|doctors|dentist|pharmacy)$`)}},
		filters:  []string{`["amenity"~"hospital|clinic|doctors|dentist|pharmacy"]`},
	},
	{
		category: types.CategoryRestaurant,
		matches:  []tagMatch{{"amenity", regexp.MustCompile(`^(restaurant|fast_food|food_court)$`)}},
		filters:  []string{`["amenity"~"restaurant|fast_food|food_court"]`},
	},
	{
		category: types.CategoryCafe,
		matches: []tagMatch{
			{"amenity", regexp.MustCompile(`^(cafe|ice_cream)$`)},
			{"shop", regexp.MustCompile(`^coffee$`)},
		},
		filters: []string{`["amenity"~"cafe|ice_cream"]`, `["shop"="coffee"]`},
	},
	{
		category: types.CategoryBar,
		matches:  []tagMatch{{"amenity", regexp.MustCompile(`^(bar|pub|biergarten|nightclub)$`)}},
		filters:  []string{`["amenity"~"bar|pub|biergarten|nightclub"]`},
	},
	{
		category: types.CategoryGym,
		matches:  []tagMatch{{"leisure", regexp.MustCompile(`^(fitness_centre|sports_centre|fitness_station)$`)}},
		filters:  []string{`["leisure"~"fitness_centre|sports_centre|fitness_station"]`},
	},
	{
		category: types.CategoryPark,
		matches:  []tagMatch{{"leisure", regexp.MustCompile(`^(park|garden|playground|dog_park)$`)}},
		filters:  []string{`["leisure"~"park|garden|playground|dog_park"]`},
	},
	{
		category: types.CategoryTransit,
		matches: []tagMatch{
			{"public_transport", regexp.MustCompile(`^(station|stop_position|platform)$`)},
			{"railway", regexp.MustCompile(`^(station|halt|tram_stop|subway_entrance)$`)},
			{"highway", regexp.MustCompile(`^bus_stop$`)},
		},
		filters: []string{
			`["public_transport"~"station|stop_position|platform"]`,
			`["railway"~"station|halt|tram_stop|subway_entrance"]`,
			`["highway"="bus_stop"]`,
		},
	},
	{
		// Generic shop catch-all, deliberately last.
		category: types.CategoryShop,
		matches:  []tagMatch{{"shop", regexp.MustCompile(`.`)}},
		filters:  []string{`["shop"]`},
	},
}

func (r *categoryRule) match(tags map[string]string) bool {
	for _, m := range r.matches {
		if v, ok := tags[m.key]; ok && m.pattern.MatchString(v) {
			return true
		}
	}
	return false
}

// Classify maps a provider tag bag to a single category. Only categories in
// the requested set are considered; no match yields CategoryNone and the
// caller discards the feature.
func Classify(tags map[string]string, requested map[types.POICategory]bool) types.POICategory {
	for i := range categoryRules {
		rule := &categoryRules[i]
		if !requested[rule.category] {
			continue
		}
		if rule.match(tags) {
			return rule.category
		}
	}
	return types.CategoryNone
}

// filtersFor collects the Overpass filter clauses for the requested
// categories, de-duplicating clauses shared between categories while
// preserving rule order.
func filtersFor(requested map[types.POICategory]bool) []string {
	seen := make(map[string]bool)
	var out []string
	for i := range categoryRules {
		rule := &categoryRules[i]
		if !requested[rule.category] {
			continue
		}
		for _, f := range rule.filters {
			if seen[f] {
				continue
			}
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}
