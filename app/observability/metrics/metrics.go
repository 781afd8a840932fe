package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
// Make fields public so they can be accessed from other packages.
type AppMetrics struct {
	AnalyzeRequestsTotal         metric.Int64Counter
	AnalyzeDurationSeconds       metric.Float64Histogram
	OverpassRequestsTotal        metric.Int64Counter
	OverpassRetriesTotal         metric.Int64Counter
	NeighborhoodCacheHitsTotal   metric.Int64Counter
	NeighborhoodCacheMissesTotal metric.Int64Counter
	POICacheHitsTotal            metric.Int64Counter
	POICacheMissesTotal          metric.Int64Counter
	FallbackActivationsTotal     metric.Int64Counter
}

var (
	// Global instance of AppMetrics (initialized once)
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider; before a
// provider is installed the instruments are otel no-ops, which keeps
// library code and tests safe to record against.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("NeighborhoodDiscovery")
		m := &AppMetrics{}

		m.AnalyzeRequestsTotal = mustCounter(meter, "analyze_requests_total",
			"Total number of analysis requests completed")
		m.AnalyzeDurationSeconds = mustHistogram(meter, "analyze_duration_seconds",
			"Duration of analysis requests in seconds")
		m.OverpassRequestsTotal = mustCounter(meter, "overpass_requests_total",
			"Total number of overpass mirror requests issued")
		m.OverpassRetriesTotal = mustCounter(meter, "overpass_retries_total",
			"Total number of overpass mirror rotations")
		m.NeighborhoodCacheHitsTotal = mustCounter(meter, "neighborhood_cache_hits_total",
			"Neighborhood resolutions served entirely from cache")
		m.NeighborhoodCacheMissesTotal = mustCounter(meter, "neighborhood_cache_misses_total",
			"Neighborhood resolutions that required an external query")
		m.POICacheHitsTotal = mustCounter(meter, "poi_cache_hits_total",
			"POI resolutions served entirely from cache")
		m.POICacheMissesTotal = mustCounter(meter, "poi_cache_misses_total",
			"POI resolutions that required an external query")
		m.FallbackActivationsTotal = mustCounter(meter, "fallback_activations_total",
			"Static seed list activations after empty boundary queries")

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance, initializing it
// lazily on first use.
func Get() *AppMetrics {
	if appMetrics == nil {
		InitAppMetrics()
	}
	return appMetrics
}

func mustCounter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit("{request}"))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return c
}

func mustHistogram(meter metric.Meter, name, desc string) metric.Float64Histogram {
	h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return h
}
