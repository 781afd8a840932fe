package poi

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/paulmach/orb"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-neighborhood-discovery/app/observability/metrics"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/geo"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/overpass"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/types"
)

// CacheTTL is the POI freshness window. POIs churn much faster than
// boundaries (opening hours, closures), hence a day instead of a week.
const CacheTTL = 24 * time.Hour

var _ Service = (*ServiceImpl)(nil)

// POIQuerier is the slice of the query engine this resolver needs.
type POIQuerier interface {
	SearchPOIs(ctx context.Context, bound orb.Bound, requested map[types.POICategory]bool) ([]overpass.Feature, error)
}

// Service resolves and caches categorized POIs per neighborhood.
type Service interface {
	// ResolveForNeighborhood runs the full cache protocol for one
	// neighborhood: fresh rows short-circuit, stale rows are wiped and
	// refetched, an empty provider result is a valid terminal state.
	ResolveForNeighborhood(ctx context.Context, n types.Neighborhood, requested map[types.POICategory]bool) ([]types.POI, error)
	// FetchArea issues the single bulk POI query covering a whole search
	// area. Results carry no neighborhood id yet; spatial assignment
	// decides ownership.
	FetchArea(ctx context.Context, bound orb.Bound, requested map[types.POICategory]bool) ([]types.POI, error)
	// ReplaceForNeighborhood overwrites the neighborhood's POI cache with
	// the given set (delete-then-insert, all or nothing).
	ReplaceForNeighborhood(ctx context.Context, neighborhoodID string, pois []types.POI) ([]types.POI, error)
	// CachedForNeighborhood reads whatever is cached, fresh or not, without
	// triggering any re-fetch.
	CachedForNeighborhood(ctx context.Context, neighborhoodID string) ([]types.POI, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
	engine POIQuerier
	now    func() time.Time
}

func NewServiceImpl(repo Repository, engine POIQuerier, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		engine: engine,
		now:    time.Now,
	}
}

func (s *ServiceImpl) ResolveForNeighborhood(ctx context.Context, n types.Neighborhood, requested map[types.POICategory]bool) ([]types.POI, error) {
	ctx, span := otel.Tracer("POIService").Start(ctx, "ResolveForNeighborhood")
	defer span.End()

	now := s.now()
	existing, err := s.repo.FindByNeighborhood(ctx, n.ID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read poi cache: %w", err)
	}

	fresh := make([]types.POI, 0, len(existing))
	for _, p := range existing {
		if p.Fresh(now, CacheTTL) {
			fresh = append(fresh, p)
		}
	}
	if len(fresh) > 0 {
		metrics.Get().POICacheHitsTotal.Add(ctx, 1)
		span.SetAttributes(attribute.Int("pois.cached", len(fresh)))
		span.SetStatus(codes.Ok, "served from cache")
		return fresh, nil
	}
	metrics.Get().POICacheMissesTotal.Add(ctx, 1)

	if len(existing) > 0 {
		// Stale entries only: no partial retention.
		if err := s.repo.DeleteByNeighborhood(ctx, n.ID); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	features, err := s.engine.SearchPOIs(ctx, geo.Bounds(n.Boundary), requested)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("poi query failed for neighborhood %s: %w", n.ID, err)
	}

	pois := featuresToPOIs(features, requested, now)
	if len(pois) == 0 {
		// A neighborhood legitimately having no matching POIs is valid.
		span.SetStatus(codes.Ok, "no matching pois")
		return nil, nil
	}
	for i := range pois {
		pois[i].NeighborhoodID = n.ID
	}
	created, err := s.repo.CreateBatch(ctx, pois)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to persist pois for neighborhood %s: %w", n.ID, err)
	}
	span.SetAttributes(attribute.Int("pois.created", len(created)))
	span.SetStatus(codes.Ok, "resolved from provider")
	return created, nil
}

func (s *ServiceImpl) FetchArea(ctx context.Context, bound orb.Bound, requested map[types.POICategory]bool) ([]types.POI, error) {
	ctx, span := otel.Tracer("POIService").Start(ctx, "FetchArea")
	defer span.End()

	features, err := s.engine.SearchPOIs(ctx, bound, requested)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("bulk poi query failed: %w", err)
	}
	pois := featuresToPOIs(features, requested, s.now())
	span.SetAttributes(attribute.Int("pois.fetched", len(pois)))
	span.SetStatus(codes.Ok, "area fetched")
	return pois, nil
}

func (s *ServiceImpl) ReplaceForNeighborhood(ctx context.Context, neighborhoodID string, pois []types.POI) ([]types.POI, error) {
	if err := s.repo.DeleteByNeighborhood(ctx, neighborhoodID); err != nil {
		return nil, err
	}
	now := s.now()
	for i := range pois {
		pois[i].NeighborhoodID = neighborhoodID
		if pois[i].CachedAt.IsZero() {
			pois[i].CachedAt = now
		}
	}
	created, err := s.repo.CreateBatch(ctx, pois)
	if err != nil {
		return nil, fmt.Errorf("failed to replace pois for neighborhood %s: %w", neighborhoodID, err)
	}
	return created, nil
}

func (s *ServiceImpl) CachedForNeighborhood(ctx context.Context, neighborhoodID string) ([]types.POI, error) {
	cached, err := s.repo.FindByNeighborhood(ctx, neighborhoodID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached pois: %w", err)
	}
	return cached, nil
}

// featuresToPOIs classifies normalized features into typed POIs. Features
// that resolve to no requested category are dropped here, not stored.
func featuresToPOIs(features []overpass.Feature, requested map[types.POICategory]bool, now time.Time) []types.POI {
	pois := make([]types.POI, 0, len(features))
	for _, f := range features {
		category := overpass.Classify(f.Tags, requested)
		if category == types.CategoryNone {
			continue
		}
		providerID := f.ID
		pois = append(pois, types.POI{
			ProviderID: &providerID,
			Category:   category,
			Name:       f.Name,
			Latitude:   f.Point.Lat(),
			Longitude:  f.Point.Lon(),
			Tags:       f.Tags,
			CachedAt:   now,
		})
	}
	return pois
}
