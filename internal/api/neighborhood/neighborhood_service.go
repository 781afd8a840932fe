package neighborhood

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-neighborhood-discovery/app/observability/metrics"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/geo"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/overpass"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/types"
)

// CacheTTL is the neighborhood freshness window: boundaries move rarely, so
// a week of staleness is acceptable.
const CacheTTL = 7 * 24 * time.Hour

// resolveLimit is the hard cap on neighborhoods a single resolution returns.
const resolveLimit = 20

var _ Service = (*ServiceImpl)(nil)

// BoundaryQuerier is the slice of the query engine this resolver needs.
type BoundaryQuerier interface {
	SearchBoundaries(ctx context.Context, bound orb.Bound, limit int) ([]overpass.Feature, error)
}

// Service resolves a search polygon into neighborhood boundaries, caching
// aggressively and degrading to the static seed list when the external
// boundary query yields nothing.
type Service interface {
	Resolve(ctx context.Context, searchRing orb.Ring) ([]types.Neighborhood, error)
	Get(ctx context.Context, id string) (*types.Neighborhood, error)
	BackfillPhoto(ctx context.Context, id, photoURL string) error
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
	engine BoundaryQuerier
	now    func() time.Time
}

func NewServiceImpl(repo Repository, engine BoundaryQuerier, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		engine: engine,
		now:    time.Now,
	}
}

// Resolve implements the neighborhood cache protocol: fresh cache rows fully
// short-circuit; a miss triggers the boundary query; an empty or failed
// query falls back to the static seed list, upserted idempotently.
func (s *ServiceImpl) Resolve(ctx context.Context, searchRing orb.Ring) ([]types.Neighborhood, error) {
	ctx, span := otel.Tracer("NeighborhoodService").Start(ctx, "Resolve")
	defer span.End()

	bound := geo.Bounds(searchRing)
	now := s.now()

	cached, err := s.repo.FindWithinBounds(ctx, bound)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read neighborhood cache: %w", err)
	}
	fresh := make([]types.Neighborhood, 0, len(cached))
	for _, n := range cached {
		if n.Fresh(now, CacheTTL) {
			fresh = append(fresh, n)
		}
	}
	if len(fresh) > 0 {
		// Full short-circuit: no external call even if a more complete
		// result might exist upstream.
		metrics.Get().NeighborhoodCacheHitsTotal.Add(ctx, 1)
		span.SetAttributes(attribute.Int("neighborhoods.cached", len(fresh)))
		span.SetStatus(codes.Ok, "served from cache")
		return fresh, nil
	}
	metrics.Get().NeighborhoodCacheMissesTotal.Add(ctx, 1)

	features, err := s.engine.SearchBoundaries(ctx, bound, resolveLimit)
	if err != nil {
		// Soft-fail: the static fallback below absorbs a provider outage.
		s.logger.WarnContext(ctx, "Boundary query failed, falling back to seed list",
			slog.Any("error", err))
		span.RecordError(err)
		features = nil
	}
	features = insideRing(features, searchRing)

	if len(features) == 0 {
		return s.resolveFallback(ctx, now)
	}

	resolved := make([]types.Neighborhood, 0, len(features))
	for _, f := range features {
		resolved = append(resolved, featureToNeighborhood(f, now))
		if len(resolved) == resolveLimit {
			break
		}
	}
	if err := s.repo.CreateBatch(ctx, resolved); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to persist resolved neighborhoods: %w", err)
	}
	span.SetAttributes(attribute.Int("neighborhoods.resolved", len(resolved)))
	span.SetStatus(codes.Ok, "resolved from boundary query")
	return resolved, nil
}

func (s *ServiceImpl) resolveFallback(ctx context.Context, now time.Time) ([]types.Neighborhood, error) {
	metrics.Get().FallbackActivationsTotal.Add(ctx, 1)
	s.logger.InfoContext(ctx, "Boundary query empty, seeding static neighborhoods",
		slog.String("city", DefaultCity))

	seeds := fallbackNeighborhoods(now)
	for _, n := range seeds {
		if err := s.repo.Upsert(ctx, n); err != nil {
			return nil, fmt.Errorf("failed to upsert fallback neighborhood %s: %w", n.ID, err)
		}
	}
	return seeds, nil
}

// Get loads a single cached neighborhood by id, fresh or not. Passing
// types.ErrNotFound through lets callers map a missing id to a 404.
func (s *ServiceImpl) Get(ctx context.Context, id string) (*types.Neighborhood, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load neighborhood %s: %w", id, err)
	}
	return n, nil
}

// BackfillPhoto records a resolved photo URL. Best-effort from the caller's
// point of view; errors are surfaced so the orchestrator can log them.
func (s *ServiceImpl) BackfillPhoto(ctx context.Context, id, photoURL string) error {
	if err := s.repo.UpdatePhotoURL(ctx, id, photoURL); err != nil {
		return fmt.Errorf("failed to backfill photo: %w", err)
	}
	return nil
}

// insideRing keeps candidates whose center point lies inside the search
// polygon. The boundary query over-fetches precisely because this filter
// discards bbox-only matches.
func insideRing(features []overpass.Feature, searchRing orb.Ring) []overpass.Feature {
	if len(searchRing) == 0 {
		return features
	}
	kept := features[:0]
	for _, f := range features {
		if planar.RingContains(searchRing, f.Point) {
			kept = append(kept, f)
		}
	}
	return kept
}

func featureToNeighborhood(f overpass.Feature, now time.Time) types.Neighborhood {
	// Provider ids are only unique per element type; a way and a relation
	// may carry the same number, so the type is part of the id.
	n := types.Neighborhood{
		ID:       fmt.Sprintf("osm-%s-%d", f.Type, f.ID),
		Name:     f.Name,
		CachedAt: now,
	}
	switch {
	case f.Kind == overpass.KindArea && !f.Approximated:
		n.Boundary = f.Ring
		n.Source = types.SourceBoundaryQuery
		center := geo.Centroid(f.Ring)
		n.CenterLat, n.CenterLng = center.Lat(), center.Lon()
	case f.Kind == overpass.KindArea:
		// Ring synthesized by the engine around the provider center.
		n.Boundary = f.Ring
		n.Source = types.SourcePointApprox
		n.CenterLat, n.CenterLng = f.Point.Lat(), f.Point.Lon()
	default:
		n.Boundary = geo.PointRing(f.Point.Lat(), f.Point.Lon(), geo.PointRadiusNeighborhood, geo.DefaultRingPoints)
		n.Source = types.SourcePointApprox
		n.CenterLat, n.CenterLng = f.Point.Lat(), f.Point.Lon()
	}
	return n
}
