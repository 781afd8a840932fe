// Package analysis orchestrates the discovery pipeline: isochrone,
// neighborhood resolution, bulk POI fetch, spatial assignment, cache
// writes, photo backfill and session persistence.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-neighborhood-discovery/app/observability/metrics"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/api/neighborhood"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/api/poi"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/api/session"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/geo"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/isochrone"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/photos"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/types"
)

// photoBackfillConcurrency caps concurrent photo lookups so the photo
// provider's rate limits are respected.
const photoBackfillConcurrency = 5

var _ Service = (*ServiceImpl)(nil)

// Service runs one full neighborhood analysis per request.
type Service interface {
	Analyze(ctx context.Context, req types.AnalyzeRequest) (*types.AnalyzeResult, error)
	// NeighborhoodPOIs serves a single neighborhood's POIs through the
	// cache resolver: fresh rows short-circuit, stale rows trigger a
	// re-fetch scoped to that boundary.
	NeighborhoodPOIs(ctx context.Context, neighborhoodID string) ([]types.POI, error)
}

type ServiceImpl struct {
	logger        *slog.Logger
	isochrones    isochrone.Provider
	neighborhoods neighborhood.Service
	pois          poi.Service
	photos        photos.Provider
	sessions      session.Repository
}

func NewServiceImpl(
	isochrones isochrone.Provider,
	neighborhoods neighborhood.Service,
	pois poi.Service,
	photoProvider photos.Provider,
	sessions session.Repository,
	logger *slog.Logger,
) *ServiceImpl {
	return &ServiceImpl{
		logger:        logger,
		isochrones:    isochrones,
		neighborhoods: neighborhoods,
		pois:          pois,
		photos:        photoProvider,
		sessions:      sessions,
	}
}

// Analyze sequences the pipeline. Only isochrone and neighborhood cache
// failures are fatal; a failed POI fetch degrades to cached data, and photo
// backfill plus session persistence never surface errors to the caller.
func (s *ServiceImpl) Analyze(ctx context.Context, req types.AnalyzeRequest) (*types.AnalyzeResult, error) {
	ctx, span := otel.Tracer("AnalysisService").Start(ctx, "Analyze")
	defer span.End()

	start := time.Now()
	metrics.Get().AnalyzeRequestsTotal.Add(ctx, 1)
	defer func() {
		metrics.Get().AnalyzeDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}()

	if err := req.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		return nil, err
	}
	span.SetAttributes(
		attribute.Float64("request.lat", req.Latitude),
		attribute.Float64("request.lng", req.Longitude),
		attribute.Int("request.minutes", req.TimeMinutes),
		attribute.String("request.mode", string(req.Mode)),
	)

	searchRing, err := s.isochrones.Reachable(ctx, req.Longitude, req.Latitude, req.TimeMinutes, req.Mode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "isochrone failed")
		return nil, fmt.Errorf("failed to compute search area: %w", err)
	}

	neighborhoods, err := s.neighborhoods.Resolve(ctx, searchRing)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "neighborhood resolution failed")
		return nil, err
	}
	if len(neighborhoods) == 0 {
		span.SetStatus(codes.Ok, "no neighborhoods in search area")
		return &types.AnalyzeResult{Neighborhoods: []types.NeighborhoodResult{}}, nil
	}
	span.SetAttributes(attribute.Int("neighborhoods.count", len(neighborhoods)))

	areaPOIs, err := s.pois.FetchArea(ctx, geo.Bounds(searchRing), allCategories())
	if err != nil {
		// Query engine failure degrades to cached data per neighborhood.
		s.logger.WarnContext(ctx, "Bulk POI fetch failed, continuing with cached data", slog.Any("error", err))
		span.RecordError(err)
		areaPOIs = nil
	}
	assigned := poi.Assign(areaPOIs, neighborhoods)

	result := &types.AnalyzeResult{
		Neighborhoods: make([]types.NeighborhoodResult, len(neighborhoods)),
	}
	g, gctx := errgroup.WithContext(ctx)
	for i, n := range neighborhoods {
		g.Go(func() error {
			result.Neighborhoods[i] = types.NeighborhoodResult{
				Neighborhood: n,
				POIs:         s.resolveNeighborhoodPOIs(gctx, n, assigned[n.ID]),
			}
			return nil
		})
	}
	g.Wait()

	s.backfillPhotos(ctx, result)
	s.persistSession(ctx, req, result)

	span.SetStatus(codes.Ok, "analysis complete")
	return result, nil
}

// resolveNeighborhoodPOIs finishes one neighborhood's cache write. Freshly
// assigned POIs replace the cache; an empty assignment falls back to
// whatever is already cached, read-only, with no re-fetch. Write failures
// degrade to the in-memory assignment rather than failing the analysis.
func (s *ServiceImpl) resolveNeighborhoodPOIs(ctx context.Context, n types.Neighborhood, assigned []types.POI) []types.POI {
	if len(assigned) == 0 {
		cached, err := s.pois.CachedForNeighborhood(ctx, n.ID)
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to read cached POIs", slog.String("neighborhoodID", n.ID), slog.Any("error", err))
			return nil
		}
		return cached
	}
	written, err := s.pois.ReplaceForNeighborhood(ctx, n.ID, assigned)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to persist assigned POIs", slog.String("neighborhoodID", n.ID), slog.Any("error", err))
		return assigned
	}
	return written
}

// backfillPhotos fills in missing neighborhood photos, a bounded number of
// lookups at a time. Failures are logged and ignored.
func (s *ServiceImpl) backfillPhotos(ctx context.Context, result *types.AnalyzeResult) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(photoBackfillConcurrency)
	for i := range result.Neighborhoods {
		n := &result.Neighborhoods[i].Neighborhood
		if n.PhotoURL != nil && *n.PhotoURL != "" {
			continue
		}
		g.Go(func() error {
			url, err := s.photos.PhotoURL(gctx, n.Name, n.CenterLat, n.CenterLng)
			if err != nil {
				s.logger.DebugContext(gctx, "Photo lookup failed", slog.String("neighborhood", n.Name), slog.Any("error", err))
				return nil
			}
			if err := s.neighborhoods.BackfillPhoto(gctx, n.ID, url); err != nil {
				s.logger.WarnContext(gctx, "Photo backfill failed", slog.String("neighborhoodID", n.ID), slog.Any("error", err))
				return nil
			}
			n.PhotoURL = &url
			return nil
		})
	}
	g.Wait()
}

func (s *ServiceImpl) persistSession(ctx context.Context, req types.AnalyzeRequest, result *types.AnalyzeResult) {
	if req.CallerID == "" {
		return
	}
	if _, err := s.sessions.SaveSearchSession(ctx, req.CallerID, req, result); err != nil {
		s.logger.WarnContext(ctx, "Failed to persist search session", slog.String("callerID", req.CallerID), slog.Any("error", err))
	}
}

func (s *ServiceImpl) NeighborhoodPOIs(ctx context.Context, neighborhoodID string) ([]types.POI, error) {
	n, err := s.neighborhoods.Get(ctx, neighborhoodID)
	if err != nil {
		return nil, err
	}
	return s.pois.ResolveForNeighborhood(ctx, *n, allCategories())
}

func allCategories() map[types.POICategory]bool {
	requested := make(map[types.POICategory]bool, len(types.AllCategories()))
	for _, c := range types.AllCategories() {
		requested[c] = true
	}
	return requested
}
