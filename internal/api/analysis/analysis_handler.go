package analysis

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-neighborhood-discovery/internal/api"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	Analyze(w http.ResponseWriter, r *http.Request)
	GetNeighborhoodPOIs(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		service: service,
		logger:  logger,
	}
}

// Analyze runs a full neighborhood analysis around a point
// @Summary Analyze reachable neighborhoods
// @Description Computes the isochrone around the given point and returns the neighborhoods inside it with their categorized POIs
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body types.AnalyzeRequest true "Analysis request"
// @Success 200 {object} types.AnalyzeResult
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/analysis [post]
func (h *HandlerImpl) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AnalysisHandler").Start(r.Context(), "Analyze")
	defer span.End()

	l := h.logger.With(slog.String("method", "Analyze"))

	var req types.AnalyzeRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid request body", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		l.WarnContext(ctx, "Request validation failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Analyze(ctx, req)
	if err != nil {
		l.ErrorContext(ctx, "Analysis failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "analysis failed")
		return
	}

	span.SetAttributes(attribute.Int("neighborhoods.count", len(result.Neighborhoods)))
	span.SetStatus(codes.Ok, "analysis served")
	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

// GetNeighborhoodPOIs returns the POIs of one neighborhood
// @Summary Get neighborhood POIs
// @Description Returns the neighborhood's POI set via the cache resolver; stale entries trigger a provider re-fetch scoped to the boundary
// @Tags analysis
// @Produce json
// @Param id path string true "Neighborhood ID"
// @Success 200 {array} types.POI
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/neighborhoods/{id}/pois [get]
func (h *HandlerImpl) GetNeighborhoodPOIs(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AnalysisHandler").Start(r.Context(), "GetNeighborhoodPOIs")
	defer span.End()

	l := h.logger.With(slog.String("method", "GetNeighborhoodPOIs"))

	neighborhoodID := chi.URLParam(r, "id")
	if neighborhoodID == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "missing neighborhood id")
		return
	}
	span.SetAttributes(attribute.String("neighborhood.id", neighborhoodID))

	pois, err := h.service.NeighborhoodPOIs(ctx, neighborhoodID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "neighborhood not found")
			return
		}
		l.ErrorContext(ctx, "Failed to resolve POIs", slog.String("neighborhoodID", neighborhoodID), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "poi resolution failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "failed to load pois")
		return
	}
	if pois == nil {
		pois = []types.POI{}
	}

	span.SetStatus(codes.Ok, "pois served")
	api.WriteJSONResponse(w, r, http.StatusOK, pois)
}
