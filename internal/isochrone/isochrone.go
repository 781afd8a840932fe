// Package isochrone wraps the travel-time polygon provider. The API shape
// follows the OpenRouteService isochrones endpoint.
package isochrone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/FACorreiaa/go-neighborhood-discovery/internal/geo"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/types"
)

// Provider returns the polygon reachable from a point within a travel-time
// budget. Failure here is the one fatal error of the pipeline.
type Provider interface {
	Reachable(ctx context.Context, lng, lat float64, minutes int, mode types.TravelMode) (orb.Ring, error)
}

var _ Provider = (*Client)(nil)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	// Identical requests inside a short window are common (a user retrying
	// the same search); memoize the provider polygon instead of re-paying
	// the round trip.
	cache *gocache.Cache
}

const cacheTTL = 15 * time.Minute

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		cache:      gocache.New(cacheTTL, 2*cacheTTL),
	}
}

func profileFor(mode types.TravelMode) (string, error) {
	switch mode {
	case types.ModeDriving:
		return "driving-car", nil
	case types.ModeWalking:
		return "foot-walking", nil
	case types.ModeCycling:
		return "cycling-regular", nil
	default:
		return "", fmt.Errorf("unsupported travel mode %q", mode)
	}
}

type isochroneRequest struct {
	Locations [][]float64 `json:"locations"`
	Range     []int       `json:"range"`
}

func (c *Client) Reachable(ctx context.Context, lng, lat float64, minutes int, mode types.TravelMode) (orb.Ring, error) {
	profile, err := profileFor(mode)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%.5f:%.5f:%d:%s", lng, lat, minutes, mode)
	if cached, ok := c.cache.Get(key); ok {
		return cached.(orb.Ring), nil
	}

	payload, err := json.Marshal(isochroneRequest{
		Locations: [][]float64{{lng, lat}},
		Range:     []int{minutes * 60},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode isochrone request: %w", err)
	}

	url := fmt.Sprintf("%s/v2/isochrones/%s", strings.TrimRight(c.cfg.BaseURL, "/"), profile)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build isochrone request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("isochrone request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("isochrone provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read isochrone response: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode isochrone response: %w", err)
	}

	ring, err := outerRing(fc)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, ring, gocache.DefaultExpiration)
	c.logger.DebugContext(ctx, "Isochrone resolved",
		slog.String("profile", profile), slog.Int("minutes", minutes), slog.Int("vertices", len(ring)))
	return ring, nil
}

// outerRing picks the outer ring of the largest polygon in the collection.
// One range value normally yields one feature, but a defensive pick keeps a
// multi-feature response from selecting an inner contour.
func outerRing(fc *geojson.FeatureCollection) (orb.Ring, error) {
	var best orb.Ring
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			if len(g) > 0 && len(g[0]) > len(best) {
				best = g[0]
			}
		case orb.MultiPolygon:
			for _, p := range g {
				if len(p) > 0 && len(p[0]) > len(best) {
					best = p[0]
				}
			}
		}
	}
	if len(best) == 0 {
		return nil, fmt.Errorf("isochrone response contains no polygon")
	}
	return geo.CloseRing(best), nil
}
