package overpass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/go-neighborhood-discovery/app/observability/metrics"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/geo"
	"github.com/FACorreiaa/go-neighborhood-discovery/internal/types"
)

// ErrServiceUnavailable is returned once every mirror has been exhausted.
// It wraps the last observed mirror error.
var ErrServiceUnavailable = errors.New("overpass service unavailable")

const (
	defaultTimeout      = 25 * time.Second
	defaultMaxResults   = 200
	defaultRetryBackoff = 2 * time.Second
	defaultRateLimit    = rate.Limit(2) // requests per second across all mirrors
)

// Config is injected into NewClient so tests can substitute mirror lists
// and timeouts; there is no package-level mutable provider state.
type Config struct {
	Mirrors         []string
	Timeout         time.Duration
	MaxQueryResults int
	RetryBackoff    time.Duration
	RateLimit       rate.Limit
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Timeout <= 0 {
		out.Timeout = defaultTimeout
	}
	if out.MaxQueryResults <= 0 {
		out.MaxQueryResults = defaultMaxResults
	}
	if out.RetryBackoff <= 0 {
		out.RetryBackoff = defaultRetryBackoff
	}
	if out.RateLimit <= 0 {
		out.RateLimit = defaultRateLimit
	}
	return out
}

// Client executes synthesized queries against a prioritized mirror list.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(cfg.RateLimit, 1),
		logger:     logger,
	}
}

// SearchPOIs runs the POI search for the requested categories inside the
// bounding box and returns normalized features.
func (c *Client) SearchPOIs(ctx context.Context, bound orb.Bound, requested map[types.POICategory]bool) ([]Feature, error) {
	ctx, span := otel.Tracer("OverpassClient").Start(ctx, "SearchPOIs", trace.WithAttributes(
		attribute.Int("categories.count", len(requested)),
	))
	defer span.End()

	filters := filtersFor(requested)
	if len(filters) == 0 {
		return nil, nil
	}
	query := buildPOIQuery(bound, filters, c.timeoutSeconds(), c.cfg.MaxQueryResults)
	elements, err := c.execute(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetStatus(codes.Ok, "POI query executed")
	return Normalize(elements, geo.PointRadiusPOI), nil
}

// SearchBoundaries runs the neighborhood boundary search. limit is the hard
// result cap the caller ultimately wants; the query over-fetches candidates.
func (c *Client) SearchBoundaries(ctx context.Context, bound orb.Bound, limit int) ([]Feature, error) {
	ctx, span := otel.Tracer("OverpassClient").Start(ctx, "SearchBoundaries", trace.WithAttributes(
		attribute.Int("limit", limit),
	))
	defer span.End()

	query := buildBoundaryQuery(bound, limit, c.timeoutSeconds())
	elements, err := c.execute(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetStatus(codes.Ok, "boundary query executed")
	return Normalize(elements, geo.PointRadiusNeighborhood), nil
}

func (c *Client) timeoutSeconds() int {
	return int(c.cfg.Timeout / time.Second)
}

// execute walks the mirror list in priority order. Client errors other than
// 429 abort immediately since retrying cannot help; rate limits, server
// errors and network failures advance to the next mirror after a linear
// backoff of attempt*RetryBackoff.
func (c *Client) execute(ctx context.Context, query string) ([]Element, error) {
	if len(c.cfg.Mirrors) == 0 {
		return nil, fmt.Errorf("%w: no mirrors configured", ErrServiceUnavailable)
	}

	var lastErr error
	for i, mirror := range c.cfg.Mirrors {
		if i > 0 {
			if err := sleepContext(ctx, time.Duration(i)*c.cfg.RetryBackoff); err != nil {
				return nil, err
			}
			c.logger.WarnContext(ctx, "Retrying overpass query on next mirror",
				slog.Int("attempt", i), slog.String("mirror", mirror))
			metrics.Get().OverpassRetriesTotal.Add(ctx, 1)
		}

		elements, retryable, err := c.attempt(ctx, mirror, query)
		if err == nil {
			return elements, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %s", ErrServiceUnavailable, lastErr)
}

// attempt runs the query against a single mirror. The second return value
// reports whether the failure may be retried on another mirror.
func (c *Client) attempt(ctx context.Context, mirror, query string) ([]Element, bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}

	form := url.Values{}
	form.Set("data", query)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, mirror, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, false, fmt.Errorf("failed to build overpass request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network failure: the next mirror may still be reachable.
		metrics.Get().OverpassRequestsTotal.Add(ctx, 1)
		return nil, true, fmt.Errorf("overpass request to %s failed: %w", mirror, err)
	}
	defer resp.Body.Close()
	metrics.Get().OverpassRequestsTotal.Add(ctx, 1)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("overpass mirror %s returned status %d: %s", mirror, resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, false, err
		}
		return nil, true, err
	}

	var parsed elementsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, true, fmt.Errorf("failed to decode overpass response from %s: %w", mirror, err)
	}
	return parsed.Elements, false, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
