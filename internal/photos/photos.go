// Package photos resolves a representative image for a neighborhood from a
// Wikimedia-style geosearch endpoint. Strictly best-effort: the pipeline
// never blocks on it.
package photos

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/FACorreiaa/go-neighborhood-discovery/internal/types"
)

// Provider looks up one photo URL for a named place.
type Provider interface {
	PhotoURL(ctx context.Context, name string, lat, lng float64) (string, error)
}

var _ Provider = (*Client)(nil)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type geosearchResponse struct {
	Query struct {
		Pages map[string]struct {
			Title     string `json:"title"`
			ImageInfo []struct {
				URL string `json:"url"`
			} `json:"imageinfo"`
		} `json:"pages"`
	} `json:"query"`
}

// PhotoURL returns the first geosearch image near the place, or
// types.ErrNotFound when nothing is available there.
func (c *Client) PhotoURL(ctx context.Context, name string, lat, lng float64) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("generator", "geosearch")
	params.Set("ggscoord", fmt.Sprintf("%f|%f", lat, lng))
	params.Set("ggsradius", "1000")
	params.Set("ggslimit", "1")
	params.Set("prop", "imageinfo")
	params.Set("iiprop", "url")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build photo request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("photo request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("photo provider returned status %d", resp.StatusCode)
	}

	var parsed geosearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode photo response: %w", err)
	}

	for _, page := range parsed.Query.Pages {
		if len(page.ImageInfo) > 0 && page.ImageInfo[0].URL != "" {
			c.logger.DebugContext(ctx, "Photo resolved",
				slog.String("place", name), slog.String("page", page.Title))
			return page.ImageInfo[0].URL, nil
		}
	}
	return "", fmt.Errorf("no photo near %s: %w", name, types.ErrNotFound)
}
