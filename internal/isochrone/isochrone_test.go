package isochrone

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-neighborhood-discovery/internal/types"
)

const isochroneBody = `{
	"type": "FeatureCollection",
	"features": [{
		"type": "Feature",
		"properties": {},
		"geometry": {
			"type": "Polygon",
			"coordinates": [[[-80.3,25.7],[-80.1,25.7],[-80.1,25.9],[-80.3,25.9],[-80.3,25.7]]]
		}
	}]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(Config{BaseURL: server.URL, APIKey: "test-key"}, logger), server
}

func TestReachable(t *testing.T) {
	t.Run("decodes polygon and closes ring", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v2/isochrones/driving-car", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("Authorization"))
			w.Write([]byte(isochroneBody))
		})

		ring, err := client.Reachable(context.Background(), -80.19, 25.76, 15, types.ModeDriving)
		require.NoError(t, err)
		require.NotEmpty(t, ring)
		assert.Equal(t, ring[0], ring[len(ring)-1])
	})

	t.Run("memoizes identical requests", func(t *testing.T) {
		var hits atomic.Int32
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.Write([]byte(isochroneBody))
		})

		ctx := context.Background()
		_, err := client.Reachable(ctx, -80.19, 25.76, 15, types.ModeWalking)
		require.NoError(t, err)
		_, err = client.Reachable(ctx, -80.19, 25.76, 15, types.ModeWalking)
		require.NoError(t, err)
		assert.Equal(t, int32(1), hits.Load())

		// A different budget is a different key.
		_, err = client.Reachable(ctx, -80.19, 25.76, 30, types.ModeWalking)
		require.NoError(t, err)
		assert.Equal(t, int32(2), hits.Load())
	})

	t.Run("provider error propagates", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusForbidden)
		})

		_, err := client.Reachable(context.Background(), -80.19, 25.76, 15, types.ModeCycling)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 403")
	})

	t.Run("unsupported mode", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
		_, err := client.Reachable(context.Background(), -80.19, 25.76, 15, "teleport")
		require.Error(t, err)
	})

	t.Run("empty feature collection", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
		})
		_, err := client.Reachable(context.Background(), -80.19, 25.76, 15, types.ModeDriving)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no polygon")
	})
}
