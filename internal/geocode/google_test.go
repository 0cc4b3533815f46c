package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newGoogle(t *testing.T, apiKey string, handler http.HandlerFunc) *GoogleGeocoder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewGoogleGeocoder(GoogleConfig{
		APIKey:  apiKey,
		BaseURL: srv.URL,
	}, zap.NewNop())
}

func TestGoogleResolves(t *testing.T) {
	g := newGoogle(t, "key-123", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-123", r.URL.Query().Get("key"))
		assert.Equal(t, "kz", r.URL.Query().Get("region"))

		resp := map[string]any{
			"status": "OK",
			"results": []map[string]any{
				{"geometry": map[string]any{"location": map[string]float64{"lat": 51.1282, "lng": 71.4304}}},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	point, err := g.Geocode(context.Background(), "Астана, Мангилик Ел 55")
	require.NoError(t, err)
	require.NotNil(t, point)
	assert.InDelta(t, 51.1282, point.Latitude, 1e-6)
}

func TestGoogleZeroResults(t *testing.T) {
	var calls atomic.Int32
	g := newGoogle(t, "key-123", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"status": "ZERO_RESULTS"}))
	})

	for i := 0; i < 2; i++ {
		point, err := g.Geocode(context.Background(), "nowhere at all")
		require.NoError(t, err)
		assert.Nil(t, point)
	}
	// Negative result memoized.
	assert.Equal(t, int32(1), calls.Load())
}

func TestGoogleNoAPIKeySkips(t *testing.T) {
	g := newGoogle(t, "", func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without API key")
	})

	point, err := g.Geocode(context.Background(), "Алматы")
	require.NoError(t, err)
	assert.Nil(t, point)
}
