package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"fire/internal/domain"
)

// GoogleConfig configures the Google Maps geocoder.
type GoogleConfig struct {
	APIKey  string
	BaseURL string
	Region  string
	Timeout time.Duration
}

// GoogleGeocoder resolves addresses via the Google Maps Geocoding
// API. Without an API key every lookup is a logged no-op.
type GoogleGeocoder struct {
	apiKey     string
	baseURL    string
	region     string
	httpClient *http.Client
	cache      *cache.Cache
	logger     *zap.Logger
}

// NewGoogleGeocoder creates the geocoder.
func NewGoogleGeocoder(cfg GoogleConfig, logger *zap.Logger) *GoogleGeocoder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://maps.googleapis.com/maps/api/geocode/json"
	}
	if cfg.Region == "" {
		cfg.Region = "kz"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoogleGeocoder{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		region:     cfg.Region,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cache.New(24*time.Hour, 10*time.Minute),
		logger:     logger,
	}
}

// Geocode resolves an address, memoizing positive and negative
// results alike.
func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (*domain.GeoPoint, error) {
	if g.apiKey == "" {
		g.logger.Warn("google maps API key not set, skipping geocoding")
		return nil, nil
	}

	cacheKey := strings.ToLower(strings.TrimSpace(address))
	if cacheKey == "" {
		return nil, nil
	}
	if cached, found := g.cache.Get(cacheKey); found {
		point, _ := cached.(*domain.GeoPoint)
		return point, nil
	}

	params := url.Values{}
	params.Set("address", address)
	params.Set("key", g.apiKey)
	params.Set("region", g.region)
	params.Set("language", "ru")

	req, err := http.NewRequestWithContext(ctx, "GET", g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		g.logger.Warn("google maps request failed", zap.String("address", address), zap.Error(err))
		return nil, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		g.logger.Warn("google maps response read failed", zap.Error(err))
		return nil, nil
	}

	var data struct {
		Status  string `json:"status"`
		Results []struct {
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		g.logger.Warn("google maps response parse failed", zap.Error(err))
		return nil, nil
	}

	if data.Status != "OK" || len(data.Results) == 0 {
		g.logger.Warn("google maps could not resolve address",
			zap.String("address", address), zap.String("status", data.Status))
		g.cache.Set(cacheKey, (*domain.GeoPoint)(nil), cache.DefaultExpiration)
		return nil, nil
	}

	loc := data.Results[0].Geometry.Location
	point := &domain.GeoPoint{Latitude: loc.Lat, Longitude: loc.Lng}
	g.logger.Info("google maps resolved address",
		zap.String("address", address),
		zap.Float64("lat", point.Latitude),
		zap.Float64("lon", point.Longitude))

	g.cache.Set(cacheKey, point, cache.DefaultExpiration)
	return point, nil
}
