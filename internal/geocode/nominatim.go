package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"fire/internal/domain"
)

// NominatimConfig configures the OSM-backed geocoder.
type NominatimConfig struct {
	BaseURL     string
	UserAgent   string
	CountryCode string
	Timeout     time.Duration
}

// NominatimGeocoder resolves addresses via the Nominatim search API
// with centroid fallbacks and memoization. Negative results are
// cached too: an address that failed once is not retried within the
// cache TTL.
type NominatimGeocoder struct {
	baseURL     string
	userAgent   string
	countryCode string
	httpClient  *http.Client
	cache       *cache.Cache
	logger      *zap.Logger
}

// NewNominatimGeocoder creates the geocoder. A zero config falls back
// to the public OSM endpoint.
func NewNominatimGeocoder(cfg NominatimConfig, logger *zap.Logger) *NominatimGeocoder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "ticket-routing/1.0"
	}
	if cfg.CountryCode == "" {
		cfg.CountryCode = "kz"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NominatimGeocoder{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:   cfg.UserAgent,
		countryCode: cfg.CountryCode,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		cache:       cache.New(24*time.Hour, 10*time.Minute),
		logger:      logger,
	}
}

// Geocode resolves an address.
//
// Strategy, first hit wins:
//  1. memoized result (positive or negative)
//  2. Nominatim, trying a couple of query variants
//  3. city centroid matched inside the address
//  4. region centroid resolved to the regional center
func (g *NominatimGeocoder) Geocode(ctx context.Context, address string) (*domain.GeoPoint, error) {
	cacheKey := strings.ToLower(strings.TrimSpace(address))
	if cacheKey == "" {
		return nil, nil
	}

	if cached, found := g.cache.Get(cacheKey); found {
		g.logger.Debug("geocode cache hit", zap.String("address", address))
		point, _ := cached.(*domain.GeoPoint)
		return point, nil
	}

	point, err := g.lookup(ctx, address)
	if err != nil {
		// Context cancellation must not poison the cache.
		return nil, err
	}

	if point == nil {
		point = cityCentroid(address)
		if point != nil {
			g.logger.Info("city centroid fallback", zap.String("address", address))
		}
	}
	if point == nil {
		point = regionCentroid(address)
		if point != nil {
			g.logger.Info("region centroid fallback", zap.String("address", address))
		}
	}
	if point == nil {
		g.logger.Warn("no geocoding result", zap.String("address", address))
	}

	g.cache.Set(cacheKey, point, cache.DefaultExpiration)
	return point, nil
}

func (g *NominatimGeocoder) lookup(ctx context.Context, address string) (*domain.GeoPoint, error) {
	for _, query := range buildQueries(address) {
		point, err := g.search(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			g.logger.Warn("nominatim request failed",
				zap.String("query", query), zap.Error(err))
			continue
		}
		if point != nil {
			g.logger.Info("nominatim resolved address",
				zap.String("address", address),
				zap.String("query", query),
				zap.Float64("lat", point.Latitude),
				zap.Float64("lon", point.Longitude))
			return point, nil
		}
	}
	return nil, nil
}

func (g *NominatimGeocoder) search(ctx context.Context, query string) (*domain.GeoPoint, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("countrycodes", g.countryCode)

	req, err := http.NewRequestWithContext(ctx, "GET", g.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed with status %d: %s", resp.StatusCode, string(body))
	}

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("bad latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("bad longitude %q: %w", results[0].Lon, err)
	}
	return &domain.GeoPoint{Latitude: lat, Longitude: lon}, nil
}

var streetPrefixReplacer = strings.NewReplacer(
	"ул.", "", "улица", "", "пр-т", "", "проспект", "",
)

// buildQueries returns the full address plus a broader variant with
// street keywords and house numbers stripped. Villages often resolve
// only on the broad form.
func buildQueries(address string) []string {
	q1 := strings.TrimSpace(address)

	q2 := streetPrefixReplacer.Replace(strings.ToLower(q1))
	fields := strings.FieldsFunc(q2, func(r rune) bool {
		return r == ',' || r == ' '
	})
	kept := fields[:0]
	for _, f := range fields {
		if !strings.ContainsAny(f, "0123456789") {
			kept = append(kept, f)
		}
	}
	q2 = strings.Join(kept, " ")

	queries := []string{q1}
	if q2 != "" && q2 != strings.ToLower(q1) {
		queries = append(queries, q2)
	}
	return queries
}
