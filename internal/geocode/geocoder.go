// Package geocode resolves postal addresses to coordinates. Providers
// degrade instead of failing: an unresolvable address yields a nil
// point, never an error, so routing can fall back to hub rotation.
package geocode

import (
	"context"

	"fire/internal/domain"
)

// Geocoder resolves an address string to a point. A nil point with a
// nil error means the address could not be resolved by any strategy.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*domain.GeoPoint, error)
}
