package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Hub office names used for the 50/50 fallback. Matched as substrings
// of the office name so "ЦОК Астана (главный)" still qualifies.
const (
	AstanaHub = "Астана"
	AlmatyHub = "Алматы"
)

var (
	// ErrNoOffices signals an empty office list, a deployment bug.
	ErrNoOffices = errors.New("no offices available")
	// ErrNoLocatedOffices signals that nearest selection is impossible
	// because no office has coordinates.
	ErrNoLocatedOffices = errors.New("no offices with known locations")
	// ErrHubsMissing signals that the 50/50 fallback was required but
	// one of the hub offices is absent.
	ErrHubsMissing = errors.New("hub offices not found")
)

// OfficeSelection is the outcome of the office policy.
type OfficeSelection struct {
	Office       Office
	DistanceKm   *float64 // nil when the fallback was used
	FallbackUsed bool
	Reason       string
}

// SelectNearestOffice picks the geographically nearest office with
// known coordinates. Ties are broken by ascending office id.
func SelectNearestOffice(client GeoPoint, offices []Office) (OfficeSelection, error) {
	sorted := make([]Office, len(offices))
	copy(sorted, offices)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var (
		best     *Office
		bestDist float64
	)
	for i := range sorted {
		o := sorted[i]
		if o.Location == nil {
			continue
		}
		d := client.HaversineKm(*o.Location)
		if best == nil || d < bestDist {
			best = &sorted[i]
			bestDist = d
		}
	}
	if best == nil {
		return OfficeSelection{}, ErrNoLocatedOffices
	}

	rounded := RoundKm(bestDist)
	return OfficeSelection{
		Office:       *best,
		DistanceKm:   &rounded,
		FallbackUsed: false,
		Reason:       fmt.Sprintf("Nearest office: %s (%.1f km)", best.Name, bestDist),
	}, nil
}

// SelectFallbackOffice deterministically splits unresolvable tickets
// between the two hub offices using the counter's parity. When a hub
// is missing, behavior depends on requireHubs: with it set the miss
// is a hard error (a configuration bug), otherwise the pick rotates
// across all offices sorted by id.
func SelectFallbackOffice(counter int64, offices []Office, requireHubs bool) (OfficeSelection, error) {
	if len(offices) == 0 {
		return OfficeSelection{}, ErrNoOffices
	}

	var astana, almaty *Office
	for i := range offices {
		if strings.Contains(offices[i].Name, AstanaHub) && astana == nil {
			astana = &offices[i]
		}
		if strings.Contains(offices[i].Name, AlmatyHub) && almaty == nil {
			almaty = &offices[i]
		}
	}

	if astana != nil && almaty != nil {
		chosen, hub := astana, AstanaHub
		if counter%2 != 0 {
			chosen, hub = almaty, AlmatyHub
		}
		return OfficeSelection{
			Office:       *chosen,
			FallbackUsed: true,
			Reason:       fmt.Sprintf("Fallback 50/50 → %s (round-robin)", hub),
		}, nil
	}

	if requireHubs {
		return OfficeSelection{}, ErrHubsMissing
	}

	sorted := make([]Office, len(offices))
	copy(sorted, offices)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	chosen := sorted[counter%int64(len(sorted))]

	return OfficeSelection{
		Office:       chosen,
		FallbackUsed: true,
		Reason:       fmt.Sprintf("Fallback → %s (round-robin across all offices)", chosen.Name),
	}, nil
}
