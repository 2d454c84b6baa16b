package dispatch

import (
	"context"
	"sort"
	"time"

	"delivery-dispatch/internal/domain"
	"delivery-dispatch/internal/geo"
)

// Candidate is a delivery partner eligible for a broadcast, with its
// distance to the shop at selection time.
type Candidate struct {
	Partner    domain.DeliveryPartner
	DistanceKm float64
}

// Selector picks broadcast candidates: available partners with a fresh
// location sample inside the search radius, nearest first. The ranking is a
// business rule, not a routing engine.
type Selector struct {
	partners       partnerSource
	searchRadiusKm float64
	sampleMaxAge   time.Duration
	now            func() time.Time
}

// NewSelector creates a Selector.
func NewSelector(partners partnerSource, searchRadiusKm float64, sampleMaxAge time.Duration) *Selector {
	if searchRadiusKm <= 0 {
		searchRadiusKm = 5
	}
	if sampleMaxAge <= 0 {
		sampleMaxAge = 15 * time.Minute
	}
	return &Selector{
		partners:       partners,
		searchRadiusKm: searchRadiusKm,
		sampleMaxAge:   sampleMaxAge,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// SelectNearby returns candidates within the search radius of (lat, lon),
// nearest first. An empty result is a valid outcome the caller must treat
// as a reported failure.
func (s *Selector) SelectNearby(ctx context.Context, lat, lon float64) ([]Candidate, error) {
	since := s.now().Add(-s.sampleMaxAge)
	positions, err := s.partners.FindAvailableWithLocation(ctx, since)
	if err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(positions))
	for _, pp := range positions {
		d := geo.HaversineKm(lat, lon, pp.Latitude, pp.Longitude)
		if d > s.searchRadiusKm {
			continue
		}
		out = append(out, Candidate{Partner: pp.Partner, DistanceKm: geo.RoundKm(d)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out, nil
}

// RadiusKm exposes the configured search radius.
func (s *Selector) RadiusKm() float64 { return s.searchRadiusKm }
