package tracking

import (
	"context"
	"strings"
	"time"

	"delivery-dispatch/internal/apperr"
	"delivery-dispatch/internal/domain"
	"delivery-dispatch/internal/geo"
	"delivery-dispatch/internal/logx"
)

// Service is the live tracking feed: partners report positions, consumers
// poll the freshest one with a distance/ETA estimate attached. Pull-based;
// readers tolerate staleness and "no sample yet" is a state, not an error.
type Service struct {
	locations        locationStore
	assignments      assignmentReads
	partners         partnerReads
	orders           orderReads
	logger           logx.Logger
	operationTimeout time.Duration
	now              func() time.Time
}

// NewService creates a tracking Service.
func NewService(locations locationStore, assignments assignmentReads, partners partnerReads, orders orderReads, logger logx.Logger, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Service{
		locations:        locations,
		assignments:      assignments,
		partners:         partners,
		orders:           orders,
		logger:           logger,
		operationTimeout: timeout,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// ReportLocation overwrites the actor's last-known position. Fire and
// forget from the reporter's perspective; only the freshest sample matters.
func (s *Service) ReportLocation(ctx context.Context, actorID string, lat, lon float64) error {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" || !domain.ValidCoordinates(lat, lon) {
		return apperr.ErrInvalid
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.locations.Upsert(ctx, domain.LocationSample{
		ActorID:   actorID,
		Latitude:  lat,
		Longitude: lon,
		UpdatedAt: s.now(),
	})
}

// LivePosition is the assigned partner's freshest position with the
// distance and ETA toward the delivery address. The ETA assumes a constant
// average speed; it is an estimate, not routing.
type LivePosition struct {
	Latitude   float64
	Longitude  float64
	Name       string
	Mobile     string
	LastUpdate time.Time
	DistanceKm float64
	EtaMinutes int
}

// LiveLocation returns the assigned partner's latest sample for an
// assignment. When no partner accepted yet, or the partner has not reported
// since acceptance, it fails with ErrNoLocationYet.
func (s *Service) LiveLocation(ctx context.Context, assignmentID string) (LivePosition, error) {
	assignmentID = strings.TrimSpace(assignmentID)
	if assignmentID == "" {
		return LivePosition{}, apperr.ErrInvalid
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	a, err := s.assignments.Get(ctx, assignmentID)
	if err != nil {
		return LivePosition{}, err
	}
	if a == nil {
		return LivePosition{}, apperr.ErrNotFound
	}
	if a.AssignedTo == "" {
		return LivePosition{}, apperr.ErrNoLocationYet
	}

	sample, err := s.locations.Get(ctx, a.AssignedTo)
	if err != nil {
		return LivePosition{}, err
	}
	if sample == nil {
		return LivePosition{}, apperr.ErrNoLocationYet
	}
	if a.AcceptedAt != nil && sample.UpdatedAt.Before(*a.AcceptedAt) {
		return LivePosition{}, apperr.ErrNoLocationYet
	}

	partner, err := s.partners.Get(ctx, a.AssignedTo)
	if err != nil {
		return LivePosition{}, err
	}
	if partner == nil {
		return LivePosition{}, apperr.ErrNotFound
	}

	ord, err := s.orders.Get(ctx, a.OrderID)
	if err != nil {
		return LivePosition{}, err
	}
	if ord == nil {
		return LivePosition{}, apperr.ErrNotFound
	}

	d := geo.HaversineKm(sample.Latitude, sample.Longitude, ord.Address.Latitude, ord.Address.Longitude)
	return LivePosition{
		Latitude:   sample.Latitude,
		Longitude:  sample.Longitude,
		Name:       partner.Name,
		Mobile:     partner.Mobile,
		LastUpdate: sample.UpdatedAt,
		DistanceKm: geo.RoundKm(d),
		EtaMinutes: geo.ETAMinutes(d),
	}, nil
}
