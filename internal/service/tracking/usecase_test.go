package tracking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"delivery-dispatch/internal/apperr"
	"delivery-dispatch/internal/domain"
	"delivery-dispatch/internal/service/tracking"
)

type stubLocations struct {
	upsertFn func(ctx context.Context, s domain.LocationSample) error
	getFn    func(ctx context.Context, actorID string) (*domain.LocationSample, error)
}

func (s *stubLocations) Upsert(ctx context.Context, sample domain.LocationSample) error {
	if s.upsertFn == nil {
		return nil
	}
	return s.upsertFn(ctx, sample)
}

func (s *stubLocations) Get(ctx context.Context, actorID string) (*domain.LocationSample, error) {
	if s.getFn == nil {
		return nil, nil
	}
	return s.getFn(ctx, actorID)
}

type stubAssignments struct {
	getFn func(ctx context.Context, id string) (*domain.Assignment, error)
}

func (s *stubAssignments) Get(ctx context.Context, id string) (*domain.Assignment, error) {
	if s.getFn == nil {
		return nil, nil
	}
	return s.getFn(ctx, id)
}

type stubPartners struct {
	getFn func(ctx context.Context, id string) (*domain.DeliveryPartner, error)
}

func (s *stubPartners) Get(ctx context.Context, id string) (*domain.DeliveryPartner, error) {
	if s.getFn == nil {
		return nil, nil
	}
	return s.getFn(ctx, id)
}

type stubOrders struct {
	getFn func(ctx context.Context, id string) (*domain.Order, error)
}

func (s *stubOrders) Get(ctx context.Context, id string) (*domain.Order, error) {
	if s.getFn == nil {
		return nil, nil
	}
	return s.getFn(ctx, id)
}

func TestReportLocation_UpsertsSample(t *testing.T) {
	t.Parallel()

	var got domain.LocationSample
	locs := &stubLocations{upsertFn: func(_ context.Context, s domain.LocationSample) error {
		got = s
		return nil
	}}

	svc := tracking.NewService(locs, &stubAssignments{}, &stubPartners{}, &stubOrders{}, nil, time.Second)

	err := svc.ReportLocation(context.Background(), "partner-1", 17.4300, 78.4600)
	require.NoError(t, err)
	require.Equal(t, "partner-1", got.ActorID)
	require.Equal(t, 17.4300, got.Latitude)
	require.Equal(t, 78.4600, got.Longitude)
	require.False(t, got.UpdatedAt.IsZero())
}

func TestReportLocation_Invalid(t *testing.T) {
	t.Parallel()

	locs := &stubLocations{upsertFn: func(context.Context, domain.LocationSample) error {
		t.Fatal("invalid input must not reach the store")
		return nil
	}}
	svc := tracking.NewService(locs, &stubAssignments{}, &stubPartners{}, &stubOrders{}, nil, time.Second)

	cases := []struct {
		name     string
		actorID  string
		lat, lon float64
	}{
		{"empty actor", " ", 17.43, 78.46},
		{"lat out of range", "partner-1", 91, 78.46},
		{"lon out of range", "partner-1", 17.43, -181},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.ReportLocation(context.Background(), tc.actorID, tc.lat, tc.lon)
			require.ErrorIs(t, err, apperr.ErrInvalid)
		})
	}
}

func acceptedAssignment(acceptedAt time.Time) *domain.Assignment {
	return &domain.Assignment{
		ID:         "a-1",
		OrderID:    "order-1",
		Status:     domain.AssignmentAssigned,
		AssignedTo: "partner-1",
		AcceptedAt: &acceptedAt,
	}
}

func TestLiveLocation_Success(t *testing.T) {
	t.Parallel()

	accepted := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	reported := accepted.Add(2 * time.Minute)

	assignments := &stubAssignments{getFn: func(_ context.Context, id string) (*domain.Assignment, error) {
		require.Equal(t, "a-1", id)
		return acceptedAssignment(accepted), nil
	}}
	locs := &stubLocations{getFn: func(_ context.Context, actorID string) (*domain.LocationSample, error) {
		require.Equal(t, "partner-1", actorID)
		return &domain.LocationSample{ActorID: actorID, Latitude: 17.4000, Longitude: 78.5000, UpdatedAt: reported}, nil
	}}
	partners := &stubPartners{getFn: func(context.Context, string) (*domain.DeliveryPartner, error) {
		return &domain.DeliveryPartner{ID: "partner-1", Name: "Ravi", Mobile: "9876543210"}, nil
	}}
	orders := &stubOrders{getFn: func(context.Context, string) (*domain.Order, error) {
		return &domain.Order{
			ID:      "order-1",
			Address: domain.Address{Latitude: 17.385044, Longitude: 78.486671},
		}, nil
	}}

	svc := tracking.NewService(locs, assignments, partners, orders, nil, time.Second)

	pos, err := svc.LiveLocation(context.Background(), "a-1")
	require.NoError(t, err)
	require.Equal(t, 17.4000, pos.Latitude)
	require.Equal(t, 78.5000, pos.Longitude)
	require.Equal(t, "Ravi", pos.Name)
	require.Equal(t, "9876543210", pos.Mobile)
	require.Equal(t, reported, pos.LastUpdate)
	// partner is roughly 2 km from the address at 30 km/h
	require.Equal(t, 2.18, pos.DistanceKm)
	require.Equal(t, 4, pos.EtaMinutes)
}

func TestLiveLocation_AssignmentNotFound(t *testing.T) {
	t.Parallel()

	svc := tracking.NewService(&stubLocations{}, &stubAssignments{}, &stubPartners{}, &stubOrders{}, nil, time.Second)

	_, err := svc.LiveLocation(context.Background(), "missing")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLiveLocation_NotAcceptedYet(t *testing.T) {
	t.Parallel()

	assignments := &stubAssignments{getFn: func(context.Context, string) (*domain.Assignment, error) {
		return &domain.Assignment{ID: "a-1", Status: domain.AssignmentBroadcasted}, nil
	}}
	svc := tracking.NewService(&stubLocations{}, assignments, &stubPartners{}, &stubOrders{}, nil, time.Second)

	_, err := svc.LiveLocation(context.Background(), "a-1")
	require.ErrorIs(t, err, apperr.ErrNoLocationYet)
}

func TestLiveLocation_NoSampleYet(t *testing.T) {
	t.Parallel()

	accepted := time.Now().UTC()
	assignments := &stubAssignments{getFn: func(context.Context, string) (*domain.Assignment, error) {
		return acceptedAssignment(accepted), nil
	}}
	svc := tracking.NewService(&stubLocations{}, assignments, &stubPartners{}, &stubOrders{}, nil, time.Second)

	_, err := svc.LiveLocation(context.Background(), "a-1")
	require.ErrorIs(t, err, apperr.ErrNoLocationYet)
}

func TestLiveLocation_StaleSampleIgnored(t *testing.T) {
	t.Parallel()

	accepted := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	assignments := &stubAssignments{getFn: func(context.Context, string) (*domain.Assignment, error) {
		return acceptedAssignment(accepted), nil
	}}
	locs := &stubLocations{getFn: func(context.Context, string) (*domain.LocationSample, error) {
		return &domain.LocationSample{
			ActorID:   "partner-1",
			Latitude:  17.40,
			Longitude: 78.50,
			UpdatedAt: accepted.Add(-time.Hour),
		}, nil
	}}
	svc := tracking.NewService(locs, assignments, &stubPartners{}, &stubOrders{}, nil, time.Second)

	_, err := svc.LiveLocation(context.Background(), "a-1")
	require.ErrorIs(t, err, apperr.ErrNoLocationYet)
}

func TestLiveLocation_EmptyID(t *testing.T) {
	t.Parallel()

	svc := tracking.NewService(&stubLocations{}, &stubAssignments{}, &stubPartners{}, &stubOrders{}, nil, time.Second)

	_, err := svc.LiveLocation(context.Background(), "  ")
	require.ErrorIs(t, err, apperr.ErrInvalid)
}
