package tracking

import (
	"context"

	"delivery-dispatch/internal/domain"
)

type locationStore interface {
	Upsert(ctx context.Context, s domain.LocationSample) error
	Get(ctx context.Context, actorID string) (*domain.LocationSample, error)
}

type assignmentReads interface {
	Get(ctx context.Context, id string) (*domain.Assignment, error)
}

type partnerReads interface {
	Get(ctx context.Context, id string) (*domain.DeliveryPartner, error)
}

type orderReads interface {
	Get(ctx context.Context, id string) (*domain.Order, error)
}
