package dispatch

import (
	"context"
	"time"

	"delivery-dispatch/internal/domain"
	"delivery-dispatch/internal/ports/ordertx"
	"delivery-dispatch/internal/repository"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx ordertx.Repository) error) error
}

type orderReads interface {
	Get(ctx context.Context, id string) (*domain.Order, error)
}

type assignmentReads interface {
	Get(ctx context.Context, id string) (*domain.Assignment, error)
	ListOpen(ctx context.Context) ([]domain.Assignment, error)
	ListActiveForPartner(ctx context.Context, partnerID string) ([]domain.Assignment, error)
}

type partnerSource interface {
	Get(ctx context.Context, id string) (*domain.DeliveryPartner, error)
	GetMany(ctx context.Context, ids []string) ([]domain.DeliveryPartner, error)
	FindAvailableWithLocation(ctx context.Context, since time.Time) ([]repository.PartnerPosition, error)
}

type locationReads interface {
	Get(ctx context.Context, actorID string) (*domain.LocationSample, error)
}

// Notifier fans an assignment offer out to candidate partners. Best effort;
// a failed notification never fails the broadcast.
type Notifier interface {
	OfferCreated(ctx context.Context, a domain.Assignment, candidateIDs []string) error
}
