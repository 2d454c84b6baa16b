package orders

import (
	"context"

	"delivery-dispatch/internal/domain"
	"delivery-dispatch/internal/ports/ordertx"
	"delivery-dispatch/internal/service/dispatch"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx ordertx.Repository) error) error
}

type orderReads interface {
	Get(ctx context.Context, id string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string, limit *int) ([]domain.Order, error)
	ListByShop(ctx context.Context, shopID string, limit *int) ([]domain.Order, error)
}

// candidateSelector abstracts broadcast candidate selection so the status
// machine can create an assignment inside the OUT_FOR_DELIVERY transition.
type candidateSelector interface {
	SelectNearby(ctx context.Context, lat, lon float64) ([]dispatch.Candidate, error)
}
