package ordertx

import (
	"context"
	"time"

	"delivery-dispatch/internal/domain"
)

// Repository is the transactional view of the order/assignment store. Every
// mutation of a shop order or assignment goes through here so the
// single-writer-per-record discipline holds.
type Repository interface {
	GetShopOrderForUpdate(ctx context.Context, orderID, shopOrderID string) (*domain.ShopOrder, error)
	GetShopOrderByShopForUpdate(ctx context.Context, orderID, shopID string) (*domain.ShopOrder, error)
	UpdateShopOrderStatus(ctx context.Context, shopOrderID string, status domain.ShopOrderStatus) error
	SetShopOrderOtp(ctx context.Context, shopOrderID, code string) error
	ClearShopOrderOtp(ctx context.Context, shopOrderID string) error
	SetShopOrderAssignment(ctx context.Context, shopOrderID, assignmentID string) error

	ActiveAssignmentByShopOrder(ctx context.Context, shopOrderID string) (*domain.Assignment, error)
	GetAssignment(ctx context.Context, assignmentID string) (*domain.Assignment, error)
	InsertAssignment(ctx context.Context, a *domain.Assignment) error
	// AcceptAssignment performs the conditional update that resolves the
	// acceptance race. It returns false when the assignment is no longer in
	// the broadcasted state.
	AcceptAssignment(ctx context.Context, assignmentID, partnerID string, at time.Time) (bool, error)
	CompleteAssignment(ctx context.Context, assignmentID string, at time.Time) error

	UpdatePartnerStatus(ctx context.Context, partnerID string, status domain.PartnerStatus) error
}

// Runner is a transaction runner
type Runner interface {
	WithTx(ctx context.Context, fn func(tx Repository) error) error
}
