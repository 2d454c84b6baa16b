package handlers

import (
	"context"

	"delivery-dispatch/internal/domain"
	"delivery-dispatch/internal/service/dispatch"
	"delivery-dispatch/internal/service/orders"
	"delivery-dispatch/internal/service/tracking"
)

type orderUsecase interface {
	SetStatus(ctx context.Context, orderID, shopOrderID string, newStatus domain.ShopOrderStatus) (orders.StatusResult, error)
	SetStatusByShop(ctx context.Context, orderID, shopID string, newStatus domain.ShopOrderStatus) (orders.StatusResult, error)
	VerifyOtp(ctx context.Context, orderID, shopOrderID, submitted string) (orders.VerifyResult, error)
	ListByCustomer(ctx context.Context, customerID string, limit *int) ([]domain.Order, error)
	ListByShop(ctx context.Context, shopID string, limit *int) ([]domain.Order, error)
}

// NewOrderUsecase wires an orders Service into an orderUsecase.
func NewOrderUsecase(svc *orders.Service) orderUsecase {
	return svc
}

type dispatchUsecase interface {
	Broadcast(ctx context.Context, orderID, shopID string, partnerIDs []string) (dispatch.BroadcastResult, error)
	Accept(ctx context.Context, assignmentID, partnerID string) (domain.Assignment, error)
	Complete(ctx context.Context, assignmentID string) (domain.Assignment, error)
	MyAssignments(ctx context.Context, partnerID string) ([]domain.Assignment, error)
}

// NewDispatchUsecase wires a dispatch Service into a dispatchUsecase.
func NewDispatchUsecase(svc *dispatch.Service) dispatchUsecase {
	return svc
}

type trackingUsecase interface {
	ReportLocation(ctx context.Context, actorID string, lat, lon float64) error
	LiveLocation(ctx context.Context, assignmentID string) (tracking.LivePosition, error)
}

// NewTrackingUsecase wires a tracking Service into a trackingUsecase.
func NewTrackingUsecase(svc *tracking.Service) trackingUsecase {
	return svc
}
