package dispatch_test

import (
	"context"
	"sync"
	"time"

	"delivery-dispatch/internal/domain"
	"delivery-dispatch/internal/ports/ordertx"
	"delivery-dispatch/internal/repository"
)

type stubTx struct {
	getShopOrderFn       func(ctx context.Context, orderID, shopOrderID string) (*domain.ShopOrder, error)
	getShopOrderByShopFn func(ctx context.Context, orderID, shopID string) (*domain.ShopOrder, error)
	updateStatusFn       func(ctx context.Context, shopOrderID string, status domain.ShopOrderStatus) error
	setOtpFn             func(ctx context.Context, shopOrderID, code string) error
	clearOtpFn           func(ctx context.Context, shopOrderID string) error
	setAssignmentFn      func(ctx context.Context, shopOrderID, assignmentID string) error
	activeByShopOrderFn  func(ctx context.Context, shopOrderID string) (*domain.Assignment, error)
	getAssignmentFn      func(ctx context.Context, assignmentID string) (*domain.Assignment, error)
	insertAssignmentFn   func(ctx context.Context, a *domain.Assignment) error
	acceptFn             func(ctx context.Context, assignmentID, partnerID string, at time.Time) (bool, error)
	completeFn           func(ctx context.Context, assignmentID string, at time.Time) error
	updatePartnerFn      func(ctx context.Context, partnerID string, status domain.PartnerStatus) error
}

func (s *stubTx) GetShopOrderForUpdate(ctx context.Context, orderID, shopOrderID string) (*domain.ShopOrder, error) {
	if s.getShopOrderFn == nil {
		return nil, nil
	}
	return s.getShopOrderFn(ctx, orderID, shopOrderID)
}

func (s *stubTx) GetShopOrderByShopForUpdate(ctx context.Context, orderID, shopID string) (*domain.ShopOrder, error) {
	if s.getShopOrderByShopFn == nil {
		return nil, nil
	}
	return s.getShopOrderByShopFn(ctx, orderID, shopID)
}

func (s *stubTx) UpdateShopOrderStatus(ctx context.Context, shopOrderID string, status domain.ShopOrderStatus) error {
	if s.updateStatusFn == nil {
		return nil
	}
	return s.updateStatusFn(ctx, shopOrderID, status)
}

func (s *stubTx) SetShopOrderOtp(ctx context.Context, shopOrderID, code string) error {
	if s.setOtpFn == nil {
		return nil
	}
	return s.setOtpFn(ctx, shopOrderID, code)
}

func (s *stubTx) ClearShopOrderOtp(ctx context.Context, shopOrderID string) error {
	if s.clearOtpFn == nil {
		return nil
	}
	return s.clearOtpFn(ctx, shopOrderID)
}

func (s *stubTx) SetShopOrderAssignment(ctx context.Context, shopOrderID, assignmentID string) error {
	if s.setAssignmentFn == nil {
		return nil
	}
	return s.setAssignmentFn(ctx, shopOrderID, assignmentID)
}

func (s *stubTx) ActiveAssignmentByShopOrder(ctx context.Context, shopOrderID string) (*domain.Assignment, error) {
	if s.activeByShopOrderFn == nil {
		return nil, nil
	}
	return s.activeByShopOrderFn(ctx, shopOrderID)
}

func (s *stubTx) GetAssignment(ctx context.Context, assignmentID string) (*domain.Assignment, error) {
	if s.getAssignmentFn == nil {
		return nil, nil
	}
	return s.getAssignmentFn(ctx, assignmentID)
}

func (s *stubTx) InsertAssignment(ctx context.Context, a *domain.Assignment) error {
	if s.insertAssignmentFn == nil {
		return nil
	}
	return s.insertAssignmentFn(ctx, a)
}

func (s *stubTx) AcceptAssignment(ctx context.Context, assignmentID, partnerID string, at time.Time) (bool, error) {
	if s.acceptFn == nil {
		return true, nil
	}
	return s.acceptFn(ctx, assignmentID, partnerID, at)
}

func (s *stubTx) CompleteAssignment(ctx context.Context, assignmentID string, at time.Time) error {
	if s.completeFn == nil {
		return nil
	}
	return s.completeFn(ctx, assignmentID, at)
}

func (s *stubTx) UpdatePartnerStatus(ctx context.Context, partnerID string, status domain.PartnerStatus) error {
	if s.updatePartnerFn == nil {
		return nil
	}
	return s.updatePartnerFn(ctx, partnerID, status)
}

var _ ordertx.Repository = (*stubTx)(nil)

type stubRunner struct {
	tx *stubTx
}

func (r *stubRunner) WithTx(ctx context.Context, fn func(tx ordertx.Repository) error) error {
	return fn(r.tx)
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

type stubAssignments struct {
	getFn           func(ctx context.Context, id string) (*domain.Assignment, error)
	listOpenFn      func(ctx context.Context) ([]domain.Assignment, error)
	listForPartner  func(ctx context.Context, partnerID string) ([]domain.Assignment, error)
}

func (s *stubAssignments) Get(ctx context.Context, id string) (*domain.Assignment, error) {
	if s.getFn == nil {
		return nil, nil
	}
	return s.getFn(ctx, id)
}

func (s *stubAssignments) ListOpen(ctx context.Context) ([]domain.Assignment, error) {
	if s.listOpenFn == nil {
		return nil, nil
	}
	return s.listOpenFn(ctx)
}

func (s *stubAssignments) ListActiveForPartner(ctx context.Context, partnerID string) ([]domain.Assignment, error) {
	if s.listForPartner == nil {
		return nil, nil
	}
	return s.listForPartner(ctx, partnerID)
}

type stubPartners struct {
	getFn      func(ctx context.Context, id string) (*domain.DeliveryPartner, error)
	getManyFn  func(ctx context.Context, ids []string) ([]domain.DeliveryPartner, error)
	findFn     func(ctx context.Context, since time.Time) ([]repository.PartnerPosition, error)
}

func (s *stubPartners) Get(ctx context.Context, id string) (*domain.DeliveryPartner, error) {
	if s.getFn == nil {
		return nil, nil
	}
	return s.getFn(ctx, id)
}

func (s *stubPartners) GetMany(ctx context.Context, ids []string) ([]domain.DeliveryPartner, error) {
	if s.getManyFn == nil {
		return nil, nil
	}
	return s.getManyFn(ctx, ids)
}

func (s *stubPartners) FindAvailableWithLocation(ctx context.Context, since time.Time) ([]repository.PartnerPosition, error) {
	if s.findFn == nil {
		return nil, nil
	}
	return s.findFn(ctx, since)
}

type stubLocations struct {
	getFn func(ctx context.Context, actorID string) (*domain.LocationSample, error)
}

func (s *stubLocations) Get(ctx context.Context, actorID string) (*domain.LocationSample, error) {
	if s.getFn == nil {
		return nil, nil
	}
	return s.getFn(ctx, actorID)
}

type recordingNotifier struct {
	mu         sync.Mutex
	offers     []domain.Assignment
	candidates [][]string
	err        error
}

func (n *recordingNotifier) OfferCreated(_ context.Context, a domain.Assignment, ids []string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.offers = append(n.offers, a)
	n.candidates = append(n.candidates, ids)
	return n.err
}
