package orders_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"delivery-dispatch/internal/apperr"
	"delivery-dispatch/internal/domain"
	"delivery-dispatch/internal/ports/ordertx"
	"delivery-dispatch/internal/service/dispatch"
	"delivery-dispatch/internal/service/orders"
)

const (
	testOrderID     = "order-1"
	testShopID      = "shop-1"
	testShopOrderID = "so-1"
)

type stubTx struct {
	getShopOrderFn      func(ctx context.Context, orderID, shopOrderID string) (*domain.ShopOrder, error)
	updateStatusFn      func(ctx context.Context, shopOrderID string, status domain.ShopOrderStatus) error
	setOtpFn            func(ctx context.Context, shopOrderID, code string) error
	clearOtpFn          func(ctx context.Context, shopOrderID string) error
	setAssignmentFn     func(ctx context.Context, shopOrderID, assignmentID string) error
	activeByShopOrderFn func(ctx context.Context, shopOrderID string) (*domain.Assignment, error)
	insertAssignmentFn  func(ctx context.Context, a *domain.Assignment) error
	completeFn          func(ctx context.Context, assignmentID string, at time.Time) error
	updatePartnerFn     func(ctx context.Context, partnerID string, status domain.PartnerStatus) error
}

func (s *stubTx) GetShopOrderForUpdate(ctx context.Context, orderID, shopOrderID string) (*domain.ShopOrder, error) {
	if s.getShopOrderFn == nil {
		return nil, nil
	}
	return s.getShopOrderFn(ctx, orderID, shopOrderID)
}

func (s *stubTx) GetShopOrderByShopForUpdate(context.Context, string, string) (*domain.ShopOrder, error) {
	return nil, nil
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

func (s *stubTx) GetAssignment(context.Context, string) (*domain.Assignment, error) {
	return nil, nil
}

func (s *stubTx) InsertAssignment(ctx context.Context, a *domain.Assignment) error {
	if s.insertAssignmentFn == nil {
		return nil
	}
	return s.insertAssignmentFn(ctx, a)
}

func (s *stubTx) AcceptAssignment(context.Context, string, string, time.Time) (bool, error) {
	return false, nil
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

type stubRunner struct{ tx *stubTx }

func (r *stubRunner) WithTx(ctx context.Context, fn func(tx ordertx.Repository) error) error {
	return fn(r.tx)
}

type stubOrderReads struct {
	getFn        func(ctx context.Context, id string) (*domain.Order, error)
	listFn       func(ctx context.Context, customerID string, limit *int) ([]domain.Order, error)
	listByShopFn func(ctx context.Context, shopID string, limit *int) ([]domain.Order, error)
}

func (s *stubOrderReads) Get(ctx context.Context, id string) (*domain.Order, error) {
	if s.getFn == nil {
		return nil, nil
	}
	return s.getFn(ctx, id)
}

func (s *stubOrderReads) ListByCustomer(ctx context.Context, customerID string, limit *int) ([]domain.Order, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, customerID, limit)
}

func (s *stubOrderReads) ListByShop(ctx context.Context, shopID string, limit *int) ([]domain.Order, error) {
	if s.listByShopFn == nil {
		return nil, nil
	}
	return s.listByShopFn(ctx, shopID, limit)
}

type stubSelector struct {
	fn func(ctx context.Context, lat, lon float64) ([]dispatch.Candidate, error)
}

func (s *stubSelector) SelectNearby(ctx context.Context, lat, lon float64) ([]dispatch.Candidate, error) {
	if s.fn == nil {
		return nil, nil
	}
	return s.fn(ctx, lat, lon)
}

func testOrder(status domain.ShopOrderStatus) *domain.Order {
	return &domain.Order{
		ID:         testOrderID,
		CustomerID: "cust-1",
		Address:    domain.Address{Text: "home", Latitude: 17.4010, Longitude: 78.4600},
		ShopOrders: []domain.ShopOrder{{
			ID:      testShopOrderID,
			OrderID: testOrderID,
			ShopID:  testShopID,
			ShopLat: 17.4250,
			ShopLon: 78.4500,
			Status:  status,
		}},
	}
}

func newService(tx *stubTx, reads *stubOrderReads, sel *stubSelector) *orders.Service {
	return orders.NewService(orders.Deps{
		Repo:     &stubRunner{tx: tx},
		Orders:   reads,
		Selector: sel,
	}, 3*time.Second)
}

func readsFor(status domain.ShopOrderStatus) *stubOrderReads {
	return &stubOrderReads{getFn: func(context.Context, string) (*domain.Order, error) {
		return testOrder(status), nil
	}}
}

func txFor(status domain.ShopOrderStatus) *stubTx {
	return &stubTx{getShopOrderFn: func(context.Context, string, string) (*domain.ShopOrder, error) {
		so := testOrder(status).ShopOrders[0]
		return &so, nil
	}}
}

func TestSetStatus_ForwardTransition(t *testing.T) {
	t.Parallel()

	var updated domain.ShopOrderStatus
	tx := txFor(domain.StatusPending)
	tx.updateStatusFn = func(_ context.Context, _ string, status domain.ShopOrderStatus) error {
		updated = status
		return nil
	}

	svc := newService(tx, readsFor(domain.StatusPending), &stubSelector{})

	res, err := svc.SetStatus(context.Background(), testOrderID, testShopOrderID, domain.StatusConfirmed)
	require.NoError(t, err)
	require.Equal(t, domain.StatusConfirmed, res.ShopOrder.Status)
	require.Equal(t, domain.StatusConfirmed, updated)
	require.Empty(t, res.Otp)
	require.Nil(t, res.Assignment)
}

func TestSetStatus_IllegalTransition(t *testing.T) {
	t.Parallel()

	svc := newService(txFor(domain.StatusPending), readsFor(domain.StatusPending), &stubSelector{})

	_, err := svc.SetStatus(context.Background(), testOrderID, testShopOrderID, domain.StatusOutForDelivery)
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestSetStatus_TerminalStateRejects(t *testing.T) {
	t.Parallel()

	svc := newService(txFor(domain.StatusCancelled), readsFor(domain.StatusCancelled), &stubSelector{})

	_, err := svc.SetStatus(context.Background(), testOrderID, testShopOrderID, domain.StatusCancelled)
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestSetStatus_DirectDeliveredRefused(t *testing.T) {
	t.Parallel()

	svc := newService(txFor(domain.StatusOutForDelivery), readsFor(domain.StatusOutForDelivery), &stubSelector{})

	_, err := svc.SetStatus(context.Background(), testOrderID, testShopOrderID, domain.StatusDelivered)
	require.ErrorIs(t, err, apperr.ErrOtpRequired)
}

func TestSetStatus_OutForDelivery_CreatesAssignmentAndOtp(t *testing.T) {
	t.Parallel()

	var inserted *domain.Assignment
	var otpSet string

	tx := txFor(domain.StatusPreparing)
	tx.insertAssignmentFn = func(_ context.Context, a *domain.Assignment) error {
		inserted = a
		return nil
	}
	tx.setOtpFn = func(_ context.Context, _ string, code string) error {
		otpSet = code
		return nil
	}

	sel := &stubSelector{fn: func(_ context.Context, lat, lon float64) ([]dispatch.Candidate, error) {
		require.Equal(t, 17.4250, lat)
		require.Equal(t, 78.4500, lon)
		return []dispatch.Candidate{
			{Partner: domain.DeliveryPartner{ID: "p1"}, DistanceKm: 1.2},
			{Partner: domain.DeliveryPartner{ID: "p2"}, DistanceKm: 2.4},
		}, nil
	}}

	svc := newService(tx, readsFor(domain.StatusPreparing), sel)

	res, err := svc.SetStatus(context.Background(), testOrderID, testShopOrderID, domain.StatusOutForDelivery)
	require.NoError(t, err)

	require.NotNil(t, inserted)
	require.Equal(t, domain.AssignmentBroadcasted, inserted.Status)
	require.NotNil(t, res.Assignment)
	require.Equal(t, []string{"p1", "p2"}, res.CandidateIDs)

	require.Len(t, res.Otp, 4)
	require.Equal(t, res.Otp, otpSet)
	require.Equal(t, domain.StatusOutForDelivery, res.ShopOrder.Status)
}

func TestSetStatus_OutForDelivery_NoCandidatesFailsWhole(t *testing.T) {
	t.Parallel()

	tx := txFor(domain.StatusPreparing)
	tx.updateStatusFn = func(context.Context, string, domain.ShopOrderStatus) error {
		t.Fatal("status must not change when no candidates exist")
		return nil
	}

	sel := &stubSelector{fn: func(context.Context, float64, float64) ([]dispatch.Candidate, error) {
		return nil, nil
	}}

	svc := newService(tx, readsFor(domain.StatusPreparing), sel)

	_, err := svc.SetStatus(context.Background(), testOrderID, testShopOrderID, domain.StatusOutForDelivery)
	require.ErrorIs(t, err, apperr.ErrNoPartnersAvailable)
}

func TestSetStatus_OutForDelivery_ExistingAssignmentKeepsOtp(t *testing.T) {
	t.Parallel()

	tx := &stubTx{
		getShopOrderFn: func(context.Context, string, string) (*domain.ShopOrder, error) {
			so := testOrder(domain.StatusPreparing).ShopOrders[0]
			so.DeliveryOtp = "1234"
			return &so, nil
		},
		activeByShopOrderFn: func(context.Context, string) (*domain.Assignment, error) {
			return &domain.Assignment{ID: "a-1", Status: domain.AssignmentAssigned, AssignedTo: "p1"}, nil
		},
		setOtpFn: func(context.Context, string, string) error {
			t.Fatal("otp must be issued once")
			return nil
		},
		insertAssignmentFn: func(context.Context, *domain.Assignment) error {
			t.Fatal("existing assignment must be reused")
			return nil
		},
	}

	svc := newService(tx, readsFor(domain.StatusPreparing), &stubSelector{})

	res, err := svc.SetStatus(context.Background(), testOrderID, testShopOrderID, domain.StatusOutForDelivery)
	require.NoError(t, err)
	require.Empty(t, res.Otp)
	require.Nil(t, res.Assignment)
}

func TestSetStatusByShop_ResolvesShopOrder(t *testing.T) {
	t.Parallel()

	var updated domain.ShopOrderStatus
	tx := txFor(domain.StatusConfirmed)
	tx.updateStatusFn = func(_ context.Context, shopOrderID string, status domain.ShopOrderStatus) error {
		require.Equal(t, testShopOrderID, shopOrderID)
		updated = status
		return nil
	}

	svc := newService(tx, readsFor(domain.StatusConfirmed), &stubSelector{})

	res, err := svc.SetStatusByShop(context.Background(), testOrderID, testShopID, domain.StatusPreparing)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPreparing, updated)
	require.Equal(t, domain.StatusPreparing, res.ShopOrder.Status)
}

func TestSetStatusByShop_UnknownShop(t *testing.T) {
	t.Parallel()

	svc := newService(txFor(domain.StatusConfirmed), readsFor(domain.StatusConfirmed), &stubSelector{})

	_, err := svc.SetStatusByShop(context.Background(), testOrderID, "shop-unknown", domain.StatusPreparing)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func deliveringTx(otpCode string) *stubTx {
	return &stubTx{
		getShopOrderFn: func(context.Context, string, string) (*domain.ShopOrder, error) {
			so := testOrder(domain.StatusOutForDelivery).ShopOrders[0]
			so.DeliveryOtp = otpCode
			return &so, nil
		},
	}
}

func TestVerifyOtp_Success(t *testing.T) {
	t.Parallel()

	var cleared bool
	var completedAssignment string
	var partnerStatus domain.PartnerStatus

	tx := deliveringTx("0042")
	tx.clearOtpFn = func(context.Context, string) error {
		cleared = true
		return nil
	}
	tx.activeByShopOrderFn = func(context.Context, string) (*domain.Assignment, error) {
		return &domain.Assignment{ID: "a-1", Status: domain.AssignmentAssigned, AssignedTo: "p1"}, nil
	}
	tx.completeFn = func(_ context.Context, assignmentID string, _ time.Time) error {
		completedAssignment = assignmentID
		return nil
	}
	tx.updatePartnerFn = func(_ context.Context, _ string, status domain.PartnerStatus) error {
		partnerStatus = status
		return nil
	}

	svc := newService(tx, readsFor(domain.StatusOutForDelivery), &stubSelector{})

	res, err := svc.VerifyOtp(context.Background(), testOrderID, testShopOrderID, "0042")
	require.NoError(t, err)

	require.Equal(t, domain.StatusDelivered, res.ShopOrder.Status)
	require.Empty(t, res.ShopOrder.DeliveryOtp)
	require.True(t, cleared)
	require.Equal(t, "a-1", completedAssignment)
	require.Equal(t, domain.PartnerAvailable, partnerStatus)
	require.NotNil(t, res.Assignment)
	require.Equal(t, domain.AssignmentCompleted, res.Assignment.Status)
}

func TestVerifyOtp_WrongCodeChangesNothing(t *testing.T) {
	t.Parallel()

	rejected := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_otp_rejected"})

	tx := deliveringTx("0042")
	tx.updateStatusFn = func(context.Context, string, domain.ShopOrderStatus) error {
		t.Fatal("wrong otp must not change the status")
		return nil
	}
	tx.clearOtpFn = func(context.Context, string) error {
		t.Fatal("wrong otp must not clear the code")
		return nil
	}

	svc := orders.NewService(orders.Deps{
		Repo:             &stubRunner{tx: tx},
		Orders:           readsFor(domain.StatusOutForDelivery),
		Selector:         &stubSelector{},
		OtpRejectedTotal: rejected,
	}, 3*time.Second)

	_, err := svc.VerifyOtp(context.Background(), testOrderID, testShopOrderID, "9999")
	require.ErrorIs(t, err, apperr.ErrInvalidOtp)
	require.Equal(t, float64(1), testutil.ToFloat64(rejected))
}

func TestVerifyOtp_AlreadyDelivered(t *testing.T) {
	t.Parallel()

	svc := newService(txFor(domain.StatusDelivered), readsFor(domain.StatusDelivered), &stubSelector{})

	_, err := svc.VerifyOtp(context.Background(), testOrderID, testShopOrderID, "0042")
	require.ErrorIs(t, err, apperr.ErrAlreadyDelivered)
}

func TestVerifyOtp_NotOutForDelivery(t *testing.T) {
	t.Parallel()

	svc := newService(txFor(domain.StatusPreparing), readsFor(domain.StatusPreparing), &stubSelector{})

	_, err := svc.VerifyOtp(context.Background(), testOrderID, testShopOrderID, "0042")
	require.ErrorIs(t, err, apperr.ErrOtpRequired)
}

func TestVerifyOtp_EmptyInput(t *testing.T) {
	t.Parallel()

	svc := newService(&stubTx{}, &stubOrderReads{}, &stubSelector{})

	_, err := svc.VerifyOtp(context.Background(), testOrderID, testShopOrderID, " ")
	require.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestListByCustomer_PassesLimit(t *testing.T) {
	t.Parallel()

	limit := 5
	reads := &stubOrderReads{listFn: func(_ context.Context, customerID string, got *int) ([]domain.Order, error) {
		require.Equal(t, "cust-1", customerID)
		require.Equal(t, &limit, got)
		return []domain.Order{*testOrder(domain.StatusPending)}, nil
	}}

	svc := newService(&stubTx{}, reads, &stubSelector{})

	list, err := svc.ListByCustomer(context.Background(), "cust-1", &limit)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestListByShop(t *testing.T) {
	t.Parallel()

	reads := &stubOrderReads{listByShopFn: func(_ context.Context, shopID string, limit *int) ([]domain.Order, error) {
		require.Equal(t, testShopID, shopID)
		require.Nil(t, limit)
		return []domain.Order{*testOrder(domain.StatusConfirmed)}, nil
	}}

	svc := newService(&stubTx{}, reads, &stubSelector{})

	list, err := svc.ListByShop(context.Background(), testShopID, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = svc.ListByShop(context.Background(), "  ", nil)
	require.ErrorIs(t, err, apperr.ErrInvalid)
}
