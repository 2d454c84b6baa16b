package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"delivery-dispatch/internal/apperr"
	"delivery-dispatch/internal/domain"
	"delivery-dispatch/internal/geo"
	"delivery-dispatch/internal/logx"
	"delivery-dispatch/internal/otp"
	"delivery-dispatch/internal/ports/ordertx"
	"delivery-dispatch/internal/service/dispatch"
)

// Service drives the shop order status machine and the delivery OTP gate.
type Service struct {
	repo             txRunner
	orders           orderReads
	selector         candidateSelector
	notifier         dispatch.Notifier
	generateOtp      func() (string, error)
	logger           logx.Logger
	operationTimeout time.Duration
	now              func() time.Time

	otpRejectedTotal prometheus.Counter
}

// Deps bundles the Service dependencies.
type Deps struct {
	Repo     txRunner
	Orders   orderReads
	Selector candidateSelector
	Notifier dispatch.Notifier
	Logger   logx.Logger

	OtpRejectedTotal prometheus.Counter
}

// NewService creates an orders Service.
func NewService(d Deps, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if d.Logger == nil {
		d.Logger = logx.Nop()
	}
	if d.Notifier == nil {
		d.Notifier = dispatch.NopNotifier{}
	}
	return &Service{
		repo:             d.Repo,
		orders:           d.Orders,
		selector:         d.Selector,
		notifier:         d.Notifier,
		generateOtp:      otp.Generate,
		logger:           d.Logger,
		operationTimeout: timeout,
		now:              func() time.Time { return time.Now().UTC() },
		otpRejectedTotal: d.OtpRejectedTotal,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// StatusResult is the outcome of a status transition.
type StatusResult struct {
	ShopOrder domain.ShopOrder
	// Otp is set only when the transition issued a fresh delivery code.
	// Exposed to the customer, never to the delivery partner.
	Otp string
	// Assignment is set when the transition broadcasted a new assignment.
	Assignment   *domain.Assignment
	CandidateIDs []string
}

// SetStatus moves a shop order along the status machine. Entering
// OUT_FOR_DELIVERY issues the delivery code once and requires an active
// assignment to exist or to be created here; when zero candidates are
// eligible the whole transition fails and the status stays put. Entering
// DELIVERED directly is refused: that edge belongs to VerifyOtp.
func (s *Service) SetStatus(ctx context.Context, orderID, shopOrderID string, newStatus domain.ShopOrderStatus) (StatusResult, error) {
	orderID = strings.TrimSpace(orderID)
	shopOrderID = strings.TrimSpace(shopOrderID)
	if orderID == "" || shopOrderID == "" || !newStatus.Valid() {
		return StatusResult{}, apperr.ErrInvalid
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ord, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return StatusResult{}, err
	}
	if ord == nil {
		return StatusResult{}, apperr.ErrNotFound
	}

	var result StatusResult
	err = s.repo.WithTx(ctx, func(tx ordertx.Repository) error {
		so, err := tx.GetShopOrderForUpdate(ctx, orderID, shopOrderID)
		if err != nil {
			return err
		}
		if so == nil {
			return apperr.ErrNotFound
		}
		if !so.Status.CanTransition(newStatus) {
			return apperr.ErrInvalidTransition
		}
		if newStatus == domain.StatusDelivered {
			return apperr.ErrOtpRequired
		}

		result = StatusResult{ShopOrder: *so}

		if newStatus == domain.StatusOutForDelivery {
			if err := s.enterOutForDelivery(ctx, tx, ord, so, &result); err != nil {
				return err
			}
		}

		if err := tx.UpdateShopOrderStatus(ctx, so.ID, newStatus); err != nil {
			return err
		}
		result.ShopOrder.Status = newStatus
		return nil
	})
	if err != nil {
		return StatusResult{}, err
	}

	if result.Assignment != nil {
		if err := s.notifier.OfferCreated(ctx, *result.Assignment, result.CandidateIDs); err != nil {
			s.logger.Warn("offer notification failed",
				logx.String("assignment_id", result.Assignment.ID),
				logx.Any("err", err),
			)
		}
	}
	s.logger.Info("shop order status changed",
		logx.String("event", "shop_order_status_changed"),
		logx.String("order_id", orderID),
		logx.String("shop_order_id", shopOrderID),
		logx.String("status", string(newStatus)),
	)

	return result, nil
}

// enterOutForDelivery covers the side effects of the OUT_FOR_DELIVERY edge:
// at most one assignment per shop order, OTP issued exactly once.
func (s *Service) enterOutForDelivery(ctx context.Context, tx ordertx.Repository, ord *domain.Order, so *domain.ShopOrder, result *StatusResult) error {
	active, err := tx.ActiveAssignmentByShopOrder(ctx, so.ID)
	if err != nil {
		return err
	}
	if active == nil {
		cands, err := s.selector.SelectNearby(ctx, so.ShopLat, so.ShopLon)
		if err != nil {
			return err
		}
		if len(cands) == 0 {
			return apperr.ErrNoPartnersAvailable
		}

		a := &domain.Assignment{
			ID:          uuid.NewString(),
			OrderID:     ord.ID,
			ShopID:      so.ShopID,
			ShopOrderID: so.ID,
			Status:      domain.AssignmentBroadcasted,
			DistanceKm:  geo.RoundKm(geo.HaversineKm(so.ShopLat, so.ShopLon, ord.Address.Latitude, ord.Address.Longitude)),
			CreatedAt:   s.now(),
		}
		if err := tx.InsertAssignment(ctx, a); err != nil {
			return err
		}
		if err := tx.SetShopOrderAssignment(ctx, so.ID, a.ID); err != nil {
			return err
		}

		ids := make([]string, 0, len(cands))
		for _, c := range cands {
			ids = append(ids, c.Partner.ID)
		}
		result.Assignment = a
		result.CandidateIDs = ids
		result.ShopOrder.AssignmentID = &a.ID
	}

	if so.DeliveryOtp == "" {
		code, err := s.generateOtp()
		if err != nil {
			return err
		}
		if err := tx.SetShopOrderOtp(ctx, so.ID, code); err != nil {
			return err
		}
		result.Otp = code
		result.ShopOrder.DeliveryOtp = code
	}
	return nil
}

// SetStatusByShop resolves the shop order of (orderID, shopID) and applies
// the transition. Backs the owner-facing status route.
func (s *Service) SetStatusByShop(ctx context.Context, orderID, shopID string, newStatus domain.ShopOrderStatus) (StatusResult, error) {
	orderID = strings.TrimSpace(orderID)
	shopID = strings.TrimSpace(shopID)
	if orderID == "" || shopID == "" {
		return StatusResult{}, apperr.ErrInvalid
	}

	ord, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return StatusResult{}, err
	}
	if ord == nil {
		return StatusResult{}, apperr.ErrNotFound
	}
	for i := range ord.ShopOrders {
		if ord.ShopOrders[i].ShopID == shopID {
			return s.SetStatus(ctx, orderID, ord.ShopOrders[i].ID, newStatus)
		}
	}
	return StatusResult{}, apperr.ErrNotFound
}

// VerifyResult is the outcome of a successful OTP verification.
type VerifyResult struct {
	ShopOrder  domain.ShopOrder
	Assignment *domain.Assignment
}

// VerifyOtp gates the handoff: on a matching code the shop order becomes
// DELIVERED, the code is invalidated and the assignment completes. A
// mismatch changes nothing; a repeat after success fails AlreadyDelivered.
func (s *Service) VerifyOtp(ctx context.Context, orderID, shopOrderID, submitted string) (VerifyResult, error) {
	orderID = strings.TrimSpace(orderID)
	shopOrderID = strings.TrimSpace(shopOrderID)
	submitted = strings.TrimSpace(submitted)
	if orderID == "" || shopOrderID == "" || submitted == "" {
		return VerifyResult{}, apperr.ErrInvalid
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var result VerifyResult
	err := s.repo.WithTx(ctx, func(tx ordertx.Repository) error {
		so, err := tx.GetShopOrderForUpdate(ctx, orderID, shopOrderID)
		if err != nil {
			return err
		}
		if so == nil {
			return apperr.ErrNotFound
		}
		if so.Status == domain.StatusDelivered {
			return apperr.ErrAlreadyDelivered
		}
		if so.Status != domain.StatusOutForDelivery || so.DeliveryOtp == "" {
			return apperr.ErrOtpRequired
		}
		if !otp.Match(so.DeliveryOtp, submitted) {
			return apperr.ErrInvalidOtp
		}

		if err := tx.UpdateShopOrderStatus(ctx, so.ID, domain.StatusDelivered); err != nil {
			return err
		}
		if err := tx.ClearShopOrderOtp(ctx, so.ID); err != nil {
			return err
		}

		result.ShopOrder = *so
		result.ShopOrder.Status = domain.StatusDelivered
		result.ShopOrder.DeliveryOtp = ""

		a, err := tx.ActiveAssignmentByShopOrder(ctx, so.ID)
		if err != nil {
			return err
		}
		if a != nil && a.Status == domain.AssignmentAssigned {
			now := s.now()
			if err := tx.CompleteAssignment(ctx, a.ID, now); err != nil {
				return err
			}
			if err := tx.UpdatePartnerStatus(ctx, a.AssignedTo, domain.PartnerAvailable); err != nil {
				return err
			}
			completed := *a
			completed.Status = domain.AssignmentCompleted
			completed.CompletedAt = &now
			result.Assignment = &completed
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidOtp) && s.otpRejectedTotal != nil {
			s.otpRejectedTotal.Inc()
		}
		return VerifyResult{}, err
	}

	s.logger.Info("delivery confirmed",
		logx.String("event", "delivery_confirmed"),
		logx.String("order_id", orderID),
		logx.String("shop_order_id", shopOrderID),
	)
	return result, nil
}

// Get returns an order by id.
func (s *Service) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	ord, err := s.orders.Get(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, apperr.ErrNotFound
	}
	return ord, nil
}

// ListByCustomer returns a customer's orders, newest first.
func (s *Service) ListByCustomer(ctx context.Context, customerID string, limit *int) ([]domain.Order, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, apperr.ErrInvalid
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.orders.ListByCustomer(ctx, customerID, limit)
}

// ListByShop returns orders that include a given shop, newest first. Backs
// the owner dashboard.
func (s *Service) ListByShop(ctx context.Context, shopID string, limit *int) ([]domain.Order, error) {
	shopID = strings.TrimSpace(shopID)
	if shopID == "" {
		return nil, apperr.ErrInvalid
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.orders.ListByShop(ctx, shopID, limit)
}
