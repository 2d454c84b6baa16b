package dispatch

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
	"delivery-dispatch/internal/ports/ordertx"
)

// Service is the assignment broadcaster and acceptance arbiter.
type Service struct {
	repo             txRunner
	orders           orderReads
	assignments      assignmentReads
	partners         partnerSource
	locations        locationReads
	selector         *Selector
	notifier         Notifier
	logger           logx.Logger
	operationTimeout time.Duration
	now              func() time.Time

	broadcastsTotal      prometheus.Counter
	acceptConflictsTotal prometheus.Counter
}

// Deps bundles the Service dependencies.
type Deps struct {
	Repo        txRunner
	Orders      orderReads
	Assignments assignmentReads
	Partners    partnerSource
	Locations   locationReads
	Selector    *Selector
	Notifier    Notifier
	Logger      logx.Logger

	BroadcastsTotal      prometheus.Counter
	AcceptConflictsTotal prometheus.Counter
}

// NewService creates a dispatch Service.
func NewService(d Deps, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if d.Logger == nil {
		d.Logger = logx.Nop()
	}
	if d.Notifier == nil {
		d.Notifier = NopNotifier{}
	}
	return &Service{
		repo:                 d.Repo,
		orders:               d.Orders,
		assignments:          d.Assignments,
		partners:             d.Partners,
		locations:            d.Locations,
		selector:             d.Selector,
		notifier:             d.Notifier,
		logger:               d.Logger,
		operationTimeout:     timeout,
		now:                  func() time.Time { return time.Now().UTC() },
		broadcastsTotal:      d.BroadcastsTotal,
		acceptConflictsTotal: d.AcceptConflictsTotal,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// BroadcastResult is the outcome of a successful broadcast.
type BroadcastResult struct {
	Assignment   domain.Assignment
	CandidateIDs []string
}

// Broadcast creates a broadcasted assignment for the shop order of
// (orderID, shopID). With an empty partner list it auto-selects nearby
// available partners; an explicit list is validated for availability.
// It never mutates the shop order status.
func (s *Service) Broadcast(ctx context.Context, orderID, shopID string, partnerIDs []string) (BroadcastResult, error) {
	orderID = strings.TrimSpace(orderID)
	shopID = strings.TrimSpace(shopID)
	if orderID == "" || shopID == "" {
		return BroadcastResult{}, apperr.ErrInvalid
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ord, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return BroadcastResult{}, err
	}
	if ord == nil {
		return BroadcastResult{}, apperr.ErrNotFound
	}

	var result BroadcastResult
	err = s.repo.WithTx(ctx, func(tx ordertx.Repository) error {
		so, err := tx.GetShopOrderByShopForUpdate(ctx, orderID, shopID)
		if err != nil {
			return err
		}
		if so == nil {
			return apperr.ErrNotFound
		}

		active, err := tx.ActiveAssignmentByShopOrder(ctx, so.ID)
		if err != nil {
			return err
		}
		if active != nil {
			return apperr.ErrAssignmentExists
		}

		candidateIDs, err := s.pickCandidates(ctx, so, partnerIDs)
		if err != nil {
			return err
		}

		a := &domain.Assignment{
			ID:          uuid.NewString(),
			OrderID:     orderID,
			ShopID:      shopID,
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

		result = BroadcastResult{Assignment: *a, CandidateIDs: candidateIDs}
		return nil
	})
	if err != nil {
		return BroadcastResult{}, err
	}

	if s.broadcastsTotal != nil {
		s.broadcastsTotal.Inc()
	}
	if err := s.notifier.OfferCreated(ctx, result.Assignment, result.CandidateIDs); err != nil {
		s.logger.Warn("offer notification failed",
			logx.String("assignment_id", result.Assignment.ID),
			logx.Any("err", err),
		)
	}
	s.logger.Info("assignment broadcasted",
		logx.String("event", "assignment_broadcasted"),
		logx.String("assignment_id", result.Assignment.ID),
		logx.String("order_id", orderID),
		logx.String("shop_id", shopID),
		logx.Int("candidates", len(result.CandidateIDs)),
	)

	return result, nil
}

func (s *Service) pickCandidates(ctx context.Context, so *domain.ShopOrder, explicit []string) ([]string, error) {
	if len(explicit) > 0 {
		partners, err := s.partners.GetMany(ctx, explicit)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(partners))
		for _, p := range partners {
			if p.Status == domain.PartnerAvailable {
				ids = append(ids, p.ID)
			}
		}
		if len(ids) == 0 {
			return nil, apperr.ErrNoPartnersAvailable
		}
		return ids, nil
	}

	cands, err := s.selector.SelectNearby(ctx, so.ShopLat, so.ShopLon)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, apperr.ErrNoPartnersAvailable
	}
	ids := make([]string, 0, len(cands))
	for _, c := range cands {
		ids = append(ids, c.Partner.ID)
	}
	return ids, nil
}

// Accept resolves an acceptance attempt. Exactly one caller wins per
// assignment; everyone else gets ErrAssignmentTaken.
func (s *Service) Accept(ctx context.Context, assignmentID, partnerID string) (domain.Assignment, error) {
	assignmentID = strings.TrimSpace(assignmentID)
	partnerID = strings.TrimSpace(partnerID)
	if assignmentID == "" || partnerID == "" {
		return domain.Assignment{}, apperr.ErrInvalid
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var result domain.Assignment
	err := s.repo.WithTx(ctx, func(tx ordertx.Repository) error {
		a, err := tx.GetAssignment(ctx, assignmentID)
		if err != nil {
			return err
		}
		if a == nil {
			return apperr.ErrNotFound
		}
		if a.Status != domain.AssignmentBroadcasted {
			return apperr.ErrAssignmentTaken
		}

		now := s.now()
		ok, err := tx.AcceptAssignment(ctx, assignmentID, partnerID, now)
		if err != nil {
			return err
		}
		if !ok {
			// raced between the read above and the conditional update
			return apperr.ErrAssignmentTaken
		}
		if err := tx.UpdatePartnerStatus(ctx, partnerID, domain.PartnerBusy); err != nil {
			return err
		}

		result = *a
		result.Status = domain.AssignmentAssigned
		result.AssignedTo = partnerID
		result.AcceptedAt = &now
		return nil
	})
	if err != nil {
		if errors.Is(err, apperr.ErrAssignmentTaken) && s.acceptConflictsTotal != nil {
			s.acceptConflictsTotal.Inc()
		}
		return domain.Assignment{}, err
	}

	s.logger.Info("assignment accepted",
		logx.String("event", "assignment_accepted"),
		logx.String("assignment_id", result.ID),
		logx.String("partner_id", partnerID),
	)
	return result, nil
}

// Complete finalizes an accepted assignment. Only reachable once the shop
// order was delivered through OTP verification; a direct call beforehand
// fails with ErrOtpRequired. Completing twice is an idempotent ack.
func (s *Service) Complete(ctx context.Context, assignmentID string) (domain.Assignment, error) {
	assignmentID = strings.TrimSpace(assignmentID)
	if assignmentID == "" {
		return domain.Assignment{}, apperr.ErrInvalid
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var result domain.Assignment
	err := s.repo.WithTx(ctx, func(tx ordertx.Repository) error {
		a, err := tx.GetAssignment(ctx, assignmentID)
		if err != nil {
			return err
		}
		if a == nil {
			return apperr.ErrNotFound
		}
		if a.Status == domain.AssignmentCompleted {
			result = *a
			return nil
		}
		if a.Status != domain.AssignmentAssigned {
			return apperr.ErrOtpRequired
		}

		so, err := tx.GetShopOrderForUpdate(ctx, a.OrderID, a.ShopOrderID)
		if err != nil {
			return err
		}
		if so == nil {
			return apperr.ErrNotFound
		}
		if so.Status != domain.StatusDelivered {
			return apperr.ErrOtpRequired
		}

		now := s.now()
		if err := tx.CompleteAssignment(ctx, a.ID, now); err != nil {
			return err
		}
		if err := tx.UpdatePartnerStatus(ctx, a.AssignedTo, domain.PartnerAvailable); err != nil {
			return err
		}

		result = *a
		result.Status = domain.AssignmentCompleted
		result.CompletedAt = &now
		return nil
	})
	if err != nil {
		return domain.Assignment{}, err
	}
	return result, nil
}

// MyAssignments returns the open offers visible to a partner plus the
// assignments the partner currently holds. Offers are filtered by the
// partner's own distance to the shop when a location sample exists;
// without one, every open offer is shown.
func (s *Service) MyAssignments(ctx context.Context, partnerID string) ([]domain.Assignment, error) {
	partnerID = strings.TrimSpace(partnerID)
	if partnerID == "" {
		return nil, apperr.ErrInvalid
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	mine, err := s.assignments.ListActiveForPartner(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	open, err := s.assignments.ListOpen(ctx)
	if err != nil {
		return nil, err
	}

	loc, err := s.locations.Get(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	out := append([]domain.Assignment(nil), mine...)
	for _, a := range open {
		if loc != nil {
			ord, err := s.orders.Get(ctx, a.OrderID)
			if err != nil {
				return nil, err
			}
			if ord == nil {
				continue
			}
			so := ord.ShopOrderByID(a.ShopOrderID)
			if so == nil {
				continue
			}
			if geo.HaversineKm(loc.Latitude, loc.Longitude, so.ShopLat, so.ShopLon) > s.selector.RadiusKm() {
				continue
			}
		}
		out = append(out, a)
	}
	return out, nil
}
